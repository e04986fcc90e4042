package graph

import "errors"

var (
	// ErrNotFound indicates an identity that is not registered in the network.
	ErrNotFound = errors.New("graph: drone not found")
	// ErrNoPath indicates both endpoints exist but no route connects them.
	ErrNoPath = errors.New("graph: no path between drones")
)
