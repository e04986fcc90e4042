// Package graph implements the drone communication network: an undirected,
// identity-keyed graph over drones with breadth-first search and shortest-path
// queries.
//
// A Network never owns drone state. It keeps a reference per registered
// identity and an ordered neighbor list per identity; neighbor order is the
// order in which connections were made, which keeps traversals reproducible.
//
// Network holds no locks. Callers that share a Network between goroutines
// must serialise access themselves.
package graph

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/TFMV/dronenet/models"
)

// Network is an undirected graph over drone identities.
type Network struct {
	ID    string
	Tag   string
	Color string

	nodes map[int64]*models.Drone
	adj   map[int64][]int64
}

// NewNetwork creates an empty network labelled with tag.
func NewNetwork(tag, color string) *Network {
	return &Network{
		ID:    uuid.New().String(),
		Tag:   tag,
		Color: color,
		nodes: make(map[int64]*models.Drone),
		adj:   make(map[int64][]int64),
	}
}

// AddNode registers the drone. Registering an identity twice is a no-op.
func (n *Network) AddNode(d *models.Drone) {
	if d == nil {
		return
	}
	if _, ok := n.nodes[d.ID]; ok {
		return
	}
	n.nodes[d.ID] = d
	n.adj[d.ID] = []int64{}
}

// Connect links a and b in both directions.
// Unregistered endpoints, self loops and existing edges are ignored.
func (n *Network) Connect(a, b int64) {
	if a == b || !n.Contains(a) || !n.Contains(b) {
		return
	}
	if slices.Contains(n.adj[a], b) {
		return
	}
	n.adj[a] = append(n.adj[a], b)
	n.adj[b] = append(n.adj[b], a)
}

// GetByID returns the drone registered under id.
func (n *Network) GetByID(id int64) (*models.Drone, bool) {
	d, ok := n.nodes[id]
	return d, ok
}

// Contains reports whether id is registered.
func (n *Network) Contains(id int64) bool {
	_, ok := n.nodes[id]
	return ok
}

// Neighbors returns a copy of id's neighbor list in connection order.
func (n *Network) Neighbors(id int64) []int64 {
	return slices.Clone(n.adj[id])
}

// Connected reports whether an edge a–b exists.
func (n *Network) Connected(a, b int64) bool {
	return slices.Contains(n.adj[a], b)
}

// RemoveNode deletes id and purges it from every other neighbor list.
// Removing an unregistered id is a no-op.
func (n *Network) RemoveNode(id int64) {
	if !n.Contains(id) {
		return
	}
	delete(n.nodes, id)
	delete(n.adj, id)

	// O(V) scan; removal is rare.
	for other, nbrs := range n.adj {
		if i := slices.Index(nbrs, id); i >= 0 {
			n.adj[other] = slices.Delete(nbrs, i, i+1)
		}
	}
}

// Len returns the number of registered drones.
func (n *Network) Len() int {
	return len(n.nodes)
}

// EdgeCount returns the number of undirected edges.
func (n *Network) EdgeCount() int {
	total := 0
	for _, nbrs := range n.adj {
		total += len(nbrs)
	}
	return total / 2
}

// IDs returns the registered identities in ascending order.
func (n *Network) IDs() []int64 {
	ids := make([]int64, 0, len(n.nodes))
	for id := range n.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Drones returns the registered drones ordered by identity.
func (n *Network) Drones() []*models.Drone {
	ids := n.IDs()
	out := make([]*models.Drone, 0, len(ids))
	for _, id := range ids {
		out = append(out, n.nodes[id])
	}
	return out
}

// neighborsOf returns the live neighbor slice of id, panicking if the
// adjacency names an identity missing from the node map.
func (n *Network) neighborsOf(id int64) []int64 {
	nbrs := n.adj[id]
	for _, nbr := range nbrs {
		if _, ok := n.nodes[nbr]; !ok {
			panic(fmt.Sprintf("graph: adjacency of %d references unregistered drone %d", id, nbr))
		}
	}
	return nbrs
}
