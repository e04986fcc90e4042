package command

import (
	"fmt"
	"strings"

	"github.com/TFMV/dronenet/models"
)

// Kind is the category of a command outcome
type Kind string

const (
	KindFound            Kind = "found"
	KindNotFound         Kind = "not_found"
	KindInvalidInput     Kind = "invalid_input"
	KindInvalidState     Kind = "invalid_state"
	KindDestroyed        Kind = "destroyed"
	KindUnderControl     Kind = "under_control"
	KindReleased         Kind = "released"
	KindNoneUnderControl Kind = "none_under_control"
	KindPath             Kind = "path"
	KindNoPath           Kind = "no_path"
	KindMoving           Kind = "moving"
	KindStatus           Kind = "status"
	KindHelp             Kind = "help"
)

// Result is the outcome of one command. Every outcome, including bad input,
// is a Result rather than an error.
type Result struct {
	Kind    Kind          `json:"kind"`
	ID      int64         `json:"id,omitempty"`
	Network string        `json:"network,omitempty"`
	Drone   *models.Drone `json:"drone,omitempty"`
	Path    []int64       `json:"path,omitempty"`
	Message string        `json:"message,omitempty"`
}

// OK reports whether the command achieved what it asked for
func (r Result) OK() bool {
	switch r.Kind {
	case KindFound, KindDestroyed, KindUnderControl, KindReleased, KindPath, KindMoving, KindStatus, KindHelp:
		return true
	}
	return false
}

// String renders the result as the text shown to an operator
func (r Result) String() string {
	switch r.Kind {
	case KindFound:
		return fmt.Sprintf("[%s] Drone ID: %d\nPosition: (%.2f, %.2f)", r.Network, r.ID, r.Drone.Position.X(), r.Drone.Position.Y())
	case KindNotFound:
		return "Drone not found."
	case KindInvalidInput:
		if r.Message != "" {
			return "Invalid input: " + r.Message
		}
		return "Invalid input."
	case KindInvalidState:
		return "No network selected; find a drone first."
	case KindDestroyed:
		return fmt.Sprintf("Drone ID: %d destroyed.", r.ID)
	case KindUnderControl:
		return fmt.Sprintf("Drone ID: %d is now under control.", r.ID)
	case KindReleased:
		return fmt.Sprintf("Drone ID: %d control released.", r.ID)
	case KindNoneUnderControl:
		return "No drone is currently under control."
	case KindPath:
		ids := make([]string, len(r.Path))
		for i, id := range r.Path {
			ids[i] = fmt.Sprint(id)
		}
		return "Shortest Path: " + strings.Join(ids, " -> ")
	case KindNoPath:
		return "No path found between drones."
	case KindMoving:
		return fmt.Sprintf("Drone ID: %d %s", r.ID, r.Message)
	default:
		return r.Message
	}
}
