// Package command is the operator surface of the simulation: find, destroy,
// control, release and path queries keyed by drone identity, with text
// parsing at the boundary and categorised results.
package command

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/paulmach/orb"

	"github.com/TFMV/dronenet/graph"
	"github.com/TFMV/dronenet/models"
	"github.com/TFMV/dronenet/physics"
)

// ErrUnknownCommand is reported for text commands Exec does not recognise.
var ErrUnknownCommand = errors.New("command: unknown command")

// Session serialises operator commands and simulation steps over one flock
// and its two networks.
type Session struct {
	mu sync.Mutex

	sim      *physics.Simulation
	networks []*graph.Network
	logger   *slog.Logger

	current    *graph.Network // selected by the last successful find
	controlled *models.Drone
}

// NewSession creates a session. Networks are searched in the order given.
func NewSession(sim *physics.Simulation, logger *slog.Logger, networks ...*graph.Network) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{sim: sim, networks: networks, logger: logger}
}

// Step advances the simulation by dt under the session lock
func (s *Session) Step(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sim.Step(dt)
}

// Find looks the drone up in each network and selects the network it belongs to.
func (s *Session) Find(input string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := parseID(input)
	if err != nil {
		s.current = nil
		return invalid(err)
	}
	for _, net := range s.networks {
		d, err := net.Search(id)
		if err != nil {
			continue
		}
		s.current = net
		s.logger.Debug("drone found", "id", id, "network", net.Tag)
		return Result{Kind: KindFound, ID: id, Network: net.Tag, Drone: copyDrone(d)}
	}
	s.current = nil
	return Result{Kind: KindNotFound, ID: id}
}

// Destroy removes the drone from every network and deactivates it.
// Destroying an unknown or already destroyed drone is not an error.
func (s *Session) Destroy(input string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := parseID(input)
	if err != nil {
		return invalid(err)
	}
	for _, net := range s.networks {
		net.RemoveNode(id)
	}
	if s.controlled != nil && s.controlled.ID == id {
		s.controlled = nil
	}
	if s.sim.Destroy(id) {
		s.logger.Info("drone destroyed", "id", id)
	}
	return Result{Kind: KindDestroyed, ID: id}
}

// Control puts a drone of the selected network under manual control,
// releasing any drone controlled before.
func (s *Session) Control(input string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := parseID(input)
	if err != nil {
		return invalid(err)
	}
	if s.current == nil {
		return Result{Kind: KindInvalidState, ID: id}
	}
	d, err := s.current.Search(id)
	if err != nil {
		return Result{Kind: KindNotFound, ID: id, Network: s.current.Tag}
	}
	if s.controlled != nil && s.controlled.ID != id {
		s.sim.Flock.SetControlled(s.controlled.ID, false)
	}
	s.sim.Flock.SetControlled(id, true)
	s.controlled = d
	s.logger.Info("drone under control", "id", id, "network", s.current.Tag)
	return Result{Kind: KindUnderControl, ID: id, Network: s.current.Tag}
}

// Release hands the controlled drone back to the flock
func (s *Session) Release() Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.controlled == nil {
		return Result{Kind: KindNoneUnderControl}
	}
	id := s.controlled.ID
	s.sim.Flock.SetControlled(id, false)
	s.controlled = nil
	s.logger.Info("drone released", "id", id)
	return Result{Kind: KindReleased, ID: id}
}

// FindPath returns the shortest route between two drones in the network
// that holds the start drone.
func (s *Session) FindPath(startInput, endInput string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	start, err := parseID(startInput)
	if err != nil {
		return invalid(err)
	}
	end, err := parseID(endInput)
	if err != nil {
		return invalid(err)
	}

	net := s.networkOf(start)
	if net == nil {
		return Result{Kind: KindNoPath, Message: fmt.Sprintf("drone %d is in no network", start)}
	}
	path, err := net.ShortestPath(start, end)
	if err != nil {
		return Result{Kind: KindNoPath, Network: net.Tag, Message: err.Error()}
	}
	return Result{Kind: KindPath, Network: net.Tag, Path: path}
}

// Move sets the directional input held for the controlled drone
func (s *Session) Move(dxInput, dyInput string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	dx, err := strconv.ParseFloat(strings.TrimSpace(dxInput), 64)
	if err != nil {
		return invalid(fmt.Errorf("invalid dx %q", dxInput))
	}
	dy, err := strconv.ParseFloat(strings.TrimSpace(dyInput), 64)
	if err != nil {
		return invalid(fmt.Errorf("invalid dy %q", dyInput))
	}
	if s.controlled == nil {
		return Result{Kind: KindNoneUnderControl}
	}
	s.sim.Flock.SetManualInput(s.controlled.ID, orb.Point{dx, dy})
	return Result{Kind: KindMoving, ID: s.controlled.ID, Message: fmt.Sprintf("moving (%g, %g)", dx, dy)}
}

// Status summarises the simulation
func (s *Session) Status() Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := []string{fmt.Sprintf("tick %d", s.sim.Flock.Ticks()), fmt.Sprintf("active %d", len(s.sim.Flock.Active()))}
	for _, net := range s.networks {
		parts = append(parts, fmt.Sprintf("%s %d drones/%d links", net.Tag, net.Len(), net.EdgeCount()))
	}
	if s.controlled != nil {
		parts = append(parts, fmt.Sprintf("controlling %d", s.controlled.ID))
	}
	return Result{Kind: KindStatus, Message: strings.Join(parts, ", ")}
}

// View runs fn with the session locked so callers can read a consistent state.
func (s *Session) View(fn func(flock *physics.Flock, networks []*graph.Network)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.sim.Flock, s.networks)
}

func (s *Session) networkOf(id int64) *graph.Network {
	for _, net := range s.networks {
		if net.Contains(id) {
			return net
		}
	}
	return nil
}

func parseID(input string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid drone id %q", input)
	}
	return id, nil
}

func invalid(err error) Result {
	return Result{Kind: KindInvalidInput, Message: err.Error()}
}

func copyDrone(d *models.Drone) *models.Drone {
	c := *d
	return &c
}
