package command

import (
	"fmt"
	"strings"
)

const helpText = `commands:
  find <id>           locate a drone and select its network
  destroy <id>        remove a drone from its network and the flock
  control <id>        take manual control of a drone in the selected network
  move <dx> <dy>      steer the controlled drone
  release             hand the controlled drone back to the flock
  path <start> <end>  shortest route between two drones
  status              simulation summary`

// Exec parses and runs one text command such as "find 12" or "path 3 7".
func (s *Session) Exec(line string) Result {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return invalid(fmt.Errorf("%w: empty line", ErrUnknownCommand))
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	want := map[string]int{
		"find": 1, "destroy": 1, "control": 1, "release": 0,
		"path": 2, "move": 2, "status": 0, "help": 0,
	}
	n, ok := want[name]
	if !ok {
		return invalid(fmt.Errorf("%w: %s", ErrUnknownCommand, name))
	}
	if len(args) != n {
		return invalid(fmt.Errorf("%s takes %d argument(s), got %d", name, n, len(args)))
	}

	switch name {
	case "find":
		return s.Find(args[0])
	case "destroy":
		return s.Destroy(args[0])
	case "control":
		return s.Control(args[0])
	case "release":
		return s.Release()
	case "path":
		return s.FindPath(args[0], args[1])
	case "move":
		return s.Move(args[0], args[1])
	case "status":
		return s.Status()
	default:
		return Result{Kind: KindHelp, Message: helpText}
	}
}
