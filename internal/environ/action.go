package environ

import "fmt"

// Action is the trader's intent for the next bar. It is idempotent: asking to
// hold while already long, or to be empty while flat, changes nothing but the
// reward.
type Action int

const (
	ActionHold Action = iota
	ActionEmpty
)

// ActionCount is the size of the discrete action space.
const ActionCount = 2

func (a Action) String() string {
	switch a {
	case ActionHold:
		return "hold"
	case ActionEmpty:
		return "empty"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	return a == ActionHold || a == ActionEmpty
}

// ActionFromIndex maps an agent's action index to an Action.
func ActionFromIndex(idx int) (Action, error) {
	a := Action(idx)
	if !a.Valid() {
		return 0, fmt.Errorf("%w: index %d", ErrInvalidAction, idx)
	}
	return a, nil
}
