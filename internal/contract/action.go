package contract

import "fmt"

// Action is the closed set of POST actions the data API accepts. Free-form
// strings are rejected at the boundary with a typed error instead of
// falling through.
type Action string

const (
	ActionConfirm Action = "confirm"
)

type UnknownActionError struct {
	Value string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Value)
}

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionConfirm:
		return ActionConfirm, nil
	default:
		return "", &UnknownActionError{Value: s}
	}
}
