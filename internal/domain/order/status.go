package order

import "fmt"

// Status is the kitchen fulfillment state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCooking   Status = "cooking"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions holds the forward edges of the state machine. Completed and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending: {StatusCooking, StatusCancelled},
	StatusCooking: {StatusCompleted, StatusCancelled},
}

// ParseStatus converts a wire string into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusCooking, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
// A same-status move is not a transition; callers treat it as an idempotent
// no-op before consulting this.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}
