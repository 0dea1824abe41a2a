package order

import (
	"errors"
	"fmt"
)

// Actor identifies who is driving a status transition. The closed set
// replaces role-string comparisons with something the compiler can check.
type Actor uint8

const (
	// ActorOwner is the customer the order belongs to.
	ActorOwner Actor = iota
	// ActorStaff is an operational user (sees every non-draft order).
	ActorStaff
	// ActorSystem drives internal transitions, currently only the
	// draft confirmation at the end of a guest checkout.
	ActorSystem
)

func (a Actor) String() string {
	switch a {
	case ActorOwner:
		return "owner"
	case ActorStaff:
		return "staff"
	case ActorSystem:
		return "system"
	}
	return "unknown"
}

var (
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrForbiddenTransition = errors.New("actor may not perform this transition")
	ErrUnknownStatus       = errors.New("unknown order status")
)

// ownerTransitions are the only self-service transitions. Everything else an
// owner attempts is an authorization failure, not a state error.
var ownerTransitions = map[Status][]Status{
	StatusDraft:     {StatusPending},
	StatusPending:   {StatusPending, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
}

// CanTransition validates a transition from -> to driven by actor.
//
// Staff may set any target status on any non-draft order; operational
// corrections are allowed to jump states, so no strict DAG is enforced for
// them. Draft orders are invisible to staff and cannot be touched by anyone
// but their owner or the system.
func CanTransition(from, to Status, actor Actor) error {
	if !from.IsValid() || !to.IsValid() {
		return fmt.Errorf("%w: %s -> %s", ErrUnknownStatus, from, to)
	}

	switch actor {
	case ActorStaff:
		if from == StatusDraft {
			return fmt.Errorf("%w: staff cannot modify a draft order", ErrForbiddenTransition)
		}
		return nil

	case ActorSystem:
		if from == StatusDraft && to == StatusPending {
			return nil
		}
		return fmt.Errorf("%w: system may only confirm drafts, not %s -> %s", ErrInvalidTransition, from, to)

	case ActorOwner:
		for _, allowed := range ownerTransitions[from] {
			if allowed == to {
				return nil
			}
		}
		return fmt.Errorf("%w: owner cannot move order from %s to %s", ErrForbiddenTransition, from, to)
	}

	return fmt.Errorf("%w: unrecognized actor", ErrForbiddenTransition)
}
