package domain

import "strings"

// Entity names a status-bearing record type.
type Entity string

const (
	EntityRelease    Entity = "release"
	EntityWithdrawal Entity = "withdrawal"
	EntityTakedown   Entity = "takedown"
	EntityOAC        Entity = "oac"
)

// Entities lists every status-bearing entity in display order.
var Entities = []Entity{EntityRelease, EntityWithdrawal, EntityTakedown, EntityOAC}

type Status string

const (
	StatusPending           Status = "pending"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
	StatusLive              Status = "live"
	StatusTakedownRequested Status = "takedown_requested"
	StatusTakedownCompleted Status = "takedown_completed"
	StatusPaid              Status = "paid"
	StatusInProcess         Status = "in_process"
	StatusCompleted         Status = "completed"
)

// legacy withdrawal value written by older admin pages
const statusProcessed = "processed"

type lifecycle struct {
	states      []Status
	transitions map[Status][]Status
}

var lifecycles = map[Entity]lifecycle{
	EntityRelease: {
		states: []Status{
			StatusPending, StatusApproved, StatusRejected,
			StatusLive, StatusTakedownRequested, StatusTakedownCompleted,
		},
		transitions: map[Status][]Status{
			StatusPending:           {StatusApproved, StatusRejected},
			StatusApproved:          {StatusLive, StatusRejected},
			StatusLive:              {StatusTakedownRequested},
			StatusTakedownRequested: {StatusTakedownCompleted, StatusLive},
		},
	},
	EntityWithdrawal: {
		states: []Status{StatusPending, StatusApproved, StatusRejected, StatusPaid},
		transitions: map[Status][]Status{
			StatusPending:  {StatusApproved, StatusRejected},
			StatusApproved: {StatusPaid, StatusRejected},
		},
	},
	EntityTakedown: requestLifecycle(),
	EntityOAC:      requestLifecycle(),
}

func requestLifecycle() lifecycle {
	return lifecycle{
		states: []Status{StatusPending, StatusInProcess, StatusApproved, StatusRejected, StatusCompleted},
		transitions: map[Status][]Status{
			StatusPending:   {StatusInProcess, StatusApproved, StatusRejected},
			StatusInProcess: {StatusApproved, StatusRejected, StatusCompleted},
			StatusApproved:  {StatusCompleted},
		},
	}
}

// ParseEntity accepts the canonical name plus the plural route forms.
func ParseEntity(s string) (Entity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "release", "releases":
		return EntityRelease, nil
	case "withdrawal", "withdrawals", "withdrawal_request", "withdrawal_requests":
		return EntityWithdrawal, nil
	case "takedown", "takedowns", "takedown_request", "takedown_requests":
		return EntityTakedown, nil
	case "oac", "oac_request", "oac_requests", "oac-requests":
		return EntityOAC, nil
	}
	return "", ErrInvalidEntity
}

// ParseStatus validates s against the entity's enum.
func ParseStatus(e Entity, s string) (Status, error) {
	lc, ok := lifecycles[e]
	if !ok {
		return "", ErrInvalidEntity
	}
	v := strings.ToLower(strings.TrimSpace(s))
	if e == EntityWithdrawal && v == statusProcessed {
		v = string(StatusPaid)
	}
	for _, st := range lc.states {
		if string(st) == v {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// Options returns the entity's full status enum in lifecycle order.
func Options(e Entity) []Status {
	lc, ok := lifecycles[e]
	if !ok {
		return nil
	}
	out := make([]Status, len(lc.states))
	copy(out, lc.states)
	return out
}

// AllowedFrom lists the statuses reachable in one step from the given status.
func AllowedFrom(e Entity, from Status) []Status {
	lc, ok := lifecycles[e]
	if !ok {
		return nil
	}
	next := lc.transitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

func CanTransition(e Entity, from, to Status) bool {
	for _, st := range AllowedFrom(e, from) {
		if st == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the status.
func IsTerminal(e Entity, s Status) bool {
	return len(AllowedFrom(e, s)) == 0
}

// RequiresNote reports whether moving to the status needs an admin note.
func RequiresNote(to Status) bool {
	return to == StatusRejected
}
