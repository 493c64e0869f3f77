package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestOptionsMatchDocumentedEnums(t *testing.T) {
	tests := []struct {
		entity Entity
		want   []Status
	}{
		{EntityRelease, []Status{"pending", "approved", "rejected", "live", "takedown_requested", "takedown_completed"}},
		{EntityWithdrawal, []Status{"pending", "approved", "rejected", "paid"}},
		{EntityTakedown, []Status{"pending", "in_process", "approved", "rejected", "completed"}},
		{EntityOAC, []Status{"pending", "in_process", "approved", "rejected", "completed"}},
	}
	for _, tt := range tests {
		if got := Options(tt.entity); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.entity, tt.want, got)
		}
	}
}

func TestOptionsReturnsCopy(t *testing.T) {
	opts := Options(EntityRelease)
	opts[0] = "mutated"
	if Options(EntityRelease)[0] != StatusPending {
		t.Fatal("Options must not expose the internal slice")
	}
}

func TestParseStatus(t *testing.T) {
	if st, err := ParseStatus(EntityRelease, " Approved "); err != nil || st != StatusApproved {
		t.Fatalf("expected approved, got %q %v", st, err)
	}
	if _, err := ParseStatus(EntityRelease, "paid"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for paid on release, got %v", err)
	}
	if st, err := ParseStatus(EntityWithdrawal, "processed"); err != nil || st != StatusPaid {
		t.Fatalf("expected processed to map to paid, got %q %v", st, err)
	}
	if _, err := ParseStatus(EntityTakedown, "processed"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("processed alias is withdrawal-only, got %v", err)
	}
	if _, err := ParseStatus(Entity("invoice"), "pending"); !errors.Is(err, ErrInvalidEntity) {
		t.Fatalf("expected ErrInvalidEntity, got %v", err)
	}
}

func TestParseEntity(t *testing.T) {
	for in, want := range map[string]Entity{
		"releases":     EntityRelease,
		"withdrawals":  EntityWithdrawal,
		"takedowns":    EntityTakedown,
		"oac-requests": EntityOAC,
		"OAC_REQUESTS": EntityOAC,
		"Takedown":     EntityTakedown,
	} {
		got, err := ParseEntity(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s %v", in, want, got, err)
		}
	}
	if _, err := ParseEntity("wallets"); !errors.Is(err, ErrInvalidEntity) {
		t.Fatalf("expected ErrInvalidEntity, got %v", err)
	}
}

func TestReleaseTransitions(t *testing.T) {
	allowed := [][2]Status{
		{StatusPending, StatusApproved},
		{StatusPending, StatusRejected},
		{StatusApproved, StatusLive},
		{StatusLive, StatusTakedownRequested},
		{StatusTakedownRequested, StatusTakedownCompleted},
	}
	for _, pair := range allowed {
		if !CanTransition(EntityRelease, pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}
	denied := [][2]Status{
		{StatusPending, StatusLive},
		{StatusRejected, StatusApproved},
		{StatusTakedownCompleted, StatusLive},
		{StatusPending, StatusPending},
	}
	for _, pair := range denied {
		if CanTransition(EntityRelease, pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be denied", pair[0], pair[1])
		}
	}
	if !IsTerminal(EntityRelease, StatusRejected) || !IsTerminal(EntityRelease, StatusTakedownCompleted) {
		t.Fatal("rejected and takedown_completed are terminal")
	}
}

func TestEveryStateIsReachableFromPending(t *testing.T) {
	for _, e := range Entities {
		seen := map[Status]bool{StatusPending: true}
		queue := []Status{StatusPending}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range AllowedFrom(e, cur) {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
		for _, st := range Options(e) {
			if !seen[st] {
				t.Fatalf("%s: state %s is unreachable", e, st)
			}
		}
	}
}

func TestTransitionTargetsAreMembers(t *testing.T) {
	for _, e := range Entities {
		members := map[Status]bool{}
		for _, st := range Options(e) {
			members[st] = true
		}
		for _, from := range Options(e) {
			for _, to := range AllowedFrom(e, from) {
				if !members[to] {
					t.Fatalf("%s: %s -> %s leaves the enum", e, from, to)
				}
			}
		}
	}
}

func TestRequiresNote(t *testing.T) {
	if !RequiresNote(StatusRejected) {
		t.Fatal("rejection needs a note")
	}
	if RequiresNote(StatusApproved) {
		t.Fatal("approval does not need a note")
	}
}

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := Invalid("amount", "must be positive")
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected ValidationError to match ErrValidation")
	}
	if err.Error() != "amount: must be positive" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
