// Package policy evaluates the embedded authorization rules.
package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"
)

const (
	ActionAdminAccess = "admin.access"
	ActionRecordRead  = "record.read"
)

const decisionQuery = "data.melodist.authz.decision"

//go:embed authz.rego
var authzModule string

type Subject struct {
	ID            uint   `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

type Resource struct {
	Kind    string `json:"kind,omitempty"`
	OwnerID uint   `json:"owner_id"`
}

type Input struct {
	Action   string   `json:"action"`
	Subject  Subject  `json:"subject"`
	Resource Resource `json:"resource"`
}

type Decision struct {
	Allow bool `json:"allow"`
	Admin bool `json:"admin"`
}

// Engine holds the prepared query. It is safe for concurrent use, and SetAdmins may swap
// the allow-list while requests are being evaluated.
type Engine struct {
	query atomic.Pointer[rego.PreparedEvalQuery]
}

// NewEngine compiles the policy with the configured admin allow-list as data.
func NewEngine(ctx context.Context, adminEmails []string) (*Engine, error) {
	e := &Engine{}
	if err := e.SetAdmins(ctx, adminEmails); err != nil {
		return nil, err
	}
	return e, nil
}

// SetAdmins recompiles the policy against a new allow-list. On error the previous list
// stays in force.
func (e *Engine) SetAdmins(ctx context.Context, adminEmails []string) error {
	admins := make([]any, 0, len(adminEmails))
	for _, a := range adminEmails {
		if a = strings.TrimSpace(a); a != "" {
			admins = append(admins, a)
		}
	}
	store := inmem.NewFromObject(map[string]any{
		"melodist": map[string]any{"admin_emails": admins},
	})
	prepared, err := rego.New(
		rego.Query(decisionQuery),
		rego.Module("authz.rego", authzModule),
		rego.Store(store),
		rego.StrictBuiltinErrors(true),
	).PrepareForEval(ctx)
	if err != nil {
		return err
	}
	e.query.Store(&prepared)
	return nil
}

func (e *Engine) Evaluate(ctx context.Context, in Input) (Decision, error) {
	if e == nil {
		return Decision{}, errors.New("policy engine is nil")
	}
	query := e.query.Load()
	if query == nil {
		return Decision{}, errors.New("policy engine is not initialised")
	}
	results, err := query.Eval(ctx, rego.EvalInput(in))
	if err != nil {
		return Decision{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{}, errors.New("empty policy result")
	}
	payload, err := json.Marshal(results[0].Expressions[0].Value)
	if err != nil {
		return Decision{}, err
	}
	var d Decision
	if err := json.Unmarshal(payload, &d); err != nil {
		return Decision{}, err
	}
	return d, nil
}

// IsAdmin reports whether the subject's verified email is on the allow-list, ignoring case
// and surrounding space.
func (e *Engine) IsAdmin(ctx context.Context, subject Subject) (bool, error) {
	d, err := e.Evaluate(ctx, Input{Action: ActionAdminAccess, Subject: subject})
	if err != nil {
		return false, err
	}
	return d.Admin, nil
}

// CanRead reports whether subject may read a record owned by ownerID.
func (e *Engine) CanRead(ctx context.Context, subject Subject, ownerID uint) (bool, error) {
	d, err := e.Evaluate(ctx, Input{Action: ActionRecordRead, Subject: subject, Resource: Resource{OwnerID: ownerID}})
	if err != nil {
		return false, err
	}
	return d.Allow, nil
}
