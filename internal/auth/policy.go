package auth

import (
	"fmt"
	"strings"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Action names an operation guarded by the decision table, written as
// "<resource>:<act>".
type Action string

const (
	ActionViewAll            Action = "tickets:view_all"
	ActionViewUnassigned     Action = "tickets:view_unassigned"
	ActionViewAssigned       Action = "tickets:view_assigned"
	ActionViewOthersAssigned Action = "tickets:view_others_assigned"
	ActionViewAny            Action = "tickets:view_any"
	ActionAssignAny          Action = "tickets:assign_any"
	ActionAssignSelf         Action = "tickets:assign_self"
	ActionChangeStatus       Action = "tickets:change_status"
	ActionChangePriority     Action = "tickets:change_priority"
	ActionChangeAssignee     Action = "tickets:change_assignee"
	ActionDelete             Action = "tickets:delete"
	ActionCreateWithStatus   Action = "tickets:create_with_status"
	ActionCreateOnBehalf     Action = "tickets:create_on_behalf"
	ActionAssignOnCreate     Action = "tickets:assign_on_create"
)

func (a Action) split() (string, string) {
	resource, act, found := strings.Cut(string(a), ":")
	if !found {
		return "", string(a)
	}
	return resource, act
}

const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// DefaultPolicy is the role decision table. Anything not listed is denied.
var DefaultPolicy = map[domain.Role][]Action{
	domain.RoleAdmin: {
		ActionViewAll, ActionViewUnassigned, ActionViewAssigned, ActionViewOthersAssigned, ActionViewAny,
		ActionAssignAny, ActionAssignSelf,
		ActionChangeStatus, ActionChangePriority, ActionChangeAssignee,
		ActionDelete,
		ActionCreateWithStatus, ActionCreateOnBehalf, ActionAssignOnCreate,
	},
	domain.RoleSupport: {
		ActionViewAll, ActionViewUnassigned, ActionViewAssigned, ActionViewAny,
		ActionAssignSelf,
		ActionChangeStatus,
		ActionCreateWithStatus, ActionCreateOnBehalf,
	},
	domain.RoleRegular: {},
}

// Authorizer answers role/action questions against a casbin enforcer.
type Authorizer struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
}

// NewAuthorizer loads the default decision table.
func NewAuthorizer() (*Authorizer, error) {
	return NewAuthorizerWithPolicy(DefaultPolicy)
}

// NewAuthorizerWithPolicy builds an authorizer from an explicit table.
func NewAuthorizerWithPolicy(policy map[domain.Role][]Action) (*Authorizer, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("parse policy model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	rules := make([][]string, 0)
	for role, actions := range policy {
		for _, action := range actions {
			resource, act := action.split()
			rules = append(rules, []string{string(role), resource, act})
		}
	}
	if len(rules) > 0 {
		if _, err := enforcer.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("load policies: %w", err)
		}
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// Allowed reports whether role may perform action.
func (a *Authorizer) Allowed(role domain.Role, action Action) bool {
	if a == nil || a.enforcer == nil {
		return false
	}
	resource, act := action.split()
	a.mu.RLock()
	defer a.mu.RUnlock()
	ok, err := a.enforcer.Enforce(string(role), resource, act)
	return err == nil && ok
}

// Authorize returns a forbidden error when the user may not perform action.
func (a *Authorizer) Authorize(user *domain.User, action Action) error {
	if user == nil || !a.Allowed(user.Role, action) {
		return apperrors.NewForbidden("You do not have permission to perform this action.")
	}
	return nil
}
