package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/example/assetdesk/internal/models"
)

// Resources and actions named in the policy table.
const (
	ResourceRepair    = "repair"
	ResourceEquipment = "equipment"
	ResourceUser      = "user"

	ActionCreate  = "create"
	ActionList    = "list"
	ActionRead    = "read"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionHistory = "history"
	ActionImport  = "import"
	ActionExport  = "export"
	ActionSummary = "summary"
)

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

// Policy maps (role, resource, action) to allow. Anything absent is denied.
var Policy = [][]string{
	{"user", ResourceRepair, ActionCreate},
	{"user", ResourceRepair, ActionList},
	{"technician", ResourceRepair, ActionCreate},
	{"technician", ResourceRepair, ActionList},
	{"technician", ResourceRepair, ActionRead},
	{"technician", ResourceRepair, ActionUpdate},
	{"admin", ResourceRepair, ActionCreate},
	{"admin", ResourceRepair, ActionList},
	{"admin", ResourceRepair, ActionRead},
	{"admin", ResourceRepair, ActionUpdate},
	{"admin", ResourceRepair, ActionDelete},

	{"user", ResourceEquipment, ActionRead},
	{"user", ResourceEquipment, ActionHistory},
	{"technician", ResourceEquipment, ActionRead},
	{"technician", ResourceEquipment, ActionHistory},
	{"admin", ResourceEquipment, ActionRead},
	{"admin", ResourceEquipment, ActionHistory},
	{"admin", ResourceEquipment, ActionCreate},
	{"admin", ResourceEquipment, ActionUpdate},
	{"admin", ResourceEquipment, ActionDelete},
	{"admin", ResourceEquipment, ActionImport},
	{"admin", ResourceEquipment, ActionExport},
	{"admin", ResourceEquipment, ActionSummary},

	{"admin", ResourceUser, ActionList},
	{"admin", ResourceUser, ActionRead},
	{"admin", ResourceUser, ActionCreate},
	{"admin", ResourceUser, ActionUpdate},
	{"admin", ResourceUser, ActionDelete},
}

// Guard answers whether a role may perform an action on a resource.
type Guard struct {
	enforcer *casbin.Enforcer
}

// NewGuard builds an in-memory enforcer loaded with rules.
func NewGuard(rules [][]string) (*Guard, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if len(rules) > 0 {
		if _, err := enforcer.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("failed to load policy: %w", err)
		}
	}
	return &Guard{enforcer: enforcer}, nil
}

// NewDefaultGuard builds a guard over Policy.
func NewDefaultGuard() (*Guard, error) {
	return NewGuard(Policy)
}

func (g *Guard) Allowed(role models.Role, resource, action string) (bool, error) {
	ok, err := g.enforcer.Enforce(string(role), resource, action)
	if err != nil {
		return false, fmt.Errorf("permission check failed: %w", err)
	}
	return ok, nil
}
