package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/loyalcup/backend/internal/constants"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	rolePrefix      = "role:"
)

const roleRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (r.sub == p.sub || g(r.sub, p.sub)) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var (
	ErrUnavailable   = errors.New("authz service unavailable")
	ErrUnknownRole   = errors.New("unknown role")
	ErrInvalidPolicy = errors.New("invalid policy")
	ErrBuiltinPolicy = errors.New("builtin policy cannot be revoked")
)

var allowedActions = map[string]struct{}{
	"GET":    {},
	"POST":   {},
	"PUT":    {},
	"PATCH":  {},
	"DELETE": {},
	"*":      {},
}

// Policy 权限策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
	Builtin bool   `json:"builtin"`
}

// RoleInfo 角色概览
type RoleInfo struct {
	Role     string   `json:"role"`
	Inherits []string `json:"inherits"`
	Policies int      `json:"policies"`
}

// Service 基于 Casbin 的角色路由授权
// 角色固定为应用内置角色，管理员只能在其上追加或撤销路由策略
type Service struct {
	enforcer *casbin.SyncedEnforcer
	builtin  map[Policy]struct{}
}

// NewService 创建授权服务
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}

	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(roleRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}

	return &Service{enforcer: enforcer, builtin: builtinPolicySet()}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// EnforceRole 判定角色能否访问路由模板
func (s *Service) EnforceRole(role, obj, act string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	subject, err := NormalizeRole(role)
	if err != nil {
		return false, err
	}
	return s.enforcer.Enforce(subject, NormalizeObject(obj), NormalizeAction(act))
}

// GrantRolePolicy 为角色追加路由策略
func (s *Service) GrantRolePolicy(role, object, action string) error {
	policy, err := s.normalizePolicy(role, object, action)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(policy.Subject, policy.Object, policy.Action); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// RevokeRolePolicy 撤销角色的追加策略，内置策略不可撤销
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	policy, err := s.normalizePolicy(role, object, action)
	if err != nil {
		return err
	}
	if _, ok := s.builtin[policy]; ok {
		return ErrBuiltinPolicy
	}
	if _, err := s.enforcer.RemovePolicy(policy.Subject, policy.Object, policy.Action); err != nil {
		return fmt.Errorf("revoke policy failed: %w", err)
	}
	return nil
}

// GetRolePolicies 查询角色直接持有的策略
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	subject, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, subject)
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policy := Policy{Subject: rule[0], Object: NormalizeObject(rule[1]), Action: NormalizeAction(rule[2])}
		_, policy.Builtin = s.builtin[policy]
		policies = append(policies, policy)
	}
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].Object == policies[j].Object {
			return policies[i].Action < policies[j].Action
		}
		return policies[i].Object < policies[j].Object
	})
	return policies, nil
}

// RolesFor 查询角色继承链，首项为自身
func (s *Service) RolesFor(role string) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	subject, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	implicit, err := s.enforcer.GetImplicitRolesForUser(subject)
	if err != nil {
		return nil, fmt.Errorf("get implicit roles failed: %w", err)
	}
	sort.Strings(implicit)
	return append([]string{subject}, implicit...), nil
}

// ListRoles 列出内置角色及其直接父角色与策略数
func (s *Service) ListRoles() ([]RoleInfo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	roles := make([]RoleInfo, 0, len(constants.AppRoles))
	for _, role := range constants.AppRoles {
		subject := rolePrefix + role
		parents, err := s.enforcer.GetRolesForUser(subject)
		if err != nil {
			return nil, fmt.Errorf("get parent roles failed: %w", err)
		}
		rules, err := s.enforcer.GetFilteredPolicy(0, subject)
		if err != nil {
			return nil, fmt.Errorf("get role policies failed: %w", err)
		}
		inherits := make([]string, 0, len(parents))
		for _, parent := range parents {
			inherits = append(inherits, strings.TrimPrefix(parent, rolePrefix))
		}
		sort.Strings(inherits)
		roles = append(roles, RoleInfo{Role: role, Inherits: inherits, Policies: len(rules)})
	}
	return roles, nil
}

func (s *Service) normalizePolicy(role, object, action string) (Policy, error) {
	if err := s.ready(); err != nil {
		return Policy{}, err
	}
	subject, err := NormalizeRole(role)
	if err != nil {
		return Policy{}, err
	}
	normalizedAction := NormalizeAction(action)
	if _, ok := allowedActions[normalizedAction]; !ok {
		return Policy{}, fmt.Errorf("%w: action %q", ErrInvalidPolicy, action)
	}
	if strings.TrimSpace(object) == "" {
		return Policy{}, fmt.Errorf("%w: object is required", ErrInvalidPolicy)
	}
	return Policy{Subject: subject, Object: NormalizeObject(object), Action: normalizedAction}, nil
}

// NormalizeRole 将应用角色转换为授权主体
func NormalizeRole(role string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(role))
	name = strings.TrimPrefix(name, rolePrefix)
	if !constants.IsAppRole(name) {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return rolePrefix + name, nil
}

// NormalizeObject 统一授权资源路径，去掉 API 版本前缀
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if normalized == apiV1Prefix {
		return "/"
	}
	if strings.HasPrefix(normalized, apiV1Prefix+"/") {
		return strings.TrimPrefix(normalized, apiV1Prefix)
	}
	return normalized
}

// NormalizeAction 统一授权动作
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
