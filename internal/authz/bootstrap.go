package authz

import (
	"fmt"

	"github.com/loyalcup/backend/internal/constants"
)

// RoleSeed 内置角色定义
type RoleSeed struct {
	Role     string
	Inherits string
	Policies []Policy
}

// BuiltinRoleSeeds 内置角色矩阵，高阶角色继承低阶角色的全部路由
// 门店级路由只按角色放行，门店归属由服务层按令牌身份校验
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleCustomer,
			Policies: []Policy{
				{Object: "/orders", Action: "GET"},
				{Object: "/orders", Action: "POST"},
				{Object: "/orders/preview", Action: "POST"},
				{Object: "/orders/:id", Action: "GET"},
				{Object: "/orders/:id/cancel", Action: "POST"},
				{Object: "/loyalty/*", Action: "GET"},
				{Object: "/loyalty/redeem", Action: "POST"},
			},
		},
		{
			Role:     constants.RoleShopWorker,
			Inherits: constants.RoleCustomer,
			Policies: []Policy{
				{Object: "/owner/shops/:shop_id/orders", Action: "GET"},
				{Object: "/owner/shops/:shop_id/orders/summary", Action: "GET"},
				{Object: "/owner/shops/:shop_id/orders/:id", Action: "GET"},
				{Object: "/owner/shops/:shop_id/orders/:id/status", Action: "PUT"},
			},
		},
		{
			Role:     constants.RoleShopOwner,
			Inherits: constants.RoleShopWorker,
			Policies: []Policy{
				{Object: "/owner/shops/:shop_id/*", Action: "*"},
			},
		},
		{
			Role:     constants.RoleAdmin,
			Inherits: constants.RoleShopOwner,
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
	}
}

// builtinPolicySet 内置策略索引（主体已归一化）
func builtinPolicySet() map[Policy]struct{} {
	set := make(map[Policy]struct{})
	for _, seed := range BuiltinRoleSeeds() {
		subject := rolePrefix + seed.Role
		for _, policy := range seed.Policies {
			set[Policy{Subject: subject, Object: NormalizeObject(policy.Object), Action: NormalizeAction(policy.Action)}] = struct{}{}
		}
	}
	return set
}

// BootstrapBuiltinRoles 写入内置角色继承关系与默认策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		subject := rolePrefix + seed.Role
		if seed.Inherits != "" {
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, rolePrefix+seed.Inherits); err != nil {
				return fmt.Errorf("link role %s failed: %w", subject, err)
			}
		}
		for _, policy := range seed.Policies {
			if _, err := s.enforcer.AddPolicy(subject, NormalizeObject(policy.Object), NormalizeAction(policy.Action)); err != nil {
				return fmt.Errorf("add builtin policy for %s failed: %w", subject, err)
			}
		}
	}
	return nil
}
