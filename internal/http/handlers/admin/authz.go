package admin

import (
	"github.com/loyalcup/backend/internal/authz"
	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/http/response"

	"github.com/gin-gonic/gin"
)

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

var authzErrorRules = []handlershared.MappedError{
	{Target: authz.ErrUnknownRole, Code: response.CodeBadRequest, Key: "error.authz_role_unknown"},
	{Target: authz.ErrInvalidPolicy, Code: response.CodeBadRequest, Key: "error.authz_policy_invalid"},
	{Target: authz.ErrBuiltinPolicy, Code: response.CodeConflict, Key: "error.authz_builtin_policy"},
	{Target: authz.ErrUnavailable, Code: response.CodeServiceUnavailable, Key: "error.authz_unavailable"},
}

func respondAuthzError(c *gin.Context, err error) {
	handlershared.RespondMapped(c, err, authzErrorRules, response.CodeInternal, "error.authz_unavailable")
}

// ListAuthzRoles 获取角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies 获取角色策略及继承链
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := c.Param("role")
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	chain, err := h.AuthzService.RolesFor(role)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, gin.H{
		"roles":    chain,
		"policies": policies,
	})
}

// GrantAuthzPolicy 为角色授予策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	handlershared.RequestLog(c).Infow("admin_authz_policy_granted", "role", req.Role, "object", req.Object, "action", req.Action)
	response.Success(c, nil)
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	handlershared.RequestLog(c).Infow("admin_authz_policy_revoked", "role", req.Role, "object", req.Object, "action", req.Action)
	response.Success(c, nil)
}
