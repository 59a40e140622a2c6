package security

import (
	"blog_cms/pkg/errs"
)

// Role 角色定义
type Role string

const (
	RoleUser      Role = "user"
	RolePublisher Role = "publisher"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Roles 全部合法角色
var Roles = []Role{RoleUser, RolePublisher, RoleModerator, RoleAdmin}

// ParseRole 校验角色字符串
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Principal 当前请求的操作者
type Principal struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Slug     string `json:"slug"`
	Role     Role   `json:"role"`
}

// IsAdmin 是否为管理员
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// HasRole 是否拥有任意一个指定角色
func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// ResourceOwner 资源所有者接口
type ResourceOwner interface {
	GetOwnerID() string
}

// CheckPermission 管理员或资源所有者放行，其余返回 Forbidden
func CheckPermission(p *Principal, resourceOwnerID string) error {
	if p == nil {
		return errs.Unauthorized("authentication required")
	}
	if p.IsAdmin() || (p.UserID != "" && p.UserID == resourceOwnerID) {
		return nil
	}
	return errs.Forbidden("you are not allowed to modify this resource")
}

// CheckResourceOwnership 对实现了 ResourceOwner 的资源做权限检查
func CheckResourceOwnership(p *Principal, resource ResourceOwner) error {
	return CheckPermission(p, resource.GetOwnerID())
}
