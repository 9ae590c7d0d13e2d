package authroles

import (
	domainauth "github.com/akredia/akredia-api/internal/domain/auth"
)

// StaticRoleMapper maps SSO groups to roles by simple string membership rules.
// Admin membership wins over coordinator membership; everything else is a
// lecturer, the least-privileged role.
type StaticRoleMapper struct {
	AdminGroup string
	ProdiGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range groups {
		if m.ProdiGroup != "" && g == m.ProdiGroup {
			return domainauth.RoleProdi
		}
	}
	return domainauth.RoleLecturer
}
