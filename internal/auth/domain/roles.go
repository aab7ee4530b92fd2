package domain

import (
	"sort"

	"github.com/AnthoniusHendriyanto/client-auth-service/pkg/constant"
)

// Roles is a non-empty, ascending, duplicate-free set of role codes.
type Roles []constant.RoleCode

// NewRoles normalizes codes into a Roles set. An empty input yields the default role.
func NewRoles(codes ...constant.RoleCode) Roles {
	seen := make(map[constant.RoleCode]struct{}, len(codes))
	roles := make(Roles, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		roles = append(roles, c)
	}
	if len(roles) == 0 {
		return Roles{constant.DefaultRoleCode}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// RolesFromInt32 converts the storage representation into a normalized set.
func RolesFromInt32(raw []int32) Roles {
	codes := make([]constant.RoleCode, 0, len(raw))
	for _, r := range raw {
		codes = append(codes, constant.RoleCode(r))
	}
	return NewRoles(codes...)
}

// Int32s returns the storage representation of r.
func (r Roles) Int32s() []int32 {
	out := make([]int32, 0, len(r))
	for _, c := range r {
		out = append(out, int32(c))
	}
	return out
}

func (r Roles) Has(code constant.RoleCode) bool {
	for _, c := range r {
		if c == code {
			return true
		}
	}
	return false
}

// HasAny reports whether r shares at least one code with required.
func (r Roles) HasAny(required ...constant.RoleCode) bool {
	for _, want := range required {
		if r.Has(want) {
			return true
		}
	}
	return false
}

// IsKnownRole reports whether code is one of the recognized tiers.
func IsKnownRole(code constant.RoleCode) bool {
	for _, k := range constant.KnownRoleCodes {
		if k == code {
			return true
		}
	}
	return false
}
