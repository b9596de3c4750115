package domain

import (
	"strings"
	"time"

	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

// StaffRole enumerates staff roles. Counselor is a flag, not a role.
type StaffRole string

const (
	StaffRoleTrainer        StaffRole = "Trainer"
	StaffRoleDepartmentHead StaffRole = "DepartmentHead"
)

// Valid reports whether the role is known.
func (r StaffRole) Valid() bool {
	return r == StaffRoleTrainer || r == StaffRoleDepartmentHead
}

// DisplayName returns the fixed UI label.
func (r StaffRole) DisplayName() string {
	switch r {
	case StaffRoleTrainer:
		return "المدرب"
	case StaffRoleDepartmentHead:
		return "رئيس القسم"
	default:
		return string(r)
	}
}

// Staff models a trainer or department head.
type Staff struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"-"`
	Role            StaffRole `json:"role"`
	Specialization  string    `json:"specialization,omitempty"`
	IsCounselor     bool      `json:"isCounselor"`
	MessagingHandle string    `json:"messagingHandle,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// IsDepartmentHead reports whether the staff member heads a department.
func (s *Staff) IsDepartmentHead() bool {
	return s != nil && s.Role == StaffRoleDepartmentHead
}

// Reachable reports whether a messaging handle is configured.
func (s *Staff) Reachable() bool {
	return s != nil && strings.TrimSpace(s.MessagingHandle) != ""
}

// Validate checks record-level invariants.
func (s *Staff) Validate() error {
	details := map[string]any{}
	if strings.TrimSpace(s.Name) == "" {
		details["name"] = "required"
	}
	if strings.TrimSpace(s.Username) == "" {
		details["username"] = "required"
	}
	if !s.Role.Valid() {
		details["role"] = "unknown role"
	}
	if s.Role == StaffRoleDepartmentHead && strings.TrimSpace(s.Specialization) == "" {
		details["specialization"] = "required for department heads"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid staff record", details)
	}
	return nil
}
