package dto

import (
	"time"

	"github.com/techcollege/referral-service/internal/domain"
)

// StaffCreateRequest payload for POST /staff.
type StaffCreateRequest struct {
	Name            string           `json:"name"`
	Username        string           `json:"username"`
	Password        string           `json:"password"`
	Role            domain.StaffRole `json:"role"`
	Specialization  string           `json:"specialization"`
	IsCounselor     bool             `json:"isCounselor"`
	MessagingHandle string           `json:"messagingHandle"`
}

// CounselorFlagRequest payload for PUT /staff/:id/counselor.
type CounselorFlagRequest struct {
	IsCounselor *bool `json:"isCounselor"`
}

// StaffResponse is the public view of a staff record.
type StaffResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Username        string           `json:"username"`
	Role            domain.StaffRole `json:"role"`
	RoleLabel       string           `json:"roleLabel"`
	Specialization  string           `json:"specialization,omitempty"`
	IsCounselor     bool             `json:"isCounselor"`
	MessagingHandle string           `json:"messagingHandle,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// NewStaffResponse converts a domain record.
func NewStaffResponse(s *domain.Staff) StaffResponse {
	return StaffResponse{
		ID:              s.ID,
		Name:            s.Name,
		Username:        s.Username,
		Role:            s.Role,
		RoleLabel:       s.Role.DisplayName(),
		Specialization:  s.Specialization,
		IsCounselor:     s.IsCounselor,
		MessagingHandle: s.MessagingHandle,
		CreatedAt:       s.CreatedAt,
	}
}
