package workflow

import (
	"strings"

	"github.com/techcollege/referral-service/internal/domain"
)

// CapabilityKind distinguishes the functional hats a staff member can wear.
type CapabilityKind string

const (
	CapabilityTrainer        CapabilityKind = "Trainer"
	CapabilityDepartmentHead CapabilityKind = "DepartmentHead"
	CapabilityCounselor      CapabilityKind = "Counselor"
)

// Capability is one authorization grant. Specialization is only set for
// DepartmentHead grants.
type Capability struct {
	Kind           CapabilityKind
	Specialization string
}

// DepartmentHeadFor builds the grant for heading a specialization.
func DepartmentHeadFor(specialization string) Capability {
	return Capability{Kind: CapabilityDepartmentHead, Specialization: specialization}
}

// Counselor is the counselor grant.
var Counselor = Capability{Kind: CapabilityCounselor}

// Trainer is held by every staff member and allows opening referrals.
var Trainer = Capability{Kind: CapabilityTrainer}

// CapabilitySet is the effective grants of one staff member.
type CapabilitySet map[Capability]struct{}

// Has reports whether the grant is held.
func (c CapabilitySet) Has(cap Capability) bool {
	_, ok := c[cap]
	return ok
}

// EffectiveCapabilities derives grants from the staff record.
//
// Every staff member can open referrals. Heading a department requires the
// DepartmentHead role and a specialization. The counselor grant comes only
// from the IsCounselor flag; department heads do not get it implicitly.
func EffectiveCapabilities(staff *domain.Staff) CapabilitySet {
	set := CapabilitySet{}
	if staff == nil {
		return set
	}
	set[Trainer] = struct{}{}
	if staff.Role == domain.StaffRoleDepartmentHead {
		if spec := strings.TrimSpace(staff.Specialization); spec != "" {
			set[DepartmentHeadFor(spec)] = struct{}{}
		}
	}
	if staff.IsCounselor {
		set[Counselor] = struct{}{}
	}
	return set
}
