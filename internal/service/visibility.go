package service

import "github.com/techcollege/referral-service/internal/domain"

// CanView reports whether actor may read referral. Authors always see their
// own cases; department heads see their specialization; department heads and
// counselors see everything waiting on a counselor; counselors keep access to
// cases they signed.
func CanView(actor *domain.Staff, referral *domain.Referral) bool {
	if actor == nil || referral == nil {
		return false
	}
	if referral.TrainerID == actor.ID {
		return true
	}
	if actor.IsDepartmentHead() {
		if actor.Specialization != "" && referral.Specialization == actor.Specialization {
			return true
		}
		if referral.Status == domain.StatusPendingCounselor {
			return true
		}
	}
	if actor.IsCounselor {
		if referral.Status == domain.StatusPendingCounselor || referral.CounselorSigned {
			return true
		}
	}
	return false
}
