// Package notify decides who hears about a referral change and delivers the
// message on a best-effort basis.
package notify

import (
	"sort"

	"github.com/techcollege/referral-service/internal/domain"
)

// ResolveRecipients computes the staff to inform after a referral moved to
// newStatus. The result is sorted by staff id, holds each id once, and never
// contains the acting staff member. Reachability is not checked here.
func ResolveRecipients(referral *domain.Referral, newStatus domain.ReferralStatus, acting *domain.Staff, all []domain.Staff) []domain.Staff {
	if referral == nil {
		return nil
	}
	picked := make(map[string]domain.Staff)
	for _, s := range all {
		if s.ID == "" {
			continue
		}
		switch {
		case s.ID == referral.TrainerID:
			picked[s.ID] = s
		case (newStatus == domain.StatusPendingHOD || newStatus == domain.StatusReturnedToHOD) &&
			s.Role == domain.StaffRoleDepartmentHead && s.Specialization == referral.Specialization:
			picked[s.ID] = s
		case newStatus == domain.StatusPendingCounselor && s.IsCounselor:
			picked[s.ID] = s
		}
	}
	if acting != nil {
		delete(picked, acting.ID)
	}

	out := make([]domain.Staff, 0, len(picked))
	for _, s := range picked {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
