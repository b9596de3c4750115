package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techcollege/referral-service/internal/domain"
	"github.com/techcollege/referral-service/internal/events"
	"github.com/techcollege/referral-service/internal/workflow"
	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

func TestReferralLifecycleNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.create(t)
	assert.Equal(t, 1, r.Version)
	assert.Equal(t, domain.StatusPendingHOD, r.Status)
	assert.Equal(t, []string{"h1"}, f.sender.last().recipients)
	assert.Contains(t, f.sender.last().message, "Omar")

	r, err := f.referral.ApplyAction(ctx, f.head, r.ID, "EscalateToCounselor", "needs guidance", &r.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingCounselor, r.Status)
	assert.Equal(t, 2, r.Version)
	assert.Equal(t, []string{"c1", "t1"}, f.sender.last().recipients)
	assert.Contains(t, f.sender.last().message, "needs guidance")

	r, err = f.referral.ApplyAction(ctx, f.counselor, r.ID, "ReturnWithResolution", "spoke with trainee", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReturnedToHOD, r.Status)
	assert.Equal(t, []string{"h1", "t1"}, f.sender.last().recipients)

	r, err = f.referral.ApplyAction(ctx, f.head, r.ID, "Close", "done", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, r.Status)
	assert.Equal(t, []string{"t1"}, f.sender.last().recipients)
	assert.Equal(t, 4, f.sender.count())

	stored, err := f.referrals.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Version)
	require.Len(t, stored.Timeline, 4)
	assert.Equal(t, []string{"Created", "EscalatedToCounselor", "ReturnedWithResolution", "Closed"},
		[]string{stored.Timeline[0].Action, stored.Timeline[1].Action, stored.Timeline[2].Action, stored.Timeline[3].Action})
	assert.True(t, stored.TrainerSigned && stored.HODSigned && stored.CounselorSigned)

	_, err = f.referral.ApplyAction(ctx, f.head, r.ID, "Resolve", "again", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTerminalState))
	assert.Equal(t, 4, f.sender.count())
}

func TestApplyActionErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.create(t)

	tests := []struct {
		name    string
		actor   *domain.Staff
		id      string
		action  string
		comment string
		version *int
		code    string
	}{
		{name: "unknown action", actor: f.head, id: r.ID, action: "Explode", comment: "x", code: apperrors.CodeValidation},
		{name: "create is not an action", actor: f.head, id: r.ID, action: "Create", comment: "x", code: apperrors.CodeValidation},
		{name: "missing referral", actor: f.head, id: "missing", action: "Resolve", comment: "x", code: apperrors.CodeNotFound},
		{name: "other department head", actor: f.otherHead, id: r.ID, action: "Resolve", comment: "x", code: apperrors.CodeForbidden},
		{name: "trainer cannot resolve", actor: f.trainer, id: r.ID, action: "Resolve", comment: "x", code: apperrors.CodeForbidden},
		{name: "wrong state", actor: f.counselor, id: r.ID, action: "ReturnWithResolution", comment: "x", code: apperrors.CodeInvalidTransition},
		{name: "comment required", actor: f.head, id: r.ID, action: "Resolve", comment: "   ", code: apperrors.CodeValidation},
		{name: "stale version", actor: f.head, id: r.ID, action: "Resolve", comment: "x", version: intPtr(7), code: apperrors.CodeStaleVersion},
		{name: "no actor", actor: nil, id: r.ID, action: "Resolve", comment: "x", code: apperrors.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.referral.ApplyAction(ctx, tt.actor, tt.id, tt.action, tt.comment, tt.version)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}

	stored, err := f.referrals.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingHOD, stored.Status)
	assert.Len(t, stored.Timeline, 1)
	assert.Equal(t, 1, f.sender.count())
}

func TestCreateFillsFromTraineeRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.trainee.Import(ctx, f.head, []domain.Trainee{{Name: "Sami", TrainingNumber: "5000", Specialization: "Mechanics"}})
	require.NoError(t, err)

	r, err := f.referral.Create(ctx, f.trainer, workflow.CreateInput{
		TrainingNumber: "5000",
		CaseTypes:      []domain.CaseType{domain.CaseBehavior},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sami", r.TraineeName)
	assert.Equal(t, "Mechanics", r.Specialization)

	_, err = f.referral.Create(ctx, f.trainer, workflow.CreateInput{TrainingNumber: "unknown", CaseTypes: []domain.CaseType{domain.CaseBehavior}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestListAndGetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.create(t)

	list, err := f.referral.List(ctx, f.otherHead, ReferralListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = f.referral.List(ctx, f.counselor, ReferralListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.referral.Get(ctx, f.otherHead, r.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	view, err := f.referral.Get(ctx, f.head, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []workflow.Action{workflow.ActionResolve, workflow.ActionEscalateToCounselor}, view.AvailableActions)

	view, err = f.referral.Get(ctx, f.trainer, r.ID)
	require.NoError(t, err)
	assert.Empty(t, view.AvailableActions)

	_, err = f.referral.ApplyAction(ctx, f.head, r.ID, "EscalateToCounselor", "see counselor", nil)
	require.NoError(t, err)

	for _, actor := range []*domain.Staff{f.otherHead, f.counselor, f.head, f.trainer} {
		list, err = f.referral.List(ctx, actor, ReferralListFilter{})
		require.NoError(t, err)
		assert.Len(t, list, 1, actor.ID)
	}

	status := domain.StatusResolved
	list, err = f.referral.List(ctx, f.head, ReferralListFilter{Status: &status})
	require.NoError(t, err)
	assert.Empty(t, list)

	bad := domain.ReferralStatus("Nope")
	_, err = f.referral.List(ctx, f.head, ReferralListFilter{Status: &bad})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestAttachAdvisory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.create(t)

	updated, err := f.referral.AttachAdvisory(ctx, f.head, r.ID, "meet the guardian", nil)
	require.NoError(t, err)
	assert.Equal(t, "meet the guardian", updated.AIAdvisory)
	assert.Equal(t, 2, updated.Version)
	assert.Len(t, updated.Timeline, 1)

	_, err = f.referral.AttachAdvisory(ctx, f.head, r.ID, "second", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = f.referral.AttachAdvisory(ctx, f.otherHead, r.ID, "x", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	next, err := f.referral.ApplyAction(ctx, f.head, r.ID, "Resolve", "ok", nil)
	require.NoError(t, err)
	assert.Equal(t, "meet the guardian", next.AIAdvisory)
}

func TestChangesReachFeed(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := f.feed.Subscribe(ctx)
	require.NoError(t, err)

	r := f.create(t)
	change := <-ch
	assert.Equal(t, events.CollectionReferrals, change.Collection)
	assert.Equal(t, r.ID, change.ID)
	assert.Equal(t, string(domain.StatusPendingHOD), change.Status)
	assert.Equal(t, 1, change.Version)
}

func TestCanView(t *testing.T) {
	f := newFixture(t)
	referral := &domain.Referral{TrainerID: "t9", Specialization: "Mechanics", Status: domain.StatusReturnedToHOD}

	assert.True(t, CanView(f.head, referral))
	assert.False(t, CanView(f.otherHead, referral))
	assert.False(t, CanView(f.counselor, referral))
	assert.False(t, CanView(f.trainer, referral))

	referral.CounselorSigned = true
	assert.True(t, CanView(f.counselor, referral))
	assert.False(t, CanView(nil, referral))
}

func intPtr(v int) *int { return &v }
