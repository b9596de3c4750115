package workflow

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techcollege/referral-service/internal/domain"
	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

var (
	trainerT = &domain.Staff{ID: "t1", Name: "Trainer T", Role: domain.StaffRoleTrainer}
	hodH     = &domain.Staff{ID: "h1", Name: "Head H", Role: domain.StaffRoleDepartmentHead, Specialization: "Mechanics"}
	hodOther = &domain.Staff{ID: "h2", Name: "Head Other", Role: domain.StaffRoleDepartmentHead, Specialization: "Manufacturing"}
	counselC = &domain.Staff{ID: "c1", Name: "Counselor C", Role: domain.StaffRoleTrainer, IsCounselor: true}
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithIDGenerator(sequentialIDs())}, opts...)...)
}

var t0 = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

func mechanicsInput() CreateInput {
	return CreateInput{
		TraineeName:     "Trainee A",
		TrainingNumber:  "441100",
		Specialization:  "Mechanics",
		CaseDetails:     "disrupts workshop sessions",
		CaseTypes:       []domain.CaseType{domain.CaseBehavior},
		RepetitionLevel: domain.RepetitionSecond,
		PreviousActions: "verbal warning",
	}
}

func TestScenarioA_CreateReferral(t *testing.T) {
	e := newTestEngine()

	r, err := e.CreateReferral(trainerT, mechanicsInput(), t0)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPendingHOD, r.Status)
	assert.True(t, r.TrainerSigned)
	assert.False(t, r.HODSigned)
	assert.False(t, r.CounselorSigned)
	require.Len(t, r.Timeline, 1)
	assert.Equal(t, "Created", r.Timeline[0].Action)
	assert.Equal(t, "Trainer T", r.Timeline[0].ActorName)
	assert.Equal(t, domain.StaffRoleTrainer, r.Timeline[0].ActorRole)
	assert.Equal(t, "t1", r.TrainerID)
	assert.Equal(t, t0, r.Date)
}

func TestCreateReferralValidation(t *testing.T) {
	e := newTestEngine()
	tests := []struct {
		name   string
		mutate func(*CreateInput)
		field  string
	}{
		{name: "missing trainee name", mutate: func(in *CreateInput) { in.TraineeName = "  " }, field: "traineeName"},
		{name: "missing training number", mutate: func(in *CreateInput) { in.TrainingNumber = "" }, field: "trainingNumber"},
		{name: "missing specialization", mutate: func(in *CreateInput) { in.Specialization = "" }, field: "specialization"},
		{name: "no case types", mutate: func(in *CreateInput) { in.CaseTypes = nil }, field: "caseTypes"},
		{name: "unknown case type", mutate: func(in *CreateInput) { in.CaseTypes = []domain.CaseType{"Fighting"} }, field: "caseTypes"},
		{name: "unknown repetition", mutate: func(in *CreateInput) { in.RepetitionLevel = "Always" }, field: "repetitionLevel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := mechanicsInput()
			tt.mutate(&in)

			r, err := e.CreateReferral(trainerT, in, t0)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
			de := apperrors.ToDomainError(err)
			assert.Contains(t, de.Details, tt.field)
		})
	}
}

func TestCreateReferralDefaultsRepetition(t *testing.T) {
	in := mechanicsInput()
	in.RepetitionLevel = ""

	r, err := newTestEngine().CreateReferral(trainerT, in, t0)
	require.NoError(t, err)
	assert.Equal(t, domain.RepetitionFirst, r.RepetitionLevel)
}

func TestFullLifecycleScenarios(t *testing.T) {
	e := newTestEngine()
	created, err := e.CreateReferral(trainerT, mechanicsInput(), t0)
	require.NoError(t, err)

	// Scenario B
	escalated, err := e.ApplyAction(created, hodH, ActionEscalateToCounselor, "needs counseling", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingCounselor, escalated.Status)
	assert.True(t, escalated.HODSigned)
	assert.False(t, escalated.CounselorSigned)
	assert.Len(t, escalated.Timeline, 2)
	assert.Len(t, created.Timeline, 1, "input must not be mutated")
	assert.Equal(t, domain.StatusPendingHOD, created.Status)

	// Scenario C
	returned, err := e.ApplyAction(escalated, counselC, ActionReturnWithResolution, "agreed a behavior plan", t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReturnedToHOD, returned.Status)
	assert.True(t, returned.CounselorSigned)
	assert.True(t, returned.HODSigned)
	assert.Len(t, returned.Timeline, 3)
	last, _ := returned.LastEvent()
	assert.Equal(t, "Counselor C", last.ActorName)
	assert.Equal(t, "ReturnedWithResolution", last.Action)
	assert.Equal(t, "agreed a behavior plan", last.Comment)

	// Scenario D
	closed, err := e.ApplyAction(returned, hodH, ActionClose, "plan accepted", t0.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, closed.Status)
	assert.Len(t, closed.Timeline, 4)
	assert.True(t, closed.TrainerSigned)

	for _, action := range []Action{ActionResolve, ActionClose, ActionEscalateToStudentAffairs, ActionReturnWithResolution} {
		_, err := e.ApplyAction(closed, hodH, action, "again", t0.Add(4*time.Hour))
		assert.True(t, apperrors.HasCode(err, apperrors.CodeTerminalState), "action %s", action)
	}
}

func TestScenarioE_OtherSpecializationRejected(t *testing.T) {
	e := newTestEngine()
	created, err := e.CreateReferral(trainerT, mechanicsInput(), t0)
	require.NoError(t, err)

	out, err := e.ApplyAction(created, hodOther, ActionResolve, "resolved", t0)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	assert.Len(t, created.Timeline, 1)
	assert.Equal(t, domain.StatusPendingHOD, created.Status)
}

func TestAuthorizationMatrix(t *testing.T) {
	e := newTestEngine()
	base, err := e.CreateReferral(trainerT, mechanicsInput(), t0)
	require.NoError(t, err)
	pendingCounselor, err := e.ApplyAction(base, hodH, ActionEscalateToCounselor, "x", t0)
	require.NoError(t, err)
	returned, err := e.ApplyAction(pendingCounselor, counselC, ActionReturnWithEscalationRecommendation, "x", t0)
	require.NoError(t, err)

	tests := []struct {
		name     string
		referral *domain.Referral
		actor    *domain.Staff
		action   Action
		allowed  bool
	}{
		{"hod resolves own department", base, hodH, ActionResolve, true},
		{"trainer cannot resolve", base, trainerT, ActionResolve, false},
		{"counselor cannot resolve", base, counselC, ActionResolve, false},
		{"foreign hod cannot escalate", base, hodOther, ActionEscalateToCounselor, false},
		{"counselor returns", pendingCounselor, counselC, ActionReturnWithResolution, true},
		{"non counselor trainer rejected", pendingCounselor, trainerT, ActionReturnWithResolution, false},
		{"hod without flag rejected on counselor step", pendingCounselor, hodH, ActionReturnWithResolution, false},
		{"hod closes returned", returned, hodH, ActionClose, true},
		{"hod escalates to student affairs", returned, hodH, ActionEscalateToStudentAffairs, true},
		{"foreign hod cannot close", returned, hodOther, ActionClose, false},
		{"counselor cannot close", returned, counselC, ActionClose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.ApplyAction(tt.referral, tt.actor, tt.action, "comment", t0)
			if tt.allowed {
				require.NoError(t, err)
				assert.Len(t, out.Timeline, len(tt.referral.Timeline)+1)
				return
			}
			assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden), "got %v", err)
		})
	}
}

func TestInvalidTransitionForStatus(t *testing.T) {
	e := newTestEngine()
	base, err := e.CreateReferral(trainerT, mechanicsInput(), t0)
	require.NoError(t, err)

	_, err = e.ApplyAction(base, hodH, ActionClose, "closing", t0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	_, err = e.ApplyAction(base, hodH, ActionCreate, "again", t0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
}

func TestCommentPolicy(t *testing.T) {
	base, err := newTestEngine().CreateReferral(trainerT, mechanicsInput(), t0)
	require.NoError(t, err)

	strict := newTestEngine()
	_, err = strict.ApplyAction(base, hodH, ActionEscalateToCounselor, "   ", t0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.True(t, strict.CommentRequired(domain.StatusPendingHOD, ActionEscalateToCounselor))

	lenient := newTestEngine(WithRequireComments(false))
	out, err := lenient.ApplyAction(base, hodH, ActionEscalateToCounselor, "", t0)
	require.NoError(t, err)
	last, _ := out.LastEvent()
	assert.Empty(t, last.Comment)
	assert.False(t, lenient.CommentRequired(domain.StatusPendingHOD, ActionEscalateToCounselor))
}

func TestDualCapabilitySignsBoth(t *testing.T) {
	hodCounselor := &domain.Staff{ID: "h3", Name: "Head Counselor", Role: domain.StaffRoleDepartmentHead, Specialization: "Mechanics", IsCounselor: true}
	e := newTestEngine()
	base, err := e.CreateReferral(trainerT, mechanicsInput(), t0)
	require.NoError(t, err)

	out, err := e.ApplyAction(base, hodCounselor, ActionResolve, "handled directly", t0)
	require.NoError(t, err)
	assert.True(t, out.HODSigned)
	assert.True(t, out.CounselorSigned)

	// a counselor flag alone on a foreign department head signs only the counselor flag
	foreignCounselor := &domain.Staff{ID: "h4", Name: "Foreign", Role: domain.StaffRoleDepartmentHead, Specialization: "Manufacturing", IsCounselor: true}
	pending, err := e.ApplyAction(base, hodH, ActionEscalateToCounselor, "x", t0)
	require.NoError(t, err)
	pending.HODSigned = false
	out, err = e.ApplyAction(pending, foreignCounselor, ActionReturnWithResolution, "x", t0)
	require.NoError(t, err)
	assert.True(t, out.CounselorSigned)
	assert.False(t, out.HODSigned)
}

func TestStatusAlwaysKnown(t *testing.T) {
	e := newTestEngine(WithRequireComments(false))
	staff := []*domain.Staff{trainerT, hodH, hodOther, counselC}
	actions := []Action{ActionResolve, ActionEscalateToCounselor, ActionReturnWithResolution, ActionReturnWithEscalationRecommendation, ActionClose, ActionEscalateToStudentAffairs}

	frontier := []*domain.Referral{}
	start, err := e.CreateReferral(trainerT, mechanicsInput(), t0)
	require.NoError(t, err)
	frontier = append(frontier, start)

	for depth := 0; depth < 4; depth++ {
		var next []*domain.Referral
		for _, r := range frontier {
			for _, actor := range staff {
				for _, a := range actions {
					out, err := e.ApplyAction(r, actor, a, "", t0)
					if err != nil {
						continue
					}
					assert.True(t, out.Status.Valid())
					assert.True(t, out.TrainerSigned)
					assert.Len(t, out.Timeline, len(r.Timeline)+1)
					if r.HODSigned {
						assert.True(t, out.HODSigned)
					}
					if r.CounselorSigned {
						assert.True(t, out.CounselorSigned)
					}
					next = append(next, out)
				}
			}
		}
		frontier = next
	}
}

func TestAttachAdvisory(t *testing.T) {
	e := newTestEngine()
	base, err := e.CreateReferral(trainerT, mechanicsInput(), t0)
	require.NoError(t, err)

	_, err = e.AttachAdvisory(base, "  ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	withAdvice, err := e.AttachAdvisory(base, "meet the trainee weekly")
	require.NoError(t, err)
	assert.Equal(t, "meet the trainee weekly", withAdvice.AIAdvisory)
	assert.Empty(t, base.AIAdvisory)
	assert.Len(t, withAdvice.Timeline, 1)

	_, err = e.AttachAdvisory(withAdvice, "second opinion")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	moved, err := e.ApplyAction(withAdvice, hodH, ActionEscalateToCounselor, "x", t0)
	require.NoError(t, err)
	assert.Equal(t, "meet the trainee weekly", moved.AIAdvisory)
}

func TestAvailableActions(t *testing.T) {
	e := newTestEngine()
	base, err := e.CreateReferral(trainerT, mechanicsInput(), t0)
	require.NoError(t, err)

	assert.Equal(t, []Action{ActionResolve, ActionEscalateToCounselor}, e.AvailableActions(base, hodH))
	assert.Empty(t, e.AvailableActions(base, hodOther))
	assert.Empty(t, e.AvailableActions(base, trainerT))
	assert.Empty(t, e.AvailableActions(base, counselC))
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("Close")
	assert.True(t, ok)
	assert.Equal(t, ActionClose, a)

	_, ok = ParseAction("Create")
	assert.False(t, ok)
	_, ok = ParseAction("Delete")
	assert.False(t, ok)
}
