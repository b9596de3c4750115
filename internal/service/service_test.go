package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/techcollege/referral-service/internal/config"
	"github.com/techcollege/referral-service/internal/domain"
	"github.com/techcollege/referral-service/internal/events"
	"github.com/techcollege/referral-service/internal/repository"
	"github.com/techcollege/referral-service/internal/workflow"
)

type sentBatch struct {
	recipients []string
	message    string
}

type recordingSender struct {
	mu      sync.Mutex
	batches []sentBatch
}

func (r *recordingSender) Dispatch(_ context.Context, recipients []domain.Staff, message string) {
	ids := make([]string, 0, len(recipients))
	for _, s := range recipients {
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, sentBatch{recipients: ids, message: message})
}

func (r *recordingSender) last() sentBatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.batches) == 0 {
		return sentBatch{}
	}
	return r.batches[len(r.batches)-1]
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

type fixture struct {
	cfg       config.Config
	staffRepo repository.StaffRepository
	referrals repository.ReferralRepository
	trainees  repository.TraineeRepository
	feed      *events.MemoryFeed
	sender    *recordingSender
	referral  *ReferralService
	staff     *StaffService
	auth      *AuthService
	trainee   *TraineeService

	trainer, head, otherHead, counselor *domain.Staff
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		cfg: config.Config{Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 5,
			BcryptCost:            4,
			DefaultStaffPassword:  "1234",
		}},
		staffRepo: repository.NewMemoryStaffRepository(),
		referrals: repository.NewMemoryReferralRepository(),
		trainees:  repository.NewMemoryTraineeRepository(),
		feed:      events.NewMemoryFeed(),
		sender:    &recordingSender{},
	}

	f.trainer = &domain.Staff{ID: "t1", Name: "Trainer One", Username: "trainer", Role: domain.StaffRoleTrainer, Specialization: "Mechanics", MessagingHandle: "101"}
	f.head = &domain.Staff{ID: "h1", Name: "Head Mechanics", Username: "head", Role: domain.StaffRoleDepartmentHead, Specialization: "Mechanics", MessagingHandle: "201"}
	f.otherHead = &domain.Staff{ID: "h2", Name: "Head Electrical", Username: "head2", Role: domain.StaffRoleDepartmentHead, Specialization: "Electrical"}
	f.counselor = &domain.Staff{ID: "c1", Name: "Counselor", Username: "counselor", Role: domain.StaffRoleTrainer, Specialization: "Guidance", IsCounselor: true, MessagingHandle: "301"}
	for _, s := range []*domain.Staff{f.trainer, f.head, f.otherHead, f.counselor} {
		require.NoError(t, f.staffRepo.Create(ctx, s))
	}

	bus := events.NewInMemoryDispatcher(nil)
	NewNotificationService(bus, f.staffRepo, f.sender, nil).RegisterHandlers()

	f.referral = NewReferralService(ReferralDependencies{
		ReferralRepo: f.referrals,
		TraineeRepo:  f.trainees,
		Engine:       workflow.NewEngine(),
		Dispatcher:   bus,
		Feed:         f.feed,
		Clock:        func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) },
	})
	f.staff = NewStaffService(f.cfg, StaffDependencies{
		StaffRepo:    f.staffRepo,
		ReferralRepo: f.referrals,
		Dispatcher:   bus,
		Feed:         f.feed,
	})
	f.auth = NewAuthService(f.cfg, f.staffRepo)
	f.trainee = NewTraineeService(f.trainees)
	return f
}

func (f *fixture) create(t *testing.T) *domain.Referral {
	t.Helper()
	r, err := f.referral.Create(context.Background(), f.trainer, workflow.CreateInput{
		TraineeName:    "Omar",
		TrainingNumber: "441100",
		Specialization: "Mechanics",
		CaseDetails:    "absent from workshop",
		CaseTypes:      []domain.CaseType{domain.CaseHighAbsence},
	})
	require.NoError(t, err)
	return r
}
