package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/techcollege/referral-service/internal/domain"
	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

// The memory repositories back the service when no POSTGRES_DSN is set.
// They copy on the way in and out so callers never share state with the
// store, and they report missing rows with pgx.ErrNoRows like the pgx
// implementations.

type memoryStaffRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Staff
	now   func() time.Time
}

// NewMemoryStaffRepository creates an empty in-memory staff store.
func NewMemoryStaffRepository() StaffRepository {
	return &memoryStaffRepository{items: map[string]domain.Staff{}, now: time.Now}
}

func (r *memoryStaffRepository) Create(_ context.Context, staff *domain.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[staff.ID]; ok {
		return apperrors.NewConflict("staff already exists", map[string]any{"id": staff.ID})
	}
	if r.usernameTaken(staff.Username, staff.ID) {
		return apperrors.NewConflict("username already exists", map[string]any{"username": staff.Username})
	}
	now := r.now().UTC()
	staff.CreatedAt, staff.UpdatedAt = now, now
	r.items[staff.ID] = *staff
	return nil
}

func (r *memoryStaffRepository) Update(_ context.Context, staff *domain.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[staff.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if r.usernameTaken(staff.Username, staff.ID) {
		return apperrors.NewConflict("username already exists", map[string]any{"username": staff.Username})
	}
	staff.CreatedAt = existing.CreatedAt
	staff.UpdatedAt = r.now().UTC()
	r.items[staff.ID] = *staff
	return nil
}

func (r *memoryStaffRepository) usernameTaken(username, exceptID string) bool {
	for id, s := range r.items {
		if id != exceptID && strings.EqualFold(s.Username, username) {
			return true
		}
	}
	return false
}

func (r *memoryStaffRepository) GetByID(_ context.Context, id string) (*domain.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (r *memoryStaffRepository) GetByUsername(_ context.Context, username string) (*domain.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.items {
		if strings.EqualFold(s.Username, username) {
			out := s
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryStaffRepository) List(_ context.Context, filter StaffFilter) ([]domain.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Staff
	for _, s := range r.items {
		if filter.Role != nil && s.Role != *filter.Role {
			continue
		}
		if filter.Specialization != nil && s.Specialization != *filter.Specialization {
			continue
		}
		if filter.Counselor != nil && s.IsCounselor != *filter.Counselor {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryStaffRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

type memoryTraineeRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Trainee
}

// NewMemoryTraineeRepository creates an empty in-memory trainee store.
func NewMemoryTraineeRepository() TraineeRepository {
	return &memoryTraineeRepository{items: map[string]domain.Trainee{}}
}

func (r *memoryTraineeRepository) List(_ context.Context, filter TraineeFilter) ([]domain.Trainee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	var all []domain.Trainee
	for _, t := range r.items {
		if filter.Specialization != nil && t.Specialization != *filter.Specialization {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Name), q) && !strings.Contains(strings.ToLower(t.TrainingNumber), q) {
			continue
		}
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].TrainingNumber < all[j].TrainingNumber
	})
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memoryTraineeRepository) GetByTrainingNumber(_ context.Context, trainingNumber string) (*domain.Trainee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[trainingNumber]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r *memoryTraineeRepository) UpsertMany(_ context.Context, trainees []domain.Trainee) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range trainees {
		if existing, ok := r.items[t.TrainingNumber]; ok {
			t.ID = existing.ID
		}
		r.items[t.TrainingNumber] = t
	}
	return len(trainees), nil
}

type memoryReferralRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Referral
}

// NewMemoryReferralRepository creates an empty in-memory referral store.
func NewMemoryReferralRepository() ReferralRepository {
	return &memoryReferralRepository{items: map[string]*domain.Referral{}}
}

func (r *memoryReferralRepository) Create(_ context.Context, referral *domain.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[referral.ID]; ok {
		return apperrors.NewConflict("referral already exists", map[string]any{"id": referral.ID})
	}
	referral.Version = 1
	r.items[referral.ID] = referral.Clone()
	return nil
}

func (r *memoryReferralRepository) Update(_ context.Context, referral *domain.Referral, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[referral.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != expectedVersion {
		return apperrors.NewStaleVersion(referral.ID, expectedVersion, stored.Version)
	}
	referral.Version = expectedVersion + 1
	r.items[referral.ID] = referral.Clone()
	return nil
}

func (r *memoryReferralRepository) GetByID(_ context.Context, id string) (*domain.Referral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return stored.Clone(), nil
}

func (r *memoryReferralRepository) List(_ context.Context, filter ReferralFilter) ([]domain.Referral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Referral
	for _, stored := range r.items {
		if filter.Status != nil && stored.Status != *filter.Status {
			continue
		}
		if filter.Specialization != nil && stored.Specialization != *filter.Specialization {
			continue
		}
		if filter.TrainerID != nil && stored.TrainerID != *filter.TrainerID {
			continue
		}
		out = append(out, *stored.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryReferralRepository) CountOpenByTrainer(_ context.Context, trainerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, stored := range r.items {
		if stored.TrainerID == trainerID && !stored.Status.Terminal() {
			n++
		}
	}
	return n, nil
}
