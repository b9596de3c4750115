package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/techcollege/referral-service/internal/domain"
	"github.com/techcollege/referral-service/internal/repository"
	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

// TraineeService serves trainee reference data.
type TraineeService struct {
	trainees repository.TraineeRepository
}

// NewTraineeService constructs the service.
func NewTraineeService(trainees repository.TraineeRepository) *TraineeService {
	return &TraineeService{trainees: trainees}
}

// List returns trainees matching filter.
func (s *TraineeService) List(ctx context.Context, filter repository.TraineeFilter) ([]domain.Trainee, error) {
	list, err := s.trainees.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "trainee", "")
	}
	return list, nil
}

// Get looks a trainee up by training number.
func (s *TraineeService) Get(ctx context.Context, trainingNumber string) (*domain.Trainee, error) {
	trainee, err := s.trainees.GetByTrainingNumber(ctx, strings.TrimSpace(trainingNumber))
	if err != nil {
		return nil, storeError(err, "trainee", trainingNumber)
	}
	return trainee, nil
}

// Import upserts a batch of trainees. Rows are validated up front and the
// whole batch is rejected when any row is incomplete.
func (s *TraineeService) Import(ctx context.Context, actor *domain.Staff, rows []domain.Trainee) (int, error) {
	if err := requireDepartmentHead(actor); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, apperrors.NewValidationError("no trainees supplied", nil)
	}

	seen := make(map[string]int, len(rows))
	clean := make([]domain.Trainee, 0, len(rows))
	invalid := map[string]any{}
	for i, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
		row.TrainingNumber = strings.TrimSpace(row.TrainingNumber)
		row.Specialization = strings.TrimSpace(row.Specialization)
		if row.Name == "" || row.TrainingNumber == "" || row.Specialization == "" {
			invalid["row_"+strconv.Itoa(i)] = "name, trainingNumber and specialization are required"
			continue
		}
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		if at, ok := seen[row.TrainingNumber]; ok {
			clean[at] = row
			continue
		}
		seen[row.TrainingNumber] = len(clean)
		clean = append(clean, row)
	}
	if len(invalid) > 0 {
		return 0, apperrors.NewValidationError("invalid trainee rows", invalid)
	}

	n, err := s.trainees.UpsertMany(ctx, clean)
	if err != nil {
		return 0, storeError(err, "trainee", "")
	}
	return n, nil
}
