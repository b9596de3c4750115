package dto

import "github.com/techcollege/referral-service/internal/domain"

// TraineeImportRequest payload for POST /trainees/import.
type TraineeImportRequest struct {
	Trainees []domain.Trainee `json:"trainees"`
}
