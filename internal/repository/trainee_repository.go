package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/techcollege/referral-service/internal/domain"
)

// TraineeRepository reads and bulk-loads trainee reference data.
type TraineeRepository interface {
	List(ctx context.Context, filter TraineeFilter) ([]domain.Trainee, error)
	GetByTrainingNumber(ctx context.Context, trainingNumber string) (*domain.Trainee, error)
	// UpsertMany inserts or replaces trainees keyed by training number.
	UpsertMany(ctx context.Context, trainees []domain.Trainee) (int, error)
}

// TraineeFilter narrows trainee listings. Query matches name or number.
type TraineeFilter struct {
	Specialization *string
	Query          string
	Limit          int
	Offset         int
}

type traineeRepository struct {
	pool *pgxpool.Pool
}

// NewTraineeRepository instantiates the repository.
func NewTraineeRepository(pool *pgxpool.Pool) TraineeRepository {
	return &traineeRepository{pool: pool}
}

func (r *traineeRepository) List(ctx context.Context, filter TraineeFilter) ([]domain.Trainee, error) {
	query := `SELECT id, name, training_number, specialization FROM trainees`
	args := []any{}
	clauses := []string{}

	if filter.Specialization != nil {
		args = append(args, *filter.Specialization)
		clauses = append(clauses, fmt.Sprintf("specialization=$%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR training_number ILIKE $%d)", len(args), len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name ASC, training_number ASC"
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Trainee
	for rows.Next() {
		var t domain.Trainee
		if err := rows.Scan(&t.ID, &t.Name, &t.TrainingNumber, &t.Specialization); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *traineeRepository) GetByTrainingNumber(ctx context.Context, trainingNumber string) (*domain.Trainee, error) {
	const query = `SELECT id, name, training_number, specialization FROM trainees WHERE training_number=$1`
	var t domain.Trainee
	if err := r.pool.QueryRow(ctx, query, trainingNumber).Scan(&t.ID, &t.Name, &t.TrainingNumber, &t.Specialization); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *traineeRepository) UpsertMany(ctx context.Context, trainees []domain.Trainee) (int, error) {
	if len(trainees) == 0 {
		return 0, nil
	}
	const query = `
        INSERT INTO trainees (id, name, training_number, specialization)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (training_number) DO UPDATE SET name=EXCLUDED.name, specialization=EXCLUDED.specialization`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, t := range trainees {
		batch.Queue(query, t.ID, t.Name, t.TrainingNumber, t.Specialization)
	}
	results := tx.SendBatch(ctx, batch)
	for range trainees {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return 0, err
		}
	}
	if err := results.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(trainees), nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
