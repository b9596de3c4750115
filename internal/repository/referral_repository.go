package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/techcollege/referral-service/internal/domain"
	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

// ReferralRepository persists referrals with their timelines.
type ReferralRepository interface {
	// Create stores a new referral and sets its version to 1.
	Create(ctx context.Context, referral *domain.Referral) error
	// Update replaces the referral when the stored version equals
	// expectedVersion, then bumps referral.Version. New timeline entries
	// are appended.
	Update(ctx context.Context, referral *domain.Referral, expectedVersion int) error
	GetByID(ctx context.Context, id string) (*domain.Referral, error)
	// List returns matching referrals ordered by date, newest first.
	List(ctx context.Context, filter ReferralFilter) ([]domain.Referral, error)
	CountOpenByTrainer(ctx context.Context, trainerID string) (int, error)
}

// ReferralFilter narrows referral listings. Zero values match all.
type ReferralFilter struct {
	Status         *domain.ReferralStatus
	Specialization *string
	TrainerID      *string
}

type referralRepository struct {
	pool *pgxpool.Pool
}

// NewReferralRepository instantiates the repository.
func NewReferralRepository(pool *pgxpool.Pool) ReferralRepository {
	return &referralRepository{pool: pool}
}

const referralColumns = `id, trainee_name, training_number, specialization, trainer_id, trainer_name, referral_date,
        case_details, case_types, repetition_level, previous_actions, status,
        trainer_signed, hod_signed, counselor_signed, ai_advisory, version`

func (r *referralRepository) Create(ctx context.Context, referral *domain.Referral) error {
	const query = `
        INSERT INTO referrals (` + referralColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,1)`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, query,
		referral.ID,
		referral.TraineeName,
		referral.TrainingNumber,
		referral.Specialization,
		referral.TrainerID,
		referral.TrainerName,
		referral.Date,
		referral.CaseDetails,
		caseTypeStrings(referral.CaseTypes),
		referral.RepetitionLevel,
		referral.PreviousActions,
		referral.Status,
		referral.TrainerSigned,
		referral.HODSigned,
		referral.CounselorSigned,
		referral.AIAdvisory,
	); err != nil {
		return mapWriteError(err, "referral")
	}
	if err := appendTimeline(ctx, tx, referral.ID, referral.Timeline, 0); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	referral.Version = 1
	return nil
}

func (r *referralRepository) Update(ctx context.Context, referral *domain.Referral, expectedVersion int) error {
	const query = `
        UPDATE referrals
        SET status=$1, trainer_signed=$2, hod_signed=$3, counselor_signed=$4, ai_advisory=$5,
            version=version+1, updated_at=NOW()
        WHERE id=$6 AND version=$7
        RETURNING version`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var newVersion int
	err = tx.QueryRow(ctx, query,
		referral.Status,
		referral.TrainerSigned,
		referral.HODSigned,
		referral.CounselorSigned,
		referral.AIAdvisory,
		referral.ID,
		expectedVersion,
	).Scan(&newVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		var actual int
		if err := tx.QueryRow(ctx, `SELECT version FROM referrals WHERE id=$1`, referral.ID).Scan(&actual); err != nil {
			return err
		}
		return apperrors.NewStaleVersion(referral.ID, expectedVersion, actual)
	}
	if err != nil {
		return err
	}

	var stored int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM referral_timeline WHERE referral_id=$1`, referral.ID).Scan(&stored); err != nil {
		return err
	}
	if stored < len(referral.Timeline) {
		if err := appendTimeline(ctx, tx, referral.ID, referral.Timeline[stored:], stored); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	referral.Version = newVersion
	return nil
}

func (r *referralRepository) GetByID(ctx context.Context, id string) (*domain.Referral, error) {
	query := `SELECT ` + referralColumns + ` FROM referrals WHERE id=$1`
	referral, err := scanReferral(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	timelines, err := r.loadTimelines(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	referral.Timeline = timelines[id]
	return referral, nil
}

func (r *referralRepository) List(ctx context.Context, filter ReferralFilter) ([]domain.Referral, error) {
	query := `SELECT ` + referralColumns + ` FROM referrals`
	args := []any{}
	clauses := []string{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Specialization != nil {
		args = append(args, *filter.Specialization)
		clauses = append(clauses, fmt.Sprintf("specialization=$%d", len(args)))
	}
	if filter.TrainerID != nil {
		args = append(args, *filter.TrainerID)
		clauses = append(clauses, fmt.Sprintf("trainer_id=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY referral_date DESC, id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Referral
	var ids []string
	for rows.Next() {
		referral, err := scanReferral(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *referral)
		ids = append(ids, referral.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return result, nil
	}

	timelines, err := r.loadTimelines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Timeline = timelines[result[i].ID]
	}
	return result, nil
}

func (r *referralRepository) CountOpenByTrainer(ctx context.Context, trainerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM referrals WHERE trainer_id=$1 AND status NOT IN ($2,$3)`
	var n int
	err := r.pool.QueryRow(ctx, query, trainerID, domain.StatusResolved, domain.StatusToStudentAffairs).Scan(&n)
	return n, err
}

func (r *referralRepository) loadTimelines(ctx context.Context, ids []string) (map[string][]domain.TimelineEvent, error) {
	const query = `
        SELECT referral_id, id, occurred_at, actor_role, actor_name, action, comment
        FROM referral_timeline
        WHERE referral_id = ANY($1)
        ORDER BY referral_id, position`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.TimelineEvent, len(ids))
	for rows.Next() {
		var referralID string
		var ev domain.TimelineEvent
		if err := rows.Scan(&referralID, &ev.ID, &ev.Timestamp, &ev.ActorRole, &ev.ActorName, &ev.Action, &ev.Comment); err != nil {
			return nil, err
		}
		out[referralID] = append(out[referralID], ev)
	}
	return out, rows.Err()
}

func appendTimeline(ctx context.Context, tx pgx.Tx, referralID string, events []domain.TimelineEvent, start int) error {
	const query = `
        INSERT INTO referral_timeline (id, referral_id, position, occurred_at, actor_role, actor_name, action, comment)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	for i, ev := range events {
		if _, err := tx.Exec(ctx, query,
			ev.ID, referralID, start+i, ev.Timestamp, ev.ActorRole, ev.ActorName, ev.Action, ev.Comment,
		); err != nil {
			return err
		}
	}
	return nil
}

func scanReferral(row pgx.Row) (*domain.Referral, error) {
	var referral domain.Referral
	var caseTypes []string
	if err := row.Scan(
		&referral.ID,
		&referral.TraineeName,
		&referral.TrainingNumber,
		&referral.Specialization,
		&referral.TrainerID,
		&referral.TrainerName,
		&referral.Date,
		&referral.CaseDetails,
		&caseTypes,
		&referral.RepetitionLevel,
		&referral.PreviousActions,
		&referral.Status,
		&referral.TrainerSigned,
		&referral.HODSigned,
		&referral.CounselorSigned,
		&referral.AIAdvisory,
		&referral.Version,
	); err != nil {
		return nil, err
	}
	referral.CaseTypes = make([]domain.CaseType, 0, len(caseTypes))
	for _, c := range caseTypes {
		referral.CaseTypes = append(referral.CaseTypes, domain.CaseType(c))
	}
	return &referral, nil
}

func caseTypeStrings(in []domain.CaseType) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		out = append(out, string(c))
	}
	return out
}
