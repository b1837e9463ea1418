package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/internal/repository"
)

type rewardsRepository struct {
	db *sqlx.DB
}

func NewRewardsRepository(db *sqlx.DB) repository.RewardsRepository {
	return &rewardsRepository{db: db}
}

func (r *rewardsRepository) ListOpenRequests(ctx context.Context) ([]*model.HelpRequest, error) {
	query := `
		SELECT id, name, situation, location, reward, created_at
		FROM help_requests
		WHERE accepted_by IS NULL
		ORDER BY created_at DESC
	`
	var requests []*model.HelpRequest
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, fmt.Errorf("failed to list help requests: %w", err)
	}
	return requests, nil
}

func (r *rewardsRepository) DeleteRequest(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM help_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete help request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *rewardsRepository) GetStats(ctx context.Context, userID string) (*model.HelperStats, error) {
	query := `
		SELECT user_id, coins, total_assists
		FROM helper_stats
		WHERE user_id = $1
	`
	var stats model.HelperStats
	err := r.db.GetContext(ctx, &stats, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.HelperStats{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get helper stats: %w", err)
	}
	return &stats, nil
}

// ApplyReward removes the accepted request and credits the helper in one
// transaction, so a request can never pay out twice. The reward amount
// is read from the deleted row itself, never from an earlier snapshot.
func (r *rewardsRepository) ApplyReward(ctx context.Context, userID, requestID string) (*model.HelperStats, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var coins int
	err = tx.GetContext(ctx, &coins, `DELETE FROM help_requests WHERE id = $1 RETURNING reward`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to close help request: %w", err)
	}

	query := `
		INSERT INTO helper_stats (user_id, coins, total_assists)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id)
		DO UPDATE SET coins = helper_stats.coins + $2,
		              total_assists = helper_stats.total_assists + 1
		RETURNING user_id, coins, total_assists
	`
	var stats model.HelperStats
	if err := tx.GetContext(ctx, &stats, query, userID, coins); err != nil {
		return nil, fmt.Errorf("failed to credit helper: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reward: %w", err)
	}
	return &stats, nil
}
