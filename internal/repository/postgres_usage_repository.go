package repository

import (
	"context"
	"errors"
	"fmt"

	"magician-server/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUsageRepository implements domain.UsageRepository with a direct connection.
// Increments are a single upsert, so concurrent requests never lose a count.
type PostgresUsageRepository struct {
	db *pgxpool.Pool
}

func NewPostgresUsageRepository(db *pgxpool.Pool) domain.UsageRepository {
	return &PostgresUsageRepository{db: db}
}

func (r *PostgresUsageRepository) GetUsage(ctx context.Context, userID string) (*domain.UsageRecord, error) {
	var rec domain.UsageRecord
	query := `
        SELECT user_id, count, created_at, updated_at
        FROM user_api_limits
        WHERE user_id = $1
    `
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&rec.UserID,
		&rec.GenerationCount,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	return &rec, nil
}

func (r *PostgresUsageRepository) IncrementUsage(ctx context.Context, userID string) (*domain.UsageRecord, error) {
	var rec domain.UsageRecord
	query := `
        INSERT INTO user_api_limits (user_id, count, created_at, updated_at)
        VALUES ($1, 1, NOW(), NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            count = user_api_limits.count + 1,
            updated_at = NOW()
        RETURNING user_id, count, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&rec.UserID,
		&rec.GenerationCount,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to increment usage: %w", err)
	}
	return &rec, nil
}
