package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"magician-server/internal/domain"
)

// SupabaseUsageRepository implements domain.UsageRepository over PostgREST.
//
// PostgREST offers no atomic increment without a stored procedure, so IncrementUsage
// reads then writes. Two concurrent requests of the same user may both pass the
// gate and land on the same count.
type SupabaseUsageRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseUsageRepository creates a new Supabase usage repository
func NewSupabaseUsageRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.UsageRepository {
	return &SupabaseUsageRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func (r *SupabaseUsageRepository) GetUsage(ctx context.Context, userID string) (*domain.UsageRecord, error) {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(usageTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}

	return decodeUsage(data)
}

func (r *SupabaseUsageRepository) IncrementUsage(ctx context.Context, userID string) (*domain.UsageRecord, error) {
	current, err := r.GetUsage(ctx, userID)
	if err != nil {
		return nil, err
	}

	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var data []byte
	if current == nil {
		data, _, err = client.From(usageTable).
			Insert(map[string]interface{}{
				"user_id":    userID,
				"count":      1,
				"created_at": now,
				"updated_at": now,
			}, false, "", "representation", "").
			Execute()
	} else {
		data, _, err = client.From(usageTable).
			Update(map[string]interface{}{
				"count":      current.GenerationCount + 1,
				"updated_at": now,
			}, "representation", "").
			Eq("user_id", userID).
			Execute()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment usage: %w", err)
	}

	record, err := decodeUsage(data)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("failed to increment usage: no row returned")
	}

	r.logger.Debug("Usage incremented", "user_id", userID, "count", record.GenerationCount)
	return record, nil
}

func decodeUsage(data []byte) (*domain.UsageRecord, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToUsage(rows[0]), nil
}

func mapToUsage(data map[string]interface{}) *domain.UsageRecord {
	return &domain.UsageRecord{
		UserID:          getString(data, "user_id"),
		GenerationCount: getInt(data, "count"),
		CreatedAt:       getTime(data, "created_at"),
		UpdatedAt:       getTime(data, "updated_at"),
	}
}
