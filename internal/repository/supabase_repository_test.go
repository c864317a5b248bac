package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"magician-server/internal/domain"
	"magician-server/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/supabase-go"
)

// fakePostgREST serves the subset of the PostgREST API the repositories use:
// eq filters, inserts, upserts with on_conflict and updates returning rows.
type fakePostgREST struct {
	mu       sync.Mutex
	tables   map[string][]map[string]interface{}
	requests []string
	failWith int
}

func newFakePostgREST() *fakePostgREST {
	return &fakePostgREST{tables: make(map[string][]map[string]interface{})}
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	f.requests = append(f.requests, r.Method+" "+table)

	if f.failWith != 0 {
		writeFakeJSON(w, f.failWith, map[string]string{"code": "XX000", "message": "boom"})
		return
	}

	filters := map[string]string{}
	for key, values := range r.URL.Query() {
		if key == "select" || key == "on_conflict" || len(values) == 0 {
			continue
		}
		filters[key] = strings.TrimPrefix(values[0], "eq.")
	}

	switch r.Method {
	case http.MethodGet:
		writeFakeJSON(w, http.StatusOK, f.match(table, filters))
	case http.MethodPost:
		row, ok := decodeFakeBody(w, r)
		if !ok {
			return
		}
		key := r.URL.Query().Get("on_conflict")
		if key == "" {
			key = "user_id"
		}
		for _, existing := range f.tables[table] {
			if existing[key] != row[key] {
				continue
			}
			if r.URL.Query().Get("on_conflict") == "" {
				writeFakeJSON(w, http.StatusConflict, map[string]string{"code": "23505", "message": "duplicate key value"})
				return
			}
			for k, v := range row {
				existing[k] = v
			}
			writeFakeJSON(w, http.StatusCreated, []map[string]interface{}{existing})
			return
		}
		f.tables[table] = append(f.tables[table], row)
		writeFakeJSON(w, http.StatusCreated, []map[string]interface{}{row})
	case http.MethodPatch:
		patch, ok := decodeFakeBody(w, r)
		if !ok {
			return
		}
		updated := f.match(table, filters)
		for _, row := range updated {
			for k, v := range patch {
				row[k] = v
			}
		}
		writeFakeJSON(w, http.StatusOK, updated)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakePostgREST) match(table string, filters map[string]string) []map[string]interface{} {
	rows := []map[string]interface{}{}
	for _, row := range f.tables[table] {
		matched := true
		for k, v := range filters {
			if s, _ := row[k].(string); s != v {
				matched = false
				break
			}
		}
		if matched {
			rows = append(rows, row)
		}
	}
	return rows
}

func (f *fakePostgREST) rows(table string) []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tables[table]
}

func (f *fakePostgREST) countRequests(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, req := range f.requests {
		if strings.HasPrefix(req, prefix) {
			n++
		}
	}
	return n
}

func decodeFakeBody(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, false
	}
	var row map[string]interface{}
	if err := json.Unmarshal(body, &row); err != nil {
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"code": "PGRST102", "message": "invalid body"})
		return nil, false
	}
	return row, true
}

func writeFakeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type stubSupabaseClient struct {
	client *supabase.Client
}

func (s *stubSupabaseClient) Initialize() error { return nil }

func (s *stubSupabaseClient) ValidateToken(token string) (*domain.AuthUser, error) {
	return nil, domain.ErrInvalidToken
}

func (s *stubSupabaseClient) DB() *supabase.Client { return s.client }

func newSupabaseBackedRepos(t *testing.T) (*fakePostgREST, domain.UsageRepository, domain.SubscriptionRepository) {
	t.Helper()
	fake := newFakePostgREST()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := supabase.NewClient(server.URL, "service-role-key", nil)
	require.NoError(t, err)

	stub := &stubSupabaseClient{client: client}
	log := logger.NewLoggerWithWriter("error", io.Discard)
	return fake, NewSupabaseUsageRepository(stub, log), NewSupabaseSubscriptionRepository(stub, log)
}

func TestSupabaseUsageRepository_IncrementCreatesThenAdds(t *testing.T) {
	fake, usage, _ := newSupabaseBackedRepos(t)
	ctx := context.Background()

	rec, err := usage.GetUsage(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = usage.IncrementUsage(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.GenerationCount)
	assert.Equal(t, 1, fake.countRequests("POST "+usageTable))

	rec, err = usage.IncrementUsage(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.GenerationCount)
	assert.Equal(t, 1, fake.countRequests("POST "+usageTable), "second use must update, not insert")
	assert.Equal(t, 1, fake.countRequests("PATCH "+usageTable))

	rec, err = usage.GetUsage(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 2, rec.GenerationCount)
	assert.False(t, rec.UpdatedAt.IsZero())

	other, err := usage.GetUsage(ctx, "user-2")
	require.NoError(t, err)
	assert.Nil(t, other)
	assert.Len(t, fake.rows(usageTable), 1)
}

func TestSupabaseUsageRepository_ServerError(t *testing.T) {
	fake, usage, _ := newSupabaseBackedRepos(t)
	fake.failWith = http.StatusInternalServerError

	_, err := usage.IncrementUsage(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestSupabaseRepositories_NotInitialized(t *testing.T) {
	log := logger.NewLoggerWithWriter("error", io.Discard)
	usage := NewSupabaseUsageRepository(&stubSupabaseClient{}, log)
	subs := NewSupabaseSubscriptionRepository(nil, log)

	_, err := usage.GetUsage(context.Background(), "user-1")
	assert.Error(t, err)
	_, err = subs.GetByUserID(context.Background(), "user-1")
	assert.Error(t, err)
}

func TestSupabaseSubscriptionRepository_UpsertByUser(t *testing.T) {
	fake, _, subs := newSupabaseBackedRepos(t)
	ctx := context.Background()
	periodEnd := time.Date(2026, 11, 17, 0, 0, 0, 0, time.UTC)

	err := subs.UpsertForUser(ctx, &domain.SubscriptionRecord{
		UserID:                "user-1",
		BillingSubscriptionID: "sub_1",
		BillingPriceID:        "price_1",
		CurrentPeriodEnd:      periodEnd,
	})
	require.NoError(t, err)

	rows := fake.rows(subscriptionTable)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["stripe_customer_id"], "missing customer id is stored as NULL")

	err = subs.UpsertForUser(ctx, &domain.SubscriptionRecord{
		UserID:                "user-1",
		BillingCustomerID:     "cus_1",
		BillingSubscriptionID: "sub_2",
		BillingPriceID:        "price_1",
		CurrentPeriodEnd:      periodEnd,
	})
	require.NoError(t, err)
	assert.Len(t, fake.rows(subscriptionTable), 1, "resubscribing overwrites the user's row")

	rec, err := subs.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "cus_1", rec.BillingCustomerID)
	assert.Equal(t, "sub_2", rec.BillingSubscriptionID)
	assert.True(t, rec.CurrentPeriodEnd.Equal(periodEnd))
}

func TestSupabaseSubscriptionRepository_UpdateBillingPeriod(t *testing.T) {
	_, _, subs := newSupabaseBackedRepos(t)
	ctx := context.Background()

	require.NoError(t, subs.UpsertForUser(ctx, &domain.SubscriptionRecord{
		UserID:                "user-1",
		BillingCustomerID:     "cus_1",
		BillingSubscriptionID: "sub_1",
		BillingPriceID:        "price_1",
		CurrentPeriodEnd:      time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
	}))

	renewed := time.Date(2026, 11, 17, 0, 0, 0, 0, time.UTC)
	require.NoError(t, subs.UpdateBillingPeriod(ctx, "sub_1", "price_2", renewed))

	rec, err := subs.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "price_2", rec.BillingPriceID)
	assert.True(t, rec.CurrentPeriodEnd.Equal(renewed))
	assert.Equal(t, "cus_1", rec.BillingCustomerID)
}

func TestSupabaseSubscriptionRepository_UpdateUnknownSubscription(t *testing.T) {
	fake, _, subs := newSupabaseBackedRepos(t)

	err := subs.UpdateBillingPeriod(context.Background(), "sub_missing", "price_1", time.Now())
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
	assert.Empty(t, fake.rows(subscriptionTable), "an unknown subscription must not create a row")
}
