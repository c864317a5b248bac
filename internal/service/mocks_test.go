package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"magician-server/internal/domain"
)

type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{messages: []string{}}
}

func (m *MockLogger) add(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, s)
}

func (m *MockLogger) Info(msg string, args ...interface{})  { m.add("INFO: " + msg) }
func (m *MockLogger) Debug(msg string, args ...interface{}) { m.add("DEBUG: " + msg) }
func (m *MockLogger) Warn(msg string, args ...interface{})  { m.add("WARN: " + msg) }

func (m *MockLogger) Error(msg string, err error, args ...interface{}) {
	if err != nil {
		m.add("ERROR: " + msg + " - " + err.Error())
		return
	}
	m.add("ERROR: " + msg)
}

func (m *MockLogger) With(args ...interface{}) domain.Logger { return m }

func (m *MockLogger) has(prefix string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if len(msg) >= len(prefix) && msg[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// memoryUsageRepo is an in-memory domain.UsageRepository.
type memoryUsageRepo struct {
	mu        sync.Mutex
	counts    map[string]int
	getErr    error
	incErr    error
	incCalls  int
	readCalls int
}

func newMemoryUsageRepo() *memoryUsageRepo {
	return &memoryUsageRepo{counts: make(map[string]int)}
}

func (m *memoryUsageRepo) GetUsage(ctx context.Context, userID string) (*domain.UsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	count, ok := m.counts[userID]
	if !ok {
		return nil, nil
	}
	return &domain.UsageRecord{UserID: userID, GenerationCount: count}, nil
}

func (m *memoryUsageRepo) IncrementUsage(ctx context.Context, userID string) (*domain.UsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incCalls++
	if m.incErr != nil {
		return nil, m.incErr
	}
	m.counts[userID]++
	return &domain.UsageRecord{UserID: userID, GenerationCount: m.counts[userID]}, nil
}

// memorySubscriptionRepo is an in-memory domain.SubscriptionRepository.
type memorySubscriptionRepo struct {
	mu      sync.Mutex
	records map[string]*domain.SubscriptionRecord
	getErr  error
	writes  int
}

func newMemorySubscriptionRepo() *memorySubscriptionRepo {
	return &memorySubscriptionRepo{records: make(map[string]*domain.SubscriptionRecord)}
}

func (m *memorySubscriptionRepo) GetByUserID(ctx context.Context, userID string) (*domain.SubscriptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[userID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *memorySubscriptionRepo) UpsertForUser(ctx context.Context, record *domain.SubscriptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	cp := *record
	m.records[record.UserID] = &cp
	return nil
}

func (m *memorySubscriptionRepo) UpdateBillingPeriod(ctx context.Context, subscriptionID, priceID string, periodEnd time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.BillingSubscriptionID == subscriptionID {
			m.writes++
			rec.BillingPriceID = priceID
			rec.CurrentPeriodEnd = periodEnd
			return nil
		}
	}
	return domain.ErrSubscriptionNotFound
}

type mockChatProvider struct {
	calls    int
	received []domain.ChatMessage
	reply    *domain.ChatMessage
	err      error
}

func (m *mockChatProvider) Name() string { return "MockChat" }

func (m *mockChatProvider) Complete(ctx context.Context, messages []domain.ChatMessage) (*domain.ChatMessage, error) {
	m.calls++
	m.received = messages
	if m.err != nil {
		return nil, m.err
	}
	if m.reply != nil {
		return m.reply, nil
	}
	return &domain.ChatMessage{Role: domain.RoleAssistant, Content: "ok"}, nil
}

type mockImageProvider struct {
	calls      int
	amount     int
	resolution string
	err        error
}

func (m *mockImageProvider) Name() string { return "MockImage" }

func (m *mockImageProvider) GenerateImages(ctx context.Context, prompt string, amount int, resolution string) ([]domain.ImageResult, error) {
	m.calls++
	m.amount = amount
	m.resolution = resolution
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.ImageResult, amount)
	for i := range out {
		out[i] = domain.ImageResult{URL: "https://img/" + prompt}
	}
	return out, nil
}

type mockMediaProvider struct {
	musicCalls int
	videoCalls int
	err        error
}

func (m *mockMediaProvider) Name() string { return "MockMedia" }

func (m *mockMediaProvider) GenerateMusic(ctx context.Context, prompt string) (*domain.MusicResult, error) {
	m.musicCalls++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.MusicResult{Audio: "https://audio/" + prompt}, nil
}

func (m *mockMediaProvider) GenerateVideo(ctx context.Context, prompt string) ([]string, error) {
	m.videoCalls++
	if m.err != nil {
		return nil, m.err
	}
	return []string{"https://video/" + prompt}, nil
}

type mockGateway struct {
	subscriptions  map[string]*domain.BillingSubscription
	checkoutCalls  []domain.CheckoutRequest
	portalCustomer string
	portalReturn   string
	err            error
}

func newMockGateway() *mockGateway {
	return &mockGateway{subscriptions: make(map[string]*domain.BillingSubscription)}
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.checkoutCalls = append(m.checkoutCalls, req)
	return "https://checkout.stripe.test/" + req.UserID, nil
}

func (m *mockGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.portalCustomer = customerID
	m.portalReturn = returnURL
	return "https://billing.stripe.test/" + customerID, nil
}

func (m *mockGateway) GetSubscription(ctx context.Context, subscriptionID string) (*domain.BillingSubscription, error) {
	if m.err != nil {
		return nil, m.err
	}
	sub, ok := m.subscriptions[subscriptionID]
	if !ok {
		return nil, errors.New("no such subscription")
	}
	return sub, nil
}

func (m *mockGateway) ParseEvent(payload []byte, signature string) (domain.BillingEvent, error) {
	return nil, errors.New("not implemented")
}

// fixedClock returns a time source frozen at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
