package handler

import (
	"context"
	"net/http"
	"sync"

	"magician-server/internal/domain"
)

// Mock logger used by handler package tests.
type MockHandlerLogger struct {
	mu     sync.Mutex
	errors []string
}

func NewMockHandlerLogger() *MockHandlerLogger {
	return &MockHandlerLogger{}
}

func (l *MockHandlerLogger) Info(msg string, fields ...interface{})  {}
func (l *MockHandlerLogger) Debug(msg string, fields ...interface{}) {}
func (l *MockHandlerLogger) Warn(msg string, fields ...interface{})  {}
func (l *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}
func (l *MockHandlerLogger) With(fields ...interface{}) domain.Logger { return l }

type mockAuthService struct {
	user      *domain.AuthUser
	err       error
	lastToken string
}

func (m *mockAuthService) ValidateToken(token string) (*domain.AuthUser, error) {
	m.lastToken = token
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

// withUser returns r carrying an authenticated user, as AuthMiddleware would.
func withUser(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, &domain.AuthUser{ID: userID, Email: userID + "@example.com"})
	return r.WithContext(ctx)
}

type mockGenerationService struct {
	calls  int
	userID string
	chat   domain.ChatRequest
	image  domain.ImageRequest
	prompt domain.PromptRequest
	err    error
}

func (m *mockGenerationService) Converse(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatMessage, error) {
	m.calls++
	m.userID = userID
	m.chat = req
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ChatMessage{Role: "assistant", Content: "Hi there"}, nil
}

func (m *mockGenerationService) GenerateCode(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatMessage, error) {
	m.calls++
	m.userID = userID
	m.chat = req
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ChatMessage{Role: "assistant", Content: "```go\n```"}, nil
}

func (m *mockGenerationService) GenerateImage(ctx context.Context, userID string, req domain.ImageRequest) ([]domain.ImageResult, error) {
	m.calls++
	m.userID = userID
	m.image = req
	if m.err != nil {
		return nil, m.err
	}
	return []domain.ImageResult{{URL: "https://img/1.png"}}, nil
}

func (m *mockGenerationService) GenerateMusic(ctx context.Context, userID string, req domain.PromptRequest) (*domain.MusicResult, error) {
	m.calls++
	m.userID = userID
	m.prompt = req
	if m.err != nil {
		return nil, m.err
	}
	return &domain.MusicResult{Audio: "https://audio/1.mp3", Spectrogram: "https://audio/1.png"}, nil
}

func (m *mockGenerationService) GenerateVideo(ctx context.Context, userID string, req domain.PromptRequest) ([]string, error) {
	m.calls++
	m.userID = userID
	m.prompt = req
	if m.err != nil {
		return nil, m.err
	}
	return []string{"https://video/1.mp4"}, nil
}

type mockBillingService struct {
	url string
	err error
}

func (m *mockBillingService) ManageURL(ctx context.Context, user *domain.AuthUser) (string, error) {
	return m.url, m.err
}

type mockUsageGate struct {
	summary *domain.UsageSummary
	err     error
}

func (m *mockUsageGate) IsWithinFreeTier(ctx context.Context, userID string) (bool, error) {
	return true, nil
}
func (m *mockUsageGate) IsSubscribed(ctx context.Context, userID string) (bool, error) {
	return false, nil
}
func (m *mockUsageGate) RecordUsage(ctx context.Context, userID string) error { return nil }
func (m *mockUsageGate) Check(ctx context.Context, userID string) (domain.Entitlement, error) {
	return domain.Entitlement{WithinFreeTier: true}, nil
}
func (m *mockUsageGate) Summary(ctx context.Context, userID string) (*domain.UsageSummary, error) {
	return m.summary, m.err
}

type mockGateway struct {
	event domain.BillingEvent
	err   error
	body  []byte
	sig   string
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	return "", nil
}
func (m *mockGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	return "", nil
}
func (m *mockGateway) GetSubscription(ctx context.Context, subscriptionID string) (*domain.BillingSubscription, error) {
	return nil, nil
}
func (m *mockGateway) ParseEvent(payload []byte, signature string) (domain.BillingEvent, error) {
	m.body = payload
	m.sig = signature
	return m.event, m.err
}

type mockLedger struct {
	applied []domain.BillingEvent
	err     error
}

func (m *mockLedger) Apply(ctx context.Context, event domain.BillingEvent) error {
	m.applied = append(m.applied, event)
	return m.err
}
