package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"rather/internal/auth"
	"rather/internal/ratelimiter"
	"rather/internal/store"

	"go.uber.org/zap"
)

// mockStorage is an in-memory Storage that mirrors the SQL stores' ownership
// and visibility predicates, so handler tests exercise the same error mapping
// the real thing produces.
type mockStorage struct {
	mu        sync.Mutex
	questions []*store.Question
	sessions  map[string]*store.Session
	answers   []*store.Answer
	now       time.Time
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		sessions: make(map[string]*store.Session),
		now:      time.Unix(1700000000, 0).UTC(),
	}
}

// tick returns a strictly increasing clock so created_at ordering is stable.
func (m *mockStorage) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *mockStorage) addQuestion(q store.Question) *store.Question {
	m.mu.Lock()
	defer m.mu.Unlock()

	q.CreatedAt = m.tick()
	q.UpdatedAt = q.CreatedAt
	saved := q
	m.questions = append(m.questions, &saved)
	return &saved
}

func (m *mockStorage) Create(ctx context.Context, q *store.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q.CreatedAt = m.tick()
	q.UpdatedAt = q.CreatedAt
	saved := *q
	m.questions = append(m.questions, &saved)
	return nil
}

func (m *mockStorage) findOwned(id, ownerID string) *store.Question {
	for _, q := range m.questions {
		if q.ID == id && q.OwnerID != nil && *q.OwnerID == ownerID {
			return q
		}
	}
	return nil
}

func (m *mockStorage) Update(ctx context.Context, id, ownerID string, update store.QuestionUpdate) (*store.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !update.HasFields() {
		return nil, store.ErrNoFields
	}

	q := m.findOwned(id, ownerID)
	if q == nil {
		return nil, store.ErrNotFound
	}

	if update.Prompt != nil {
		q.Prompt = *update.Prompt
	}
	if update.OptionA != nil {
		q.OptionA = *update.OptionA
	}
	if update.OptionB != nil {
		q.OptionB = *update.OptionB
	}
	if update.Category != nil {
		q.Category = update.Category
	}
	if update.Language != nil {
		q.Language = update.Language
	}
	if update.IsActive != nil {
		q.IsActive = *update.IsActive
	}
	q.UpdatedAt = m.tick()

	copied := *q
	return &copied, nil
}

func (m *mockStorage) Archive(ctx context.Context, id, ownerID string) (*store.Question, error) {
	inactive := false
	return m.Update(ctx, id, ownerID, store.QuestionUpdate{IsActive: &inactive})
}

func (m *mockStorage) List(ctx context.Context, filter store.QuestionFilter) ([]store.Question, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []store.Question
	// Newest first, same as the SQL ORDER BY created_at DESC.
	for i := len(m.questions) - 1; i >= 0; i-- {
		q := m.questions[i]
		if !q.IsActive {
			continue
		}
		mine := filter.IncludeMine && q.OwnerID != nil && *q.OwnerID == filter.OwnerID
		if !q.IsSystem && !mine {
			continue
		}
		if filter.Category != "" && (q.Category == nil || *q.Category != filter.Category) {
			continue
		}
		if filter.Language != "" && (q.Language == nil || *q.Language != filter.Language) {
			continue
		}
		matches = append(matches, *q)
	}

	total := len(matches)
	offset := (filter.Page - 1) * filter.PageSize
	if offset >= total {
		return nil, total, nil
	}
	end := offset + filter.PageSize
	if end > total {
		end = total
	}
	return matches[offset:end], total, nil
}

func (m *mockStorage) CreateSession(ctx context.Context, s *store.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.CreatedAt = m.tick()
	saved := *s
	m.sessions[s.ID] = &saved
	return nil
}

func (m *mockStorage) End(ctx context.Context, id, ownerID string) (*store.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	if s.EndedAt == nil {
		ended := m.tick()
		s.EndedAt = &ended
	}

	copied := *s
	return &copied, nil
}

func (m *mockStorage) CreateAnswer(ctx context.Context, a *store.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.SessionID != nil {
		s, ok := m.sessions[*a.SessionID]
		if !ok || s.OwnerID != a.UserID {
			return store.ErrNotFound
		}
	}

	visible := false
	for _, q := range m.questions {
		owned := q.OwnerID != nil && *q.OwnerID == a.UserID
		if q.ID == a.QuestionID && q.IsActive && (q.IsSystem || owned) {
			visible = true
			break
		}
	}
	if !visible {
		return store.ErrNotFound
	}

	a.CreatedAt = m.tick()
	saved := *a
	m.answers = append(m.answers, &saved)
	return nil
}

func (m *mockStorage) ListBySession(ctx context.Context, sessionID, ownerID string) ([]store.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || s.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}

	var answers []store.Answer
	for _, a := range m.answers {
		if a.SessionID != nil && *a.SessionID == sessionID {
			answers = append(answers, *a)
		}
	}
	return answers, nil
}

// sessionStore and answerStore adapt mockStorage to the narrower interfaces,
// since Create exists on all three.
type sessionStore struct{ *mockStorage }

func (s sessionStore) Create(ctx context.Context, sess *store.Session) error {
	return s.CreateSession(ctx, sess)
}

type answerStore struct{ *mockStorage }

func (s answerStore) Create(ctx context.Context, a *store.Answer) error {
	return s.CreateAnswer(ctx, a)
}

func newTestApplication(t *testing.T) (*application, *mockStorage) {
	t.Helper()

	mock := newMockStorage()

	app := &application{
		config: config{
			env: "test",
			session: sessionConfig{
				secret:     "test-secret",
				cookieName: "ans_session",
				rootAppURL: "https://ansiversa.test",
			},
			auth: basicConfig{user: "admin", pass: "secret"},
			rateLimiter: ratelimiter.Config{
				RequestsPerTimeFrame: 1000,
				TimeFrame:            5 * time.Second,
				Enabled:              false,
			},
		},
		logger: zap.NewNop().Sugar(),
		store: store.Storage{
			Questions: mock,
			Sessions:  sessionStore{mock},
			Answers:   answerStore{mock},
		},
		verifier:    auth.NewSessionVerifier("test-secret"),
		rateLimiter: ratelimiter.NewFixedWindowLimiter(1000, 5*time.Second),
	}

	return app, mock
}

func signedCookie(t *testing.T, app *application, userID string) *http.Cookie {
	t.Helper()

	token, err := app.verifier.Sign(auth.SessionPayload{
		UserID:   userID,
		Email:    userID + "@example.com",
		Name:     "Test " + userID,
		IssuedAt: time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("signing session token: %v", err)
	}

	return &http.Cookie{Name: app.config.session.cookieName, Value: token}
}

func doRequest(t *testing.T, handler http.Handler, method, target string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()

	var env apiEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding response %q: %v", rr.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()

	env := decodeEnvelope(t, rr)
	if !env.Success {
		t.Fatalf("response not successful: %s", rr.Body.String())
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decoding data %q: %v", string(env.Data), err)
	}
}
