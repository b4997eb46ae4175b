package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ainotes-dev/ainotes/internal/apperr"
	"github.com/ainotes-dev/ainotes/internal/log"
	"github.com/ainotes-dev/ainotes/internal/model"
	"github.com/ainotes-dev/ainotes/internal/session"
	"github.com/ainotes-dev/ainotes/internal/storage"
	"github.com/ainotes-dev/ainotes/internal/testutil"
)

type harness struct {
	backend *testutil.Backend
	client  *Client
	session *session.Manager
	store   *storage.Memory
	logger  *log.Logger
	user    model.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := testutil.NewBackend(t)
	user := b.AddUser(t, "alice@example.com", "alice", "secret1")

	logger, err := log.NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	store := storage.NewMemory()
	c := NewClient(b.URL, 5*time.Second, logger)
	m := session.NewManager(store, c, logger)
	c.UseSession(m)

	return &harness{backend: b, client: c, session: m, store: store, logger: logger, user: user}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	if err := h.session.Login(context.Background(), "alice", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func loggedEvent(t *testing.T, logger *log.Logger, event string) bool {
	t.Helper()
	events, err := logger.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	for _, e := range events {
		if e.Event == event {
			return true
		}
	}
	return false
}

func TestLogin_SentWithoutCredential(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	for _, r := range h.backend.Requests() {
		if r.Path == "/auth/login" && r.Authorization != "" {
			t.Errorf("login carried Authorization %q", r.Authorization)
		}
		if r.Path == "/auth/me" && r.Authorization == "" {
			t.Error("profile request missing bearer credential")
		}
	}
	if !h.session.Authenticated() {
		t.Error("session not authenticated after login")
	}
}

func TestLogin_BadCredentialsNeverRefresh(t *testing.T) {
	h := newHarness(t)

	err := h.session.Login(context.Background(), "alice", "wrong-password")
	if !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("Login() error = %v, want auth error", err)
	}
	if !apperr.IsUnauthorized(err) {
		t.Errorf("IsUnauthorized(%v) = false", err)
	}
	if n := h.backend.RefreshCalls(); n != 0 {
		t.Errorf("refresh calls = %d, want 0", n)
	}
}

func TestDo_RefreshesAndRetriesOnce(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	before := h.session.AccessToken()

	h.backend.ExpireAccessTokens()

	notes, err := h.client.ListNotes(context.Background())
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("len(notes) = %d, want 0", len(notes))
	}
	if n := h.backend.RefreshCalls(); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}
	if n := h.backend.Count(http.MethodGet, "/notes/"); n != 2 {
		t.Errorf("list requests = %d, want original plus one retry", n)
	}
	if h.session.AccessToken() == before {
		t.Error("access token was not replaced")
	}
	if !loggedEvent(t, h.logger, log.EventRequestRetried) {
		t.Error("missing request_retried event")
	}
}

func TestDo_RetriedRequestIsFinal(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.backend.FailNext(http.MethodGet, "/notes/", http.StatusUnauthorized, "expired")
	h.backend.FailNext(http.MethodGet, "/notes/", http.StatusUnauthorized, "still expired")

	_, err := h.client.ListNotes(context.Background())
	if !apperr.IsUnauthorized(err) {
		t.Fatalf("ListNotes() error = %v, want 401", err)
	}
	if n := h.backend.RefreshCalls(); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}
	if n := h.backend.Count(http.MethodGet, "/notes/"); n != 2 {
		t.Errorf("list requests = %d, want 2", n)
	}
}

func TestDo_RefreshFailureEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	expired := 0
	h.session.OnExpired(func() { expired++ })

	h.backend.ExpireAccessTokens()
	h.backend.RevokeRefreshTokens()

	_, err := h.client.ListNotes(context.Background())
	if !apperr.IsUnauthorized(err) {
		t.Fatalf("ListNotes() error = %v, want the original 401", err)
	}
	if h.session.Authenticated() {
		t.Error("session still authenticated")
	}
	if h.session.AccessToken() != "" || h.session.HasRefreshToken() {
		t.Error("tokens survived a failed refresh")
	}
	if expired != 1 {
		t.Errorf("expiry hook fired %d times, want 1", expired)
	}
	if n := h.backend.Count(http.MethodGet, "/notes/"); n != 1 {
		t.Errorf("list requests = %d, want no retry", n)
	}
}

func TestDo_ConcurrentUnauthorizedShareRefresh(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.backend.ExpireAccessTokens()
	h.backend.SetRefreshDelay(50 * time.Millisecond)

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.client.ListNotes(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if n := h.backend.RefreshCalls(); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}
}

func TestInitialize_RefreshesExpiredAccess(t *testing.T) {
	h := newHarness(t)
	pair := h.backend.IssueTokens(t, h.user.ID)
	if err := h.store.SetMany(map[string]string{
		storage.KeyAccessToken:  pair.AccessToken,
		storage.KeyRefreshToken: pair.RefreshToken,
	}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	h.backend.ExpireAccessTokens()

	if got := h.session.Initialize(context.Background()); got != session.StateAuthenticated {
		t.Fatalf("Initialize() = %v, want authenticated", got)
	}
	if u := h.session.User(); u == nil || u.Email != "alice@example.com" {
		t.Errorf("User() = %+v", u)
	}
}

func TestDo_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		detail string
		kind   error
	}{
		{http.StatusBadRequest, "bad", apperr.ErrValidation},
		{http.StatusForbidden, "nope", apperr.ErrAuth},
		{http.StatusNotFound, "Note not found", apperr.ErrNotFound},
		{http.StatusUnprocessableEntity, "invalid", apperr.ErrValidation},
		{http.StatusInternalServerError, "boom", apperr.ErrServer},
	}

	h := newHarness(t)
	h.login(t)

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			h.backend.FailNext(http.MethodGet, "/notes/n1", tt.status, tt.detail)

			_, err := h.client.GetNote(context.Background(), "n1")
			if !errors.Is(err, tt.kind) {
				t.Fatalf("GetNote() error = %v, want %v", err, tt.kind)
			}
			var e *apperr.Error
			if !errors.As(err, &e) {
				t.Fatalf("error %T is not *apperr.Error", err)
			}
			if e.Status != tt.status || e.Detail != tt.detail {
				t.Errorf("status/detail = %d/%q, want %d/%q", e.Status, e.Detail, tt.status, tt.detail)
			}
		})
	}
}

func TestDo_NetworkFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/api", time.Second, nil)

	_, err := c.ListNotes(context.Background())
	if !errors.Is(err, apperr.ErrNetwork) {
		t.Fatalf("ListNotes() error = %v, want network error", err)
	}
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Email already registered"}`, "Email already registered"},
		{"validation list", `{"detail":[{"msg":"field required"},{"msg":"too short"}]}`, "field required; too short"},
		{"plain text", "Internal Server Error\n", "Internal Server Error"},
		{"empty", "", ""},
		{"object detail", `{"detail":{"code":7}}`, `{"code":7}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorDetail([]byte(tt.body)); got != tt.want {
				t.Errorf("errorDetail(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}
