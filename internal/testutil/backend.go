package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ainotes-dev/ainotes/internal/model"
)

// Recorded is one request seen by the Backend. Path is relative to /api.
type Recorded struct {
	Method        string
	Path          string
	Authorization string
}

type injected struct {
	method string
	path   string
	status int
	detail string
}

type account struct {
	user model.User
	hash []byte
}

type tokenClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Backend is an in-memory notes server speaking the same HTTP API as the
// real one: bearer access tokens, rotating refresh tokens, FastAPI-style
// {"detail": ...} errors.
type Backend struct {
	// URL is the API root, e.g. http://127.0.0.1:1234/api.
	URL string

	srv       *httptest.Server
	secret    []byte
	accessTTL time.Duration

	mu           sync.Mutex
	accounts     map[string]*account // by user id
	notes        []model.Note        // newest first
	history      []model.QAHistory
	refresh      map[string]string // active refresh token -> user id
	issued       []string
	revoked      map[string]bool
	refreshCalls int
	refreshDelay time.Duration
	requests     []Recorded
	failures     []injected
	answer       *string
}

// NewBackend starts a Backend that is closed when the test finishes.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		secret:    []byte("test-secret-" + uuid.NewString()),
		accessTTL: 30 * time.Minute,
		accounts:  make(map[string]*account),
		refresh:   make(map[string]string),
		revoked:   make(map[string]bool),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api", func(r chi.Router) {
		r.Use(b.record)
		r.Use(b.inject)

		r.Post("/auth/register", b.handleRegister)
		r.Post("/auth/login", b.handleLogin)
		r.Post("/auth/refresh", b.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(b.requireAccess)
			r.Get("/auth/me", b.handleMe)
			r.Get("/notes/", b.handleListNotes)
			r.Post("/notes/", b.handleCreateNote)
			r.Post("/notes/upload-image", b.handleUploadImage)
			r.Post("/notes/ask", b.handleAsk)
			r.Get("/notes/chat-history", b.handleListHistory)
			r.Get("/notes/chat-history/{id}", b.handleGetHistory)
			r.Delete("/notes/chat-history/{id}", b.handleDeleteHistory)
			r.Get("/notes/{id}", b.handleGetNote)
			r.Put("/notes/{id}", b.handleUpdateNote)
			r.Delete("/notes/{id}", b.handleDeleteNote)
		})
	})

	b.srv = httptest.NewServer(r)
	b.URL = b.srv.URL + "/api"
	t.Cleanup(b.srv.Close)
	return b
}

// AddUser registers an account directly and returns it.
func (b *Backend) AddUser(t *testing.T, email, username, password string) model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addAccount(email, username, hash)
}

func (b *Backend) addAccount(email, username string, hash []byte) model.User {
	now := time.Now().UTC()
	user := model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  model.StringPtr(username),
		IsActive:  true,
		Role:      "user",
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.accounts[user.ID] = &account{user: user, hash: hash}
	return user
}

// IssueTokens mints a valid pair for userID without going through login.
func (b *Backend) IssueTokens(t *testing.T, userID string) model.TokenPair {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	pair, err := b.issue(userID)
	if err != nil {
		t.Fatalf("issuing tokens: %v", err)
	}
	return pair
}

// SeedNote stores n for userID. Zero ID and timestamps are filled in.
func (b *Backend) SeedNote(userID string, n model.Note) model.Note {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	n.UserID = userID
	b.notes = append(b.notes, n)
	return n
}

// Notes returns the stored notes of userID in server order.
func (b *Backend) Notes(userID string) []model.Note {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notesOf(userID)
}

// ExpireAccessTokens invalidates every access token issued so far.
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tok := range b.issued {
		b.revoked[tok] = true
	}
}

// RevokeRefreshTokens invalidates every outstanding refresh token.
func (b *Backend) RevokeRefreshTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh = make(map[string]string)
}

// FailNext makes the next request matching method and path (relative to
// /api) answer with status and detail.
func (b *Backend) FailNext(method, path string, status int, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, injected{method: method, path: path, status: status, detail: detail})
}

// SetAnswer fixes the answer text returned by /notes/ask.
func (b *Backend) SetAnswer(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.answer = &text
}

// SetRefreshDelay slows down /auth/refresh so concurrent callers overlap.
func (b *Backend) SetRefreshDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshDelay = d
}

// RefreshCalls returns how many times /auth/refresh was hit.
func (b *Backend) RefreshCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls
}

// Requests returns every request seen so far.
func (b *Backend) Requests() []Recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Recorded, len(b.requests))
	copy(out, b.requests)
	return out
}

// Count returns how many requests matched method and path.
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// --- middleware ---

func apiPath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/api")
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, Recorded{
			Method:        r.Method,
			Path:          apiPath(r),
			Authorization: r.Header.Get("Authorization"),
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		for i, f := range b.failures {
			if f.method == r.Method && f.path == apiPath(r) {
				b.failures = append(b.failures[:i], b.failures[i+1:]...)
				b.mu.Unlock()
				writeDetail(w, f.status, f.detail)
				return
			}
		}
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims, err := b.parse(raw, "access")
		b.mu.Lock()
		revoked := b.revoked[raw]
		_, known := b.accounts[subjectOf(claims)]
		b.mu.Unlock()
		if err != nil || revoked || !known {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		r.Header.Set("X-Test-User", claims.Subject)
		next.ServeHTTP(w, r)
	})
}

func subjectOf(c *tokenClaims) string {
	if c == nil {
		return ""
	}
	return c.Subject
}

func userID(r *http.Request) string {
	return r.Header.Get("X-Test-User")
}

// --- tokens ---

func (b *Backend) mint(userID, kind string, ttl time.Duration) (string, error) {
	claims := tokenClaims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
}

// issue must be called with mu held.
func (b *Backend) issue(userID string) (model.TokenPair, error) {
	access, err := b.mint(userID, "access", b.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := b.mint(userID, "refresh", 7*24*time.Hour)
	if err != nil {
		return model.TokenPair{}, err
	}
	b.issued = append(b.issued, access)
	b.refresh[refresh] = userID
	return model.TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

func (b *Backend) parse(raw, kind string) (*tokenClaims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Type != kind {
		return nil, fmt.Errorf("token type %q, want %q", claims.Type, kind)
	}
	return &claims, nil
}

// --- auth handlers ---

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body")
		return
	}
	if len(body.Password) < 6 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "String should have at least 6 characters"}},
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.MinCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	b.mu.Lock()
	for _, a := range b.accounts {
		if strings.EqualFold(a.user.Email, body.Email) {
			b.mu.Unlock()
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		if a.user.Username != nil && *a.user.Username == body.Username {
			b.mu.Unlock()
			writeDetail(w, http.StatusBadRequest, "Username already taken")
			return
		}
	}
	user := b.addAccount(body.Email, body.Username, hash)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, user)
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid form")
		return
	}
	identifier := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		matches := strings.EqualFold(a.user.Email, identifier) ||
			(a.user.Username != nil && *a.user.Username == identifier)
		if !matches {
			continue
		}
		if bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
			break
		}
		pair, err := b.issue(a.user.ID)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, pair)
		return
	}
	writeDetail(w, http.StatusUnauthorized, "Incorrect email/username or password")
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body")
		return
	}

	b.mu.Lock()
	b.refreshCalls++
	delay := b.refreshDelay
	b.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	claims, err := b.parse(body.RefreshToken, "refresh")

	b.mu.Lock()
	defer b.mu.Unlock()
	owner, active := b.refresh[body.RefreshToken]
	if err != nil || !active || owner != claims.Subject {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(b.refresh, body.RefreshToken)

	pair, err := b.issue(owner)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	a := b.accounts[userID(r)]
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, a.user)
}

// --- note handlers ---

// notesOf must be called with mu held.
func (b *Backend) notesOf(userID string) []model.Note {
	out := []model.Note{}
	for _, n := range b.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// findNote must be called with mu held.
func (b *Backend) findNote(r *http.Request) int {
	id := chi.URLParam(r, "id")
	for i, n := range b.notes {
		if n.ID == id && n.UserID == userID(r) {
			return i
		}
	}
	return -1
}

func (b *Backend) handleListNotes(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	notes := b.notesOf(userID(r))
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, notes)
}

func (b *Backend) handleGetNote(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findNote(r)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Note not found")
		return
	}
	writeJSON(w, http.StatusOK, b.notes[i])
}

func (b *Backend) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var in model.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body")
		return
	}

	now := time.Now().UTC()
	note := model.Note{
		ID:        uuid.NewString(),
		UserID:    userID(r),
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	b.mu.Lock()
	b.notes = append([]model.Note{note}, b.notes...)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, note)
}

func (b *Backend) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var in model.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findNote(r)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Note not found")
		return
	}
	b.notes[i].Title = in.Title
	b.notes[i].Content = in.Content
	b.notes[i].UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, b.notes[i])
}

func (b *Backend) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findNote(r)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Note not found")
		return
	}
	b.notes = append(b.notes[:i], b.notes[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid multipart body")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "image field is required")
		return
	}
	defer file.Close()

	mime := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mime, "image/") {
		writeDetail(w, http.StatusBadRequest, "File must be an image")
		return
	}

	now := time.Now().UTC()
	noteID := uuid.NewString()
	filename := header.Filename
	size := header.Size
	url := "/uploads/" + noteID + "/" + filename
	note := model.Note{
		ID:        noteID,
		UserID:    userID(r),
		Title:     model.StringPtr(r.FormValue("title")),
		CreatedAt: now,
		UpdatedAt: now,
		Files: []model.NoteFile{{
			ID:         uuid.NewString(),
			UserID:     userID(r),
			NoteID:     &noteID,
			StorageKey: noteID + "/" + filename,
			URL:        &url,
			Filename:   &filename,
			MimeType:   &mime,
			SizeBytes:  &size,
			CreatedAt:  now,
		}},
	}

	b.mu.Lock()
	b.notes = append([]model.Note{note}, b.notes...)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, note)
}

// --- assistant handlers ---

func (b *Backend) handleAsk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Question) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "question is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	notes := b.notesOf(userID(r))
	text := fmt.Sprintf("You have %d notes.", len(notes))
	if b.answer != nil {
		text = *b.answer
	}
	relevant := notes
	if len(relevant) > 3 {
		relevant = relevant[:3]
	}
	confidence := 0.8
	answer := model.Answer{
		Question:      body.Question,
		Answer:        text,
		RelevantNotes: relevant,
		QueryType:     "general",
		Confidence:    &confidence,
	}

	b.history = append(b.history, model.QAHistory{
		ID:        uuid.NewString(),
		UserID:    userID(r),
		Question:  body.Question,
		Response:  map[string]any{"answer": text, "query_type": "general"},
		CreatedAt: time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, answer)
}

func (b *Backend) findHistory(r *http.Request) int {
	id := chi.URLParam(r, "id")
	for i, h := range b.history {
		if h.ID == id && h.UserID == userID(r) {
			return i
		}
	}
	return -1
}

func (b *Backend) handleListHistory(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []model.QAHistory{}
	for i := len(b.history) - 1; i >= 0; i-- {
		if b.history[i].UserID == userID(r) {
			out = append(out, b.history[i])
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findHistory(r)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Chat history not found")
		return
	}
	writeJSON(w, http.StatusOK, b.history[i])
}

func (b *Backend) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findHistory(r)
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Chat history not found")
		return
	}
	b.history = append(b.history[:i], b.history[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
