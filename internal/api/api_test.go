// ABOUTME: End-to-end HTTP tests for the REST API over a real SQLite store
// ABOUTME: Covers registration, login, logout, isolation between users and error mapping

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/journal-gateway/internal/accounts"
	"github.com/2389/journal-gateway/internal/auth"
	"github.com/2389/journal-gateway/internal/journal"
	"github.com/2389/journal-gateway/internal/store"
)

// apiTestSecret is a 32-byte secret that meets MinSecretLength requirement.
var apiTestSecret = []byte("api-scenario-test-secret-32bytes")

type testEnv struct {
	handler http.Handler
	store   *store.SQLiteStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	codec, err := auth.NewTokenCodec(apiTestSecret, 0)
	require.NoError(t, err)

	a := New(accounts.NewService(s, hasher, codec, nil), journal.NewService(s, nil), nil)
	return &testEnv{handler: a.Handler([]string{"*"}), store: s}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(auth.HeaderAuth, token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// register creates a user and returns its session token.
func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/users", "", `{"email":"`+email+`","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := rec.Header().Get(auth.HeaderAuth)
	require.NotEmpty(t, token)
	return token
}

func (e *testEnv) createJournal(t *testing.T, token, title string) JournalResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/journals", token, `{"title":"`+title+`","notes":"# Hello"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var j JournalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &j))
	return j
}

func (e *testEnv) createTask(t *testing.T, token, journalID, text string) TaskResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/journals/"+journalID+"/tasks", token, `{"task":"`+text+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var task TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	return task
}

func TestRegister_ThenDuplicate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/users", "", `{"email":"alice@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(auth.HeaderAuth))

	var user UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, user.ID)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = env.do(t, http.MethodPost, "/users", "", `{"email":"alice@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Header().Get(auth.HeaderAuth))
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	for name, body := range map[string]string{
		"short password":           `{"email":"alice@example.com","password":"123"}`,
		"multibyte short password": `{"email":"alice@example.com","password":"日本"}`,
		"missing password":         `{"email":"alice@example.com"}`,
		"bad email":                `{"email":"alice","password":"secret1"}`,
		"display name email":       `{"email":"Alice <alice@example.com>","password":"secret1"}`,
		"unknown field":            `{"email":"alice@example.com","password":"secret1","admin":true}`,
		"not json":                 `email=alice`,
		"empty body":               ``,
	} {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/users", "", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, rec.Header().Get(auth.HeaderAuth))
		})
	}
}

func TestRegister_ValidationMessageNamesJSONField(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/users", "", `{"email":"alice@example.com","password":"日本"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation failed: password must be at least 6 characters", body["error"])
}

func TestRegister_MultibytePassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/users", "", `{"email":"alice@example.com","password":"日本語日本語"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/users/login", "", `{"email":"alice@example.com","password":"日本語日本語"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(auth.HeaderAuth))
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	for name, body := range map[string]string{
		"missing email":    `{"password":"secret1"}`,
		"missing password": `{"email":"alice@example.com"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/users/login", "", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, rec.Header().Get(auth.HeaderAuth))
		})
	}
}

func TestLogin_FailuresIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com")

	wrongPassword := env.do(t, http.MethodPost, "/users/login", "", `{"email":"alice@example.com","password":"wrong-pass"}`)
	unknownEmail := env.do(t, http.MethodPost, "/users/login", "", `{"email":"nobody@example.com","password":"secret1"}`)

	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.Empty(t, wrongPassword.Header().Get(auth.HeaderAuth))
	assert.Empty(t, unknownEmail.Header().Get(auth.HeaderAuth))

	ok := env.do(t, http.MethodPost, "/users/login", "", `{"email":"alice@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.NotEmpty(t, ok.Header().Get(auth.HeaderAuth))
}

func TestLogout_RevokesOnlyThatToken(t *testing.T) {
	env := newTestEnv(t)
	first := env.register(t, "alice@example.com")

	rec := env.do(t, http.MethodPost, "/users/login", "", `{"email":"alice@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	second := rec.Header().Get(auth.HeaderAuth)

	rec = env.do(t, http.MethodDelete, "/users/me/token", first, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/users/me", first, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/users/me", second, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New().String()

	routes := []struct{ method, path string }{
		{http.MethodGet, "/users/me"},
		{http.MethodDelete, "/users/me/token"},
		{http.MethodPost, "/journals"},
		{http.MethodGet, "/journals"},
		{http.MethodGet, "/journals/" + id},
		{http.MethodPatch, "/journals/" + id},
		{http.MethodPost, "/journals/" + id + "/tasks"},
		{http.MethodGet, "/journals/" + id + "/tasks"},
		{http.MethodPatch, "/tasks/" + id},
		{http.MethodDelete, "/tasks/" + id},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rec := env.do(t, route.method, route.path, "", `{}`)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, rec.Body.String())

			rec = env.do(t, route.method, route.path, "garbage-token", `{}`)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestTasks_IsolationBetweenUsers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice@example.com")
	bob := env.register(t, "bob@example.com")

	j := env.createJournal(t, alice, "Daily")
	task := env.createTask(t, alice, j.ID, "buy milk")

	rec := env.do(t, http.MethodGet, "/journals/"+j.ID+"/tasks", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListTasksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, task.ID, list.Tasks[0].ID)

	rec = env.do(t, http.MethodGet, "/journals/"+j.ID+"/tasks", bob, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tasks":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodPatch, "/tasks/"+task.ID, bob, `{"completed":false}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/tasks/"+task.ID, bob, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/journals/"+j.ID, bob, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/journals/"+j.ID+"/tasks", bob, `{"task":"intrude"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/journals", bob, "")
	assert.JSONEq(t, `{"journals":[]}`, rec.Body.String())
}

func TestUpdateTask_CompletionIsInverted(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice@example.com")
	j := env.createJournal(t, alice, "Daily")
	task := env.createTask(t, alice, j.ID, "buy milk")
	require.False(t, task.Completed)

	rec := env.do(t, http.MethodPatch, "/tasks/"+task.ID, alice, `{"completed":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SingleTaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Task.Completed, "sending true stores false")

	rec = env.do(t, http.MethodPatch, "/tasks/"+task.ID, alice, `{"completed":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Task.Completed, "sending false stores true")

	rec = env.do(t, http.MethodPatch, "/tasks/"+task.ID, alice, `{"completed":"yes"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTask(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice@example.com")
	j := env.createJournal(t, alice, "Daily")
	task := env.createTask(t, alice, j.ID, "buy milk")

	rec := env.do(t, http.MethodDelete, "/tasks/"+task.ID, alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SingleTaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, task.ID, resp.Task.ID)

	rec = env.do(t, http.MethodDelete, "/tasks/"+task.ID, alice, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedIDs_Return404(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice@example.com")

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPatch, "/tasks/123", `{"completed":true}`},
		{http.MethodDelete, "/tasks/not-an-id", ""},
		{http.MethodGet, "/journals/zzz", ""},
		{http.MethodPatch, "/journals/zzz", `{"notes":"x"}`},
		{http.MethodPost, "/journals/zzz/tasks", `{"task":"x"}`},
	} {
		rec := env.do(t, tc.method, tc.path, alice, tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestCreateTask_EmptyText(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice@example.com")
	j := env.createJournal(t, alice, "Daily")

	for _, body := range []string{`{"task":"   "}`, `{"task":""}`, `{}`} {
		rec := env.do(t, http.MethodPost, "/journals/"+j.ID+"/tasks", alice, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestCreateJournal_BlankTitle(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice@example.com")

	rec := env.do(t, http.MethodPost, "/journals", alice, `{"title":"   "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var j JournalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &j))
	assert.NotEmpty(t, j.ID)
	assert.Empty(t, j.Title)
}

func TestJournal_NotesRenderedAsHTML(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice@example.com")
	j := env.createJournal(t, alice, "Daily")

	assert.Equal(t, "# Hello", j.Notes)
	assert.Contains(t, j.NotesHTML, "<h1>Hello</h1>")

	rec := env.do(t, http.MethodPatch, "/journals/"+j.ID, alice, `{"notes":"<script>alert(1)</script>"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated JournalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.NotContains(t, updated.NotesHTML, "<script>")
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/journals", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type,x-auth")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers")), auth.HeaderAuth)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	// Preflight asking for a header outside the allow list is refused
	req = httptest.NewRequest(http.MethodOptions, "/journals", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "x-forbidden")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = env.do(t, http.MethodPost, "/users", "", `{"email":"alice@example.com","password":"secret1"}`)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), "no Origin header, no CORS headers")
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	handler := CORS([]string{"https://allowed.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://allowed.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://allowed.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.EqualFold(auth.HeaderAuth, rec.Header().Get("Access-Control-Expose-Headers")))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
