package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/notekeeper/notes-api/internal/api/handler"
	"github.com/notekeeper/notes-api/internal/core/service"
	"github.com/notekeeper/notes-api/internal/infrastructure/db/sqldb"
)

// newTestServer wires the real services over an in-memory SQLite database.
func newTestServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()
	db, err := sqldb.Open(context.Background(), sqldb.Config{Driver: sqldb.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close(db) })

	log := zerolog.Nop()
	auth := service.NewAuthService(
		sqldb.NewUserRepository(db),
		service.NewBcryptHasher(bcrypt.MinCost),
		service.NewTokenService("router-test-secret"),
		log,
	)
	notes := service.NewNoteService(sqldb.NewNoteRepository(db), sqldb.NewCategoryRepository(db), log)

	e := NewRouter(Dependencies{
		AuthService: auth,
		NoteService: notes,
		Readiness: map[string]handler.PingFunc{
			"database": func(ctx context.Context) error { return sqldb.Ping(ctx, db) },
		},
		Logger: log,
	})
	return e, db
}

func do(e *echo.Echo, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, e *echo.Echo, username, password string) string {
	t.Helper()

	rec := do(e, http.MethodPost, "/users/create", "", `{"username":"`+username+`","password":"`+password+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d %s", username, rec.Code, rec.Body.String())
	}

	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d %s", username, rec.Code, rec.Body.String())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		Username    string `json:"username"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("login response: %v", err)
	}
	if resp.TokenType != "bearer" || resp.Username != username || resp.AccessToken == "" {
		t.Fatalf("unexpected login response: %+v", resp)
	}
	return resp.AccessToken
}

type noteBody struct {
	ID         int64  `json:"id"`
	IsArchived bool   `json:"is_archived"`
	Content    string `json:"content"`
	Categories []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"categories"`
}

func createNote(t *testing.T, e *echo.Echo, token, body string) noteBody {
	t.Helper()
	rec := do(e, http.MethodPost, "/notes/", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create note: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Note noteBody `json:"note"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("create response: %v", err)
	}
	return resp.Note
}

func TestRouter_RegisterLoginCreateToggle(t *testing.T) {
	e, _ := newTestServer(t)
	token := registerAndLogin(t, e, "alice", "pw")

	note := createNote(t, e, token, `{"content":"hello","categories":["work","home"]}`)
	if note.Content != "hello" || len(note.Categories) != 2 {
		t.Fatalf("unexpected note: %+v", note)
	}

	for i, want := range []bool{true, false} {
		rec := do(e, http.MethodPatch, "/notes/archived?note_id="+itoa(note.ID), token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle %d: expected 200, got %d %s", i, rec.Code, rec.Body.String())
		}
		var resp struct {
			Updated noteBody `json:"updated"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Updated.IsArchived != want {
			t.Fatalf("toggle %d: expected is_archived=%v", i, want)
		}
	}
}

func TestRouter_DuplicateRegistration(t *testing.T) {
	e, _ := newTestServer(t)
	registerAndLogin(t, e, "alice", "pw")

	rec := do(e, http.MethodPost, "/users/create", "", `{"username":"alice","password":"other"}`)
	if rec.Code != 306 {
		t.Fatalf("expected 306, got %d", rec.Code)
	}
}

func TestRouter_OverlongPasswordNotCreated(t *testing.T) {
	e, _ := newTestServer(t)

	body := `{"username":"bob","password":"` + strings.Repeat("x", 80) + `"}`
	rec := do(e, http.MethodPost, "/users/create", "", body)
	if rec.Code != 306 {
		t.Fatalf("expected 306, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_WrongPassword(t *testing.T) {
	e, _ := newTestServer(t)
	registerAndLogin(t, e, "alice", "pw")

	form := url.Values{"username": {"alice"}, "password": {"nope"}}
	req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), `"detail":"Unauthorized"`) {
		t.Fatalf("expected 401 Unauthorized, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_GarbageTokenRejectedWithoutMutation(t *testing.T) {
	e, db := newTestServer(t)
	token := registerAndLogin(t, e, "alice", "pw")
	note := createNote(t, e, token, `{"content":"keep","categories":["a"]}`)

	calls := []struct{ method, target, body string }{
		{http.MethodGet, "/notes/", ""},
		{http.MethodPost, "/notes/", `{"content":"x","categories":[]}`},
		{http.MethodDelete, "/notes/?note_id=" + itoa(note.ID), ""},
		{http.MethodPatch, "/notes/archived?note_id=" + itoa(note.ID), ""},
		{http.MethodPatch, "/notes/?note_id=" + itoa(note.ID), `{"content":"hacked"}`},
		{http.MethodGet, "/notes/categories?note_id=" + itoa(note.ID), ""},
		{http.MethodPost, "/notes/categories?note_id=" + itoa(note.ID) + "&name=x", ""},
		{http.MethodDelete, "/notes/categories?category_id=" + itoa(note.Categories[0].ID), ""},
		{http.MethodPatch, "/notes/categories?category_id=" + itoa(note.Categories[0].ID) + "&new_name=x", ""},
		{http.MethodGet, "/notes/categories/filterbyname?name=a", ""},
	}
	for _, call := range calls {
		rec := do(e, call.method, call.target, "garbage", call.body)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", call.method, call.target, rec.Code)
			continue
		}
		if rec.Header().Get(echo.HeaderWWWAuthenticate) != "Bearer" {
			t.Errorf("%s %s: missing WWW-Authenticate", call.method, call.target)
		}
		if !strings.Contains(rec.Body.String(), "Could not validate user.") {
			t.Errorf("%s %s: unexpected body %s", call.method, call.target, rec.Body.String())
		}
	}

	var notes, categories int64
	db.Table("notes").Count(&notes)
	db.Table("categories").Count(&categories)
	if notes != 1 || categories != 1 {
		t.Fatalf("rejected calls must not mutate storage: notes=%d categories=%d", notes, categories)
	}

	var contents []string
	db.Table("notes").Where("id = ?", note.ID).Pluck("content", &contents)
	if len(contents) != 1 || contents[0] != "keep" {
		t.Fatalf("content changed: %v", contents)
	}
}

func TestRouter_TrailingSlashOptional(t *testing.T) {
	e, _ := newTestServer(t)
	token := registerAndLogin(t, e, "alice", "pw")

	for _, target := range []string{"/notes", "/notes/"} {
		rec := do(e, http.MethodGet, target, token, "")
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", target, rec.Code)
		}
	}
}

func TestRouter_NotesScopedPerUser(t *testing.T) {
	e, _ := newTestServer(t)
	alice := registerAndLogin(t, e, "alice", "pw")
	bob := registerAndLogin(t, e, "bob", "pw")
	createNote(t, e, alice, `{"content":"secret","categories":["work"]}`)

	for _, target := range []string{"/notes/", "/notes/categories/filterbyname?name=work"} {
		rec := do(e, http.MethodGet, target, bob, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", target, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "secret") {
			t.Fatalf("GET %s leaked alice's note to bob: %s", target, rec.Body.String())
		}
	}
}

func TestRouter_DeleteCascadeThenCategoriesNotFound(t *testing.T) {
	e, _ := newTestServer(t)
	token := registerAndLogin(t, e, "alice", "pw")
	note := createNote(t, e, token, `{"content":"bye","categories":["a","b"]}`)

	rec := do(e, http.MethodDelete, "/notes/?note_id="+itoa(note.ID), token, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"deleted":true`) {
		t.Fatalf("delete: unexpected %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/notes/categories?note_id="+itoa(note.ID), token, "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"categories":false`) {
		t.Fatalf("categories after delete: unexpected %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodDelete, "/notes/?note_id="+itoa(note.ID), token, "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"deleted":false`) {
		t.Fatalf("second delete: unexpected %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_FilterReturnsEachNoteOnce(t *testing.T) {
	e, _ := newTestServer(t)
	token := registerAndLogin(t, e, "alice", "pw")
	createNote(t, e, token, `{"content":"n1","categories":["work","work"]}`)
	createNote(t, e, token, `{"content":"n2","categories":["home"]}`)

	rec := do(e, http.MethodGet, "/notes/categories/filterbyname?name=work", token, "")
	var resp struct {
		Notes []noteBody `json:"notes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("filter response: %v", err)
	}
	if len(resp.Notes) != 1 || resp.Notes[0].Content != "n1" {
		t.Fatalf("expected only n1 once, got %+v", resp.Notes)
	}
}

func TestRouter_AmbientEndpoints(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(e, http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"Running"`) {
		t.Errorf("GET /: unexpected %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health/ready: expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "notes_http_requests_total") {
		t.Errorf("GET /metrics: unexpected %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/swagger/doc.json", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/notes/") {
		t.Errorf("GET /swagger/doc.json: unexpected %d", rec.Code)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
