package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/dkazmin/careerpilot/internal/auth"
	"github.com/dkazmin/careerpilot/internal/config"
	"github.com/dkazmin/careerpilot/internal/localstore"
	"github.com/dkazmin/careerpilot/internal/trajectory"
)

type fakePublisher struct {
	published atomic.Int32
}

func (p *fakePublisher) PublishJob(ctx context.Context, jobID string) error {
	p.published.Add(1)
	return nil
}

// mlStub simulates the interview and trajectory service.
func mlStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session_id":"sess-1"}`))
	})
	mux.HandleFunc("GET /sessions/sess-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session":{"session_id":"sess-1","user_id":"u1"},"messages":[]}`))
	})
	mux.HandleFunc("POST /chat/sess-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session_id":"sess-1","reply":"and what do you enjoy?","done":false}`))
	})
	mux.HandleFunc("POST /trajectory/build", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session_id":"sess-1","current_positions":[],"groups":[],"future_positions":[]}`))
	})
	mux.HandleFunc("GET /trajectory/user/u1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"session_id":"sess-1","current_positions":[],"groups":[],"future_positions":[]}]`))
	})
	return httptest.NewServer(mux)
}

func backendStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("username") != "dk" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"invalid credentials"}`))
			return
		}
		w.Write([]byte(`{"access_token":"backend-token","token_type":"bearer"}`))
	})
	mux.HandleFunc("GET /profile/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"not authenticated"}`))
			return
		}
		w.Write([]byte(`{"email":"dk@example.com"}`))
	})
	return httptest.NewServer(mux)
}

func newTestRouter(t *testing.T) (*gin.Engine, config.Config, *fakePublisher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&localstore.Entry{}, &trajectory.Job{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ml := mlStub(t)
	t.Cleanup(ml.Close)
	backend := backendStub(t)
	t.Cleanup(backend.Close)

	cfg := config.Config{
		MLAPIURL:       ml.URL,
		BackendAPIURL:  backend.URL,
		GatewayTimeout: 5 * time.Second,
		JWTSecret:      "test-secret",
	}
	pub := &fakePublisher{}
	return NewRouter(db, cfg, nil, pub), cfg, pub
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("response not an envelope: %s", w.Body.String())
	}
	return w, env
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	r, _, _ := newTestRouter(t)
	device := map[string]string{"X-Device-ID": "dev-1"}

	w, env := doJSON(t, r, http.MethodPost, "/api/session/start", nil, device)
	if w.Code != http.StatusOK {
		t.Fatalf("start: %d %s", w.Code, w.Body.String())
	}
	var snap struct {
		State     string `json:"state"`
		SessionID string `json:"session_id"`
		Messages  []struct {
			Role   string `json:"role"`
			Origin string `json:"origin"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.State != "interview_active" || snap.SessionID != "sess-1" {
		t.Fatalf("unexpected snapshot after start: %+v", snap)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Origin != "local" {
		t.Fatalf("expected local greeting, got %+v", snap.Messages)
	}

	w, env = doJSON(t, r, http.MethodPost, "/api/session/message",
		map[string]string{"text": "I build backends"}, device)
	if w.Code != http.StatusOK {
		t.Fatalf("message: %d %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Messages) != 3 {
		t.Fatalf("expected greeting + user + reply, got %d messages", len(snap.Messages))
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/session/reset", nil, device)
	if w.Code != http.StatusOK {
		t.Fatalf("reset: %d %s", w.Code, w.Body.String())
	}
}

func TestResumeResyncsFromRemote(t *testing.T) {
	r, _, _ := newTestRouter(t)
	device := map[string]string{"X-Device-ID": "dev-5"}

	if w, _ := doJSON(t, r, http.MethodPost, "/api/session/start", nil, device); w.Code != http.StatusOK {
		t.Fatalf("start failed: %d", w.Code)
	}

	w, env := doJSON(t, r, http.MethodPost, "/api/session/resume", nil, device)
	if w.Code != http.StatusOK {
		t.Fatalf("resume: %d %s", w.Code, w.Body.String())
	}
	var snap struct {
		State     string `json:"state"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.State != "interview_active" || snap.SessionID != "sess-1" {
		t.Fatalf("unexpected snapshot after resume: %+v", snap)
	}
}

func TestSessionRequiresDeviceHeader(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/api/session/start", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without device header, got %d", w.Code)
	}
}

func TestSendMessageBeforeStartConflicts(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/api/session/message",
		map[string]string{"text": "hi"}, map[string]string{"X-Device-ID": "dev-2"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 before start, got %d", w.Code)
	}
}

func TestBuildBeforeCompleteConflicts(t *testing.T) {
	r, _, _ := newTestRouter(t)
	device := map[string]string{"X-Device-ID": "dev-3"}

	if w, _ := doJSON(t, r, http.MethodPost, "/api/session/start", nil, device); w.Code != http.StatusOK {
		t.Fatalf("start failed: %d", w.Code)
	}
	w, _ := doJSON(t, r, http.MethodPost, "/api/session/trajectory", nil, device)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 building mid-interview, got %d", w.Code)
	}
}

func TestLoginStoresTokenAndProfileFallsBack(t *testing.T) {
	r, _, _ := newTestRouter(t)

	form := url.Values{"username": {"dk"}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Device-ID", "dev-4")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}

	// No Authorization header: the token stored at login should be used.
	req = httptest.NewRequest(http.MethodGet, "/api/profile/me", nil)
	req.Header.Set("X-Device-ID", "dev-4")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("profile with stored token: %d %s", w.Code, w.Body.String())
	}
}

func TestLoginRejectionPassedThrough(t *testing.T) {
	r, _, _ := newTestRouter(t)

	form := url.Values{"username": {"dk"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected upstream 401 passed through, got %d", w.Code)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	r, _, _ := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "resume.docx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("not a pdf"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/profile/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-PDF, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Only PDF is allowed") {
		t.Fatalf("expected PDF rejection message, got %s", w.Body.String())
	}
}

func TestTrajectoryListingRequiresAuthAndOwnership(t *testing.T) {
	r, cfg, _ := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/trajectory/user/u1", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	token, err := auth.SignJWT("u1", cfg.JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	headers := map[string]string{"Authorization": "Bearer " + token}

	w, env := doJSON(t, r, http.MethodGet, "/api/trajectory/user/u1", nil, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("listing: %d %s", w.Code, w.Body.String())
	}
	var list []trajectory.Data
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].SessionID != "sess-1" {
		t.Fatalf("unexpected list %+v", list)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/trajectory/user/other", nil, headers)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another user's listing, got %d", w.Code)
	}
}

func TestTrajectoryJobRoundTrip(t *testing.T) {
	r, cfg, pub := newTestRouter(t)

	token, err := auth.SignJWT("u1", cfg.JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	headers := map[string]string{"Authorization": "Bearer " + token}

	w, env := doJSON(t, r, http.MethodPost, "/api/trajectory/jobs",
		map[string]any{"session_id": "sess-1"}, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("create job: %d %s", w.Code, w.Body.String())
	}
	var job trajectory.Job
	if err := json.Unmarshal(env.Data, &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.ID == "" || job.Status != trajectory.JobQueued {
		t.Fatalf("unexpected job %+v", job)
	}
	if pub.published.Load() != 1 {
		t.Fatalf("expected one published message, got %d", pub.published.Load())
	}

	w, env = doJSON(t, r, http.MethodGet, "/api/trajectory/jobs/"+job.ID, nil, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("get job: %d %s", w.Code, w.Body.String())
	}

	// Another user cannot read it.
	otherToken, err := auth.SignJWT("u2", cfg.JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	w, _ = doJSON(t, r, http.MethodGet, "/api/trajectory/jobs/"+job.ID, nil,
		map[string]string{"Authorization": "Bearer " + otherToken})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another user's job, got %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/trajectory/jobs/nope", nil, headers)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", w.Code)
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w, env := doJSON(t, r, http.MethodGet, "/nope", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if env.Code != 40400 {
		t.Fatalf("expected app code 40400, got %d", env.Code)
	}
}
