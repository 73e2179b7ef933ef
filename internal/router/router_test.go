package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/idcard-backend/internal/config"
	"github.com/stemsi/idcard-backend/internal/handler"
	"github.com/stemsi/idcard-backend/internal/notify"
	"github.com/stemsi/idcard-backend/internal/repository/memory"
	"github.com/stemsi/idcard-backend/internal/service"
	"github.com/stemsi/idcard-backend/internal/validator"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Fields  map[string]string      `json:"fields"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
	Metadata struct {
		RequestID string `json:"request_id"`
	} `json:"metadata"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		GinMode:       gin.TestMode,
		SessionSecret: "router-test",
		SessionTTL:    30 * 24 * time.Hour,
		OTPTTL:        10 * time.Minute,
		BcryptCost:    bcrypt.MinCost,
		MaxBodyBytes:  1 << 20,
	}
	log := zerolog.Nop()
	authService := service.NewAuthService(cfg, memory.NewAdminStore(), notify.NewInBandSender(log), log)
	studentService := service.NewStudentService(memory.NewStudentStore(), nil, log)

	engine := SetupRouter(authService, &Handlers{
		Auth:    handler.NewAuthHandler(authService, log),
		Student: handler.NewStudentHandler(studentService, log),
	}, cfg)
	return &testServer{t: t, engine: engine}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		s.t.Fatalf("%s %s: body is not an envelope: %v (%s)", method, path, err, w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": username, "password": password})
	if code != http.StatusOK {
		s.t.Fatalf("login %s: %d %+v", username, code, env.Error)
	}
	var data struct {
		Token string `json:"session_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		s.t.Fatalf("login %s: no token in %s", username, env.Data)
	}
	return data.Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(http.MethodGet, "/health", "", nil)
	if code != http.StatusOK || env.Metadata.RequestID == "" {
		t.Errorf("health = %d, %+v", code, env)
	}
}

func TestInitializeAndLogin(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodPost, "/api/v1/auth/initialize", "", nil)
	if code != http.StatusOK || env.Message != "Default admin created successfully" {
		t.Fatalf("initialize = %d %q", code, env.Message)
	}
	code, env = s.do(http.MethodPost, "/api/v1/auth/initialize", "", nil)
	if code != http.StatusOK || env.Message != "Admin already exists" {
		t.Fatalf("second initialize = %d %q", code, env.Message)
	}

	token := s.login("admin", "admin123")

	code, env = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "admin@school.com", "password": "admin123"})
	if code != http.StatusOK || env.Message != "Login successful with existing session" {
		t.Errorf("second login = %d %q", code, env.Message)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/verify-session", "", gin.H{"session_token": token})
	if code != http.StatusOK {
		t.Errorf("verify-session = %d %+v", code, env.Error)
	}
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/api/v1/auth/initialize", "", nil)

	code, env := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "admin", "password": "nope"})
	if code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "INVALID_CREDENTIALS" {
		t.Errorf("wrong password = %d %+v", code, env.Error)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "admin"})
	if code != http.StatusBadRequest || env.Error.Fields["password"] == "" {
		t.Errorf("missing password = %d %+v", code, env.Error)
	}
}

func TestVerifySessionWithoutToken(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(http.MethodPost, "/api/v1/auth/verify-session", "", nil)
	if code != http.StatusUnauthorized || env.Error.Code != "UNAUTHORIZED" {
		t.Errorf("verify without token = %d %+v", code, env.Error)
	}
}

func TestSignupFlow(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/api/v1/auth/initialize", "", nil)

	body := gin.H{"username": "clerk", "email": "clerk@school.com", "password": "secret1", "created_by": "admin"}
	code, env := s.do(http.MethodPost, "/api/v1/auth/signup", "", body)
	if code != http.StatusCreated {
		t.Fatalf("signup = %d %+v", code, env.Error)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/signup", "", body)
	if code != http.StatusConflict || env.Error.Code != "CONFLICT" {
		t.Errorf("repeat signup = %d %+v", code, env.Error)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/signup", "",
		gin.H{"username": "x", "email": "x@school.com", "password": "secret1", "created_by": "clerk"})
	if code != http.StatusForbidden || env.Error.Code != "FORBIDDEN" {
		t.Errorf("signup by plain admin = %d %+v", code, env.Error)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/signup", "",
		gin.H{"username": "y", "email": "y@school.com", "password": "secret1", "role": "owner", "created_by": "clerk"})
	if code != http.StatusForbidden {
		t.Errorf("bad role from plain admin = %d %+v", code, env.Error)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/signup", "",
		gin.H{"username": "y", "email": "y@school.com", "password": "secret1", "role": "owner"})
	if code != http.StatusBadRequest || env.Error.Message != "Invalid role, must be admin or superadmin" {
		t.Errorf("bad role = %d %+v", code, env.Error)
	}
}

func TestPasswordResetOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/api/v1/auth/initialize", "", nil)

	code, env := s.do(http.MethodPost, "/api/v1/auth/forgot-password", "", gin.H{"email": "admin@school.com"})
	if code != http.StatusOK {
		t.Fatalf("forgot-password = %d %+v", code, env.Error)
	}
	var ticket struct {
		OTP       string `json:"otp"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.Unmarshal(env.Data, &ticket); err != nil || len(ticket.OTP) != 6 || ticket.ExpiresIn != 600 {
		t.Fatalf("ticket = %s", env.Data)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/reset-password", "",
		gin.H{"email": "admin@school.com", "otp": ticket.OTP, "new_password": "fresh-pass"})
	if code != http.StatusOK {
		t.Fatalf("reset-password = %d %+v", code, env.Error)
	}
	s.login("admin", "fresh-pass")

	code, env = s.do(http.MethodPost, "/api/v1/auth/reset-password", "",
		gin.H{"email": "admin@school.com", "otp": ticket.OTP, "new_password": "again-pass"})
	if code != http.StatusUnauthorized || env.Error.Code != "OTP_EXPIRED" {
		t.Errorf("replayed code = %d %+v", code, env.Error)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/forgot-password", "", gin.H{"email": "ghost@school.com"})
	if code != http.StatusNotFound {
		t.Errorf("unknown email = %d %+v", code, env.Error)
	}
}

func TestChangePasswordOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/api/v1/auth/initialize", "", nil)

	code, env := s.do(http.MethodPost, "/api/v1/auth/change-password", "",
		gin.H{"username": "admin", "current_password": "admin123", "new_password": "123"})
	if code != http.StatusBadRequest || env.Error.Message != "New password must be at least 6 characters" {
		t.Errorf("short password = %d %+v", code, env.Error)
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/change-password", "",
		gin.H{"username": "admin", "current_password": "wrong1", "new_password": "changed1"})
	if code != http.StatusUnauthorized || env.Error.Message != "Current password is incorrect" {
		t.Errorf("wrong current = %d %+v", code, env.Error)
	}

	code, _ = s.do(http.MethodPost, "/api/v1/auth/change-password", "",
		gin.H{"username": "admin", "current_password": "admin123", "new_password": "changed1"})
	if code != http.StatusOK {
		t.Errorf("change = %d", code)
	}
	s.login("admin", "changed1")
}

func TestAdminRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/api/v1/auth/initialize", "", nil)

	for _, path := range []string{"/api/v1/students", "/api/v1/auth/admin/admin"} {
		code, env := s.do(http.MethodGet, path, "", nil)
		if code != http.StatusUnauthorized || env.Error.Code != "TOKEN_REQUIRED" {
			t.Errorf("%s without token = %d %+v", path, code, env.Error)
		}
		code, env = s.do(http.MethodGet, path, "bogus", nil)
		if code != http.StatusUnauthorized || env.Error.Code != "UNAUTHORIZED" {
			t.Errorf("%s with bad token = %d %+v", path, code, env.Error)
		}
	}

	token := s.login("admin", "admin123")
	code, env := s.do(http.MethodGet, "/api/v1/auth/admin/admin", token, nil)
	if code != http.StatusOK {
		t.Fatalf("admin details = %d %+v", code, env.Error)
	}
	if bytes.Contains(env.Data, []byte("password")) || bytes.Contains(env.Data, []byte("session")) {
		t.Errorf("admin details leak secrets: %s", env.Data)
	}

	code, _ = s.do(http.MethodGet, "/api/v1/auth/admin/ghost", token, nil)
	if code != http.StatusNotFound {
		t.Errorf("unknown admin = %d", code)
	}
}

func TestStudentRegistrationFlow(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/api/v1/auth/initialize", "", nil)
	token := s.login("admin", "admin123")

	key := gin.H{"class": "10", "section": "A", "roll_number": "7"}
	code, env := s.do(http.MethodPost, "/api/v1/students/check-duplicate", "", key)
	if code != http.StatusOK || string(env.Data) != `{"exists":false}` {
		t.Fatalf("check before = %d %s", code, env.Data)
	}

	form := gin.H{
		"name": "Asha", "class": "10", "section": "A", "roll_number": "7",
		"date_of_birth": "2012-05-04", "photo": "data:image/png;base64,AAAA",
	}
	code, env = s.do(http.MethodPost, "/api/v1/students", "", form)
	if code != http.StatusCreated {
		t.Fatalf("create = %d %+v", code, env.Error)
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil || created.Status != "submitted" {
		t.Fatalf("created = %s", env.Data)
	}

	code, env = s.do(http.MethodPost, "/api/v1/students", "", form)
	if code != http.StatusConflict || env.Error.Code != "DUPLICATE_STUDENT" {
		t.Fatalf("duplicate = %d %+v", code, env.Error)
	}
	existing, ok := env.Error.Details["existing_student"].(map[string]interface{})
	if !ok || existing["id"] != created.ID {
		t.Errorf("existing_student = %v", env.Error.Details)
	}
	if env.Error.Message != "student with Class 10, Section A, Roll No 7 already exists" {
		t.Errorf("duplicate message = %q", env.Error.Message)
	}

	code, env = s.do(http.MethodPost, "/api/v1/students/check-duplicate", "", key)
	if code != http.StatusOK || !bytes.Contains(env.Data, []byte(`"exists":true`)) {
		t.Errorf("check after = %d %s", code, env.Data)
	}

	code, env = s.do(http.MethodGet, "/api/v1/students", token, nil)
	if code != http.StatusOK || !bytes.Contains(env.Data, []byte(`"duplicate_identifier":"10-A-7"`)) {
		t.Errorf("list = %d %s", code, env.Data)
	}

	statusPath := "/api/v1/students/" + created.ID + "/status"
	code, env = s.do(http.MethodPatch, statusPath, token, gin.H{"status": "approved"})
	if code != http.StatusOK || !bytes.Contains(env.Data, []byte(`"status":"approved"`)) {
		t.Errorf("approve = %d %s %+v", code, env.Data, env.Error)
	}
	code, env = s.do(http.MethodPatch, statusPath, token, gin.H{"status": "submitted"})
	if code != http.StatusBadRequest {
		t.Errorf("un-approve = %d %+v", code, env.Error)
	}
	code, env = s.do(http.MethodPatch, statusPath, token, gin.H{"status": "rejected"})
	if code != http.StatusBadRequest || env.Error.Fields["status"] == "" {
		t.Errorf("unknown status = %d %+v", code, env.Error)
	}
	code, _ = s.do(http.MethodPatch, "/api/v1/students/not-a-uuid/status", token, gin.H{"status": "approved"})
	if code != http.StatusNotFound {
		t.Errorf("malformed id = %d", code)
	}
}

func TestCheckDuplicateRequiresKey(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(http.MethodPost, "/api/v1/students/check-duplicate", "", gin.H{"class": "10"})
	if code != http.StatusBadRequest || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("missing key = %d %+v", code, env.Error)
	}
}

func TestAuthResponsesAreNotCached(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/initialize", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/health", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("idcard_http_request_duration_seconds")) {
		t.Errorf("metrics = %d", w.Code)
	}
}
