package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"go-yamdb/internal/account"
	"go-yamdb/internal/catalog"
	"go-yamdb/internal/config"
	"go-yamdb/internal/db/dbtest"
	"go-yamdb/internal/logging"
	"go-yamdb/internal/mail"
	"go-yamdb/internal/review"
	"go-yamdb/internal/user"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const testSecret = "secret"

var sixDigits = regexp.MustCompile(`\b(\d{6})\b`)

type testEnv struct {
	r    *gin.Engine
	db   *gorm.DB
	mail *mail.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := dbtest.Open(t)
	cfg := &config.Config{}
	cfg.Server.Subpath = "/api/v1"
	cfg.Server.JWTSecret = testSecret
	rec := &mail.Recorder{}
	log := logging.Discard()
	d := &Deps{
		DB: gdb,
		Accounts: account.NewService(gdb, mail.NewJournal(rec, gdb, log), nil, log, account.Options{
			JWTSecret: testSecret,
			MailFrom:  "noreply@example.com",
		}),
		Catalog: catalog.NewService(gdb, log),
		Reviews: review.NewService(gdb, log),
		Log:     log,
	}
	return &testEnv{r: SetupRouter(cfg, d), db: gdb, mail: rec}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *testEnv) lastCode(t *testing.T) string {
	t.Helper()
	msg, ok := e.mail.Last()
	if !ok {
		t.Fatalf("no mail sent")
	}
	m := sixDigits.FindStringSubmatch(msg.Body)
	if m == nil {
		t.Fatalf("no code in mail body %q", msg.Body)
	}
	return m[1]
}

// login signs a user up through the API, assigns the role directly and returns
// an access token.
func (e *testEnv) login(t *testing.T, username string, role user.Role) string {
	t.Helper()
	w := e.do(t, "POST", "/auth/signup", "", gin.H{"username": username, "email": username + "@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("signup %s: %d %s", username, w.Code, w.Body.String())
	}
	code := e.lastCode(t)
	if role != user.RoleUser {
		if err := e.db.Model(&user.User{}).Where("username = ?", username).Update("role", role).Error; err != nil {
			t.Fatalf("set role: %v", err)
		}
	}
	w = e.do(t, "POST", "/auth/token", "", gin.H{"username": username, "confirmation_code": code})
	if w.Code != http.StatusCreated {
		t.Fatalf("token %s: %d %s", username, w.Code, w.Body.String())
	}
	var resp struct {
		Access string `json:"access"`
	}
	decode(t, w, &resp)
	return resp.Access
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
}
