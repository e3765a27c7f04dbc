package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T, password string) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewService(string(hash), "test-secret")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoginAndValidate(t *testing.T) {
	s := newService(t, "correct horse")

	if _, err := s.Login("wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	res, err := s.Login("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	sub, err := s.ValidateToken(res.Token)
	if err != nil || sub != OwnerID {
		t.Fatalf("validate: sub=%q err=%v", sub, err)
	}

	other, _ := NewService(string(s.ownerHash), "other-secret")
	if _, err := other.ValidateToken(res.Token); err == nil {
		t.Error("token accepted under a different secret")
	}

	s.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if _, err := s.ValidateToken(res.Token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestNewServiceRejectsBadHash(t *testing.T) {
	if _, err := NewService("not-a-bcrypt-hash", "x"); err == nil {
		t.Error("expected error for malformed hash")
	}
	s, err := NewService("", "x")
	if err != nil {
		t.Fatal(err)
	}
	if s.Enabled() {
		t.Error("empty hash should disable auth")
	}
	if _, err := s.Login("anything"); !errors.Is(err, ErrAuthDisabled) {
		t.Errorf("login with auth disabled: err = %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	s := newService(t, "pw")
	res, err := s.Login("pw")
	if err != nil {
		t.Fatal(err)
	}

	var seen string
	h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	for _, tc := range []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + res.Token, http.StatusOK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusOK && seen != OwnerID {
				t.Errorf("user = %q", seen)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	h := NewHandler(newService(t, "pw"))
	for _, tc := range []struct {
		body string
		want int
	}{
		{`{"password":"pw"}`, http.StatusOK},
		{`{"password":"nope"}`, http.StatusUnauthorized},
		{`{}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	} {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body)))
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.body, rec.Code, tc.want)
		}
		if tc.want == http.StatusOK && !strings.Contains(rec.Body.String(), `"token"`) {
			t.Errorf("no token in %s", rec.Body)
		}
	}
}
