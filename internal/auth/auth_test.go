package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"squad-backend/internal/models"
	"squad-backend/internal/store"
)

type fakeUsers struct {
	accounts map[string]models.Account
}

func (f fakeUsers) FindAccount(_ context.Context, email string) (*models.Account, error) {
	a, ok := f.accounts[models.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (f fakeUsers) ResolveUser(_ context.Context, userID string) (*models.Principal, error) {
	for _, a := range f.accounts {
		if a.UserID == userID {
			return &models.Principal{UserID: a.UserID, Email: a.Email, Role: a.Role, PlayerID: a.PlayerID, StaffID: a.StaffID}, nil
		}
	}
	return nil, store.ErrNotFound
}

func newAuth(t *testing.T) *Authenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("player123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	users := fakeUsers{accounts: map[string]models.Account{
		"jane@example.com": {UserID: "puser-1", Email: "jane@example.com", Password: string(hash), FirstName: "Jane", LastName: "Doe", Role: models.RolePlayer, IsActive: true, PlayerID: "player-1"},
		"carl@example.com": {UserID: "suser-1", Email: "carl@example.com", Password: "legacy-plain", FirstName: "Carl", Role: models.RoleStaff, IsActive: true, StaffID: "staff-1"},
		"gone@example.com": {UserID: "puser-2", Email: "gone@example.com", Password: "x", Role: models.RolePlayer, IsActive: false},
	}}
	return New(users, Admin{Email: "admin@localhost.com", Password: "admin1234"}, "test-secret", time.Hour)
}

func TestLogin(t *testing.T) {
	a := newAuth(t)
	ctx := context.Background()
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
		wantRole models.Role
	}{
		{"hashed player password", "Jane@Example.com", "player123", nil, models.RolePlayer},
		{"legacy plaintext staff password", "carl@example.com", "legacy-plain", nil, models.RoleStaff},
		{"fallback admin", "ADMIN@localhost.com", "admin1234", nil, models.RoleAdmin},
		{"wrong password", "jane@example.com", "nope", ErrInvalidCredentials, ""},
		{"wrong admin password", "admin@localhost.com", "nope", ErrInvalidCredentials, ""},
		{"unknown email", "who@example.com", "player123", ErrInvalidCredentials, ""},
		{"inactive account", "gone@example.com", "x", ErrInactive, ""},
		{"empty password", "jane@example.com", "", ErrInvalidCredentials, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := a.Login(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if res.User.Role != tt.wantRole || res.Token == "" {
				t.Fatalf("result = %+v", res)
			}
			c, err := a.Verify(res.Token)
			if err != nil {
				t.Fatal(err)
			}
			if c.UserID != res.User.ID {
				t.Errorf("token user = %s, want %s", c.UserID, res.User.ID)
			}
		})
	}
}

func TestVerifyRejectsTamperedAndExpiredTokens(t *testing.T) {
	a := newAuth(t)
	token, err := a.Sign(Claims{UserID: "puser-1", Role: models.RolePlayer})
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(token, ".")
	forged, _ := a.Sign(Claims{UserID: "suser-1", Role: models.RoleAdmin})
	tampered := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]
	if _, err := a.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("tampered token: err = %v", err)
	}

	other := New(nil, Admin{}, "other-secret", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign secret: err = %v", err)
	}

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := a.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token: err = %v", err)
	}
	if _, err := a.Verify("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: err = %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	a := newAuth(t)
	var seen *models.Principal
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetPrincipal(r.Context())
	}))

	res, err := a.Login(context.Background(), "jane@example.com", "player123")
	if err != nil {
		t.Fatal(err)
	}
	dangling, _ := a.Sign(Claims{UserID: "puser-deleted", Role: models.RolePlayer})

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"bearer", "Bearer " + res.Token, "", http.StatusOK},
		{"query token", "", res.Token, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", "", http.StatusUnauthorized},
		{"unknown user", "Bearer " + dangling, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			target := "/api/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK && (seen == nil || seen.PlayerID != "player-1") {
				t.Errorf("principal = %+v", seen)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	tests := []struct {
		name string
		p    *models.Principal
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"player", &models.Principal{Role: models.RolePlayer}, http.StatusForbidden},
		{"staff", &models.Principal{Role: models.RoleStaff}, http.StatusForbidden},
		{"coach", &models.Principal{Role: models.RoleCoach}, http.StatusNoContent},
		{"admin", &models.Principal{Role: models.RoleAdmin}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/players", nil)
			if tt.p != nil {
				req = req.WithContext(WithPrincipal(req.Context(), tt.p))
			}
			rec := httptest.NewRecorder()
			RequireAdmin(ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
