package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"squad-backend/internal/models"
	"squad-backend/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("account is deactivated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// AdminUserID is the user id of the configured fallback admin.
const AdminUserID = "local-admin"

// Users is the account lookup the authenticator needs. store.Store
// satisfies it.
type Users interface {
	FindAccount(ctx context.Context, email string) (*models.Account, error)
	ResolveUser(ctx context.Context, userID string) (*models.Principal, error)
}

// Admin is the fallback administrator that exists without any stored account.
type Admin struct {
	Email    string
	Password string
}

// Claims is the payload of a signed token.
type Claims struct {
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	Exp    int64       `json:"exp"`
}

type Authenticator struct {
	users  Users
	admin  Admin
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(users Users, admin Admin, secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{
		users:  users,
		admin:  admin,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// User is the public view of an authenticated account.
type User struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Name      string      `json:"name"`
	IsActive  bool        `json:"isActive"`
	PlayerID  string      `json:"playerId,omitempty"`
	StaffID   string      `json:"staffId,omitempty"`
}

type LoginResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// CheckPassword compares a stored password with the one supplied at login.
// Stored values that are not bcrypt hashes are legacy plaintext and compared
// directly.
func CheckPassword(stored, supplied string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	}
	return hmac.Equal([]byte(stored), []byte(supplied))
}

// Login checks the credentials and issues a token. The fallback admin is
// tried before stored accounts.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if a.admin.Email != "" && email == models.NormalizeEmail(a.admin.Email) {
		if !hmac.Equal([]byte(password), []byte(a.admin.Password)) {
			return nil, ErrInvalidCredentials
		}
		u := User{
			ID: AdminUserID, Email: a.admin.Email, Role: models.RoleAdmin,
			FirstName: "Local", LastName: "Admin", Name: "Local Admin", IsActive: true,
		}
		return a.issue(u)
	}

	acct, err := a.users.FindAccount(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(acct.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !acct.IsActive {
		return nil, ErrInactive
	}
	return a.issue(User{
		ID:        acct.UserID,
		Email:     acct.Email,
		Role:      acct.Role,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
		Name:      acct.Name(),
		IsActive:  true,
		PlayerID:  acct.PlayerID,
		StaffID:   acct.StaffID,
	})
}

func (a *Authenticator) issue(u User) (*LoginResult, error) {
	token, err := a.Sign(Claims{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: u, Token: token}, nil
}

// Sign creates an HMAC-signed token. A zero Exp is set from the configured
// lifetime.
// Format: local.<base64url(json-payload)>.<base64url(hmac-sha256)>
func (a *Authenticator) Sign(c Claims) (string, error) {
	if c.Exp == 0 {
		c.Exp = a.now().Add(a.ttl).Unix()
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	payloadB64 := base64.RawURLEncoding.EncodeToString(payload)
	return "local." + payloadB64 + "." + a.signature(payloadB64), nil
}

func (a *Authenticator) signature(payloadB64 string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(payloadB64))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks a token's signature and expiry and returns its claims.
func (a *Authenticator) Verify(token string) (*Claims, error) {
	parts := strings.SplitN(token, ".", 3)
	if len(parts) != 3 || parts[0] != "local" {
		return nil, fmt.Errorf("%w: bad format", ErrInvalidToken)
	}
	if !hmac.Equal([]byte(parts[2]), []byte(a.signature(parts[1]))) {
		return nil, fmt.Errorf("%w: bad signature", ErrInvalidToken)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: bad payload", ErrInvalidToken)
	}
	var c Claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("%w: bad payload", ErrInvalidToken)
	}
	if a.now().Unix() > c.Exp {
		return nil, ErrTokenExpired
	}
	return &c, nil
}

// Principal resolves verified claims to the current principal. Tokens of
// deleted accounts no longer resolve.
func (a *Authenticator) Principal(ctx context.Context, c *Claims) (*models.Principal, error) {
	if c.UserID == AdminUserID {
		return &models.Principal{UserID: AdminUserID, Email: c.Email, Role: models.RoleAdmin}, nil
	}
	p, err := a.users.ResolveUser(ctx, c.UserID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

type contextKey int

const principalKey contextKey = iota

func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns the authenticated principal, or nil.
func GetPrincipal(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(principalKey).(*models.Principal)
	return p
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return t
		}
		return ""
	}
	// EventSource cannot set headers.
	return r.URL.Query().Get("token")
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Middleware authenticates the request with a Bearer token and stores the
// principal in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFrom(r)
		if token == "" {
			deny(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := a.Verify(token)
		if err != nil {
			deny(w, http.StatusUnauthorized, "unauthorized: "+err.Error())
			return
		}
		p, err := a.Principal(r.Context(), claims)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				deny(w, http.StatusUnauthorized, "unauthorized: unknown user")
				return
			}
			deny(w, http.StatusInternalServerError, "internal error")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireRole returns 403 unless the principal has one of roles.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p == nil {
				deny(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			deny(w, http.StatusForbidden, "insufficient role")
		})
	}
}

// RequireAdmin admits admins and coaches.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(models.RoleAdmin, models.RoleCoach)(next)
}

// RequireStaff admits admins, coaches and staff.
func RequireStaff(next http.Handler) http.Handler {
	return RequireRole(models.RoleAdmin, models.RoleCoach, models.RoleStaff)(next)
}
