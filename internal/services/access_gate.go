package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"transportdesk/internal/domain"
	"transportdesk/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is how long dispatcher authority lasts after login.
const DefaultSessionTTL = 24 * time.Hour

var ErrInvalidCredentials = errors.New("invalid username or password")

// CredentialStore validates a username/password pair and resolves the actor behind it.
type CredentialStore interface {
	Validate(ctx context.Context, username, password string) (domain.Actor, error)
}

// StaticCredentialStore accepts a single configured dispatcher account.
type StaticCredentialStore struct {
	Username     string
	PasswordHash []byte
}

// NewStaticCredentialStore builds a store from a bcrypt hash.
func NewStaticCredentialStore(username, passwordHash string) StaticCredentialStore {
	return StaticCredentialStore{Username: username, PasswordHash: []byte(passwordHash)}
}

func (s StaticCredentialStore) Validate(_ context.Context, username, password string) (domain.Actor, error) {
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(s.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(password))
	if !userOK || passErr != nil {
		return domain.Actor{}, ErrInvalidCredentials
	}
	return domain.Actor{Username: s.Username, Role: domain.RoleDispatcher}, nil
}

// Session is the authority handed to a dispatcher after login.
type Session struct {
	Authorized bool      `json:"authorized" yaml:"authorized"`
	Token      string    `json:"token" yaml:"token"`
	ExpiresAt  time.Time `json:"expiresAt" yaml:"expiresAt"`
}

// SessionState is the outcome of a session check.
type SessionState string

const (
	SessionValid   SessionState = "valid"
	SessionExpired SessionState = "expired"
	SessionAbsent  SessionState = "absent"
)

type sessionClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// AccessGate issues and verifies dispatcher sessions as signed HS256 tokens.
type AccessGate struct {
	Credentials CredentialStore
	Secret      []byte
	TTL         time.Duration
	Now         func() time.Time
	Log         *zap.Logger
}

func NewAccessGate(creds CredentialStore, secret string, ttl time.Duration, log *zap.Logger) *AccessGate {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AccessGate{Credentials: creds, Secret: []byte(secret), TTL: ttl, Now: time.Now, Log: log}
}

func (g *AccessGate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Authorize checks credentials and returns a session valid for the gate's TTL.
func (g *AccessGate) Authorize(ctx context.Context, username, password string) (Session, error) {
	actor, err := g.Credentials.Validate(ctx, username, password)
	if err != nil {
		utils.LogEvent(g.Log, "", "auth", "login_failed", "dispatcher login rejected", zap.String("username", username))
		return Session{}, domain.UnauthorizedError{Msg: ErrInvalidCredentials.Error(), Err: err}
	}

	// JWT NumericDate has second precision; round up so the session never ends before the TTL.
	now := g.now()
	expires := now.Add(g.TTL + time.Second - 1).Truncate(time.Second)
	claims := sessionClaims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   actor.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.Secret)
	if err != nil {
		return Session{}, domain.InternalError{Msg: "failed to issue session", Err: err}
	}

	utils.LogEvent(g.Log, "", "auth", "login", "dispatcher session issued",
		zap.String("username", actor.Username), zap.Time("expires_at", expires))
	return Session{Authorized: true, Token: signed, ExpiresAt: expires}, nil
}

// CheckSession reports whether token carries dispatcher authority right now. A session is
// valid only while the current time is strictly before its expiry.
func (g *AccessGate) CheckSession(token string) (SessionState, domain.Actor, time.Time) {
	token = strings.TrimSpace(token)
	if token == "" {
		return SessionAbsent, domain.Actor{}, time.Time{}
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return g.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)

	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time.In(g.now().Location())
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return SessionExpired, domain.Actor{}, expires
	case err != nil:
		return SessionAbsent, domain.Actor{}, time.Time{}
	case claims.Role != domain.RoleDispatcher:
		return SessionAbsent, domain.Actor{}, time.Time{}
	}
	return SessionValid, domain.Actor{Username: claims.Subject, Role: claims.Role}, expires
}

// RequireAuthority resolves the dispatcher behind token or fails with UnauthorizedError.
func (g *AccessGate) RequireAuthority(token string) (domain.Actor, error) {
	state, actor, _ := g.CheckSession(token)
	switch state {
	case SessionValid:
		return actor, nil
	case SessionExpired:
		return domain.Actor{}, domain.UnauthorizedError{Msg: "session expired, please log in again"}
	default:
		return domain.Actor{}, domain.UnauthorizedError{Msg: "login required"}
	}
}
