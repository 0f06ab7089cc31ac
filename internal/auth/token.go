package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/talgya/ashes-void/internal/apperr"
)

// CookieName is the session cookie set on login.
const CookieName = "ashes_auth"

// DefaultSessionTTL is how long a session token stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

const issuer = "ashes-void"

// ErrInvalidToken is returned for a missing, forged, or expired session token.
var ErrInvalidToken = apperr.New(apperr.CodeUnauthenticated, "please log in to do that")

// Tokens issues and verifies signed session tokens.
type Tokens struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (t Tokens) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}

// Issue signs a session token for the user and returns it with its expiry.
func (t Tokens) Issue(u User) (string, time.Time, error) {
	if len(t.Secret) == 0 {
		return "", time.Time{}, errors.New("session secret is not configured")
	}
	ttl := t.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := t.now()
	exp := now.Add(ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Email: u.Email,
		Name:  u.DisplayName,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies a session token and returns its principal.
func (t Tokens) Parse(token string) (Principal, error) {
	if token == "" || len(t.Secret) == 0 {
		return Principal{}, ErrInvalidToken
	}
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Principal{}, apperr.Wrap(apperr.CodeUnauthenticated, ErrInvalidToken.Message, err)
	}
	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.Email == "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: uid, Email: claims.Email, DisplayName: claims.Name}, nil
}
