package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/talgya/ashes-void/internal/apperr"
)

var emailRE = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

const (
	minDisplayName = 2
	minPassword    = 8
)

var (
	// ErrEmailTaken is returned when registering an address twice.
	ErrEmailTaken = apperr.New(apperr.CodeEmailTaken, "that email is already registered")
	// ErrBadCredentials is returned for an unknown email or wrong password.
	ErrBadCredentials = apperr.New(apperr.CodeBadCredentials, "login failed, check your email and password")
)

// User is a registered player.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal returns the identity used for permission checks.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u User) (int64, error)
	UserByEmail(ctx context.Context, email string) (User, bool, error)
	UserByID(ctx context.Context, id int64) (User, bool, error)
}

// Accounts registers and verifies players.
type Accounts struct {
	Users UserStore
	Cost  int // bcrypt cost; 0 means bcrypt.DefaultCost
	Now   func() time.Time
}

// Register validates and stores a new account.
func (a Accounts) Register(ctx context.Context, email, displayName, password string) (User, error) {
	email = normalizeEmail(email)
	displayName = strings.TrimSpace(displayName)

	if !emailRE.MatchString(email) {
		return User{}, apperr.New(apperr.CodeInvalidEmail, "please enter a valid email address")
	}
	if utf8.RuneCountInString(displayName) < minDisplayName {
		return User{}, apperr.New(apperr.CodeInvalidDisplayName, fmt.Sprintf("display name must be at least %d characters", minDisplayName))
	}
	if len(password) < minPassword {
		return User{}, apperr.New(apperr.CodeWeakPassword, fmt.Sprintf("password must be at least %d characters", minPassword))
	}

	if _, exists, err := a.Users.UserByEmail(ctx, email); err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	} else if exists {
		return User{}, ErrEmailTaken
	}

	cost := a.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	u := User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    now().UTC(),
	}
	id, err := a.Users.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return u, nil
}

// Verify checks a login attempt.
func (a Accounts) Verify(ctx context.Context, email, password string) (User, error) {
	u, ok, err := a.Users.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		return User{}, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}
