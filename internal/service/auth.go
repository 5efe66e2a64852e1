package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/snakeoil/internal/access"
	"github.com/Skotchmaster/snakeoil/internal/events"
	"github.com/Skotchmaster/snakeoil/internal/forms"
	"github.com/Skotchmaster/snakeoil/internal/hash"
	"github.com/Skotchmaster/snakeoil/internal/models"
	"github.com/Skotchmaster/snakeoil/internal/repo"
	"github.com/Skotchmaster/snakeoil/internal/tokens"
)

const MsgBadCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."

type AuthService struct {
	Users     repo.UserRepo
	Sessions  repo.SessionRepo
	JWTSecret []byte
	TTL       time.Duration
	Events    events.Publisher
	Now       func() time.Time
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Principal access.Principal
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	fe := forms.FieldErrors{}
	if username == "" {
		fe.Add("username", forms.MsgRequired)
	}
	if password == "" {
		fe.Add("password", forms.MsgRequired)
	}
	if err := fe.Err(); err != nil {
		return LoginResult{}, err
	}

	user, err := s.Users.GetUserByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return LoginResult{}, fmt.Errorf("%s: %w", MsgBadCredentials, ErrUnauthenticated)
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return LoginResult{}, fmt.Errorf("%s: %w", MsgBadCredentials, ErrUnauthenticated)
	}

	now := s.now()
	sess := models.Session{
		JTI:       uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.TTL),
	}
	if err := s.Sessions.CreateSession(ctx, &sess); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	token, err := tokens.SignAccessToken(user.ID, user.Username, sess.JTI, now, s.TTL, s.JWTSecret)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	p, err := s.principal(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}

	publish(ctx, s.Events, events.TopicUsers, userKey(p), events.Event{
		Type:    events.UserLoggedIn,
		ActorID: user.ID,
		Payload: map[string]any{"username": user.Username},
	})

	return LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, Principal: p}, nil
}

// Authenticate resolves an access token into a principal. The session behind
// the token must exist, be unrevoked and unexpired.
func (s *AuthService) Authenticate(ctx context.Context, token string) (access.Principal, error) {
	claims, err := tokens.AccessClaimsFromToken(token, s.JWTSecret)
	if err != nil {
		return access.Anonymous(), fmt.Errorf("parse token: %v: %w", err, ErrUnauthenticated)
	}
	userID, err := claims.UserID()
	if err != nil {
		return access.Anonymous(), fmt.Errorf("%v: %w", err, ErrUnauthenticated)
	}

	sess, err := s.Sessions.GetSession(ctx, claims.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return access.Anonymous(), fmt.Errorf("unknown session: %w", ErrUnauthenticated)
	}
	if err != nil {
		return access.Anonymous(), err
	}
	if sess.Revoked || sess.UserID != userID || !s.now().Before(sess.ExpiresAt) {
		return access.Anonymous(), fmt.Errorf("session %s not active: %w", sess.JTI, ErrUnauthenticated)
	}

	user, err := s.Users.GetUser(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return access.Anonymous(), fmt.Errorf("user %d gone: %w", userID, ErrUnauthenticated)
	}
	if err != nil {
		return access.Anonymous(), err
	}
	return s.principal(ctx, user)
}

// Logout revokes the session behind token. Unknown or invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := tokens.AccessClaimsFromToken(token, s.JWTSecret)
	if err != nil {
		return nil
	}
	if err := s.Sessions.RevokeSession(ctx, claims.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *AuthService) principal(ctx context.Context, u models.User) (access.Principal, error) {
	perms, err := s.Users.Permissions(ctx, u.ID)
	if err != nil {
		return access.Anonymous(), fmt.Errorf("load permissions: %w", err)
	}
	return access.Principal{
		UserID:      u.ID,
		Username:    u.Username,
		IsStaff:     u.IsStaff,
		Permissions: perms,
	}, nil
}
