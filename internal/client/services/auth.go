package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/logging"
)

// AuthService tracks the hosted-auth session of the device.
//
// Contract:
//   - Restore: reload a stored session at startup.
//   - Login: adopt an access token issued by the auth provider.
//   - Logout: forget the session and fall back to anonymous.
//   - Ping: check record store liveness.
//
// Every identity change is pushed to token sinks and the identity callback.
type AuthService interface {
	Restore(ctx context.Context) (models.Identity, error)
	Login(ctx context.Context, token string) (models.Identity, error)
	Logout(ctx context.Context) error
	Identity() models.Identity
	Token() string
	Ping(ctx context.Context) error
}

// IdentityFunc is told about every identity change. prev is the identity
// being replaced, which for a session dropped at startup is the identity
// the stored session belonged to.
type IdentityFunc func(ctx context.Context, prev, next models.Identity)

// TokenSetter receives the current access token ("" when signed out).
type TokenSetter interface {
	SetAccessToken(token string)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type session struct {
	AccessToken string          `json:"accessToken"`
	Identity    models.Identity `json:"identity"`
}

type authService struct {
	local      localstore.Repository
	pinger     Pinger
	sinks      []TokenSetter
	onIdentity IdentityFunc
	logger     logging.Logger
	now        func() time.Time

	mu      sync.RWMutex
	current session
}

// NewAuthService builds an AuthService persisting its session in local.
// onIdentity may be nil.
func NewAuthService(local localstore.Repository, pinger Pinger, onIdentity IdentityFunc, l logging.Logger, sinks ...TokenSetter) AuthService {
	if l == nil {
		l = logging.Nop()
	}
	return &authService{
		local:      local,
		pinger:     pinger,
		sinks:      sinks,
		onIdentity: onIdentity,
		logger:     l.With("module", "auth"),
		now:        time.Now,
	}
}

// IdentityFromToken extracts the user id from an access token without
// verifying its signature. The record store verifies it on every call.
func IdentityFromToken(token string, now time.Time) (models.Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return models.Anonymous, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return models.Anonymous, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if exp != nil && !exp.After(now) {
		return models.Anonymous, common.ErrTokenExpired
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		if v, ok := claims["UserID"].(string); ok {
			sub = v
		}
	}
	if sub == "" {
		return models.Anonymous, fmt.Errorf("%w: no subject", common.ErrInvalidToken)
	}
	return models.Identity(sub), nil
}

func (a *authService) Identity() models.Identity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current.Identity
}

func (a *authService) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current.AccessToken
}

func (a *authService) install(ctx context.Context, s session) {
	a.installFrom(ctx, a.Identity(), s)
}

func (a *authService) installFrom(ctx context.Context, prev models.Identity, s session) {
	a.mu.Lock()
	a.current = s
	a.mu.Unlock()

	for _, sink := range a.sinks {
		sink.SetAccessToken(s.AccessToken)
	}
	if a.onIdentity != nil {
		a.onIdentity(ctx, prev, s.Identity)
	}
}

// Restore loads the stored session. A missing session is anonymous. An
// expired or unreadable one is dropped, and the error is returned after the
// anonymous identity has been installed.
func (a *authService) Restore(ctx context.Context) (models.Identity, error) {
	var s session
	found, err := localstore.LoadJSON(ctx, a.local, localstore.SessionKey, &s)
	switch {
	case errors.Is(err, common.ErrMalformedRecord):
		return a.dropSession(ctx, models.Anonymous, err)
	case err != nil:
		return models.Anonymous, fmt.Errorf("failed to read session: %w", err)
	case !found:
		a.install(ctx, session{})
		return models.Anonymous, nil
	}

	id, err := IdentityFromToken(s.AccessToken, a.now())
	if err != nil {
		return a.dropSession(ctx, storedIdentity(s), err)
	}

	s.Identity = id
	a.install(ctx, s)
	return id, nil
}

// storedIdentity is the identity a stored session was issued for, even when
// its token has expired.
func storedIdentity(s session) models.Identity {
	if !s.Identity.IsAnonymous() {
		return s.Identity
	}
	// the zero time skips the expiry check
	if id, err := IdentityFromToken(s.AccessToken, time.Time{}); err == nil {
		return id
	}
	return models.Anonymous
}

// dropSession forgets the stored session and signs out of prev.
func (a *authService) dropSession(ctx context.Context, prev models.Identity, cause error) (models.Identity, error) {
	a.logger.Warn(ctx, "dropping stored session", "identity", prev.String(), "err", cause)
	if err := a.local.Remove(ctx, localstore.SessionKey); err != nil {
		a.logger.Warn(ctx, "failed to remove session", "err", err)
	}
	a.installFrom(ctx, prev, session{})
	return models.Anonymous, cause
}

func (a *authService) Login(ctx context.Context, token string) (models.Identity, error) {
	id, err := IdentityFromToken(token, a.now())
	if err != nil {
		return models.Anonymous, err
	}
	s := session{AccessToken: token, Identity: id}
	if err := localstore.SaveJSON(ctx, a.local, localstore.SessionKey, s); err != nil {
		return models.Anonymous, fmt.Errorf("failed to save session: %w", err)
	}
	a.install(ctx, s)
	return id, nil
}

func (a *authService) Logout(ctx context.Context) error {
	if err := a.local.Remove(ctx, localstore.SessionKey); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	a.install(ctx, session{})
	return nil
}

func (a *authService) Ping(ctx context.Context) error {
	return a.pinger.Ping(ctx)
}
