// AngelaMos | 2026
// signer.go

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/vipledger/internal/config"
	"github.com/carterperez-dev/vipledger/internal/core"
)

const minSecretLen = 32

// CookieSigner signs the session cookie as a compact HS256 JWT. The jti is
// the session row id, so a forged or tampered cookie never reaches the
// database and a valid one can still be revoked by deleting the row.
type CookieSigner struct {
	key    jwk.Key
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewCookieSigner(cfg config.SessionConfig) (*CookieSigner, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, fmt.Errorf("session secret must be at least %d bytes", minSecretLen)
	}

	key, err := jwk.Import([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("import session key: %w", err)
	}

	if setErr := key.Set(jwk.AlgorithmKey, jwa.HS256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	return &CookieSigner{
		key:    key,
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}, nil
}

func (s *CookieSigner) TTL() time.Duration {
	return s.ttl
}

func (s *CookieSigner) Sign(sessionID, userID string, expiresAt time.Time) (string, error) {
	now := s.now()

	token, err := jwt.NewBuilder().
		JwtID(sessionID).
		Issuer(s.issuer).
		Subject(userID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", fmt.Errorf("build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), s.key))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return string(signed), nil
}

// Verify returns the session and user ids carried by a signed cookie.
func (s *CookieSigner) Verify(value string) (sessionID, userID string, err error) {
	token, err := jwt.Parse(
		[]byte(value),
		jwt.WithKey(jwa.HS256(), s.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(s.issuer),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return "", "", fmt.Errorf("verify session: %w", core.ErrSessionExpired)
		}
		return "", "", fmt.Errorf("verify session: %w", core.ErrSessionInvalid)
	}

	sessionID, ok := token.JwtID()
	if !ok || sessionID == "" {
		return "", "", fmt.Errorf("verify session: missing jti: %w", core.ErrSessionInvalid)
	}

	userID, ok = token.Subject()
	if !ok || userID == "" {
		return "", "", fmt.Errorf("verify session: missing subject: %w", core.ErrSessionInvalid)
	}

	return sessionID, userID, nil
}

func isTokenExpiredError(err error) bool {
	return errors.Is(err, jwt.TokenExpiredError())
}
