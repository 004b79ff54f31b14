package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/finmate/finmate-api/internal/apperrors"
	"github.com/finmate/finmate-api/internal/config"
)

// Identity is the verified external identity behind a bearer token.
type Identity struct {
	UID   string
	Email string
	Name  string
}

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Verifier turns opaque bearer tokens into external identities. It is
// pure verification with no side effects.
type Verifier struct {
	secret string
	issuer string
	log    *logrus.Logger
}

// NewVerifier initializes a verifier from the identity-provider
// credential. An empty credential enables development mode.
func NewVerifier(cfg *config.Config, log *logrus.Logger) *Verifier {
	if cfg.DevMode() {
		log.Warn("AUTH_JWT_SECRET not set: running in development mode with a synthetic identity")
	}
	return &Verifier{secret: cfg.AuthJWTSecret, issuer: cfg.AuthIssuer, log: log}
}

// Verify validates a bearer token (prefix already stripped) and returns
// the identity it proves. An empty token is a distinct failure from an
// invalid one.
func (v *Verifier) Verify(token string) (*Identity, error) {
	if token == "" {
		return nil, apperrors.ErrTokenMissing
	}
	if v.secret == "" {
		// Development fallback; unreachable once a provider credential
		// is configured.
		return &Identity{UID: "dev-user", Email: "dev@example.com"}, nil
	}

	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.secret), nil
	})
	if err != nil || !parsed.Valid {
		v.log.Debugf("Token verification failed: %v", err)
		return nil, apperrors.ErrTokenInvalid
	}
	if v.issuer != "" && c.Issuer != v.issuer {
		return nil, apperrors.ErrTokenInvalid
	}
	if c.Subject == "" || c.Email == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	return &Identity{UID: c.Subject, Email: c.Email, Name: c.Name}, nil
}

// StripBearer removes a "Bearer " prefix from an Authorization header
// value, if present.
func StripBearer(header string) string {
	header = strings.TrimSpace(header)
	// A bare scheme with no credential strips to the empty token.
	if strings.EqualFold(header, "bearer") {
		return ""
	}
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
