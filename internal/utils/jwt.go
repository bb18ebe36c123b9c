package utils // package utils provides helper functions for token creation and hashing

import (
    "errors" // sentinel errors for token failures
    "fmt"    // fmt wraps the parser's reason into ErrTokenInvalid
    "time"   // time utilities for issue and expiry timestamps

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

// ErrTokenInvalid covers malformed, tampered, expired and otherwise
// unacceptable tokens.  The wrapped error carries the parser's reason for
// logging; callers compare with errors.Is.
var ErrTokenInvalid = errors.New("invalid token")

// ErrEmptySecret is returned when a token service is built without a key.
var ErrEmptySecret = errors.New("jwt secret must be provided")

// Claims is the identity carried by an access token.  Subject holds the
// account identifier.  ExpiresAt is zero for non-expiring tokens.
type Claims struct {
    Subject   string
    IssuedAt  time.Time
    ExpiresAt time.Time
}

// TokenService issues and verifies HS256 access tokens with a process-wide
// secret.  It holds no mutable state and is safe for concurrent use.
type TokenService struct {
    secret []byte           // signing key, never logged
    ttl    time.Duration    // lifetime added to iat; 0 disables exp
    now    func() time.Time // clock, replaceable in tests
}

// NewTokenService builds a TokenService.  An empty secret is rejected so the
// process can never sign with a blank key.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
    if secret == "" {
        return nil, ErrEmptySecret
    }
    return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for the subject in c.  IssuedAt and ExpiresAt in c are
// ignored; they are derived from the service clock and TTL.
func (s *TokenService) Issue(c Claims) (string, error) {
    if c.Subject == "" {
        return "", errors.New("token subject is required")
    }
    now := s.now().UTC()
    rc := jwt.RegisteredClaims{
        Subject:  c.Subject,
        IssuedAt: jwt.NewNumericDate(now),
    }
    // Only attach exp when a lifetime is configured.
    if s.ttl > 0 {
        rc.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, rc)
    return t.SignedString(s.secret)
}

// Verify checks the signature and expiry of raw and returns its claims.
// Every failure is reported as ErrTokenInvalid.
func (s *TokenService) Verify(raw string) (Claims, error) {
    var rc jwt.RegisteredClaims
    tok, err := jwt.ParseWithClaims(raw, &rc, func(t *jwt.Token) (interface{}, error) {
        // Reject anything that is not HMAC so "none" or RSA confusion cannot pass.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return s.secret, nil
    },
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithTimeFunc(s.now),
    )
    if err != nil {
        return Claims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
    }
    if !tok.Valid || rc.Subject == "" {
        return Claims{}, ErrTokenInvalid
    }

    out := Claims{Subject: rc.Subject}
    if rc.IssuedAt != nil {
        out.IssuedAt = rc.IssuedAt.Time.UTC()
    }
    if rc.ExpiresAt != nil {
        out.ExpiresAt = rc.ExpiresAt.Time.UTC()
    }
    return out, nil
}
