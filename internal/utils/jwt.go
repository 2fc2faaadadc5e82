package utils // package utils provides helpers for session tokens, reset tickets, hashing and dates

import (
    "crypto/rand"  // secure random number generation for reset tickets
    "encoding/hex" // hex encoding of random bytes
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

// SessionClaims are the claims carried by a session token.  Role flags are
// kept as the raw "T"/"F" strings stored on the account because the browser
// client compares them as strings.
type SessionClaims struct {
    UserID    int64  `json:"userId"`
    Username  string `json:"username"`
    Dashboard string `json:"dashboard"`
    Email     string `json:"email"`
    Admin     string `json:"admin"`
    jwt.RegisteredClaims
}

// SessionToken is a signed session JWT and its expiry.
type SessionToken struct {
    Token string
    Exp   time.Time
}

// ErrInvalidToken is returned by ParseSessionToken for any token that is
// malformed, signed with another key or algorithm, or expired.
var ErrInvalidToken = errors.New("invalid or expired token")

// NewSessionToken signs an HS256 session token for the given claims.  The
// exp and iat claims are set from ttl; any registered claims already present
// in c are kept.
func NewSessionToken(secret string, c SessionClaims, ttl time.Duration) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    c.IssuedAt = jwt.NewNumericDate(now)
    c.ExpiresAt = jwt.NewNumericDate(exp)
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies raw against secret and returns its claims.
// Only HMAC signatures are accepted.
func ParseSessionToken(secret, raw string) (*SessionClaims, error) {
    claims := &SessionClaims{}
    tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens that claim a non-HMAC algorithm before the key is used.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return nil, ErrInvalidToken
    }
    return claims, nil
}

// NewResetToken returns a password reset ticket: 32 bytes of secure random
// data encoded as 64 hex characters.
func NewResetToken() (string, error) {
    return randomHex(32)
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
