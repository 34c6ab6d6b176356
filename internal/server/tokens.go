package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrymomot/storefront/internal/repository"
)

var (
	ErrInvalidToken = errors.New("server: invalid session token")
	ErrEmptySecret  = errors.New("server: token secret is empty")
)

// Claims is the payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Role   string `json:"role"`
	UserID int64  `json:"userId"`
}

const (
	audienceSession = "session"
	audienceVerify  = "verify"
)

// Tokens issues and verifies HS256 session and e-mail verification tokens.
// The audience claim keeps one kind from being accepted as the other.
type Tokens struct {
	now    func() time.Time
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a token service.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a session token for u.
func (t *Tokens) Issue(u repository.User) (string, error) {
	return t.issue(u, audienceSession, t.ttl)
}

// Parse verifies a session token and returns its claims.
func (t *Tokens) Parse(raw string) (*Claims, error) {
	return t.parse(raw, audienceSession)
}

// IssueVerification signs a token that enables u's account until ttl
// elapses.
func (t *Tokens) IssueVerification(u repository.User, ttl time.Duration) (string, error) {
	return t.issue(u, audienceVerify, ttl)
}

// ParseVerification verifies an e-mail verification token.
func (t *Tokens) ParseVerification(raw string) (*Claims, error) {
	return t.parse(raw, audienceVerify)
}

func (t *Tokens) issue(u repository.User, audience string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			Audience:  jwt.ClaimStrings{audience},
			ID:        strconv.FormatInt(u.ID, 10) + "-" + strconv.FormatInt(now.UnixNano(), 36),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: u.ID,
		Role:   u.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) parse(raw, audience string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// MaxAge is the cookie lifetime in seconds.
func (t *Tokens) MaxAge() int {
	return int(t.ttl / time.Second)
}
