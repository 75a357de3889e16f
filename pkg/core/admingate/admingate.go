package admingate

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer  = "tamilschool-volunteers"
	subject = "admin"
)

// DefaultTTL is the session lifetime used when none is configured
const DefaultTTL = 8 * time.Hour

var (
	// ErrWrongPassword is returned by Login when the password does not match
	ErrWrongPassword = errors.New("wrong admin password")

	// ErrInvalidSession is returned by Verify for a missing, malformed or wrongly signed token
	ErrInvalidSession = errors.New("invalid admin session")

	// ErrSessionExpired is returned by Verify once a token is past its expiry
	ErrSessionExpired = errors.New("admin session expired")

	// ErrNotConfigured is returned when no admin password is set
	ErrNotConfigured = errors.New("admin password not configured")
)

// Session is a verified admin session
type Session struct {
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Gate checks the shared admin password and issues signed session tokens
type Gate struct {
	passwordHash []byte
	signingKey   []byte
	ttl          time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// New creates a Gate for the configured password. The password is kept only as a bcrypt hash.
func New(password, signingKey string, ttl time.Duration, logger *zap.Logger) (*Gate, error) {
	if password == "" {
		return nil, ErrNotConfigured
	}
	if signingKey == "" {
		return nil, fmt.Errorf("admin session key is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	return &Gate{
		passwordHash: hash,
		signingKey:   []byte(signingKey),
		ttl:          ttl,
		now:          time.Now,
		logger:       logger,
	}, nil
}

// Login exchanges the admin password for a session token
func (g *Gate) Login(password string) (string, *Session, error) {
	if err := bcrypt.CompareHashAndPassword(g.passwordHash, []byte(password)); err != nil {
		g.logger.Warn("Admin login rejected")
		return "", nil, ErrWrongPassword
	}

	issued := g.now().UTC().Truncate(time.Second)
	session := &Session{
		ID:        uuid.NewString(),
		IssuedAt:  issued,
		ExpiresAt: issued.Add(g.ttl),
	}

	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.signingKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign admin session: %w", err)
	}

	g.logger.Info("Admin session issued",
		zap.String("session", session.ID),
		zap.Time("expires", session.ExpiresAt))
	return token, session, nil
}

// Verify checks a session token's signature, issuer and expiry
func (g *Gate) Verify(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return g.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		g.logger.Debug("Admin session rejected", zap.Error(err))
		return nil, ErrInvalidSession
	}

	session := &Session{ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	return session, nil
}
