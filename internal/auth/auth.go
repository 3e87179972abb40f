// Package auth turns bearer tokens into an owner identity. Every ledger query
// is scoped by the owner id this package places on the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"expenses/internal/core"
	"expenses/internal/log"
)

type ownerKey struct{}

const ginOwnerKey = "owner_id"

// Config describes how tokens are signed and which claims must match.
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// Verifier validates HS256 tokens and extracts the subject as owner id.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier fails when no secret is configured.
func NewVerifier(cfg Config) (*Verifier, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &Verifier{secret: cfg.Secret, parser: jwt.NewParser(opts...)}, nil
}

// Verify returns the owner id carried by token or ErrUnauthorized.
func (v *Verifier) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrUnauthorized, err)
	}
	if !parsed.Valid {
		return "", core.ErrUnauthorized
	}

	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return "", fmt.Errorf("%w: token has no subject", core.ErrUnauthorized)
	}
	return sub, nil
}

// Issue signs a token for ownerID valid for ttl. Used by cmd/devtoken and tests.
func Issue(cfg Config, ownerID string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   ownerID,
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
}

// Middleware rejects requests without a valid bearer token with 401.
func Middleware(v *Verifier, logger *log.Logger) gin.HandlerFunc {
	logger = logger.WithComponent(log.ComponentAuth)

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		owner, err := v.Verify(token)
		if err != nil {
			logger.DebugContext(c.Request.Context(), "Rejected bearer token",
				log.FieldError, err.Error(),
				log.FieldClientIP, c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(ginOwnerKey, owner)
		c.Request = c.Request.WithContext(WithOwner(c.Request.Context(), owner))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithOwner stores the authenticated owner on ctx.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFrom returns the owner placed by Middleware or ErrUnauthorized.
func OwnerFrom(ctx context.Context) (string, error) {
	if owner, ok := ctx.Value(ownerKey{}).(string); ok && owner != "" {
		return owner, nil
	}
	return "", core.ErrUnauthorized
}
