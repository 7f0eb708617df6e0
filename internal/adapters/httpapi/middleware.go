package httpapi

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/example/railctl/internal/ctxutil"
)

// OperatorHeader names the operator when authentication is disabled.
const OperatorHeader = "X-Operator-ID"

// Logger middleware logs HTTP requests
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		log.Printf("[http] %s %s %s %d %v %s",
			c.Request.Method,
			path,
			c.ClientIP(),
			c.Writer.Status(),
			time.Since(start),
			c.Errors.String(),
		)
	}
}

// Auth requires a bearer token signed with the current secret and records
// its subject as the acting operator. An empty secret disables the check;
// the operator is then taken from OperatorHeader, if present.
func Auth(secret func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := secret()
		if key == "" {
			if op := c.GetHeader(OperatorHeader); op != "" {
				c.Request = c.Request.WithContext(ctxutil.WithActorID(c.Request.Context(), op))
			}
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			Error(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		operator, err := ParseToken(key, raw)
		if err != nil {
			c.Error(err)
			Error(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithActorID(c.Request.Context(), operator))
		c.Next()
	}
}

// IssueToken signs an operator token valid for ttl.
func IssueToken(secret, operatorID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	if operatorID == "" {
		return "", fmt.Errorf("operator id is required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   operatorID,
		Issuer:    "railctl",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies an HS256 token and returns its subject.
func ParseToken(secret, raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("failed to verify token: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}
