package http

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/identity/internal/errors"
	"github.com/allisson/identity/internal/httputil"
)

// CSRFHeader is the request header carrying the CSRF token.
const CSRFHeader = "X-CSRF-Token"

// CSRFValidator issues and checks CSRF tokens for state-changing endpoints.
type CSRFValidator interface {
	Generate() (string, error)
	Validate(token string) error
}

const (
	csrfNonceSize = 16
	csrfMACSize   = sha256.Size
)

// HMACCSRFValidator is a stateless CSRF validator: the token is a random
// nonce with an embedded issue timestamp, authenticated with HMAC-SHA256.
// No server-side session storage is needed.
type HMACCSRFValidator struct {
	key []byte
	ttl time.Duration
}

// NewHMACCSRFValidator creates a new HMACCSRFValidator.
func NewHMACCSRFValidator(key []byte, ttl time.Duration) *HMACCSRFValidator {
	return &HMACCSRFValidator{key: key, ttl: ttl}
}

// Generate mints a new token valid for the configured TTL.
func (v *HMACCSRFValidator) Generate() (string, error) {
	nonce := make([]byte, csrfNonceSize)
	binary.BigEndian.PutUint64(nonce, uint64(time.Now().UTC().Unix()))
	if _, err := rand.Read(nonce[8:]); err != nil {
		return "", apperrors.Wrap(err, "failed to generate csrf nonce")
	}

	mac := hmac.New(sha256.New, v.key)
	mac.Write(nonce)

	return base64.RawURLEncoding.EncodeToString(mac.Sum(nonce)), nil
}

// Validate checks the token's authenticity and age.
func (v *HMACCSRFValidator) Validate(token string) error {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != csrfNonceSize+csrfMACSize {
		return apperrors.Wrap(apperrors.ErrForbidden, "malformed csrf token")
	}

	nonce, sum := raw[:csrfNonceSize], raw[csrfNonceSize:]

	mac := hmac.New(sha256.New, v.key)
	mac.Write(nonce)
	if !hmac.Equal(mac.Sum(nil), sum) {
		return apperrors.Wrap(apperrors.ErrForbidden, "invalid csrf token")
	}

	issuedAt := time.Unix(int64(binary.BigEndian.Uint64(nonce)), 0).UTC()
	now := time.Now().UTC()
	if issuedAt.After(now.Add(time.Minute)) || now.Sub(issuedAt) > v.ttl {
		return apperrors.Wrap(apperrors.ErrForbidden, "expired csrf token")
	}

	return nil
}

// CSRFMiddleware rejects state-changing requests without a valid CSRF token.
func CSRFMiddleware(validator CSRFValidator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(CSRFHeader)
		if token == "" {
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrForbidden, "missing csrf token"), logger)
			c.Abort()
			return
		}

		if err := validator.Validate(token); err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
