// Package token provides the signed completion marker implementation.
package token

import (
	"time"

	"khilat/config"
	"khilat/internal/domain/entity"
	"khilat/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const defaultTTL = 10 * time.Minute

// completionTokenService signs the in-page confirmation marker as a
// short-lived HS256 token so it can cross the client-side navigation to the
// completion screen without being forgeable.
type completionTokenService struct {
	secret []byte
	ttl    time.Duration
}

type markerClaims struct {
	Status          string `json:"status"`
	PaymentIntentID string `json:"payment_intent_id"`
	jwt.RegisteredClaims
}

// NewCompletionTokenService is the constructor for the token service.
func NewCompletionTokenService(cfg *config.Config) (service.CompletionTokenService, error) {
	if cfg.Completion.Secret == "" {
		return nil, errors.New("completion token secret must be provided")
	}

	ttl := cfg.Completion.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &completionTokenService{
		secret: []byte(cfg.Completion.Secret),
		ttl:    ttl,
	}, nil
}

// Issue signs a token for the marker.
func (s *completionTokenService) Issue(marker entity.CompletionMarker) (string, error) {
	now := time.Now()
	claims := markerClaims{
		Status:          marker.Status,
		PaymentIntentID: marker.PaymentIntentID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign completion token")
	}

	return signed, nil
}

// Verify validates the token and returns the embedded marker.
func (s *completionTokenService) Verify(tokenString string) (*entity.CompletionMarker, error) {
	var claims markerClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse completion token")
	}
	if !parsed.Valid {
		return nil, errors.New("completion token is not valid")
	}

	return &entity.CompletionMarker{
		Status:          claims.Status,
		PaymentIntentID: claims.PaymentIntentID,
	}, nil
}
