package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StateSigner issues and verifies the OAuth state parameter as a short-lived
// signed token, so the callback can reject forged or replayed redirects
// without server-side state.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	return &StateSigner{secret: []byte(secret), ttl: ttl}
}

// Sign creates a state token bound to the given provider name.
func (s *StateSigner) Sign(provider string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"provider": provider,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates a state token and checks it was issued for provider.
func (s *StateSigner) Verify(state, provider string) error {
	token, err := jwt.Parse(state, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrSignatureInvalid
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return jwt.ErrTokenMalformed
	}
	if p, _ := claims["provider"].(string); p != provider {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}
