package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Service verifies operator tokens for the back-office API. Tokens are minted
// by the HR system with the shared secret; this service only validates them.
type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	GenerateOperatorToken(operatorID string, ttl time.Duration) (token string, expiresAt int64, err error)
}

type JWTService struct {
	secretKey string
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		secretKey: secretKey,
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// GenerateOperatorToken issues a short-lived token. Used by ops tooling and
// the handler tests; production tokens normally come from the HR system.
func (j *JWTService) GenerateOperatorToken(operatorID string, ttl time.Duration) (string, int64, error) {
	expiresAt := time.Now().Add(ttl).Unix()
	claims := map[string]interface{}{
		"operator_id": operatorID,
		"type":        "operator",
		"exp":         expiresAt,
	}
	_, token, err := j.tokenAuth.Encode(claims)
	if err != nil {
		return "", 0, err
	}
	return token, expiresAt, nil
}
