package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"transparencia/internal/domain"
)

// maxSubjectLength совпадает с размером колонок created_by
const maxSubjectLength = 64

var (
	ErrNoToken      = errors.New("no authorization header")
	ErrInvalidToken = errors.New("token invalid")
)

// Claims - роль сотрудника передается в токене, идентификатор - в sub
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Verifier проверяет токены портала, подписанные HS256
type Verifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewVerifier(cfg *Config) *Verifier {
	return &Verifier{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
	}
}

// GenerateToken выпускает токен для сотрудника (cmd/token)
func (v *Verifier) GenerateToken(caller domain.Caller) (string, error) {
	if caller.ID == "" || len([]rune(caller.ID)) > maxSubjectLength {
		return "", fmt.Errorf("subject must be 1..%d characters long", maxSubjectLength)
	}
	if !caller.Role.Valid() {
		return "", fmt.Errorf("unknown role %q", caller.Role)
	}
	now := time.Now()
	claims := Claims{
		Role: caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// VerifyToken разбирает строку токена и возвращает вызывающего
func (v *Verifier) VerifyToken(tokenString string) (domain.Caller, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || len([]rune(claims.Subject)) > maxSubjectLength {
		return domain.Caller{}, ErrInvalidToken
	}
	return domain.Caller{ID: claims.Subject, Role: claims.Role}, nil
}

// VerifyRequest читает Bearer-токен из заголовка Authorization
func (v *Verifier) VerifyRequest(r *http.Request) (domain.Caller, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return domain.Caller{}, ErrNoToken
	}
	return v.VerifyToken(strings.TrimPrefix(header, "Bearer "))
}
