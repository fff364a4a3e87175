package handlers

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/notifsync/internal/validation"
)

// TokenIssuer is the iss claim of every token the server signs.
const TokenIssuer = "notifsync-server"

// CustomClaims представляет JWT claims для нашего приложения
type CustomClaims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// JWTConfig содержит конфигурацию для JWT
type JWTConfig struct {
	Now      func() time.Time // источник времени для проверки exp/nbf, по умолчанию time.Now
	Secret   []byte
	TokenTTL time.Duration
}

// GenerateAccessToken создает новый JWT access token для клиента, выданный в момент now
func GenerateAccessToken(cfg JWTConfig, clientID string, now time.Time) (string, time.Time, error) {
	if err := validation.ValidateClientID(clientID); err != nil {
		return "", time.Time{}, err
	}

	expiresAt := now.Add(cfg.TokenTTL)
	claims := CustomClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateAccessToken валидирует и парсит JWT access token
func ValidateAccessToken(cfg JWTConfig, tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (any, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.Secret, nil
	}, parserOptions(cfg)...)

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid && claims.ClientID != "" {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func parserOptions(cfg JWTConfig) []jwt.ParserOption {
	opts := []jwt.ParserOption{jwt.WithIssuer(TokenIssuer)}
	if cfg.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(cfg.Now))
	}
	return opts
}
