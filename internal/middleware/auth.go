// Package middleware содержит HTTP middleware для сервиса кэшбэка.
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const resellerIDKey contextKey = "resellerID"

// TokenTTL определяет время жизни выданного токена.
const TokenTTL = 10 * time.Minute

// Claims описывает полезную нагрузку токена авторизации.
type Claims struct {
	ResellerID int64 `json:"id"`
	jwt.RegisteredClaims
}

// AuthMiddleware выполняет проверку авторизации реселлера по подписанному bearer-токену.
type AuthMiddleware struct {
	secretKey []byte
	logger    *zap.Logger
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
func NewAuthMiddleware(secret string, logger *zap.Logger) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
		logger:    logger,
	}
}

// Middleware извлекает токен из заголовков запроса, проверяет подпись и срок
// действия и добавляет идентификатор реселлера в контекст запроса.
// Существование реселлера здесь не проверяется: валидный токен удалённого
// аккаунта проходит, а обработчик ниже отвечает 404.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("x-access-token")
		if token == "" {
			token = r.Header.Get("Authorization")
		}
		token = strings.TrimPrefix(token, "Bearer ")

		if token == "" {
			a.logger.Error("authorization failed, no token provided")
			writeMessage(w, http.StatusUnauthorized, "No token provided.")
			return
		}

		resellerID, ok := a.parseToken(token)
		if !ok {
			a.logger.Error("authorization failed, token is not valid")
			writeMessage(w, http.StatusUnauthorized, "Token is not valid")
			return
		}

		ctx := context.WithValue(r.Context(), resellerIDKey, resellerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IssueToken выдаёт подписанный токен для указанного идентификатора реселлера.
func (a *AuthMiddleware) IssueToken(resellerID int64) (string, error) {
	now := time.Now()

	claims := Claims{
		ResellerID: resellerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (a *AuthMiddleware) parseToken(tokenString string) (int64, bool) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secretKey, nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	return claims.ResellerID, true
}

// GetResellerIDFromContext извлекает идентификатор реселлера из контекста запроса.
func GetResellerIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(resellerIDKey).(int64)
	return id, ok
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
