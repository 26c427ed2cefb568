package auth

import (
	"errors"
	"fmt"
	"strings"

	"souschef/internal/pkg/common"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured 未設定 JWT 密鑰
var ErrNotConfigured = errors.New("jwt secret not configured")

// Claims Supabase access token 的欄位
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Verifier 驗證 Supabase 簽發的 HS256 token
type Verifier struct {
	secret []byte
}

// NewVerifier 創建驗證器，secret 為空時所有請求都屬訪客範圍
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(strings.TrimSpace(secret))}
}

// Enabled 是否已設定密鑰
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Verify 驗證 token 並返回使用者 ID（sub）
func (v *Verifier) Verify(tokenString string) (string, error) {
	if !v.Enabled() {
		return "", ErrNotConfigured
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}
	if !common.IsUUID(claims.Subject) {
		return "", fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return claims.Subject, nil
}

// BearerToken 從 Authorization 標頭取出 token
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
