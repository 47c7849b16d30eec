package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims は認証エンドポイントが発行するJWTのペイロード。
// usernameクレームにはメールアドレスが入る。
type tokenClaims struct {
	ID    string `json:"id"`
	Email string `json:"username"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// extractClaims はトークンのペイロードを署名検証なしで取り出す。
// 検証はバックエンドの責務であり、ここでは表示用のユーザー情報だけが必要。
func extractClaims(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token payload: %w", err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("token payload missing user id")
	}
	return claims, nil
}
