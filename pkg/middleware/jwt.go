package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ServiceClaims はサービス間認証用JWTトークンのクレーム（ペイロード）を表す。
// 内部APIの呼び出し元サービスを識別するために使用する。
type ServiceClaims struct {
	jwt.RegisteredClaims
	// Service は呼び出し元サービスの名前。
	Service string `json:"service"`
}

// GenerateServiceJWT はサービス名からサービス間認証用のJWTトークンを生成する。
// 内部APIを呼び出すサービスが起動時に生成し、httpclientに設定する。
func GenerateServiceJWT(secret, service string) (string, error) {
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "notifier",
		},
		Service: service,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// JWTAuth はサービス間認証用JWTトークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに "service" を設定する。
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorizationヘッダーが必要です",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer トークン形式が不正です",
			})
			return
		}

		claims := &ServiceClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		c.Set("service", claims.Service)
		c.Next()
	}
}

// GetService はGinコンテキストから呼び出し元サービス名を取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetService(c *gin.Context) string {
	service, _ := c.Get("service")
	if s, ok := service.(string); ok {
		return s
	}
	return ""
}
