package middleware

import (
	"net/http"
	"strings"

	"payment-verification-api/internal/config"
	"payment-verification-api/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by the auth tokens issued by the account service
type Claims struct {
	UserID uint   `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the Bearer token and stores the caller identity
// in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseToken(c)
		if !ok {
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// AdminAuthMiddleware additionally requires the admin role
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseToken(c)
		if !ok {
			return
		}

		if claims.Role != "admin" {
			c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied. Not an admin."))
			c.Abort()
			return
		}

		c.Set("admin_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

func parseToken(c *gin.Context) (*Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Access denied. Invalid or missing token."))
		c.Abort()
		return nil, false
	}

	tokenString := strings.TrimPrefix(header, "Bearer ")

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token."))
		c.Abort()
		return nil, false
	}

	return claims, true
}
