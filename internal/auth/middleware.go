package auth

import (
	"fmt"
	"strings"

	"marketpos-backend/internal/config"
	"marketpos-backend/internal/database"
	"marketpos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const CtxUserIDKey = "user_id"

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header eksik")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization formatı 'Bearer <token>' olmalı")
		}

		token, err := jwt.ParseWithClaims(parts[1], &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("geçersiz imzalama yöntemi")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Geçersiz veya süresi dolmuş token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Token çözümlenemedi")
		}

		c.Locals(CtxUserIDKey, claims.UserID)

		return c.Next()
	}
}

// CurrentUser - token'daki kullanıcıyı rolleri ve izinleriyle birlikte yükler.
// Soft-delete edilmiş kullanıcıların token'ları geçersiz sayılır.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı bilgisi alınamadı")
	}

	var user models.User
	if err := database.DB.
		Preload("Roles.Permissions").
		Preload("Permissions").
		First(&user, "id = ?", userID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı bulunamadı")
	}

	return &user, nil
}

// RequirePermission - iş rotaları için izin kontrolü
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := CurrentUser(c)
		if err != nil {
			return err
		}

		if !user.HasPermission(permission) {
			return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
		}

		return c.Next()
	}
}
