package auth

import (
	"strings"

	"marketpos-backend/internal/config"
	"marketpos-backend/internal/database"
	"marketpos-backend/internal/models"
	"marketpos-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// POST /api/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.
			Preload("Roles.Permissions").
			Preload("Permissions").
			Where("email = ?", body.Email).
			First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		token, err := GenerateToken(cfg, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.JSON(fiber.Map{
			"token":       token,
			"user":        user,
			"permissions": user.AllPermissionNames(),
		})
	}
}

// POST /api/register
func RegisterHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var count int64
		database.DB.Model(&models.User{}).Where("email = ?", body.Email).Count(&count)
		if count > 0 {
			return validation.UnprocessableEntity(c, map[string]string{"email": "Bu email zaten kayıtlı"})
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
		}

		// Varsayılan rolü ata (tanımlıysa)
		var defaultRole models.Role
		if err := database.DB.Where("name = ?", "user").First(&defaultRole).Error; err == nil {
			_ = database.DB.Model(&user).Association("Roles").Append(&defaultRole)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Kullanıcı başarıyla oluşturuldu",
			"user":    user,
		})
	}
}

// POST /api/logout
// Token durumu sunucuda tutulmaz; istemci token'ı atar
func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Çıkış yapıldı"})
	}
}

// GET /api/get-user
func GetUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := CurrentUser(c)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"user":        user,
			"permissions": user.AllPermissionNames(),
		})
	}
}
