package users

import (
	"errors"

	"marketpos-backend/internal/database"
	"marketpos-backend/internal/logger"
	"marketpos-backend/internal/models"
	"marketpos-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PermissionRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Group string `json:"group" validate:"max=100"`
}

// POST /api/permissions
func CreatePermissionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PermissionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		perm := models.Permission{Name: body.Name, Group: body.Group}
		if err := database.DB.Create(&perm).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"name": "Bu izin adı zaten kullanılıyor"})
			}
			logger.LogError("users", "CreatePermission", err)
			return fiber.NewError(fiber.StatusInternalServerError, "İzin oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "İzin başarıyla oluşturuldu",
			"data":    perm,
		})
	}
}

// PUT /api/permissions/:id
func UpdatePermissionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz izin ID")
		}

		var body PermissionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		var perm models.Permission
		if err := database.DB.First(&perm, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İzin bulunamadı")
		}

		perm.Name = body.Name
		perm.Group = body.Group
		if err := database.DB.Save(&perm).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"name": "Bu izin adı zaten kullanılıyor"})
			}
			logger.LogError("users", "UpdatePermission", err)
			return fiber.NewError(fiber.StatusInternalServerError, "İzin güncellenemedi")
		}

		return c.JSON(fiber.Map{
			"message": "İzin başarıyla güncellendi",
			"data":    perm,
		})
	}
}

// DELETE /api/permissions/:id
// Role veya kullanıcıya atanmış izin silinemez
func DeletePermissionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz izin ID")
		}

		var perm models.Permission
		if err := database.DB.First(&perm, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İzin bulunamadı")
		}

		var roleCount, userCount int64
		database.DB.Table("role_permissions").Where("permission_id = ?", perm.ID).Count(&roleCount)
		database.DB.Table("user_permissions").Where("permission_id = ?", perm.ID).Count(&userCount)
		if roleCount > 0 || userCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu izin atanmış durumda, silinemez")
		}

		if err := database.DB.Delete(&perm).Error; err != nil {
			logger.LogError("users", "DeletePermission", err)
			return fiber.NewError(fiber.StatusInternalServerError, "İzin silinemedi")
		}

		return c.JSON(fiber.Map{"message": "İzin başarıyla silindi"})
	}
}
