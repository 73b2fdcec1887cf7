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

type RoleRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	PermissionIDs []uint `json:"permission_ids"`
}

// GET /api/roles
func ListRolesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var roles []models.Role
		if err := database.DB.Preload("Permissions").Order("name ASC").Find(&roles).Error; err != nil {
			logger.LogError("users", "ListRoles", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Roller listelenemedi")
		}
		return c.JSON(fiber.Map{"data": roles})
	}
}

// POST /api/roles
func CreateRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RoleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		role := models.Role{Name: body.Name}
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&role).Error; err != nil {
				return err
			}
			if len(body.PermissionIDs) > 0 {
				var perms []models.Permission
				if err := tx.Where("id IN ?", body.PermissionIDs).Find(&perms).Error; err != nil {
					return err
				}
				if len(perms) != len(body.PermissionIDs) {
					return fiber.NewError(fiber.StatusUnprocessableEntity, "Geçersiz izin ID'si")
				}
				return tx.Model(&role).Association("Permissions").Replace(perms)
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"name": "Bu rol adı zaten kullanılıyor"})
			}
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			logger.LogError("users", "CreateRole", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Rol oluşturulamadı")
		}

		database.DB.Preload("Permissions").First(&role, role.ID)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Rol başarıyla oluşturuldu",
			"data":    role,
		})
	}
}

// PUT /api/roles/:id
func UpdateRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz rol ID")
		}

		var body RoleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		var role models.Role
		if err := database.DB.First(&role, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Rol bulunamadı")
		}

		role.Name = body.Name
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&role).Error; err != nil {
				return err
			}
			if body.PermissionIDs != nil {
				var perms []models.Permission
				if err := tx.Where("id IN ?", body.PermissionIDs).Find(&perms).Error; err != nil {
					return err
				}
				return tx.Model(&role).Association("Permissions").Replace(perms)
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"name": "Bu rol adı zaten kullanılıyor"})
			}
			logger.LogError("users", "UpdateRole", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Rol güncellenemedi")
		}

		database.DB.Preload("Permissions").First(&role, role.ID)

		return c.JSON(fiber.Map{
			"message": "Rol başarıyla güncellendi",
			"data":    role,
		})
	}
}

// DELETE /api/roles/:id
// Kullanıcıya atanmış rol silinemez
func DeleteRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz rol ID")
		}

		var role models.Role
		if err := database.DB.First(&role, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Rol bulunamadı")
		}

		var count int64
		database.DB.Table("user_roles").Where("role_id = ?", role.ID).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bu rol kullanıcılara atanmış, silinemez")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&role).Association("Permissions").Clear(); err != nil {
				return err
			}
			return tx.Delete(&role).Error
		})
		if err != nil {
			logger.LogError("users", "DeleteRole", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Rol silinemedi")
		}

		return c.JSON(fiber.Map{"message": "Rol başarıyla silindi"})
	}
}

// POST /api/roles/:id/permissions
// Gönderilen izinleri role ekler; mevcut atamalar korunur
func AssignRolePermissionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz rol ID")
		}

		var body struct {
			PermissionIDs []uint `json:"permission_ids"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if len(body.PermissionIDs) == 0 {
			return validation.UnprocessableEntity(c, map[string]string{"permission_ids": "En az bir izin gerekli"})
		}

		var role models.Role
		if err := database.DB.First(&role, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Rol bulunamadı")
		}

		var perms []models.Permission
		if err := database.DB.Where("id IN ?", body.PermissionIDs).Find(&perms).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İzinler yüklenemedi")
		}
		if len(perms) != len(body.PermissionIDs) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Geçersiz izin ID'si")
		}

		if err := database.DB.Model(&role).Association("Permissions").Append(perms); err != nil {
			logger.LogError("users", "AssignRolePermissions", err)
			return fiber.NewError(fiber.StatusInternalServerError, "İzinler atanamadı")
		}

		database.DB.Preload("Permissions").First(&role, role.ID)

		return c.JSON(fiber.Map{
			"message": "İzinler role eklendi",
			"data":    role,
		})
	}
}

// DELETE /api/roles/:id/permissions/:permissionId
func RemoveRolePermissionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz rol ID")
		}
		permissionID, err := c.ParamsInt("permissionId")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz izin ID")
		}

		var role models.Role
		if err := database.DB.First(&role, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Rol bulunamadı")
		}
		var perm models.Permission
		if err := database.DB.First(&perm, permissionID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İzin bulunamadı")
		}

		if err := database.DB.Model(&role).Association("Permissions").Delete(&perm); err != nil {
			logger.LogError("users", "RemoveRolePermission", err)
			return fiber.NewError(fiber.StatusInternalServerError, "İzin rolden kaldırılamadı")
		}

		return c.JSON(fiber.Map{"message": "İzin rolden kaldırıldı"})
	}
}

// GET /api/permissions
// Gruplara göre sıralı tam izin listesi
func ListPermissionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var perms []models.Permission
		if err := database.DB.Order(`"group" ASC, name ASC`).Find(&perms).Error; err != nil {
			logger.LogError("users", "ListPermissions", err)
			return fiber.NewError(fiber.StatusInternalServerError, "İzinler listelenemedi")
		}
		return c.JSON(fiber.Map{"data": perms})
	}
}
