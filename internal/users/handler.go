package users

import (
	"errors"

	"marketpos-backend/internal/database"
	"marketpos-backend/internal/logger"
	"marketpos-backend/internal/models"
	"marketpos-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	RoleIDs  []uint `json:"role_ids"`
}

type UpdateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"` // boşsa değişmez
	RoleIDs  []uint `json:"role_ids"`
}

func loadUser(db *gorm.DB, id int) (*models.User, error) {
	var user models.User
	if err := db.Preload("Roles.Permissions").Preload("Permissions").
		First(&user, id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Kullanıcı bulunamadı")
	}
	return &user, nil
}

// GET /api/users
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := database.DB.Preload("Roles").Order("name ASC").Find(&users).Error; err != nil {
			logger.LogError("users", "ListUsers", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcılar listelenemedi")
		}
		return c.JSON(fiber.Map{"data": users})
	}
}

// GET /api/users/trashed
func ListTrashedUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := database.DB.Unscoped().
			Where("deleted_at IS NOT NULL").
			Order("deleted_at DESC").
			Find(&users).Error; err != nil {
			logger.LogError("users", "ListTrashedUsers", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Silinen kullanıcılar listelenemedi")
		}
		return c.JSON(fiber.Map{"data": users})
	}
}

// GET /api/users/:id
func GetUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
		}

		user, err := loadUser(database.DB, id)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"data":        user,
			"permissions": user.AllPermissionNames(),
		})
	}
}

// POST /api/users
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre işlenemedi")
		}

		user := models.User{Name: body.Name, Email: body.Email, PasswordHash: string(hash)}
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			if len(body.RoleIDs) > 0 {
				var roles []models.Role
				if err := tx.Where("id IN ?", body.RoleIDs).Find(&roles).Error; err != nil {
					return err
				}
				if len(roles) != len(body.RoleIDs) {
					return fiber.NewError(fiber.StatusUnprocessableEntity, "Geçersiz rol ID'si")
				}
				return tx.Model(&user).Association("Roles").Replace(roles)
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"email": "Bu e-posta adresi zaten kayıtlı"})
			}
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			logger.LogError("users", "CreateUser", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
		}

		database.DB.Preload("Roles").First(&user, user.ID)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Kullanıcı başarıyla oluşturuldu",
			"data":    user,
		})
	}
}

// PUT /api/users/:id
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if errs := validation.CheckStruct(body); errs != nil {
			return validation.UnprocessableEntity(c, errs)
		}

		user, err := loadUser(database.DB, id)
		if err != nil {
			return err
		}

		user.Name = body.Name
		user.Email = body.Email
		if body.Password != "" {
			if len(body.Password) < 6 {
				return validation.UnprocessableEntity(c, map[string]string{"password": "Şifre en az 6 karakter olmalı"})
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Şifre işlenemedi")
			}
			user.PasswordHash = string(hash)
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(user).Error; err != nil {
				return err
			}
			if body.RoleIDs != nil {
				var roles []models.Role
				if err := tx.Where("id IN ?", body.RoleIDs).Find(&roles).Error; err != nil {
					return err
				}
				return tx.Model(user).Association("Roles").Replace(roles)
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validation.UnprocessableEntity(c, map[string]string{"email": "Bu e-posta adresi zaten kayıtlı"})
			}
			logger.LogError("users", "UpdateUser", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı güncellenemedi")
		}

		database.DB.Preload("Roles").First(user, user.ID)

		return c.JSON(fiber.Map{
			"message": "Kullanıcı başarıyla güncellendi",
			"data":    user,
		})
	}
}

// DELETE /api/users/:id
// Yumuşak silme; fatura kayıtlarındaki isim anlık görüntüleri korunur
func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
		}

		var user models.User
		if err := database.DB.First(&user, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kullanıcı bulunamadı")
		}

		if err := database.DB.Delete(&user).Error; err != nil {
			logger.LogError("users", "DeleteUser", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı silinemedi")
		}

		return c.JSON(fiber.Map{"message": "Kullanıcı başarıyla silindi"})
	}
}

// POST /api/users/:id/restore
func RestoreUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
		}

		var user models.User
		if err := database.DB.Unscoped().
			Where("id = ? AND deleted_at IS NOT NULL", id).
			First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Silinmiş kullanıcı bulunamadı")
		}

		if err := database.DB.Unscoped().Model(&user).
			Update("deleted_at", nil).Error; err != nil {
			logger.LogError("users", "RestoreUser", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı geri alınamadı")
		}

		return c.JSON(fiber.Map{"message": "Kullanıcı başarıyla geri alındı"})
	}
}

// DELETE /api/users/:id/force
// Kalıcı silme; fatura FK'leri isim anlık görüntüleri sayesinde anlamlı kalır
func ForceDeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
		}

		var user models.User
		if err := database.DB.Unscoped().First(&user, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kullanıcı bulunamadı")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&user).Association("Roles").Clear(); err != nil {
				return err
			}
			if err := tx.Model(&user).Association("Permissions").Clear(); err != nil {
				return err
			}
			return tx.Unscoped().Delete(&user).Error
		})
		if err != nil {
			logger.LogError("users", "ForceDeleteUser", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı kalıcı olarak silinemedi")
		}

		return c.JSON(fiber.Map{"message": "Kullanıcı kalıcı olarak silindi"})
	}
}

// POST /api/users/:id/permissions
// Kullanıcıya doğrudan izin ekler (rollerden bağımsız); mevcutlar korunur
func AssignPermissionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
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

		user, err := loadUser(database.DB, id)
		if err != nil {
			return err
		}

		var perms []models.Permission
		if err := database.DB.Where("id IN ?", body.PermissionIDs).Find(&perms).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İzinler yüklenemedi")
		}
		if len(perms) != len(body.PermissionIDs) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Geçersiz izin ID'si")
		}

		if err := database.DB.Model(user).Association("Permissions").Append(perms); err != nil {
			logger.LogError("users", "AssignPermissions", err)
			return fiber.NewError(fiber.StatusInternalServerError, "İzinler atanamadı")
		}

		return c.JSON(fiber.Map{"message": "İzinler kullanıcıya eklendi"})
	}
}

// DELETE /api/users/:id/permissions/:permissionId
func RemoveUserPermissionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
		}
		permissionID, err := c.ParamsInt("permissionId")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz izin ID")
		}

		user, err := loadUser(database.DB, id)
		if err != nil {
			return err
		}
		var perm models.Permission
		if err := database.DB.First(&perm, permissionID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İzin bulunamadı")
		}

		if err := database.DB.Model(user).Association("Permissions").Delete(&perm); err != nil {
			logger.LogError("users", "RemoveUserPermission", err)
			return fiber.NewError(fiber.StatusInternalServerError, "İzin kullanıcıdan kaldırılamadı")
		}

		return c.JSON(fiber.Map{"message": "İzin kullanıcıdan kaldırıldı"})
	}
}

// POST /api/users/:id/roles
// Gönderilen rolleri kullanıcıya ekler; mevcut atamalar korunur
func AssignRolesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
		}

		var body struct {
			RoleIDs []uint `json:"role_ids"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if len(body.RoleIDs) == 0 {
			return validation.UnprocessableEntity(c, map[string]string{"role_ids": "En az bir rol gerekli"})
		}

		user, err := loadUser(database.DB, id)
		if err != nil {
			return err
		}

		var roles []models.Role
		if err := database.DB.Where("id IN ?", body.RoleIDs).Find(&roles).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Roller yüklenemedi")
		}
		if len(roles) != len(body.RoleIDs) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Geçersiz rol ID'si")
		}

		if err := database.DB.Model(user).Association("Roles").Append(roles); err != nil {
			logger.LogError("users", "AssignRoles", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Roller atanamadı")
		}

		return c.JSON(fiber.Map{"message": "Roller kullanıcıya eklendi"})
	}
}

// DELETE /api/users/:id/roles/:roleId
func RemoveUserRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
		}
		roleID, err := c.ParamsInt("roleId")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz rol ID")
		}

		user, err := loadUser(database.DB, id)
		if err != nil {
			return err
		}
		var role models.Role
		if err := database.DB.First(&role, roleID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Rol bulunamadı")
		}

		if err := database.DB.Model(user).Association("Roles").Delete(&role); err != nil {
			logger.LogError("users", "RemoveUserRole", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Rol kullanıcıdan kaldırılamadı")
		}

		return c.JSON(fiber.Map{"message": "Rol kullanıcıdan kaldırıldı"})
	}
}
