package users

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"marketpos-backend/internal/database"
	"marketpos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Gerçek Postgres ister; INTEGRATION_TESTS=1 ve TEST_DATABASE_DSN ile çalışır
func TestPermissionLifecycleIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("INTEGRATION_TESTS=1 tanımlı değil, atlanıyor")
	}
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN tanımlı değil, atlanıyor")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("veritabanına bağlanılamadı: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Role{}, &models.Permission{}); err != nil {
		t.Fatalf("migration başarısız: %v", err)
	}
	database.DB = db

	app := fiber.New()
	app.Post("/permissions", CreatePermissionHandler())
	app.Delete("/permissions/:id", DeletePermissionHandler())
	app.Post("/roles/:id/permissions", AssignRolePermissionsHandler())
	app.Delete("/roles/:id/permissions/:permissionId", RemoveRolePermissionHandler())
	app.Post("/users/:id/roles", AssignRolesHandler())
	app.Delete("/users/:id/roles/:roleId", RemoveUserRoleHandler())

	do := func(method, path string, payload any) int {
		body, _ := json.Marshal(payload)
		r := httptest.NewRequest(method, path, bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(r, 10000)
		if err != nil {
			t.Fatalf("istek başarısız: %v", err)
		}
		return resp.StatusCode
	}
	itoa := func(id uint) string { return strconv.FormatUint(uint64(id), 10) }

	permName := "test.perm." + uuid.NewString()[:8]
	if code := do(fiber.MethodPost, "/permissions", PermissionRequest{Name: permName, Group: "test"}); code != fiber.StatusCreated {
		t.Fatalf("izin oluşturma durum kodu %d, istenen 201", code)
	}
	var perm models.Permission
	if err := db.Where("name = ?", permName).First(&perm).Error; err != nil {
		t.Fatalf("izin yüklenemedi: %v", err)
	}

	role := models.Role{Name: "Test Rol " + uuid.NewString()[:8]}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("rol oluşturulamadı: %v", err)
	}

	code := do(fiber.MethodPost, "/roles/"+itoa(role.ID)+"/permissions",
		fiber.Map{"permission_ids": []uint{perm.ID}})
	if code != fiber.StatusOK {
		t.Fatalf("role izin atama durum kodu %d, istenen 200", code)
	}

	var fresh models.Role
	if err := db.Preload("Permissions").First(&fresh, role.ID).Error; err != nil {
		t.Fatalf("rol yüklenemedi: %v", err)
	}
	if len(fresh.Permissions) != 1 || fresh.Permissions[0].ID != perm.ID {
		t.Fatalf("rol izinleri beklenmedik: %+v", fresh.Permissions)
	}

	// Atanmış izin silinemez
	if code := do(fiber.MethodDelete, "/permissions/"+itoa(perm.ID), nil); code != fiber.StatusBadRequest {
		t.Fatalf("atanmış izin silmede durum kodu %d, istenen 400", code)
	}

	code = do(fiber.MethodDelete, "/roles/"+itoa(role.ID)+"/permissions/"+itoa(perm.ID), nil)
	if code != fiber.StatusOK {
		t.Fatalf("rolden izin kaldırma durum kodu %d, istenen 200", code)
	}
	if err := db.Preload("Permissions").First(&fresh, role.ID).Error; err != nil {
		t.Fatalf("rol yüklenemedi: %v", err)
	}
	if len(fresh.Permissions) != 0 {
		t.Fatalf("kaldırma sonrası rol izin sayısı %d, istenen 0", len(fresh.Permissions))
	}

	// Atama kalmayınca silinebilir
	if code := do(fiber.MethodDelete, "/permissions/"+itoa(perm.ID), nil); code != fiber.StatusOK {
		t.Fatalf("izin silme durum kodu %d, istenen 200", code)
	}

	// Kullanıcıya rol ekleme ve kaldırma
	user := models.User{Name: "Test Kullanıcı", Email: uuid.NewString() + "@test.local", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("kullanıcı oluşturulamadı: %v", err)
	}
	code = do(fiber.MethodPost, "/users/"+itoa(user.ID)+"/roles", fiber.Map{"role_ids": []uint{role.ID}})
	if code != fiber.StatusOK {
		t.Fatalf("kullanıcıya rol atama durum kodu %d, istenen 200", code)
	}
	var freshUser models.User
	if err := db.Preload("Roles").First(&freshUser, user.ID).Error; err != nil {
		t.Fatalf("kullanıcı yüklenemedi: %v", err)
	}
	if len(freshUser.Roles) != 1 || freshUser.Roles[0].ID != role.ID {
		t.Fatalf("kullanıcı rolleri beklenmedik: %+v", freshUser.Roles)
	}
	code = do(fiber.MethodDelete, "/users/"+itoa(user.ID)+"/roles/"+itoa(role.ID), nil)
	if code != fiber.StatusOK {
		t.Fatalf("kullanıcıdan rol kaldırma durum kodu %d, istenen 200", code)
	}
	if err := db.Preload("Roles").First(&freshUser, user.ID).Error; err != nil {
		t.Fatalf("kullanıcı yüklenemedi: %v", err)
	}
	if len(freshUser.Roles) != 0 {
		t.Fatalf("kaldırma sonrası kullanıcı rol sayısı %d, istenen 0", len(freshUser.Roles))
	}
}
