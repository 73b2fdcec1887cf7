package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// CheckStruct - istek gövdesini doğrular; hata varsa alan bazlı mesajlarla
// 422 döndürülecek bir map üretir. Ondalıklı alanların aralık kontrolleri
// handler içinde ayrıca yapılır.
func CheckStruct(s any) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": "Geçersiz istek gövdesi"}
	}

	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := toSnake(fe.Field())
		out[field] = message(field, fe)
	}
	return out
}

// UnprocessableEntity - 422 yanıtı için standart gövde
func UnprocessableEntity(c *fiber.Ctx, errs map[string]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"message": "Girilen veriler geçersiz",
		"errors":  errs,
	})
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s alanı zorunlu", field)
	case "email":
		return fmt.Sprintf("%s geçerli bir e-posta olmalı", field)
	case "min":
		return fmt.Sprintf("%s en az %s olmalı", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s en fazla %s olmalı", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s şu değerlerden biri olmalı: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s alanı geçersiz", field)
	}
}

func toSnake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			// "SupplierID" -> "supplier_id"; ardışık büyük harfler bölünmez
			if i > 0 && !(runes[i-1] >= 'A' && runes[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
