package validation

import "testing"

type sampleRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	SupplierID uint   `json:"supplier_id" validate:"required"`
}

func TestCheckStruct(t *testing.T) {
	valid := sampleRequest{Name: "Test", Email: "test@example.com", SupplierID: 3}
	if errs := CheckStruct(valid); errs != nil {
		t.Errorf("geçerli gövde hata döndürdü: %v", errs)
	}

	errs := CheckStruct(sampleRequest{Email: "bozuk"})
	if errs == nil {
		t.Fatal("geçersiz gövde kabul edildi")
	}
	if _, ok := errs["name"]; !ok {
		t.Errorf("name anahtarı bekleniyordu: %v", errs)
	}
	if _, ok := errs["email"]; !ok {
		t.Errorf("email anahtarı bekleniyordu: %v", errs)
	}
	if _, ok := errs["supplier_id"]; !ok {
		t.Errorf("supplier_id anahtarı bekleniyordu (ardışık büyük harfler): %v", errs)
	}
}

func TestToSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Name", "name"},
		{"SupplierID", "supplier_id"},
		{"InvoiceNumber", "invoice_number"},
		{"RoleIDs", "role_ids"},
	}

	for _, tt := range tests {
		if got := toSnake(tt.in); got != tt.want {
			t.Errorf("toSnake(%q) = %q, istenen %q", tt.in, got, tt.want)
		}
	}
}
