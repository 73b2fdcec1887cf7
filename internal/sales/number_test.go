package sales

import (
	"regexp"
	"testing"
	"time"
)

func TestNextSaleNumber(t *testing.T) {
	tests := []struct {
		last string
		want string
	}{
		{"", "SINV-0000001"},
		{"SINV-0000009", "SINV-0000010"},
		{"elle-girilmis", "SINV-0000001"},
	}

	for _, tt := range tests {
		if got := nextSaleNumber(tt.last); got != tt.want {
			t.Errorf("nextSaleNumber(%q) = %q, istenen %q", tt.last, got, tt.want)
		}
	}
}

func TestNewReturnNumber(t *testing.T) {
	now := time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)
	re := regexp.MustCompile(`^RET-20260831-[0-9A-F]{6}$`)

	first := newReturnNumber(now)
	if !re.MatchString(first) {
		t.Errorf("iade numarası biçimi beklenmedik: %q", first)
	}

	// Son ek rastgele; art arda üretimler farklı olmalı
	if second := newReturnNumber(now); second == first {
		t.Errorf("iki iade numarası aynı üretildi: %q", first)
	}
}
