package purchase

import "testing"

func TestParseInvoiceSeq(t *testing.T) {
	tests := []struct {
		number string
		want   int
	}{
		{"PINV-0000042", 42},
		{"PINV-0000001", 1},
		{"PINV-1234567", 1234567},
		{"", 0},
		{"FAT-0000042", 0},
		{"PINV-", 0},
		{"PINV-abc", 0},
	}

	for _, tt := range tests {
		if got := ParseInvoiceSeq(tt.number); got != tt.want {
			t.Errorf("ParseInvoiceSeq(%q) = %d, istenen %d", tt.number, got, tt.want)
		}
	}
}

func TestNextInvoiceNumber(t *testing.T) {
	tests := []struct {
		last string
		want string
	}{
		{"", "PINV-0000001"},
		{"PINV-0000042", "PINV-0000043"},
		{"elle-girilmis-numara", "PINV-0000001"},
		{"PINV-9999999", "PINV-10000000"}, // genişlik taşarsa kırpılmaz
	}

	for _, tt := range tests {
		if got := NextInvoiceNumber(tt.last); got != tt.want {
			t.Errorf("NextInvoiceNumber(%q) = %q, istenen %q", tt.last, got, tt.want)
		}
	}
}
