package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestSalesStatus(t *testing.T) {
	tests := []struct {
		total string
		paid  string
		want  string
	}{
		{"100", "100", SalesStatusPaid},
		{"100", "150", SalesStatusPaid},
		{"100", "50", SalesStatusPartial},
		{"100", "0.01", SalesStatusPartial},
		{"100", "0", SalesStatusUnpaid},
		{"0", "0", SalesStatusPaid}, // toplam sıfırsa ödenmiş sayılır
	}

	for _, tt := range tests {
		if got := SalesStatus(d(tt.total), d(tt.paid)); got != tt.want {
			t.Errorf("SalesStatus(%s, %s) = %q, istenen %q", tt.total, tt.paid, got, tt.want)
		}
	}
}

func TestMaxReturnable(t *testing.T) {
	tests := []struct {
		quantity string
		returned string
		want     string
	}{
		{"10", "0", "10"},
		{"10", "4", "6"},
		{"10", "10", "0"},
		{"2.5", "1.5", "1"},
	}

	for _, tt := range tests {
		item := &SalesInvoiceItem{Quantity: d(tt.quantity), ReturnedQuantity: d(tt.returned)}
		if got := MaxReturnable(item); !got.Equal(d(tt.want)) {
			t.Errorf("MaxReturnable(%s - %s) = %s, istenen %s", tt.quantity, tt.returned, got, tt.want)
		}
	}
}

func TestStockContribution(t *testing.T) {
	item := &PurchaseInvoiceItem{Quantity: d("10"), NumberOfUnits: d("2")}
	if got := item.StockContribution(); !got.Equal(d("20")) {
		t.Errorf("StockContribution = %s, istenen 20", got)
	}
}
