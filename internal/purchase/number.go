package purchase

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	invoiceNumberPrefix = "PINV-"
	invoiceNumberWidth  = 7
)

var invoiceNumberRe = regexp.MustCompile(`^PINV-(\d+)$`)

// ParseInvoiceSeq - "PINV-0000042" -> 42; desen uymazsa 0
func ParseInvoiceSeq(number string) int {
	m := invoiceNumberRe.FindStringSubmatch(number)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func FormatInvoiceNumber(seq int) string {
	return fmt.Sprintf("%s%0*d", invoiceNumberPrefix, invoiceNumberWidth, seq)
}

// NextInvoiceNumber - son numaradan bir sonrakini üretir.
// Benzersizlik garantisi burada değil, insert sırasındaki tekil indekste;
// çakışmada oluşturma yeniden denenir.
func NextInvoiceNumber(last string) string {
	return FormatInvoiceNumber(ParseInvoiceSeq(last) + 1)
}
