package sales

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	saleNumberPrefix = "SINV-"
	saleNumberWidth  = 7
)

var saleNumberRe = regexp.MustCompile(`^SINV-(\d+)$`)

func parseSaleSeq(number string) int {
	m := saleNumberRe.FindStringSubmatch(number)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// nextSaleNumber - son numaradan bir sonrakini üretir; benzersizlik
// insert sırasındaki tekil indeksle garanti edilir
func nextSaleNumber(last string) string {
	return fmt.Sprintf("%s%0*d", saleNumberPrefix, saleNumberWidth, parseSaleSeq(last)+1)
}

// newReturnNumber - "RET-20260831-A1B2C3" biçiminde iade numarası.
// Rastgele son ek çakışma olasılığını düşürür; kesin benzersizlik yine
// tekil indekste.
func newReturnNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("RET-%s-%s", now.Format("20060102"), suffix)
}
