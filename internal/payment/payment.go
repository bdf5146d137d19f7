package payment

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ScriptID  = "paystack-script"
	ScriptSrc = "https://js.paystack.co/v1/inline.js"
	Currency  = "NGN"
)

// Transaction is what the hosted payment page reports on success.
type Transaction struct {
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	Trans       string `json:"trans"`
	Transaction string `json:"transaction"`
	Message     string `json:"message"`
	Trxref      string `json:"trxref"`
}

type CustomField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

// Request describes one hosted payment. Amount is in kobo.
type Request struct {
	Email     string
	Amount    int64
	Reference string
	Currency  string
	Metadata  []CustomField
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewReference returns TAB-<epoch ms>-<8 random base36 chars>.
func NewReference(now time.Time) string {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteByte(base36[rand.Intn(len(base36))])
	}
	return fmt.Sprintf("TAB-%d-%s", now.UnixMilli(), b.String())
}

var hundred = decimal.NewFromInt(100)

// ToKobo converts naira to kobo, rounding half away from zero.
func ToKobo(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

var scriptTag = fmt.Sprintf(`<script id="%s" src="%s" async></script>`, ScriptID, ScriptSrc)

// InjectScript adds the inline checkout script to <head> unless an element
// with its id is already present.
func InjectScript(html string) string {
	if strings.Contains(html, `id="`+ScriptID+`"`) {
		return html
	}
	if i := strings.Index(strings.ToLower(html), "</head>"); i >= 0 {
		return html[:i] + scriptTag + html[i:]
	}
	return scriptTag + html
}
