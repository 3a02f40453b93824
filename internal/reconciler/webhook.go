package reconciler

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yourorg/booking-orchestrator/internal/bookeo"
	"github.com/yourorg/booking-orchestrator/internal/money"
)

// gatewayTimeLayout is the gateway's fixed notification timestamp format.
const gatewayTimeLayout = "2006-01-02 15:04:05"

// maxCommentLength bounds the audit comment attached to the payment.
const maxCommentLength = 500

// ValidationError names exactly which webhook field failed, so a
// rejected notification is diagnosable from the response alone.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Message)
}

// ReconciliationRequest is the fully-validated form of a gateway
// notification. Construction goes through ParseWebhook; partially
// validated data never reaches the booking-provider call.
type ReconciliationRequest struct {
	HoldID       string
	CustomerID   string
	EventID      string
	ProductID    string
	Participants []bookeo.Participant

	Amount             string // rounded to 2 places, or raw when non-numeric
	Currency           string
	ReceivedTime       time.Time
	Reason             string
	PaymentMethod      string
	PaymentMethodOther string
	Comment            string
}

// paymentMethods maps the gateway's payment-mode codes onto the booking
// provider's enumerated methods. Anything else, including the UPI
// family, becomes "other" with the original mode kept for audit.
var paymentMethods = map[string]string{
	"CC":     "creditCard",
	"DC":     "debitCard",
	"NB":     "bankTransfer",
	"PAYPAL": "paypal",
	"CASH":   "cash",
	"CHEQUE": "cheque",
}

// ParseWebhook validates an untyped gateway notification into a
// ReconciliationRequest, or reports the first failing field. The payload
// is the only source of booking context: no local state is consulted.
func ParseWebhook(payload map[string]string, homeCurrency string) (*ReconciliationRequest, *ValidationError) {
	req := &ReconciliationRequest{}

	req.HoldID = strings.TrimSpace(payload["udf1"])
	if req.HoldID == "" {
		return nil, &ValidationError{Field: "udf1", Message: "hold id is missing"}
	}
	req.CustomerID = strings.TrimSpace(payload["udf2"])
	req.EventID = strings.TrimSpace(payload["udf3"])
	req.ProductID = strings.TrimSpace(payload["udf4"])

	if raw := strings.TrimSpace(payload["udf5"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Participants); err != nil {
			return nil, &ValidationError{Field: "udf5", Message: fmt.Sprintf("participants are not valid JSON: %v", err)}
		}
	} else {
		req.Participants = []bookeo.Participant{}
	}

	// Some notification types report success only through the alternate
	// field, hence the OR.
	status := strings.ToLower(strings.TrimSpace(payload["status"]))
	unmapped := strings.ToLower(strings.TrimSpace(payload["unmappedstatus"]))
	if status != "success" && unmapped != "captured" {
		return nil, &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("transaction not successful (status=%q, unmappedstatus=%q)", status, unmapped),
		}
	}

	receivedRaw := strings.TrimSpace(payload["addedon"])
	received, err := time.Parse(gatewayTimeLayout, receivedRaw)
	if err != nil {
		received, err = time.Parse(time.RFC3339, receivedRaw)
	}
	if err != nil {
		return nil, &ValidationError{Field: "addedon", Message: fmt.Sprintf("cannot parse payment time %q", receivedRaw)}
	}
	req.ReceivedTime = received

	amountRaw := strings.TrimSpace(payload["amount"])
	if amountRaw == "" {
		amountRaw = strings.TrimSpace(payload["net_amount_debit"])
	}
	if amountRaw == "" {
		return nil, &ValidationError{Field: "amount", Message: "no amount in notification"}
	}
	if rounded, roundErr := money.Round2(amountRaw); roundErr == nil {
		req.Amount = rounded
	} else {
		// A formatting quirk must not void a real payment; pass the raw
		// value through.
		req.Amount = amountRaw
	}

	req.Currency = normalizeCurrency(payload["currency"], homeCurrency)

	req.Reason = strings.TrimSpace(payload["productinfo"])
	if req.Reason == "" {
		req.Reason = "Online payment"
	}

	mode := strings.ToUpper(strings.TrimSpace(payload["mode"]))
	if method, ok := paymentMethods[mode]; ok {
		req.PaymentMethod = method
	} else {
		req.PaymentMethod = "other"
		req.PaymentMethodOther = strings.TrimSpace(payload["mode"])
	}

	req.Comment = buildComment(payload)
	return req, nil
}

func normalizeCurrency(raw, homeCurrency string) string {
	cur := strings.ToUpper(strings.TrimSpace(raw))
	if len(cur) != 3 {
		return homeCurrency
	}
	for _, r := range cur {
		if r < 'A' || r > 'Z' {
			return homeCurrency
		}
	}
	return cur
}

// buildComment assembles the audit trail attached to the payment record:
// enough gateway identifiers to reconcile manually later.
func buildComment(payload map[string]string) string {
	comment := fmt.Sprintf("PayU txn %s | ref %s | type %s | mode %s | status %s",
		payload["mihpayid"], payload["bank_ref_num"], payload["PG_TYPE"],
		payload["mode"], payload["status"])
	if len(comment) > maxCommentLength {
		// Gateway fields may carry multibyte text; never cut a rune in half.
		cut := maxCommentLength
		for cut > 0 && !utf8.RuneStart(comment[cut]) {
			cut--
		}
		comment = comment[:cut]
	}
	return comment
}
