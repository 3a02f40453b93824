// Package result defines the uniform success/failure envelope returned by
// every core operation, plus the normalizer that translates heterogeneous
// upstream failures into that envelope.
package result

// Source values identify which system produced an outcome.
const (
	SourceBookeo   = "bookeo"
	SourcePayu     = "payu"
	SourceInternal = "internal"
)

// Money is a currency-qualified decimal amount kept as text to avoid
// binary-float drift on money values.
type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

// HoldInfo is the snapshot of a booking hold carried inside a
// NormalizedResult. It is populated on success and, deliberately, on
// payment-link failure too: the hold already exists upstream and the
// caller must learn its id to retry the link or release the inventory.
type HoldInfo struct {
	ID         string `json:"id"`
	Expiration string `json:"expiration,omitempty"`
	Price      *Money `json:"price,omitempty"`
}

// NormalizedResult is the outward-facing shape for every core operation.
// Failures always carry Message and Source so callers can decide between
// retrying and surfacing the error.
type NormalizedResult struct {
	Success    bool   `json:"success"`
	Source     string `json:"source,omitempty"`
	Message    string `json:"message,omitempty"`
	HTTPStatus int    `json:"httpStatus,omitempty"`
	ErrorID    string `json:"errorId,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`

	Hold                 *HoldInfo `json:"hold,omitempty"`
	PaymentLink          string    `json:"payment_link,omitempty"`
	InvoiceID            string    `json:"invoice_id,omitempty"`
	ExpiryDate           string    `json:"expiry_date,omitempty"`
	MinAmountForCustomer string    `json:"min_amount_for_customer,omitempty"`
	DiscountAmount       string    `json:"discount_amount,omitempty"`
	MaxPaymentsAllowed   int       `json:"max_payments_allowed,omitempty"`

	BookingNumber string `json:"booking_number,omitempty"`
}

// Failure builds a failed result with the given source, status and message.
func Failure(source string, httpStatus int, message string) NormalizedResult {
	return NormalizedResult{
		Success:    false,
		Source:     source,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}
