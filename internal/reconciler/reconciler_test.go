package reconciler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/booking-orchestrator/internal/bookeo"
	"github.com/yourorg/booking-orchestrator/internal/result"
	"github.com/yourorg/booking-orchestrator/internal/upstream"
)

type fakeFinalizer struct {
	calls   int
	last    bookeo.BookingInput
	booking *bookeo.Booking
	err     error
}

func (f *fakeFinalizer) CreateBooking(ctx context.Context, in bookeo.BookingInput) (*bookeo.Booking, error) {
	f.calls++
	f.last = in
	return f.booking, f.err
}

func basePayload() map[string]string {
	return map[string]string{
		"status":         "success",
		"unmappedstatus": "captured",
		"amount":         "1000.00",
		"currency":       "INR",
		"mode":           "CC",
		"addedon":        "2025-01-15 14:30:00",
		"mihpayid":       "403993715531",
		"txnid":          "AB12CD34",
		"bank_ref_num":   "90417461",
		"PG_TYPE":        "HDFCPG",
		"productinfo":    "Escape room booking",
		"udf1":           "H1",
		"udf2":           "C1",
		"udf3":           "E1",
		"udf4":           "P1",
		"udf5":           `[{"peopleCategoryId":"Cadults","number":2}]`,
	}
}

func newReconciler(f *fakeFinalizer) *Reconciler {
	if f.booking == nil && f.err == nil {
		f.booking = &bookeo.Booking{BookingNumber: "BK100"}
	}
	return New(f, "INR")
}

func TestReconcile_Success(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	res := r.CreateBookingAfterPayment(context.Background(), basePayload())

	require.True(t, res.Success)
	assert.Equal(t, "BK100", res.BookingNumber)
	assert.Equal(t, 1, f.calls)

	assert.Equal(t, "H1", f.last.PreviousHoldID)
	assert.Equal(t, "C1", f.last.CustomerID)
	assert.Equal(t, "E1", f.last.EventID)
	assert.Equal(t, "P1", f.last.ProductID)
	require.Len(t, f.last.Participants, 1)
	assert.Equal(t, "Cadults", f.last.Participants[0].PeopleCategoryID)

	require.Len(t, f.last.InitialPayments, 1)
	payment := f.last.InitialPayments[0]
	assert.Equal(t, "1000.00", payment.Amount.Amount)
	assert.Equal(t, "INR", payment.Amount.Currency)
	assert.Equal(t, "creditCard", payment.PaymentMethod)
	assert.Equal(t, "Escape room booking", payment.Reason)
	assert.Equal(t, "2025-01-15T14:30:00Z", payment.ReceivedTime)
	assert.Contains(t, payment.Comment, "403993715531")
	assert.Contains(t, payment.Comment, "90417461")
}

func TestStatusOr_AlternateFieldAccepted(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	payload["status"] = "pending"
	payload["unmappedstatus"] = "captured"
	res := r.CreateBookingAfterPayment(context.Background(), payload)
	assert.True(t, res.Success)
}

func TestStatusOr_BothUnsuccessfulRejected(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	payload["status"] = "failure"
	payload["unmappedstatus"] = "bounced"
	res := r.CreateBookingAfterPayment(context.Background(), payload)

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusBadRequest, res.HTTPStatus)
	assert.Equal(t, result.SourcePayu, res.Source)
	assert.Zero(t, f.calls)
}

func TestMissingHoldIDRejected(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	payload["udf1"] = "  "
	res := r.CreateBookingAfterPayment(context.Background(), payload)

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusBadRequest, res.HTTPStatus)
	assert.Contains(t, res.Message, "udf1")
	assert.Zero(t, f.calls)
}

func TestAmountRounding_HalfUp(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	payload["amount"] = "199.995"
	res := r.CreateBookingAfterPayment(context.Background(), payload)

	require.True(t, res.Success)
	assert.Equal(t, "200.00", f.last.InitialPayments[0].Amount.Amount)
}

func TestAmount_NonNumericPassesThroughRaw(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	payload["amount"] = "12,345.00"
	res := r.CreateBookingAfterPayment(context.Background(), payload)

	require.True(t, res.Success)
	assert.Equal(t, "12,345.00", f.last.InitialPayments[0].Amount.Amount)
}

func TestAmount_FallsBackToNetAmountDebit(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	delete(payload, "amount")
	payload["net_amount_debit"] = "950.50"
	res := r.CreateBookingAfterPayment(context.Background(), payload)

	require.True(t, res.Success)
	assert.Equal(t, "950.50", f.last.InitialPayments[0].Amount.Amount)
}

func TestAmount_MissingEntirelyRejected(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	delete(payload, "amount")
	res := r.CreateBookingAfterPayment(context.Background(), payload)

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusBadRequest, res.HTTPStatus)
	assert.Contains(t, res.Message, "amount")
	assert.Zero(t, f.calls)
}

func TestPaymentMethodMapping(t *testing.T) {
	cases := []struct {
		mode       string
		wantMethod string
		wantOther  string
	}{
		{"CC", "creditCard", ""},
		{"DC", "debitCard", ""},
		{"NB", "bankTransfer", ""},
		{"PAYPAL", "paypal", ""},
		{"CASH", "cash", ""},
		{"CHEQUE", "cheque", ""},
		{"UPI", "other", "UPI"},
		{"GPay", "other", "GPay"},
		{"PhonePe", "other", "PhonePe"},
		{"SOMETHING_NEW", "other", "SOMETHING_NEW"},
	}
	for _, tc := range cases {
		f := &fakeFinalizer{}
		r := newReconciler(f)

		payload := basePayload()
		payload["mode"] = tc.mode
		res := r.CreateBookingAfterPayment(context.Background(), payload)
		require.True(t, res.Success, "mode %q", tc.mode)

		payment := f.last.InitialPayments[0]
		assert.Equal(t, tc.wantMethod, payment.PaymentMethod, "mode %q", tc.mode)
		assert.Equal(t, tc.wantOther, payment.PaymentMethodOther, "mode %q", tc.mode)
	}
}

func TestTimestamp_ISOFallback(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	payload["addedon"] = "2025-01-15T14:30:00Z"
	res := r.CreateBookingAfterPayment(context.Background(), payload)

	require.True(t, res.Success)
	assert.Equal(t, "2025-01-15T14:30:00Z", f.last.InitialPayments[0].ReceivedTime)
}

func TestTimestamp_UnparseableNamesValue(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	payload["addedon"] = "yesterday evening"
	res := r.CreateBookingAfterPayment(context.Background(), payload)

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "yesterday evening")
	assert.Zero(t, f.calls)
}

func TestCurrency_NormalizedAndDefaulted(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	payload["currency"] = "inr "
	res := r.CreateBookingAfterPayment(context.Background(), payload)
	require.True(t, res.Success)
	assert.Equal(t, "INR", f.last.InitialPayments[0].Amount.Currency)

	f2 := &fakeFinalizer{}
	r2 := newReconciler(f2)
	payload2 := basePayload()
	payload2["currency"] = "rupees"
	res = r2.CreateBookingAfterPayment(context.Background(), payload2)
	require.True(t, res.Success)
	assert.Equal(t, "INR", f2.last.InitialPayments[0].Amount.Currency)
}

func TestReasonDefaulted(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	delete(payload, "productinfo")
	res := r.CreateBookingAfterPayment(context.Background(), payload)
	require.True(t, res.Success)
	assert.Equal(t, "Online payment", f.last.InitialPayments[0].Reason)
}

func TestMalformedParticipantsRejected(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	payload["udf5"] = "{not json"
	res := r.CreateBookingAfterPayment(context.Background(), payload)

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "udf5")
	assert.Zero(t, f.calls)
}

func TestAbsentParticipantsDefaultToEmpty(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	delete(payload, "udf5")
	res := r.CreateBookingAfterPayment(context.Background(), payload)
	require.True(t, res.Success)
	assert.Empty(t, f.last.Participants)
}

func TestCommentTruncatedTo500(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	payload := basePayload()
	payload["bank_ref_num"] = strings.Repeat("9", 600)
	res := r.CreateBookingAfterPayment(context.Background(), payload)

	require.True(t, res.Success)
	assert.LessOrEqual(t, len(f.last.InitialPayments[0].Comment), 500)
}

func TestTraceIDStampedOnReconciliationResults(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	first := r.CreateBookingAfterPayment(context.Background(), basePayload())
	second := r.CreateBookingAfterPayment(context.Background(), basePayload())
	require.NotEmpty(t, first.TraceID)
	require.NotEmpty(t, second.TraceID)
	assert.NotEqual(t, first.TraceID, second.TraceID)

	// Rejected notifications are traceable too.
	payload := basePayload()
	delete(payload, "udf1")
	rejected := r.CreateBookingAfterPayment(context.Background(), payload)
	assert.False(t, rejected.Success)
	assert.NotEmpty(t, rejected.TraceID)
}

func TestCommentTruncationKeepsValidUTF8(t *testing.T) {
	f := &fakeFinalizer{}
	r := newReconciler(f)

	// Pad so a multibyte rune straddles the 500-byte cap; the cut must
	// land on a rune boundary, not mid-sequence.
	payload := basePayload()
	payload["bank_ref_num"] = strings.Repeat("9", 439)
	payload["mode"] = strings.Repeat("é", 60)
	res := r.CreateBookingAfterPayment(context.Background(), payload)

	require.True(t, res.Success)
	comment := f.last.InitialPayments[0].Comment
	assert.LessOrEqual(t, len(comment), 500)
	assert.True(t, utf8.ValidString(comment))
}

func TestRedelivery_AlreadyBookedSurfacedNotMasked(t *testing.T) {
	f := &fakeFinalizer{err: &upstream.Failure{
		Source: "bookeo",
		Status: http.StatusConflict,
		Body:   []byte(`{"message":"hold already converted to a booking","errorId":"E_DUP"}`),
	}}
	r := newReconciler(f)

	res := r.CreateBookingAfterPayment(context.Background(), basePayload())

	assert.False(t, res.Success)
	assert.Equal(t, result.SourceBookeo, res.Source)
	assert.Equal(t, http.StatusConflict, res.HTTPStatus)
	assert.Equal(t, "hold already converted to a booking", res.Message)
	assert.Equal(t, "E_DUP", res.ErrorID)
}
