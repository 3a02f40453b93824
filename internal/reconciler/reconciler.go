// Package reconciler turns asynchronous payment-gateway notifications
// into confirmed, paid bookings. It is a pure function of the webhook
// body: all booking context is recovered from the UDF side-channel and
// the hold-to-booking conversion at the provider is the consistency
// boundary for duplicate deliveries.
package reconciler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yourorg/booking-orchestrator/internal/bookeo"
	"github.com/yourorg/booking-orchestrator/internal/metrics"
	"github.com/yourorg/booking-orchestrator/internal/result"
)

// BookingFinalizer is the booking-provider operation the reconciler
// needs: converting a hold into a confirmed booking with payments.
type BookingFinalizer interface {
	CreateBooking(ctx context.Context, in bookeo.BookingInput) (*bookeo.Booking, error)
}

// Reconciler finalizes bookings from gateway notifications.
type Reconciler struct {
	bookings     BookingFinalizer
	homeCurrency string
}

// New creates a Reconciler. homeCurrency is the fallback when a
// notification carries no usable currency code.
func New(bookings BookingFinalizer, homeCurrency string) *Reconciler {
	if bookings == nil {
		panic("booking finalizer cannot be nil")
	}
	return &Reconciler{bookings: bookings, homeCurrency: homeCurrency}
}

// CreateBookingAfterPayment validates a gateway notification and submits
// the payment against the previously-created hold. Validation failures
// return 400-class results without contacting the provider; provider
// failures (including an already-converted hold) are surfaced
// normalized, never masked as a generic 500. Each reconciliation gets a
// fresh trace id carried on the result and the span.
func (r *Reconciler) CreateBookingAfterPayment(ctx context.Context, payload map[string]string) result.NormalizedResult {
	traceID := uuid.NewString()
	tracer := otel.Tracer("reconciler")
	ctx, span := tracer.Start(ctx, "Reconciler.CreateBookingAfterPayment")
	span.SetAttributes(attribute.String("workflow.trace_id", traceID))
	defer span.End()

	res := r.createBookingAfterPayment(ctx, payload)
	res.TraceID = traceID
	return res
}

func (r *Reconciler) createBookingAfterPayment(ctx context.Context, payload map[string]string) result.NormalizedResult {
	req, vErr := ParseWebhook(payload, r.homeCurrency)
	if vErr != nil {
		metrics.Reconciliations.WithLabelValues("rejected").Inc()
		return result.Failure(result.SourcePayu, http.StatusBadRequest, vErr.Error())
	}

	payment := bookeo.Payment{
		Amount:             bookeo.Money{Amount: req.Amount, Currency: req.Currency},
		PaymentMethod:      req.PaymentMethod,
		PaymentMethodOther: req.PaymentMethodOther,
		ReceivedTime:       req.ReceivedTime.Format(time.RFC3339),
		Reason:             req.Reason,
		Comment:            req.Comment,
	}

	booking, err := r.bookings.CreateBooking(ctx, bookeo.BookingInput{
		ProductID:       req.ProductID,
		EventID:         req.EventID,
		CustomerID:      req.CustomerID,
		Participants:    req.Participants,
		PreviousHoldID:  req.HoldID,
		InitialPayments: []bookeo.Payment{payment},
	})
	if err != nil {
		metrics.Reconciliations.WithLabelValues("bookeo_error").Inc()
		return result.Normalize(err, result.SourceBookeo)
	}

	metrics.Reconciliations.WithLabelValues("success").Inc()
	res := result.NormalizedResult{Success: true, Source: result.SourceBookeo}
	if booking != nil {
		res.BookingNumber = booking.BookingNumber
	}
	return res
}
