// Package orchestrator runs the hold + payment-link workflow: reserve
// inventory with the booking provider, then request a hosted payment
// link scoped to the hold's payable amount. The two resources fail
// independently and there is no two-phase commit, so a link failure
// still reports the hold that was created.
package orchestrator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yourorg/booking-orchestrator/internal/bookeo"
	"github.com/yourorg/booking-orchestrator/internal/metrics"
	"github.com/yourorg/booking-orchestrator/internal/money"
	"github.com/yourorg/booking-orchestrator/internal/payu"
	"github.com/yourorg/booking-orchestrator/internal/result"
)

// HoldCreator is the booking-provider operation the workflow needs.
type HoldCreator interface {
	CreateBookingHold(ctx context.Context, in bookeo.HoldInput) (*bookeo.Hold, error)
}

// LinkCreator is the payment-gateway operation the workflow needs.
type LinkCreator interface {
	CreatePaymentLink(ctx context.Context, req *payu.LinkRequest) (*payu.LinkResponse, error)
}

// HoldRequest describes the desired reservation. HoldID, when set, asks
// the provider to extend that existing hold instead of creating a new
// one (used when a payment link must be regenerated for the same
// inventory). PaymentInfo is required.
type HoldRequest struct {
	EventID      string                 `json:"eventId"`
	CustomerID   string                 `json:"customerId"`
	ProductID    string                 `json:"productId"`
	Participants []bookeo.Participant   `json:"participants"`
	Options      []bookeo.ProductOption `json:"options,omitempty"`
	HoldID       string                 `json:"holdId,omitempty"`
	Lang         string                 `json:"lang,omitempty"`
	PaymentInfo  *payu.LinkRequest      `json:"payment_info"`
}

// Orchestrator coordinates the two upstream clients.
type Orchestrator struct {
	holds HoldCreator
	links LinkCreator
}

// New creates an Orchestrator.
func New(holds HoldCreator, links LinkCreator) *Orchestrator {
	if holds == nil {
		panic("hold creator cannot be nil")
	}
	if links == nil {
		panic("link creator cannot be nil")
	}
	return &Orchestrator{holds: holds, links: links}
}

// CreateHoldAndPaymentLink creates (or extends) an inventory hold and a
// payment link for it, returning a normalized result in every case. Each
// invocation is tagged with a fresh trace id carried on the result and
// the span, so a payment can be tied back to its originating request.
func (o *Orchestrator) CreateHoldAndPaymentLink(ctx context.Context, req HoldRequest) result.NormalizedResult {
	traceID := uuid.NewString()
	tracer := otel.Tracer("orchestrator")
	ctx, span := tracer.Start(ctx, "Orchestrator.CreateHoldAndPaymentLink")
	span.SetAttributes(attribute.String("workflow.trace_id", traceID))
	defer span.End()

	res := o.createHoldAndPaymentLink(ctx, req)
	res.TraceID = traceID
	return res
}

func (o *Orchestrator) createHoldAndPaymentLink(ctx context.Context, req HoldRequest) result.NormalizedResult {
	// Fail fast before any upstream call: a hold without payment info
	// would strand inventory with no way to collect.
	if req.PaymentInfo == nil {
		metrics.HoldsCreated.WithLabelValues("invalid_request").Inc()
		return result.Failure(result.SourcePayu, http.StatusBadRequest, "payment_info is required to create a payment link")
	}

	hold, err := o.holds.CreateBookingHold(ctx, bookeo.HoldInput{
		EventID:        req.EventID,
		CustomerID:     req.CustomerID,
		ProductID:      req.ProductID,
		Participants:   req.Participants,
		Options:        req.Options,
		PreviousHoldID: req.HoldID,
		Lang:           req.Lang,
	})
	if err != nil {
		metrics.HoldsCreated.WithLabelValues("bookeo_error").Inc()
		return result.Normalize(err, result.SourceBookeo)
	}
	if hold == nil || strings.TrimSpace(hold.ID) == "" {
		// A 200 with no hold id is a malformed provider response, not a
		// success.
		metrics.HoldsCreated.WithLabelValues("bookeo_error").Inc()
		return result.Failure(result.SourceBookeo, 0, "booking provider returned no hold id")
	}

	linkReq := buildLinkRequest(req, hold)
	linkResp, err := o.links.CreatePaymentLink(ctx, linkReq)
	if err != nil {
		metrics.HoldsCreated.WithLabelValues("payu_error").Inc()
		return withHold(result.Normalize(err, result.SourcePayu), hold)
	}
	if linkResp.Status != payu.StatusOK {
		metrics.HoldsCreated.WithLabelValues("payu_error").Inc()
		msg := linkResp.Message
		if msg == "" {
			msg = fmt.Sprintf("payment gateway returned status %d", linkResp.Status)
		}
		return withHold(result.Failure(result.SourcePayu, 0, msg), hold)
	}

	metrics.HoldsCreated.WithLabelValues("success").Inc()
	return result.NormalizedResult{
		Success:              true,
		Hold:                 holdInfo(hold),
		PaymentLink:          linkResp.Result.PaymentLink,
		InvoiceID:            linkResp.Result.InvoiceNumber,
		ExpiryDate:           linkResp.Result.ExpiryDate,
		MinAmountForCustomer: linkResp.Result.MinAmountForCustomer,
		DiscountAmount:       linkResp.Result.DiscountAmount,
		MaxPaymentsAllowed:   linkResp.Result.MaxPaymentsAllowed,
	}
}

// buildLinkRequest populates the caller's link request from the hold:
// the payable amount, a 50% deposit minimum, a fresh invoice token, and
// the UDF side-channel carrying full booking context for the webhook.
func buildLinkRequest(req HoldRequest, hold *bookeo.Hold) *payu.LinkRequest {
	linkReq := *req.PaymentInfo

	var total string
	if hold.TotalPayable != nil {
		total = hold.TotalPayable.Amount
	}
	linkReq.SubAmount = total

	if strings.TrimSpace(linkReq.Description) == "" {
		linkReq.Description = fmt.Sprintf("Payment for booking hold %s", hold.ID)
	}

	// Always a fresh invoice number, even on hold-extension retries:
	// the gateway treats the invoice as unique per attempt.
	linkReq.InvoiceNumber = newInvoiceNumber()

	if half, err := money.Half(total); err == nil {
		linkReq.MinAmountForCustomer = half
	} else {
		linkReq.MinAmountForCustomer = total
	}

	participantsJSON, err := json.Marshal(req.Participants)
	if err != nil {
		participantsJSON = []byte("[]")
	}
	linkReq.UDF1 = hold.ID
	linkReq.UDF2 = req.CustomerID
	linkReq.UDF3 = req.EventID
	linkReq.UDF4 = req.ProductID
	linkReq.UDF5 = string(participantsJSON)
	return &linkReq
}

// newInvoiceNumber returns a random 8-hex-character uppercase token.
func newInvoiceNumber() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("orchestrator: reading random bytes: %v", err))
	}
	return strings.ToUpper(hex.EncodeToString(b[:]))
}

func holdInfo(hold *bookeo.Hold) *result.HoldInfo {
	info := &result.HoldInfo{ID: hold.ID, Expiration: hold.Expiration}
	if hold.TotalPayable != nil {
		info.Price = &result.Money{Amount: hold.TotalPayable.Amount, Currency: hold.TotalPayable.Currency}
	}
	return info
}

// withHold attaches the created hold to a failed result so the caller
// can retry link creation against the same hold or release it.
func withHold(res result.NormalizedResult, hold *bookeo.Hold) result.NormalizedResult {
	res.Hold = holdInfo(hold)
	return res
}
