// Package payu is the payment-link gateway client. It creates hosted
// payment links; the five UDF fields round-trip booking context through
// the gateway so the webhook reconciler can recover it without local
// state.
package payu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yourorg/booking-orchestrator/internal/upstream"
)

const (
	upstreamName = "payu"

	defaultTimeout = 30 * time.Second

	// StatusOK is the gateway's success code in link responses.
	StatusOK = 0
)

// LinkRequest is the outbound request to create a payment link.
type LinkRequest struct {
	SubAmount            string `json:"subAmount"`
	MinAmountForCustomer string `json:"minAmountForCustomer,omitempty"`
	Description          string `json:"description,omitempty"`
	InvoiceNumber        string `json:"invoiceNumber,omitempty"`

	// UDF1..UDF5 carry hold, customer, event, product and serialized
	// participant data through the hosted payment flow unchanged.
	UDF1 string `json:"udf1,omitempty"`
	UDF2 string `json:"udf2,omitempty"`
	UDF3 string `json:"udf3,omitempty"`
	UDF4 string `json:"udf4,omitempty"`
	UDF5 string `json:"udf5,omitempty"`
}

// LinkResult is the payload of a successful link creation.
type LinkResult struct {
	PaymentLink          string `json:"paymentLink"`
	InvoiceNumber        string `json:"invoiceNumber"`
	ExpiryDate           string `json:"expiryDate"`
	MinAmountForCustomer string `json:"minAmountForCustomer"`
	DiscountAmount       string `json:"discount"`
	MaxPaymentsAllowed   int    `json:"maxPaymentsAllowed"`
}

// LinkResponse is the gateway's envelope. Status 0 means success; any
// other value is a logical failure even on HTTP 200.
type LinkResponse struct {
	Status  int        `json:"status"`
	Message string     `json:"msg,omitempty"`
	Result  LinkResult `json:"result"`
}

// Client talks to the gateway's merchant API. Safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	merchantKey string
	authHeader  string
	breaker     *upstream.Breaker
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBreaker shares a circuit breaker with other clients.
func WithBreaker(b *upstream.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// NewClient creates a gateway client.
func NewClient(baseURL, merchantKey, authHeader string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     baseURL,
		merchantKey: merchantKey,
		authHeader:  authHeader,
		breaker:     upstream.NewBreaker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type linkRequestBody struct {
	LinkRequest
	Key string `json:"key"`
}

// CreatePaymentLink asks the gateway to create a hosted payment link.
// Transport and HTTP failures come back as *upstream.Failure; a decoded
// response is returned even when its Status signals a logical failure,
// since that branch belongs to the caller.
func (c *Client) CreatePaymentLink(ctx context.Context, req *LinkRequest) (*LinkResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("payu: link request cannot be nil")
	}

	if !c.breaker.Allow(upstreamName) {
		return nil, &upstream.Failure{
			Source: upstreamName,
			Status: http.StatusServiceUnavailable,
			Body:   []byte(`{"message":"payu circuit open, request not attempted"}`),
		}
	}

	payload, err := json.Marshal(linkRequestBody{LinkRequest: *req, Key: c.merchantKey})
	if err != nil {
		return nil, fmt.Errorf("payu: encoding link request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment-links", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("payu: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.breaker.RecordFailure(upstreamName)
		return nil, &upstream.Failure{Source: upstreamName, Body: []byte(err.Error())}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure(upstreamName)
		return nil, &upstream.Failure{Source: upstreamName, Status: resp.StatusCode, Body: []byte(err.Error())}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.breaker.RecordFailure(upstreamName)
		return nil, &upstream.Failure{Source: upstreamName, Status: resp.StatusCode, Body: respBody}
	}
	c.breaker.RecordSuccess(upstreamName)

	var linkResp LinkResponse
	if err := json.Unmarshal(respBody, &linkResp); err != nil {
		return nil, &upstream.Failure{Source: upstreamName, Status: resp.StatusCode, Body: respBody}
	}
	return &linkResp, nil
}
