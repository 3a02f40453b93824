// Package bookeo is a typed client for the Bookeo booking/inventory
// provider. It owns credential attachment, rate-limit retry, and the
// translation of non-2xx responses into upstream.Failure values.
package bookeo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yourorg/booking-orchestrator/internal/metrics"
	"github.com/yourorg/booking-orchestrator/internal/policy"
	"github.com/yourorg/booking-orchestrator/internal/upstream"
)

const (
	upstreamName = "bookeo"

	defaultTimeout    = 30 * time.Second
	defaultRetryAfter = 60 * time.Second

	// Hard stop for token-following pagination in case the provider
	// keeps returning a navigation token.
	defaultMaxPages = 100
)

// Client performs authenticated HTTP operations against the provider.
// Safe for concurrent use: it holds no per-request mutable state.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	secretKey   string
	retryPolicy *policy.RetryPolicy
	breaker     *upstream.Breaker
	sleep       func(time.Duration)
	maxPages    int
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

// WithRetryPolicy overrides the default rate-limit retry rules.
func WithRetryPolicy(p *policy.RetryPolicy) Option {
	return func(c *Client) { c.retryPolicy = p }
}

// WithSleep overrides the backoff sleep, for tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithMaxPages overrides the pagination runaway cap.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// NewClient creates a provider client. baseURL has no trailing slash.
func NewClient(baseURL, apiKey, secretKey string, opts ...Option) *Client {
	defaultPolicy, err := policy.NewRetryPolicy(policy.DefaultRules())
	if err != nil {
		// DefaultRules is a fixed literal; failing to compile it is a bug.
		panic(fmt.Sprintf("bookeo: compiling default retry rules: %v", err))
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     baseURL,
		apiKey:      apiKey,
		secretKey:   secretKey,
		retryPolicy: defaultPolicy,
		breaker:     upstream.NewBreaker(),
		sleep:       time.Sleep,
		maxPages:    defaultMaxPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs one provider request, retrying at most once when the retry
// policy allows it for a 429. Credentials travel both as headers and as
// query parameters: the provider has been observed accepting only one or
// the other depending on endpoint.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("bookeo: encoding request body: %w", err)
		}
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("apiKey", c.apiKey)
	query.Set("secretKey", c.secretKey)
	requestURL := c.baseURL + path + "?" + query.Encode()

	for attempt := 1; ; attempt++ {
		if !c.breaker.Allow(upstreamName) {
			return &upstream.Failure{
				Source: upstreamName,
				Status: http.StatusServiceUnavailable,
				Body:   []byte(`{"message":"bookeo circuit open, request not attempted"}`),
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
		if err != nil {
			return fmt.Errorf("bookeo: building request: %w", err)
		}
		req.Header.Set("X-Bookeo-apiKey", c.apiKey)
		req.Header.Set("X-Bookeo-secretKey", c.secretKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.breaker.RecordFailure(upstreamName)
			return &upstream.Failure{Source: upstreamName, Body: []byte(err.Error())}
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			c.breaker.RecordFailure(upstreamName)
			return &upstream.Failure{Source: upstreamName, Status: resp.StatusCode, Body: []byte(readErr.Error())}
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.breaker.RecordSuccess(upstreamName)
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("bookeo: decoding response: %w", err)
			}
			return nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			decision := c.retryPolicy.Evaluate(map[string]interface{}{
				"http_status": resp.StatusCode,
				"attempt":     attempt,
			})
			if decision.Retry {
				metrics.RateLimitRetries.Inc()
				c.sleep(retryAfter(resp))
				continue
			}
		}

		c.breaker.RecordFailure(upstreamName)
		return &upstream.Failure{Source: upstreamName, Status: resp.StatusCode, Body: respBody}
	}
}

// retryAfter reads the provider's Retry-After header in seconds, falling
// back to 60s when absent or malformed.
func retryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

// SlotsQuery filters an availability search.
type SlotsQuery struct {
	StartTime        string
	EndTime          string
	ProductID        string
	PeopleCategoryID string
	NumberOfPeople   int
	SlotType         string
	Lang             string
}

// GetAvailableSlots queries open inventory between two instants.
func (c *Client) GetAvailableSlots(ctx context.Context, q SlotsQuery) ([]Slot, error) {
	query := url.Values{}
	query.Set("startTime", q.StartTime)
	query.Set("endTime", q.EndTime)
	if q.ProductID != "" {
		query.Set("productId", q.ProductID)
	}
	if q.PeopleCategoryID != "" {
		query.Set("peopleCategoryId", q.PeopleCategoryID)
	}
	if q.NumberOfPeople > 0 {
		query.Set("numberOfPeople", strconv.Itoa(q.NumberOfPeople))
	}
	if q.SlotType != "" {
		query.Set("slotType", q.SlotType)
	}
	setLang(query, q.Lang)

	var list slotList
	if err := c.do(ctx, http.MethodGet, "/availability/slots", query, nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// GetMatchingSlots queries slots that can fit a specific participant mix.
// Each participant entry becomes an indexed query parameter pair.
func (c *Client) GetMatchingSlots(ctx context.Context, startTime, endTime, productID string, participants []Participant, lang string) ([]Slot, error) {
	query := url.Values{}
	query.Set("startTime", startTime)
	query.Set("endTime", endTime)
	query.Set("productId", productID)
	for i, p := range participants {
		query.Set(fmt.Sprintf("peopleCategoryId%d", i+1), p.PeopleCategoryID)
		query.Set(fmt.Sprintf("number%d", i+1), strconv.Itoa(p.Number))
	}
	setLang(query, lang)

	var list slotList
	if err := c.do(ctx, http.MethodGet, "/availability/matchingslots", query, nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// HoldInput describes a hold to create. PreviousHoldID, when set, asks
// the provider to replace/extend an earlier hold for the same inventory.
type HoldInput struct {
	EventID        string
	CustomerID     string
	ProductID      string
	Participants   []Participant
	Options        []ProductOption
	PreviousHoldID string
	Lang           string
}

type holdBody struct {
	EventID      string             `json:"eventId"`
	CustomerID   string             `json:"customerId,omitempty"`
	ProductID    string             `json:"productId,omitempty"`
	Participants participantNumbers `json:"participants"`
	Options      []ProductOption    `json:"options,omitempty"`
}

// CreateBookingHold creates (or extends) a temporary inventory hold.
func (c *Client) CreateBookingHold(ctx context.Context, in HoldInput) (*Hold, error) {
	query := url.Values{}
	if in.PreviousHoldID != "" {
		query.Set("previousHoldId", in.PreviousHoldID)
	}
	setLang(query, in.Lang)

	body := holdBody{
		EventID:      in.EventID,
		CustomerID:   in.CustomerID,
		ProductID:    in.ProductID,
		Participants: participantNumbers{Numbers: in.Participants},
		Options:      in.Options,
	}
	var hold Hold
	if err := c.do(ctx, http.MethodPost, "/holds", query, body, &hold); err != nil {
		return nil, err
	}
	return &hold, nil
}

// BookingInput describes a booking to create or update. When
// PreviousHoldID is set, the provider converts that hold into the
// confirmed booking, attaching InitialPayments atomically.
type BookingInput struct {
	ProductID       string
	EventID         string
	CustomerID      string
	Participants    []Participant
	Options         []ProductOption
	PreviousHoldID  string
	InitialPayments []Payment
	NotifyUsers     *bool // nil means true
	NotifyCustomer  *bool // nil means true
	Lang            string
}

type bookingBody struct {
	ProductID       string             `json:"productId,omitempty"`
	EventID         string             `json:"eventId,omitempty"`
	CustomerID      string             `json:"customerId,omitempty"`
	Participants    participantNumbers `json:"participants"`
	Options         []ProductOption    `json:"options,omitempty"`
	InitialPayments []Payment          `json:"initialPayments,omitempty"`
}

func notifyValue(v *bool) string {
	if v == nil || *v {
		return "true"
	}
	return "false"
}

// CreateBooking creates a confirmed booking, converting a prior hold when
// PreviousHoldID is supplied.
func (c *Client) CreateBooking(ctx context.Context, in BookingInput) (*Booking, error) {
	query := url.Values{}
	if in.PreviousHoldID != "" {
		query.Set("previousHoldId", in.PreviousHoldID)
	}
	query.Set("notifyUsers", notifyValue(in.NotifyUsers))
	query.Set("notifyCustomer", notifyValue(in.NotifyCustomer))
	setLang(query, in.Lang)

	body := bookingBody{
		ProductID:       in.ProductID,
		EventID:         in.EventID,
		CustomerID:      in.CustomerID,
		Participants:    participantNumbers{Numbers: in.Participants},
		Options:         in.Options,
		InitialPayments: in.InitialPayments,
	}
	var booking Booking
	if err := c.do(ctx, http.MethodPost, "/bookings", query, body, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBooking retrieves one booking by number.
func (c *Client) GetBooking(ctx context.Context, bookingNumber, expand, lang string) (*Booking, error) {
	query := url.Values{}
	if expand != "" {
		query.Set("expand", expand)
	}
	setLang(query, lang)

	var booking Booking
	if err := c.do(ctx, http.MethodGet, "/bookings/"+url.PathEscape(bookingNumber), query, nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateBooking replaces a booking's details.
func (c *Client) UpdateBooking(ctx context.Context, bookingNumber string, in BookingInput) (*Booking, error) {
	query := url.Values{}
	query.Set("notifyUsers", notifyValue(in.NotifyUsers))
	query.Set("notifyCustomer", notifyValue(in.NotifyCustomer))
	setLang(query, in.Lang)

	body := bookingBody{
		ProductID:    in.ProductID,
		EventID:      in.EventID,
		CustomerID:   in.CustomerID,
		Participants: participantNumbers{Numbers: in.Participants},
		Options:      in.Options,
	}
	var booking Booking
	if err := c.do(ctx, http.MethodPut, "/bookings/"+url.PathEscape(bookingNumber), query, body, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CancelBooking cancels a booking.
func (c *Client) CancelBooking(ctx context.Context, bookingNumber string, notifyCustomer bool, lang string) error {
	query := url.Values{}
	query.Set("notifyCustomer", strconv.FormatBool(notifyCustomer))
	setLang(query, lang)
	return c.do(ctx, http.MethodDelete, "/bookings/"+url.PathEscape(bookingNumber), query, nil, nil)
}

// BookingsQuery filters a bookings listing. Cursor fields
// (PageNavigationToken/PageNumber) and filter fields are mutually
// exclusive pagination modes.
type BookingsQuery struct {
	StartTime            string
	EndTime              string
	LastUpdatedStartTime string
	LastUpdatedEndTime   string
	CreatedTime          string
	ProductID            string
	ItemsPerPage         int
	Expand               string
	Lang                 string

	PageNavigationToken string
	PageNumber          int
}

func (q BookingsQuery) hasFilters() bool {
	return q.StartTime != "" || q.EndTime != "" ||
		q.LastUpdatedStartTime != "" || q.LastUpdatedEndTime != "" ||
		q.CreatedTime != "" || q.ProductID != ""
}

// GetBookings lists one page of bookings, in either cursor mode or
// initial filter mode.
func (c *Client) GetBookings(ctx context.Context, q BookingsQuery) (*BookingsPage, error) {
	if q.PageNavigationToken != "" && q.hasFilters() {
		return nil, fmt.Errorf("bookeo: pageNavigationToken cannot be combined with filter parameters")
	}

	query := url.Values{}
	if q.PageNavigationToken != "" {
		query.Set("pageNavigationToken", q.PageNavigationToken)
		query.Set("pageNumber", strconv.Itoa(q.PageNumber))
	} else {
		if q.StartTime != "" {
			query.Set("startTime", q.StartTime)
		}
		if q.EndTime != "" {
			query.Set("endTime", q.EndTime)
		}
		if q.LastUpdatedStartTime != "" {
			query.Set("lastUpdatedStartTime", q.LastUpdatedStartTime)
		}
		if q.LastUpdatedEndTime != "" {
			query.Set("lastUpdatedEndTime", q.LastUpdatedEndTime)
		}
		if q.CreatedTime != "" {
			query.Set("createdTime", q.CreatedTime)
		}
		if q.ProductID != "" {
			query.Set("productId", q.ProductID)
		}
		if q.ItemsPerPage > 0 {
			query.Set("itemsPerPage", strconv.Itoa(q.ItemsPerPage))
		}
	}
	if q.Expand != "" {
		query.Set("expand", q.Expand)
	}
	setLang(query, q.Lang)

	var page BookingsPage
	if err := c.do(ctx, http.MethodGet, "/bookings", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAllBookings follows navigation tokens until the listing completes,
// accumulating every page's items. Page-following stops at the runaway
// cap even if the provider keeps returning a token.
func (c *Client) GetAllBookings(ctx context.Context, q BookingsQuery) ([]Booking, error) {
	page, err := c.GetBookings(ctx, q)
	if err != nil {
		return nil, err
	}
	all := page.Data

	pages := 1
	for page.Info.PageNavigationToken != "" && page.Info.CurrentPage < page.Info.TotalPages {
		if pages >= c.maxPages {
			return all, fmt.Errorf("bookeo: pagination exceeded %d pages, aborting", c.maxPages)
		}
		page, err = c.GetBookings(ctx, BookingsQuery{
			PageNavigationToken: page.Info.PageNavigationToken,
			PageNumber:          page.Info.CurrentPage + 1,
			Lang:                q.Lang,
		})
		if err != nil {
			return all, err
		}
		all = append(all, page.Data...)
		pages++
	}
	return all, nil
}

// CreateCustomer registers a customer with the provider.
func (c *Client) CreateCustomer(ctx context.Context, customer *Customer, lang string) (*Customer, error) {
	query := url.Values{}
	setLang(query, lang)
	var created Customer
	if err := c.do(ctx, http.MethodPost, "/customers", query, customer, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetCustomer retrieves one customer by id.
func (c *Client) GetCustomer(ctx context.Context, customerID, lang string) (*Customer, error) {
	query := url.Values{}
	setLang(query, lang)
	var customer Customer
	if err := c.do(ctx, http.MethodGet, "/customers/"+url.PathEscape(customerID), query, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetCustomers lists customers, optionally filtered by a search string.
func (c *Client) GetCustomers(ctx context.Context, search string, itemsPerPage int, pageNavigationToken string, pageNumber int, lang string) (*CustomersPage, error) {
	query := url.Values{}
	if pageNavigationToken != "" {
		query.Set("pageNavigationToken", pageNavigationToken)
		query.Set("pageNumber", strconv.Itoa(pageNumber))
	} else {
		if search != "" {
			query.Set("searchText", search)
		}
		if itemsPerPage > 0 {
			query.Set("itemsPerPage", strconv.Itoa(itemsPerPage))
		}
	}
	setLang(query, lang)

	var page CustomersPage
	if err := c.do(ctx, http.MethodGet, "/customers", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdateCustomer replaces a customer record.
func (c *Client) UpdateCustomer(ctx context.Context, customerID string, customer *Customer, lang string) (*Customer, error) {
	query := url.Values{}
	setLang(query, lang)
	var updated Customer
	if err := c.do(ctx, http.MethodPut, "/customers/"+url.PathEscape(customerID), query, customer, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetProducts lists the account's bookable products.
func (c *Client) GetProducts(ctx context.Context, lang string) ([]Product, error) {
	query := url.Values{}
	setLang(query, lang)
	var out struct {
		Data []Product `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/settings/products", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetPeopleCategories lists the account's people categories.
func (c *Client) GetPeopleCategories(ctx context.Context, lang string) ([]PeopleCategory, error) {
	query := url.Values{}
	setLang(query, lang)
	var out struct {
		Data []PeopleCategory `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/settings/peoplecategories", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetLanguages lists the languages the account supports.
func (c *Client) GetLanguages(ctx context.Context) ([]Language, error) {
	var out struct {
		Data []Language `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/settings/languages", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetSubaccounts lists the account's subaccounts.
func (c *Client) GetSubaccounts(ctx context.Context) ([]Subaccount, error) {
	var out struct {
		Data []Subaccount `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/subaccounts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func setLang(query url.Values, lang string) {
	if lang != "" {
		query.Set("lang", lang)
	}
}
