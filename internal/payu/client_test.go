package payu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/booking-orchestrator/internal/upstream"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "merchant-key", "Bearer token-123")
}

func TestCreatePaymentLink_Success(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"status":0,"result":{"paymentLink":"https://pay.example/abc","invoiceNumber":"AB12CD34","expiryDate":"2025-02-01","maxPaymentsAllowed":2}}`)
	})

	resp, err := client.CreatePaymentLink(context.Background(), &LinkRequest{
		SubAmount:            "1000.00",
		MinAmountForCustomer: "500.00",
		InvoiceNumber:        "AB12CD34",
		UDF1:                 "H77",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, "https://pay.example/abc", resp.Result.PaymentLink)
	assert.Equal(t, 2, resp.Result.MaxPaymentsAllowed)

	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Equal(t, "merchant-key", gotBody["key"])
	assert.Equal(t, "H77", gotBody["udf1"])
	assert.Equal(t, "1000.00", gotBody["subAmount"])
}

func TestCreatePaymentLink_LogicalFailureIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":1,"msg":"invalid merchant"}`)
	})

	resp, err := client.CreatePaymentLink(context.Background(), &LinkRequest{SubAmount: "10.00"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Status)
	assert.Equal(t, "invalid merchant", resp.Message)
}

func TestCreatePaymentLink_HTTPFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"bad auth"}`)
	})

	_, err := client.CreatePaymentLink(context.Background(), &LinkRequest{SubAmount: "10.00"})
	require.Error(t, err)

	var fail *upstream.Failure
	require.ErrorAs(t, err, &fail)
	assert.Equal(t, "payu", fail.Source)
	assert.Equal(t, http.StatusUnauthorized, fail.Status)
	assert.Contains(t, string(fail.Body), "bad auth")
}

func TestCreatePaymentLink_NilRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no HTTP call expected")
	})
	_, err := client.CreatePaymentLink(context.Background(), nil)
	assert.Error(t, err)
}

func TestCreatePaymentLink_UndecodableSuccessBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>gateway maintenance</html>`)
	})

	_, err := client.CreatePaymentLink(context.Background(), &LinkRequest{SubAmount: "10.00"})
	require.Error(t, err)

	var fail *upstream.Failure
	require.ErrorAs(t, err, &fail)
	assert.Contains(t, string(fail.Body), "maintenance")
}
