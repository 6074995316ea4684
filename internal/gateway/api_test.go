package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pix-service/internal/dtos"
	internalErrors "pix-service/internal/errors"
	"pix-service/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		BaseURL:       srv.URL,
		PublicKey:     "pub",
		SecretKey:     "sec",
		ValidityDays:  1,
		CreateTimeout: time.Second,
		StatusTimeout: time.Second,
	})
	c.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return c
}

func testSpec() ChargeSpec {
	return ChargeSpec{
		Amount:    12.90,
		Name:      "Maria",
		Email:     "maria@example.com",
		Phone:     "11987654321",
		Document:  "123.456.789-01",
		Reference: "CRM-5511-1",
	}
}

func TestCreateCharge_Success(t *testing.T) {
	var received dtos.CreateChargeRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/gateway/pix/receive", r.URL.Path)
		assert.Equal(t, "pub", r.Header.Get("x-public-key"))
		assert.Equal(t, "sec", r.Header.Get("x-secret-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transactionId":"tx-1","status":"PENDING","pix":{"code":"000201PIX"}}`))
	})

	result, err := c.CreateCharge(context.Background(), testSpec())
	require.NoError(t, err)

	assert.Equal(t, "tx-1", result.TransactionID)
	assert.Equal(t, "000201PIX", result.PaymentCode)
	assert.Contains(t, result.QRCodeURL, "api.qrserver.com")
	assert.Equal(t, time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC), result.ExpiresAt)

	assert.InDelta(t, 12.90, received.Amount, 0.0001)
	assert.Equal(t, "2026-03-11", received.DueDate)
	assert.Equal(t, "(11) 98765-4321", received.Client.Phone)
	assert.Equal(t, "123.456.789-01", received.Client.Document)
	assert.True(t, strings.HasPrefix(received.Identifier, "PIXAUTO-CRM-5511-1-"))
	assert.Equal(t, result.Identifier, received.Identifier)
	require.Len(t, received.Products, 1)
	assert.Equal(t, "Pagamento PIX", received.Products[0].Name)
}

func TestCreateCharge_IdentifiersNeverCollide(t *testing.T) {
	seen := map[string]bool{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req dtos.CreateChargeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, seen[req.Identifier], "duplicate identifier %s", req.Identifier)
		seen[req.Identifier] = true
		w.Write([]byte(`{"transactionId":"tx","pix":{"code":"abc"}}`))
	})

	for i := 0; i < 20; i++ {
		_, err := c.CreateCharge(context.Background(), testSpec())
		require.NoError(t, err)
	}
	assert.Len(t, seen, 20)
}

func TestCreateCharge_MissingPixCodeIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transactionId":"tx-1","status":"PENDING"}`))
	})

	_, err := c.CreateCharge(context.Background(), testSpec())
	require.Error(t, err)
	assert.Equal(t, internalErrors.KindMalformedResponse, internalErrors.KindOf(err))
	assert.ErrorIs(t, err, internalErrors.ErrMissingPaymentCode)
	assert.Equal(t, retry.Fatal, Classify(err))
}

func TestCreateCharge_MissingTransactionIDIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"PENDING","pix":{"code":"000201PIX"}}`))
	})

	result, err := c.CreateCharge(context.Background(), testSpec())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, internalErrors.KindMalformedResponse, internalErrors.KindOf(err))
	assert.ErrorIs(t, err, internalErrors.ErrMissingTransactionID)
	assert.Equal(t, retry.Fatal, Classify(err))
}

func TestCreateCharge_MissingCredentials(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	c.opts.SecretKey = ""

	_, err := c.CreateCharge(context.Background(), testSpec())
	require.Error(t, err)
	assert.Equal(t, internalErrors.KindConfiguration, internalErrors.KindOf(err))
	assert.False(t, called)
}

func TestCreateCharge_StatusClassification(t *testing.T) {
	cases := []struct {
		status int
		kind   internalErrors.Kind
		class  retry.Class
	}{
		{http.StatusUnauthorized, internalErrors.KindConfiguration, retry.Fatal},
		{http.StatusBadRequest, internalErrors.KindValidation, retry.Fatal},
		{http.StatusUnprocessableEntity, internalErrors.KindValidation, retry.Fatal},
		{http.StatusTooManyRequests, internalErrors.KindRateLimit, retry.Retryable},
		{http.StatusInternalServerError, internalErrors.KindServer, retry.Retryable},
		{http.StatusBadGateway, internalErrors.KindServer, retry.Retryable},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"message":"nope"}`))
			})

			_, err := c.CreateCharge(context.Background(), testSpec())
			require.Error(t, err)

			var ce *internalErrors.ChargeError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.kind, ce.Kind)
			assert.Equal(t, tc.status, ce.StatusCode)
			assert.Equal(t, map[string]any{"message": "nope"}, ce.Detail)
			assert.Equal(t, tc.class, Classify(err))
		})
	}
}

func TestCreateCharge_TimeoutIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	c.opts.CreateTimeout = 20 * time.Millisecond

	_, err := c.CreateCharge(context.Background(), testSpec())
	require.Error(t, err)
	assert.Equal(t, internalErrors.KindTransientNetwork, internalErrors.KindOf(err))
	assert.Equal(t, retry.Retryable, Classify(err))
}

func TestCreateCharge_ConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: addr, PublicKey: "pub", SecretKey: "sec"})
	_, err := c.CreateCharge(context.Background(), testSpec())
	require.Error(t, err)
	assert.Equal(t, internalErrors.KindTransientNetwork, internalErrors.KindOf(err))
}

func TestQueryStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/gateway/transactions", r.URL.Path)
		assert.Equal(t, "tx-9", r.URL.Query().Get("id"))
		w.Write([]byte(`{"id":"tx-9","status":"COMPLETED"}`))
	})

	status, err := c.QueryStatus(context.Background(), "tx-9")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", status.Status)
	assert.Equal(t, "tx-9", status.TransactionID)
}

func TestQueryStatus_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.QueryStatus(context.Background(), "tx-9")
	require.Error(t, err)
	assert.Equal(t, internalErrors.KindServer, internalErrors.KindOf(err))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "12.345.678/0001-90", formatDocument("12345678000190"))
	assert.Equal(t, "123", formatDocument("1-2-3"))
	assert.Equal(t, "(11) 9999-8888", formatPhone("1199998888"))
	assert.Equal(t, "(11) 99999-9999", formatPhone("+11 99999 9999"))
}
