package payment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookstore/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// トークン取得→返金の2段階を本物のHTTPで確かめる
func TestPayPalClient_Refund_Success(t *testing.T) {
	var refundCalls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "client-id", user)
			assert.Equal(t, "client-secret", pass)
			assert.NoError(t, json.NewEncoder(w).Encode(map[string]string{"access_token": "token-abc"}))

		case "/v2/payments/captures/CAPTURE-123/refund":
			refundCalls++
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusCreated)
			assert.NoError(t, json.NewEncoder(w).Encode(map[string]string{"id": "REFUND-9", "status": "COMPLETED"}))

		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := payment.NewPayPalClient(srv.URL, "client-id", "client-secret", nil)

	res, err := c.Refund(context.Background(), "CAPTURE-123")
	assert.NoError(t, err)
	assert.Equal(t, "REFUND-9", res.RefundID)
	assert.Equal(t, "COMPLETED", res.Status)
	assert.Equal(t, 1, refundCalls)
}

func TestPayPalClient_Refund_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "token-abc"})
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY"}`))
	}))
	defer srv.Close()

	c := payment.NewPayPalClient(srv.URL, "client-id", "client-secret", nil)

	_, err := c.Refund(context.Background(), "CAPTURE-123")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "refund rejected")
}

func TestPayPalClient_Refund_TokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := payment.NewPayPalClient(srv.URL, "bad-id", "bad-secret", nil)

	_, err := c.Refund(context.Background(), "CAPTURE-123")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "token request failed")
}

func TestPayPalClient_Refund_EmptyRef(t *testing.T) {
	c := payment.NewPayPalClient("https://example.invalid", "id", "secret", nil)

	_, err := c.Refund(context.Background(), "  ")
	assert.Error(t, err)
}

// デッドライン超過はErrTimeoutに分類される
func TestPayPalClient_Refund_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "token-abc"})
	}))
	defer srv.Close()

	c := payment.NewPayPalClient(srv.URL, "client-id", "client-secret", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Refund(ctx, "CAPTURE-123")
	assert.ErrorIs(t, err, payment.ErrTimeout)
}
