package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/ebookshop/internal/service"
)

func TestClient_GetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/payments/123", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 123,
			"status": "approved",
			"status_detail": "accredited",
			"external_reference": "ORD1",
			"payer": {"email": "payer@x.com"}
		}`))
	}))
	defer srv.Close()

	client := NewClient(zap.NewNop(), Config{
		AccessToken: "test-token",
		BaseURL:     srv.URL,
	})

	payment, err := client.GetPayment(context.Background(), "123")

	require.NoError(t, err)
	require.Equal(t, service.PaymentRecord{
		ID:                "123",
		Status:            "approved",
		StatusDetail:      "accredited",
		ExternalReference: "ORD1",
		PayerEmail:        "payer@x.com",
	}, payment)
}

func TestClient_GetPayment_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"payment not found"}`))
	}))
	defer srv.Close()

	client := NewClient(zap.NewNop(), Config{AccessToken: "test-token", BaseURL: srv.URL})

	_, err := client.GetPayment(context.Background(), "999")

	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestClient_CreatePreference(t *testing.T) {
	var captured preferenceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/preferences", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"id": "pref-1",
			"init_point": "https://mp/init",
			"sandbox_init_point": "https://mp/sandbox"
		}`))
	}))
	defer srv.Close()

	client := NewClient(zap.NewNop(), Config{
		AccessToken:     "test-token",
		BaseURL:         srv.URL,
		NotificationURL: "https://shop.example/webhook",
		BackURLBase:     "https://shop.example",
		ProductTitle:    "E-book",
		UnitPrice:       9.99,
	})

	preference, err := client.CreatePreference(context.Background(), service.CreatePreferenceInput{
		BuyerEmail:        "a@x.com",
		ExternalReference: "ORD1",
	})

	require.NoError(t, err)
	require.Equal(t, "pref-1", preference.ID)
	require.Equal(t, "https://mp/init", preference.InitPoint)
	require.Equal(t, "https://mp/sandbox", preference.SandboxInitPoint)

	require.Len(t, captured.Items, 1)
	require.Equal(t, "E-book", captured.Items[0].Title)
	require.Equal(t, 1, captured.Items[0].Quantity)
	require.Equal(t, 9.99, captured.Items[0].UnitPrice)
	require.Equal(t, "a@x.com", captured.Payer.Email)
	require.Equal(t, "ORD1", captured.ExternalReference)
	require.Equal(t, "approved", captured.AutoReturn)
	require.Equal(t, "https://shop.example/webhook", captured.NotificationURL)
	require.Equal(t, "https://shop.example/feedback/success", captured.BackURLs.Success)
	require.Equal(t, "https://shop.example/feedback/failure", captured.BackURLs.Failure)
	require.Equal(t, "https://shop.example/feedback/pending", captured.BackURLs.Pending)
}

func TestClient_CreatePreference_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid access token"}`))
	}))
	defer srv.Close()

	client := NewClient(zap.NewNop(), Config{AccessToken: "bad", BaseURL: srv.URL})

	_, err := client.CreatePreference(context.Background(), service.CreatePreferenceInput{
		BuyerEmail:        "a@x.com",
		ExternalReference: "ORD1",
	})

	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
}
