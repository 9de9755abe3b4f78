package billing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// newTestCheckout points a StripeCheckout at a local test server.
func newTestCheckout(t *testing.T, srv *httptest.Server) *StripeCheckout {
	t.Helper()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:        stripe.String(srv.URL),
		HTTPClient: srv.Client(),
	})
	api := &client.API{}
	api.Init("sk_test_fake", &stripe.Backends{API: backend})

	return &StripeCheckout{
		api:        api,
		successURL: "https://localhost/success",
		cancelURL:  "https://localhost/cancel",
	}
}

func TestNewStripeCheckout_RequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewStripeCheckout("", "https://s", "https://c"); err == nil {
		t.Fatal("expected error for empty API key")
	}
	if _, err := NewStripeCheckout("sk_test_123", "https://s", "https://c"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	t.Parallel()

	var gotForm string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		// Decode the form encoding so nested param names are readable.
		decoded, err := url.QueryUnescape(string(body))
		if err != nil {
			t.Errorf("unescape form body: %v", err)
		}
		gotForm = decoded

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "cs_test_abc"})
	}))
	defer srv.Close()

	checkout := newTestCheckout(t, srv)

	id, err := checkout.CreateCheckoutSession(context.Background(), 110)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if id != "cs_test_abc" {
		t.Errorf("session id = %q", id)
	}

	for _, want := range []string{
		"[unit_amount]=110",
		"mode=payment",
		"[currency]=usd",
		"[name]=Tokens & Images",
	} {
		if !strings.Contains(gotForm, want) {
			t.Errorf("request form should contain %q, got %q", want, gotForm)
		}
	}
}

func TestCreateCheckoutSession_ProviderError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Invalid API Key provided"},
		})
	}))
	defer srv.Close()

	checkout := newTestCheckout(t, srv)

	if _, err := checkout.CreateCheckoutSession(context.Background(), 100); err == nil {
		t.Fatal("expected error from provider")
	}
}
