package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"/":                        "/",
		"":                         "/",
		"/healthz":                 "/healthz",
		"/menu":                    "/menu",
		"/orders":                  "/orders",
		"/orders/abc123":           "/orders/:order",
		"/carts":                   "/carts",
		"/carts/sess-1":            "/carts/:session",
		"/carts/sess-1/actions":    "/carts/:session/actions",
		"/carts/sess-1/checkout":   "/carts/:session/checkout",
		"/carts/x/checkout/submit": "/carts/:session/checkout/submit",
	}
	for raw, want := range cases {
		if got := canonicalPath(raw); got != want {
			t.Errorf("canonicalPath(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestInstrumentHandlerPassesThrough(t *testing.T) {
	wrapped := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/menu", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status not preserved: %d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Fatalf("body not preserved: %q", rec.Body.String())
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics endpoint returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "storefront_http_inflight_requests") {
		t.Fatalf("exposition missing application collectors:\n%s", rec.Body.String())
	}
}
