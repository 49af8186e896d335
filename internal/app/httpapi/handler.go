// Package httpapi exposes the storefront core over a REST surface.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	app "github.com/mealbox/storefront/internal/app"
	"github.com/mealbox/storefront/internal/app/domain/cart"
	"github.com/mealbox/storefront/internal/app/metrics"
	checkoutsvc "github.com/mealbox/storefront/internal/app/services/checkout"
	"github.com/mealbox/storefront/internal/app/storage"
	"github.com/mealbox/storefront/internal/remotedb"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the core REST API. Every route except
// /metrics is instrumented with request counters and latency histograms.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.health)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/menu", h.menu)
	mux.HandleFunc("/menu/refresh", h.menuRefresh)
	mux.HandleFunc("/orders", h.orders)
	mux.HandleFunc("/orders/", h.orderByID)
	mux.HandleFunc("/carts/", h.cartResources)
	return metrics.InstrumentHandler(mux)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) menu(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errMethod(r))
		return
	}
	snap, err := h.app.Catalog.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) menuRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMethod(r))
		return
	}
	snap, err := h.app.Catalog.Refresh(r.Context())
	if err != nil {
		writeError(w, remoteStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) orders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errMethod(r))
		return
	}
	list, err := h.app.Checkout.Orders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) orderByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errMethod(r))
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/orders/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown resource %s", r.URL.Path))
		return
	}
	ord, err := h.app.Checkout.Order(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

// cartResources routes /carts/{sid}[/actions|/checkout[/submit]].
func (h *handler) cartResources(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/carts/")
	parts := strings.Split(rest, "/")
	sid := parts[0]
	if sid == "" {
		writeError(w, http.StatusNotFound, fmt.Errorf("cart session required"))
		return
	}

	switch {
	case len(parts) == 1:
		h.cartState(w, r, sid)
	case len(parts) == 2 && parts[1] == "actions":
		h.cartActions(w, r, sid)
	case len(parts) == 2 && parts[1] == "checkout":
		h.cartCheckout(w, r, sid)
	case len(parts) == 3 && parts[1] == "checkout" && parts[2] == "submit":
		h.cartSubmit(w, r, sid)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown resource %s", r.URL.Path))
	}
}

func (h *handler) cartState(w http.ResponseWriter, r *http.Request, sid string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errMethod(r))
		return
	}
	writeJSON(w, http.StatusOK, h.app.Carts.Current(r.Context(), sid))
}

func (h *handler) cartActions(w http.ResponseWriter, r *http.Request, sid string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMethod(r))
		return
	}
	var action cart.Action
	if err := decodeJSON(r.Body, &action); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if action.Type == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("action type required"))
		return
	}
	writeJSON(w, http.StatusOK, h.app.Carts.Dispatch(r.Context(), sid, action))
}

func (h *handler) cartCheckout(w http.ResponseWriter, r *http.Request, sid string) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.app.Checkout.Form(sid))

	case http.MethodPatch:
		var payload struct {
			Field string  `json:"field"`
			Value *string `json:"value"`
			Touch bool    `json:"touch"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if payload.Field == "" {
			writeError(w, http.StatusBadRequest, fmt.Errorf("field required"))
			return
		}

		snap := h.app.Checkout.Form(sid)
		if payload.Value != nil {
			snap = h.app.Checkout.SetField(sid, payload.Field, *payload.Value)
		}
		if payload.Touch {
			snap = h.app.Checkout.TouchField(sid, payload.Field)
		}
		writeJSON(w, http.StatusOK, snap)

	default:
		writeError(w, http.StatusMethodNotAllowed, errMethod(r))
	}
}

func (h *handler) cartSubmit(w http.ResponseWriter, r *http.Request, sid string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMethod(r))
		return
	}
	ord, err := h.app.Checkout.Submit(r.Context(), sid)
	if err != nil {
		switch {
		case errors.Is(err, checkoutsvc.ErrFormIncomplete):
			writeError(w, http.StatusUnprocessableEntity, err)
		case errors.Is(err, checkoutsvc.ErrSubmitInFlight):
			writeError(w, http.StatusConflict, err)
		default:
			writeError(w, remoteStatus(err), err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, ord)
}

// remoteStatus maps a remote backend failure to 502 and anything else to 500.
func remoteStatus(err error) int {
	var remoteErr *remotedb.RemoteError
	if errors.As(err, &remoteErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errMethod(r *http.Request) error {
	return fmt.Errorf("method %s not allowed", r.Method)
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
