package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	"kabraji/internal/domain"
	"kabraji/internal/reporting"
	"kabraji/internal/service"
	"kabraji/internal/store"
)

const queryDateLayout = "2006-01-02"

type Options struct {
	AllowedOrigin string
	// RateLimit is the number of requests allowed per client IP per minute.
	RateLimit int
	Logger    log.FieldLogger
}

type API struct {
	service       *service.Service
	allowedOrigin string
	rateLimit     int
	logger        log.FieldLogger
}

func New(svc *service.Service, opts Options) *API {
	if opts.RateLimit < 1 {
		opts.RateLimit = 300
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	return &API{
		service:       svc,
		allowedOrigin: opts.AllowedOrigin,
		rateLimit:     opts.RateLimit,
		logger:        opts.Logger.WithField("component", "httpapi"),
	}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		a.requestID,
		a.requestLogger,
		middleware.Recoverer,
		secureHeaders().Handler,
		a.cors,
		httprate.Limit(a.rateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
		limitBody,
	)

	r.Get("/healthz", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", a.handleListProducts)
		r.Post("/products", a.handleCreateProduct)
		r.Post("/products/defaults", a.handleSeedProducts)
		r.Get("/products/{id}", a.handleGetProduct)
		r.Put("/products/{id}", a.handleUpdateProduct)
		r.Delete("/products/{id}", a.handleDeleteProduct)

		r.Get("/customers", a.handleListCustomers)
		r.Post("/customers", a.handleCreateCustomer)
		r.Get("/customers/{id}", a.handleGetCustomer)
		r.Delete("/customers/{id}", a.handleDeleteCustomer)

		r.Get("/cart", a.handleGetCart)
		r.Delete("/cart", a.handleClearCart)
		r.Post("/cart/lines", a.handleAddCartLine)
		r.Delete("/cart/lines/{index}", a.handleRemoveCartLine)
		r.Post("/checkout", a.handleCheckout)

		r.Get("/orders", a.handleListOrders)
		r.Get("/orders/{id}", a.handleGetOrder)
		r.Patch("/orders/{id}/status", a.handleSetOrderStatus)
		r.Get("/orders/{id}/invoice", a.handleInvoice)

		r.Get("/reports/sales", a.handleSalesReport)
		r.Get("/dashboard", a.handleDashboard)
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"products": a.service.ListProducts()})
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := a.service.AddProduct(r.Context(), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (a *API) handleSeedProducts(w http.ResponseWriter, r *http.Request) {
	seeded, err := a.service.InitializeDefaults(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"seeded": seeded})
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := a.service.GetProduct(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := a.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"customers": a.service.ListCustomers()})
}

func (a *API) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.CustomerInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	customer, err := a.service.AddCustomer(r.Context(), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"customer": customer})
}

func (a *API) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := a.service.GetCustomer(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
}

func (a *API) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cart": a.service.Cart()})
}

func (a *API) handleClearCart(w http.ResponseWriter, r *http.Request) {
	a.service.ClearCart()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAddCartLine(w http.ResponseWriter, r *http.Request) {
	var req domain.CartLineInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	line, err := a.service.AddToCart(req)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"line": line, "cart": a.service.Cart()})
}

func (a *API) handleRemoveCartLine(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("cart line index must be a number"))
		return
	}
	if err := a.service.RemoveFromCart(index); err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cart": a.service.Cart()})
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customer_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	receipt, err := a.service.Checkout(r.Context(), strings.TrimSpace(req.CustomerID))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"orders": a.service.ListOrders()})
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.GetOrder(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (a *API) handleSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	order, err := a.service.SetOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (a *API) handleInvoice(w http.ResponseWriter, r *http.Request) {
	text, err := a.service.ReprintInvoice(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeText(w, http.StatusOK, text)
}

// handleSalesReport serves JSON by default and the printable document for format=text.
func (a *API) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	report, err := a.service.Report(r.Context(), period)
	if err != nil {
		a.fail(w, err)
		return
	}
	if strings.EqualFold(r.URL.Query().Get("format"), "text") {
		writeText(w, http.StatusOK, reporting.RenderText(report))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report})
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"dashboard": a.service.Dashboard()})
}

func parsePeriod(r *http.Request) (domain.ReportPeriod, error) {
	var period domain.ReportPeriod
	for _, bound := range []struct {
		key  string
		dest **time.Time
	}{{"from", &period.From}, {"to", &period.To}} {
		raw := strings.TrimSpace(r.URL.Query().Get(bound.key))
		if raw == "" {
			continue
		}
		day, err := time.Parse(queryDateLayout, raw)
		if err != nil {
			return domain.ReportPeriod{}, errors.New(bound.key + " must be a date like 2024-03-31")
		}
		*bound.dest = &day
	}
	return period, nil
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidArgument),
		errors.Is(err, store.ErrEmptyCart),
		errors.Is(err, store.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateKey),
		errors.Is(err, store.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		a.logger.WithError(err).Error("request failed")
	}
	writeError(w, status, err)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic; the cause is logged by the caller.
	msg := err.Error()
	if status >= 500 {
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
