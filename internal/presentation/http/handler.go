package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-orders/internal/application"
	appCustomer "github.com/Zhima-Mochi/minishop-orders/internal/application/customer"
	appOrder "github.com/Zhima-Mochi/minishop-orders/internal/application/order"
	appProduct "github.com/Zhima-Mochi/minishop-orders/internal/application/product"
	domainCustomer "github.com/Zhima-Mochi/minishop-orders/internal/domain/customer"
	domainOrder "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	domainProduct "github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability/logctx"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
)

const (
	componentHTTPHandler = "http_server"
	maxBodyBytes         = 1 << 20
)

// UseCases are the operations exposed over HTTP.
type UseCases struct {
	CreateCustomer application.UseCase[appCustomer.CreateCustomerInput, *domainCustomer.Customer]
	CreateProduct  application.UseCase[appProduct.CreateProductInput, *domainProduct.Product]
	CreateOrder    application.UseCase[appOrder.CreateOrderInput, *domainOrder.Order]
	FindOrder      application.UseCase[string, *domainOrder.Order]
}

type Handler struct {
	uc      UseCases
	metrics http.Handler
	log     observability.Logger

	reqCounter   observability.Counter   // http_requests_total{method,route,status}
	durHistogram observability.Histogram // http_request_duration_seconds{method,route,status}
}

// NewHandler builds the HTTP surface. metrics, when non-nil, is served on /metrics.
func NewHandler(uc UseCases, metrics http.Handler, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		uc:           uc,
		metrics:      metrics,
		log:          tel.Logger().With(observability.F("component", componentHTTPHandler)),
		reqCounter:   tel.Metrics().Counter(observability.MHTTPRequests),
		durHistogram: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	h.handle(r, http.MethodGet, "/health", h.handleHealth)
	h.handle(r, http.MethodPost, "/customers", h.handleCreateCustomer)
	h.handle(r, http.MethodPost, "/products", h.handleCreateProduct)
	h.handle(r, http.MethodPost, "/orders", h.handleCreateOrder)
	h.handle(r, http.MethodGet, "/orders/{id}", h.handleFindOrder)

	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}
	return r
}

// handle wires a route as Trace -> request logger -> metrics -> access log -> handler.
func (h *Handler) handle(r chi.Router, method, pattern string, fn http.HandlerFunc) {
	wrapped := withTrace(
		ObservabilityMiddleware(h.log)(
			h.withHTTPMetrics(
				h.withAccessLog(fn),
			),
		),
	)
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		wrapped.ServeHTTP(w, req.WithContext(contextWithRoute(req.Context(), pattern)))
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type createCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type customerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toCustomerResponse(c domainCustomer.Customer) customerResponse {
	return customerResponse{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: c.CreatedAt}
}

func (h *Handler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	c, err := h.uc.CreateCustomer.Execute(r.Context(), appCustomer.CreateCustomerInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerResponse(*c))
}

type createProductRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type productResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	p, err := h.uc.CreateProduct.Execute(r.Context(), appProduct.CreateProductInput{
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price.StringFixed(2),
		Quantity:  p.Quantity,
		CreatedAt: p.CreatedAt,
	})
}

type orderLineRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type createOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	Products   []orderLineRequest `json:"products"`
}

type orderLineResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	Customer  customerResponse    `json:"customer"`
	Products  []orderLineResponse `json:"products"`
	Total     string              `json:"total"`
	CreatedAt time.Time           `json:"created_at"`
}

func toOrderResponse(o *domainOrder.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineResponse{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price.StringFixed(2),
		})
	}
	return orderResponse{
		ID:        o.ID,
		Customer:  toCustomerResponse(o.Customer),
		Products:  lines,
		Total:     o.Total().StringFixed(2),
		CreatedAt: o.CreatedAt,
	}
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	lines := make([]appOrder.RequestedLine, 0, len(req.Products))
	for _, p := range req.Products {
		lines = append(lines, appOrder.RequestedLine{ProductID: p.ID, Quantity: p.Quantity})
	}

	o, err := h.uc.CreateOrder.Execute(r.Context(), appOrder.CreateOrderInput{
		CustomerID: req.CustomerID,
		Products:   lines,
	})
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) handleFindOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.uc.FindOrder.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error      string   `json:"error"`
	Message    string   `json:"message"`
	ProductIDs []string `json:"product_ids,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: err.Error()})
}

// writeDomainError maps use case errors onto status codes. Unclassified errors are
// logged and answered with a generic 500.
func (h *Handler) writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var orderErr *appOrder.Error
	switch {
	case errors.As(err, &orderErr):
		status := http.StatusInternalServerError
		switch orderErr.Kind {
		case appOrder.KindInvalidRequest:
			status = http.StatusBadRequest
		case appOrder.KindNotFound:
			status = http.StatusNotFound
		case appOrder.KindInsufficientStock:
			status = http.StatusConflict
		}
		writeJSON(w, status, errorResponse{
			Error:      orderErr.Kind.String(),
			Message:    orderErr.Message,
			ProductIDs: orderErr.ProductIDs,
		})
	case errors.Is(err, domainCustomer.ErrEmailTaken),
		errors.Is(err, domainProduct.ErrNameTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "conflict", Message: err.Error()})
	case errors.Is(err, domainCustomer.ErrInvalidName),
		errors.Is(err, domainCustomer.ErrInvalidEmail),
		errors.Is(err, domainProduct.ErrInvalidName),
		errors.Is(err, domainProduct.ErrInvalidPrice),
		errors.Is(err, domainProduct.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: err.Error()})
	default:
		logctx.FromOr(ctx, h.log).Error("http_internal_error", observability.F("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal server error"})
	}
}
