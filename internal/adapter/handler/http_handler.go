package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inversoft/pos-checkout/internal/core/domain"
	"github.com/inversoft/pos-checkout/internal/core/service"
)

type HTTPHandler struct {
	sessions *service.SessionService
	checkout *service.CheckoutService
}

func NewHTTPHandler(sessions *service.SessionService, checkout *service.CheckoutService) *HTTPHandler {
	return &HTTPHandler{sessions: sessions, checkout: checkout}
}

// Register wires all routes onto the mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("GET /api/products", h.SearchProducts)
	mux.HandleFunc("GET /api/customers", h.SearchCustomers)

	mux.HandleFunc("POST /api/sessions", h.CreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.GetSession)
	mux.HandleFunc("POST /api/sessions/{id}/items", h.AddItem)
	mux.HandleFunc("PUT /api/sessions/{id}/items/{productID}", h.SetQuantity)
	mux.HandleFunc("DELETE /api/sessions/{id}/items/{productID}", h.RemoveItem)
	mux.HandleFunc("PUT /api/sessions/{id}/customer", h.SetCustomer)
	mux.HandleFunc("POST /api/sessions/{id}/customer/save", h.SaveCustomer)
	mux.HandleFunc("PUT /api/sessions/{id}/payment", h.SetPayment)
	mux.HandleFunc("POST /api/sessions/{id}/checkout", h.Checkout)
	mux.HandleFunc("POST /api/sessions/{id}/reset", h.ResetSession)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type setPaymentRequest struct {
	Method string `json:"method"`
}

type checkoutRequest struct {
	RequestID string `json:"request_id"`
}

// stockAlert mirrors the dismissible alert the sale screen renders on a
// stock conflict, including the data needed for the clamp-to-available
// remediation.
type stockAlert struct {
	Type           string `json:"type"`
	ProductName    string `json:"product_name"`
	AvailableStock int    `json:"available_stock"`
	RequestedQty   int    `json:"requested_quantity"`
	Message        string `json:"message"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Alert *stockAlert `json:"alert,omitempty"`
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.sessions.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.sessions.SearchCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *HTTPHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, h.sessions.Create())
}

func (h *HTTPHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.View(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	view, err := h.sessions.AddProduct(r.Context(), r.PathValue("id"), req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	view, err := h.sessions.SetQuantity(r.PathValue("id"), r.PathValue("productID"), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.RemoveItem(r.PathValue("id"), r.PathValue("productID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var customer domain.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	view, err := h.sessions.SetCustomer(r.PathValue("id"), customer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) SaveCustomer(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.SaveCustomer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	var req setPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	view, err := h.sessions.SetPaymentMethod(r.PathValue("id"), req.Method)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Checkout commits the sale and, on success, resets the session the way the
// sale screen clears itself once the success modal is shown.
func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RequestID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing request_id"})
		return
	}

	sessionID := r.PathValue("id")
	receipt, err := h.checkout.Checkout(r.Context(), sessionID, req.RequestID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.sessions.Reset(sessionID)
	writeJSON(w, http.StatusOK, receipt)
}

func (h *HTTPHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.Reset(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func writeError(w http.ResponseWriter, err error) {
	var conflict *domain.StockConflictError
	if errors.As(err, &conflict) {
		alert := &stockAlert{
			Type:           "warning",
			ProductName:    conflict.ProductName,
			AvailableStock: conflict.Available,
			RequestedQty:   conflict.Requested,
			Message:        "Requested quantity exceeds available stock.",
		}
		if errors.Is(err, domain.ErrOutOfStock) {
			alert.Type = "error"
			alert.Message = "Product \"" + conflict.ProductName + "\" is out of stock."
		}
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Alert: alert})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, domain.ErrLineNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrUnknownPaymentMethod):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrValidationIncomplete):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrStockChanged):
		status = http.StatusConflict
	case errors.Is(err, service.ErrPaymentDeclined):
		status = http.StatusPaymentRequired
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
