package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
	"github.com/balu-dk/go-purifier-cms/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Handler handles API requests
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new API handler
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		svc: svc,
	}
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	sendResponse(w, http.StatusOK, Response{Success: true, Message: "ok"})
}

// ListPlans returns all plans; ?active=true limits to active plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	plans, err := h.svc.ListPlans(r.Context(), activeOnly)
	if err != nil {
		sendError(w, err, "Failed to get plans")
		return
	}
	sendResponse(w, http.StatusOK, Response{Success: true, Data: plans})
}

// CreatePlan creates a plan
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePlanRequest
	if !decode(w, r, &req) {
		return
	}

	plan, err := h.svc.CreatePlan(r.Context(), req)
	if err != nil {
		sendError(w, err, "Failed to create plan")
		return
	}
	sendResponse(w, http.StatusCreated, Response{Success: true, Data: plan})
}

// GetPlan returns a specific plan
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, err, "Failed to get plan")
		return
	}
	sendResponse(w, http.StatusOK, Response{Success: true, Data: plan})
}

// UpdatePlan replaces a plan's terms
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req service.UpdatePlanRequest
	if !decode(w, r, &req) {
		return
	}

	plan, err := h.svc.UpdatePlan(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		sendError(w, err, "Failed to update plan")
		return
	}
	sendResponse(w, http.StatusOK, Response{Success: true, Data: plan})
}

// ListCustomers returns all customers
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		sendError(w, err, "Failed to get customers")
		return
	}
	sendResponse(w, http.StatusOK, Response{Success: true, Data: customers})
}

// RegisterCustomer registers a customer on a plan
func (h *Handler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterCustomerRequest
	if !decode(w, r, &req) {
		return
	}

	customer, err := h.svc.RegisterCustomer(r.Context(), req)
	if err != nil {
		sendError(w, err, "Failed to register customer")
		return
	}
	sendResponse(w, http.StatusCreated, Response{Success: true, Message: "Customer registered", Data: customer})
}

// GetCustomer returns a specific customer
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.svc.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, err, "Failed to get customer")
		return
	}
	sendResponse(w, http.StatusOK, Response{Success: true, Data: customer})
}

// GetCustomerStatus returns remaining days and liters of the current cycle
func (h *Handler) GetCustomerStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.CustomerStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, err, "Failed to get customer status")
		return
	}
	sendResponse(w, http.StatusOK, Response{Success: true, Data: status})
}

// Recharge starts a new cycle for a customer
func (h *Handler) Recharge(w http.ResponseWriter, r *http.Request) {
	var req service.RechargeRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.svc.Recharge(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		sendError(w, err, "Failed to recharge")
		return
	}
	sendResponse(w, http.StatusOK, Response{Success: true, Message: "Recharge applied", Data: result})
}

// ListRecharges returns a customer's recharge history
func (h *Handler) ListRecharges(w http.ResponseWriter, r *http.Request) {
	recharges, err := h.svc.ListRecharges(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, err, "Failed to get recharges")
		return
	}
	sendResponse(w, http.StatusOK, Response{Success: true, Data: recharges})
}

// ReportUsage applies a usage report addressed by customer
func (h *Handler) ReportUsage(w http.ResponseWriter, r *http.Request) {
	var req service.UsageRequest
	if !decode(w, r, &req) {
		return
	}

	customer, err := h.svc.ReportUsage(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		sendError(w, err, "Failed to record usage")
		return
	}
	sendResponse(w, http.StatusOK, Response{Success: true, Data: customer})
}

// ReportDeviceUsage applies a usage report addressed by device
func (h *Handler) ReportDeviceUsage(w http.ResponseWriter, r *http.Request) {
	var req service.UsageRequest
	if !decode(w, r, &req) {
		return
	}

	customer, err := h.svc.ReportDeviceUsage(r.Context(), chi.URLParam(r, "deviceId"), req)
	if err != nil {
		sendError(w, err, "Failed to record usage")
		return
	}
	sendResponse(w, http.StatusOK, Response{Success: true, Data: customer})
}

// ListExpiring returns customers whose cycle ends within ?within days,
// defaulting to the configured warning window
func (h *Handler) ListExpiring(w http.ResponseWriter, r *http.Request) {
	within := h.svc.WarningDays()
	if v := r.URL.Query().Get("within"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			sendErrorResponse(w, "within must be a number of days", http.StatusBadRequest, nil)
			return
		}
		within = n
	}

	statuses, err := h.svc.ListExpiring(r.Context(), within)
	if err != nil {
		sendError(w, err, "Failed to get expiring customers")
		return
	}
	sendResponse(w, http.StatusOK, Response{Success: true, Data: statuses})
}

// ListTickets returns tickets; ?customerId= filters by customer
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.ListTickets(r.Context(), r.URL.Query().Get("customerId"))
	if err != nil {
		sendError(w, err, "Failed to get tickets")
		return
	}
	sendResponse(w, http.StatusOK, Response{Success: true, Data: tickets})
}

// OpenTicket opens a service ticket
func (h *Handler) OpenTicket(w http.ResponseWriter, r *http.Request) {
	var req service.OpenTicketRequest
	if !decode(w, r, &req) {
		return
	}

	ticket, err := h.svc.OpenTicket(r.Context(), req)
	if err != nil {
		sendError(w, err, "Failed to open ticket")
		return
	}
	sendResponse(w, http.StatusCreated, Response{Success: true, Data: ticket})
}

// UpdateTicket changes a ticket's status
func (h *Handler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateTicketRequest
	if !decode(w, r, &req) {
		return
	}

	ticket, err := h.svc.UpdateTicketStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		sendError(w, err, "Failed to update ticket")
		return
	}
	sendResponse(w, http.StatusOK, Response{Success: true, Data: ticket})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		sendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	return true
}

// sendError renders a service error. Server-side failures are logged and
// shown with the fallback message only.
func sendError(w http.ResponseWriter, err error, fallback string) {
	status := ierr.HTTPStatusFromErr(err)
	details := ierr.Details(err)

	message := ierr.Hint(err)
	if status >= http.StatusInternalServerError || message == "" {
		message = fallback
	}

	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields(details)).Error(fallback)
		details = nil
	}
	sendErrorResponse(w, message, status, details)
}

// Helper functions to send responses
func sendResponse(w http.ResponseWriter, status int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

func sendErrorResponse(w http.ResponseWriter, message string, statusCode int, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if len(details) == 0 {
		details = nil
	}
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error:   message,
		Details: details,
	}); err != nil {
		logrus.WithError(err).Error("Failed to encode error response")
	}
}
