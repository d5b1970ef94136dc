package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"howsitter/internal/app"
	"howsitter/internal/domain"
)

type bookingReq struct {
	PropertyID          string  `json:"propertyId" validate:"required"`
	StartDate           string  `json:"startDate" validate:"required"`
	EndDate             string  `json:"endDate" validate:"required"`
	Message             string  `json:"message"`
	HouseRules          *string `json:"houseRules"`
	SpecialInstructions *string `json:"specialInstructions"`
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	var req bookingReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}

	arr, err := h.Arrs.CreateBooking(r.Context(), claims, app.BookingInput{
		PropertyID:          req.PropertyID,
		StartDate:           start,
		EndDate:             end,
		Message:             req.Message,
		HouseRules:          req.HouseRules,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"arrangementId": arr.ID,
		"status":        arr.Status,
		"totalAmount":   arr.TotalAmount,
	})
}

func (h *Handlers) listArrangements(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	out, err := h.Arrs.ListForUser(r.Context(), claims)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"arrangements": out})
}

func (h *Handlers) updateArrangementStatus(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	err := h.Arrs.Transition(r.Context(), claims, chi.URLParam(r, "id"), domain.ArrangementStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Arrangement status updated", "status": req.Status})
}

// ---- messages ----

func (h *Handlers) listMessages(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	out, err := h.Msgs.List(r.Context(), claims, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

func (h *Handlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	var req struct {
		Message string `json:"message" validate:"required"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := h.Msgs.Send(r.Context(), claims, chi.URLParam(r, "id"), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
