package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"parkspot/internal/auth"
	apperrors "parkspot/internal/errors"
	"parkspot/internal/service"
)

type SpotHandler struct {
	Service *service.SpotService
}

func NewSpotHandler(svc *service.SpotService) *SpotHandler {
	return &SpotHandler{Service: svc}
}

func (h *SpotHandler) CreateSpot(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	var req SpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}
	resp, err := h.Service.Create(userID, toSpotInput(req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *SpotHandler) ListSpots(w http.ResponseWriter, r *http.Request) {
	filters, err := parseListingFilters(r)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.Service.List(filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SpotHandler) GetSpot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.Service.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SpotHandler) UpdateSpot(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req SpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}
	resp, err := h.Service.Update(userID, id, toSpotInput(req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SpotHandler) DeactivateSpot(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Service.Deactivate(userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Parking spot deactivated"})
}

func (h *SpotHandler) SpotAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, apperrors.Validation("date parameter is required"))
		return
	}
	resp, err := h.Service.Availability(id, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SpotHandler) ListMySpots(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	resp, err := h.Service.ListMine(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SpotHandler) MySpotBookings(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.Service.SpotBookings(userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func toSpotInput(req SpotRequest) service.SpotInput {
	return service.SpotInput{
		Title:        req.Title,
		Description:  req.Description,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		SpotType:     req.SpotType,
		PricePerHour: req.PricePerHour,
		TotalUnits:   req.TotalUnits,
		Availability: req.Availability,
		Features:     req.Features,
		Instructions: req.Instructions,
	}
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid id")
	}
	return id, nil
}
