package api

import (
	"net/http"
	"strconv"
	"time"

	apperrors "parkspot/internal/errors"
	"parkspot/internal/service"
)

type SearchHandler struct {
	Service *service.SearchService
}

func NewSearchHandler(svc *service.SearchService) *SearchHandler {
	return &SearchHandler{Service: svc}
}

// SearchSpots handles GET /api/search: spots available around a point
// for a time window.
func (h *SearchHandler) SearchSpots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := parseFloat(q.Get("lat"), "lat")
	if err != nil {
		writeError(w, err)
		return
	}
	lng, err := parseFloat(q.Get("lng"), "lng")
	if err != nil {
		writeError(w, err)
		return
	}
	start, err := parseTime(q.Get("start_time"), "start_time")
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseTime(q.Get("end_time"), "end_time")
	if err != nil {
		writeError(w, err)
		return
	}
	radius := 10.0
	if raw := q.Get("radius"); raw != "" {
		if radius, err = parseFloat(raw, "radius"); err != nil {
			writeError(w, err)
			return
		}
	}

	filters, err := parseListingFilters(r)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := h.Service.Search(lat, lng, radius, start, end, filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// NearbySpots handles GET /api/nearby: no time window, live capacity.
func (h *SearchHandler) NearbySpots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := parseFloat(q.Get("latitude"), "latitude")
	if err != nil {
		writeError(w, err)
		return
	}
	lng, err := parseFloat(q.Get("longitude"), "longitude")
	if err != nil {
		writeError(w, err)
		return
	}
	radius := 5.0
	if raw := q.Get("radius"); raw != "" {
		if radius, err = parseFloat(raw, "radius"); err != nil {
			writeError(w, err)
			return
		}
	}
	limit := 10
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperrors.Validation("limit must be an integer"))
			return
		}
	}

	resp, err := h.Service.Nearby(lat, lng, radius, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseListingFilters(r *http.Request) (service.SearchFilters, error) {
	q := r.URL.Query()
	var filters service.SearchFilters

	if raw := q.Get("min_price"); raw != "" {
		v, err := parseFloat(raw, "min_price")
		if err != nil {
			return filters, err
		}
		filters.MinPrice = &v
	}
	if raw := q.Get("max_price"); raw != "" {
		v, err := parseFloat(raw, "max_price")
		if err != nil {
			return filters, err
		}
		filters.MaxPrice = &v
	}
	filters.SpotType = q.Get("spot_type")
	filters.Availability = q.Get("availability")
	return filters, nil
}

func parseFloat(raw, name string) (float64, error) {
	if raw == "" {
		return 0, apperrors.Validation(name + " parameter is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.Validation(name + " must be a number")
	}
	return v, nil
}

func parseTime(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperrors.Validation(name + " parameter is required")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.Validation(name + " must be RFC3339 formatted")
	}
	return t, nil
}
