package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/family-trip/internal/domain"
	"github.com/pkordes/family-trip/internal/normalize"
)

// reDateKey matches the keys of scheduleByDay and dayItems: "MM-DD" or
// "YYYY-MM-DD".
var reDateKey = regexp.MustCompile(`^(\d{4}-)?\d{2}-\d{2}$`)

type okResult struct {
	OK bool `json:"ok"`
}

// GetTrip handles GET /trip and GET /api/trip.
// The stored document is returned exactly as the last PUT wrote it.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	doc, err := s.trips.Get(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, messageBody{Message: msgNoTrip})
			return
		}
		s.writeInternal(w, r, "trip.get", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// PutTrip handles PUT /trip and PUT /api/trip: whole-document replace.
func (s *Server) PutTrip(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := s.trips.Put(r.Context(), body); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, msgInvalidJSON)
			return
		}
		s.writeInternal(w, r, "trip.put", err)
		return
	}
	writeJSON(w, http.StatusOK, okResult{OK: true})
}

// PatchTrip handles PATCH /trip and PATCH /api/trip. The body is a partial
// document merged field by field into the stored one; the merged record is
// returned.
func (s *Server) PatchTrip(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	rec, err := s.trips.Patch(r.Context(), body)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, msgInvalidJSON)
			return
		}
		s.writeInternal(w, r, "trip.patch", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetTripDay handles GET /api/trip/days/{date}.
func (s *Server) GetTripDay(w http.ResponseWriter, r *http.Request) {
	date, ok := bindDate(w, r)
	if !ok {
		return
	}
	day, err := s.trips.Day(r.Context(), date)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, messageBody{Message: "No schedule for " + date})
			return
		}
		s.writeInternal(w, r, "trip.day", err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// PutTripDay handles PUT /api/trip/days/{date}: replaces one day's schedule.
func (s *Server) PutTripDay(w http.ResponseWriter, r *http.Request) {
	date, ok := bindDate(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	// Loose decode, like every other write path: wrong-typed fields fall back
	// to defaults and null lists become empty.
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	saved, err := s.trips.PutDay(r.Context(), date, normalize.DaySchedule(doc))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeInternal(w, r, "trip.put_day", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// bindDate reads the {date} path parameter and checks it is a date key.
func bindDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	var date string
	err := runtime.BindStyledParameterWithOptions("simple", "date", chi.URLParam(r, "date"), &date,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format for parameter date: "+err.Error())
		return "", false
	}
	if !reDateKey.MatchString(date) {
		writeError(w, http.StatusBadRequest, "date must be MM-DD or YYYY-MM-DD")
		return "", false
	}
	return date, true
}

// readBody reads the whole request body, answering 413 when it is over the
// configured limit.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return nil, false
	}
	return body, true
}
