package http

import (
	"net/http"

	"splitsmart/internal/core"
	"splitsmart/internal/store"
)

type createTripRequest struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	StartDate   core.Date     `json:"startDate"`
	EndDate     core.Date     `json:"endDate"`
	CreatedBy   string        `json:"createdBy"`
	Members     []core.Member `json:"members"`
}

func (req createTripRequest) trip() core.Trip {
	t := core.Trip{
		ID:          sanitizeInput(req.ID),
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   sanitizeInput(req.CreatedBy),
	}
	for _, m := range req.Members {
		t.Members = append(t.Members, core.Member{
			ID:    sanitizeInput(m.ID),
			Name:  sanitizeInput(m.Name),
			Email: sanitizeInput(m.Email),
		})
	}
	return t
}

type inviteRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type inviteResponse struct {
	Trip   core.Trip   `json:"trip"`
	Member core.Member `json:"member"`
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	trip, err := s.trips.CreateTrip(r.Context(), req.trip())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/trips/"+trip.ID)
	writeJSON(w, http.StatusCreated, trip)
}

// handleListTrips lists all trips, or only those a user belongs to when
// ?user= is given.
func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	if user := sanitizeInput(r.URL.Query().Get("user")); user != "" {
		writeJSON(w, http.StatusOK, s.trips.TripsByUser(user))
		return
	}
	writeJSON(w, http.StatusOK, s.trips.Trips())
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.Trip(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	var d store.TripDetails
	if err := decodeJSON(w, r, &d); err != nil {
		writeBadRequest(w, err)
		return
	}
	if d.Name != nil {
		name := sanitizeInput(*d.Name)
		d.Name = &name
	}
	if d.Description != nil {
		desc := sanitizeInput(*d.Description)
		d.Description = &desc
	}
	trip, err := s.trips.UpdateTrip(r.Context(), r.PathValue("id"), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	if _, err := s.trips.DeleteTrip(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInviteMember(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	m := core.Member{
		ID:    sanitizeInput(req.ID),
		Name:  sanitizeInput(req.Name),
		Email: sanitizeInput(req.Email),
	}
	trip, member, err := s.trips.InviteMember(r.Context(), r.PathValue("id"), actorID(r), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inviteResponse{Trip: trip, Member: member})
}

func (s *Server) handleSelectTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.SelectTrip(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleCurrentTrip(w http.ResponseWriter, r *http.Request) {
	trip, ok := s.trips.CurrentTrip()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no current trip"})
		return
	}
	writeJSON(w, http.StatusOK, trip)
}
