package http

import (
	"net/http"

	"splitsmart/internal/core"
)

type expenseRequest struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Amount      core.Money            `json:"amount"`
	PaidBy      string                `json:"paidBy"`
	SplitAmong  []string              `json:"splitAmong"`
	Shares      map[string]core.Money `json:"shares,omitempty"`
	Category    string                `json:"category"`
	Date        core.Date             `json:"date"`
	Description string                `json:"description"`
}

func (req expenseRequest) expense() core.Expense {
	e := core.Expense{
		ID:          sanitizeInput(req.ID),
		Title:       sanitizeInput(req.Title),
		Amount:      req.Amount,
		PaidBy:      sanitizeInput(req.PaidBy),
		Shares:      req.Shares,
		Category:    sanitizeInput(req.Category),
		Date:        req.Date,
		Description: sanitizeInput(req.Description),
	}
	for _, id := range req.SplitAmong {
		e.SplitAmong = append(e.SplitAmong, sanitizeInput(id))
	}
	return e
}

type expenseResponse struct {
	Trip    core.Trip    `json:"trip"`
	Expense core.Expense `json:"expense"`
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	trip, added, err := s.trips.AddExpense(r.Context(), r.PathValue("id"), actorID(r), req.expense())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseResponse{Trip: trip, Expense: added})
}

// handleUpdateExpense replaces an expense. The id in the path wins over any
// id in the body.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	e := req.expense()
	e.ID = r.PathValue("expenseID")
	trip, updated, err := s.trips.UpdateExpense(r.Context(), r.PathValue("id"), actorID(r), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseResponse{Trip: trip, Expense: updated})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.DeleteExpense(r.Context(), r.PathValue("id"), actorID(r), r.PathValue("expenseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}
