package http

import (
	"net/http"
	"net/url"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

type budgetList struct {
	Statuses []aggregate.BudgetStatus
	Alerts   []aggregate.BudgetAlert
}

type budgetForm struct {
	ID         core.ID
	Values     url.Values
	Categories []core.Category
}

// handleListBudgets shows every budget with this month's spend and progress.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	s.render(w, r, http.StatusOK, "budgets.html", page{
		Title:  "Budgets",
		Active: "budgets",
		Data:   budgetList{Statuses: d.BudgetStatuses, Alerts: d.Alerts},
	})
}

func (s *Server) renderBudgetForm(w http.ResponseWriter, r *http.Request, status int, form budgetForm, formErr error) {
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	form.Categories = cats
	p := page{Title: "New budget", Active: "budgets", Data: form}
	if !form.ID.IsZero() {
		p.Title = "Edit budget"
	}
	if formErr != nil {
		p.Error = formErr.Error()
	}
	s.render(w, r, status, "budget_form.html", p)
}

func (s *Server) handleNewBudget(w http.ResponseWriter, r *http.Request) {
	s.renderBudgetForm(w, r, http.StatusOK, budgetForm{Values: url.Values{}}, nil)
}

// Duplicate budgets re-render the form with 409 so the user can pick
// another category.
func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	in, err := parseBudgetForm(r)
	if err == nil {
		var b core.Budget
		if b, err = s.ledger.CreateBudget(r.Context(), in); err == nil {
			s.changed(r.Context(), log.OpCreate, "budget", b.ID.String())
			redirect(w, r, "/budgets", "Budget created")
			return
		}
	}
	switch status := statusFor(err); status {
	case http.StatusUnprocessableEntity, http.StatusConflict:
		s.renderBudgetForm(w, r, status, budgetForm{Values: r.PostForm}, err)
	default:
		s.fail(w, r, log.OpCreate, err)
	}
}

func (s *Server) handleEditBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	b, err := s.ledger.Budget(r.Context(), id)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	values := url.Values{
		"category_id": {b.CategoryID.String()},
		"amount":      {b.Amount.StringFixed(2)},
		"notes":       {b.Notes},
	}
	s.renderBudgetForm(w, r, http.StatusOK, budgetForm{ID: id, Values: values}, nil)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	in, err := parseBudgetForm(r)
	if err == nil {
		if _, err = s.ledger.UpdateBudget(r.Context(), id, in); err == nil {
			s.changed(r.Context(), log.OpUpdate, "budget", id.String())
			redirect(w, r, "/budgets", "Budget updated")
			return
		}
	}
	switch status := statusFor(err); status {
	case http.StatusUnprocessableEntity, http.StatusConflict:
		s.renderBudgetForm(w, r, status, budgetForm{ID: id, Values: r.PostForm}, err)
	default:
		s.fail(w, r, log.OpUpdate, err)
	}
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.ledger.DeleteBudget(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.changed(r.Context(), log.OpDelete, "budget", id.String())
	redirect(w, r, "/budgets", "Budget deleted")
}
