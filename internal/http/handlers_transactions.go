package http

import (
	"net/http"
	"net/url"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type transactionRow struct {
	core.Transaction
	Category string
	Color    string
}

type transactionList struct {
	Rows  []transactionRow
	Kind  string
	Month string
}

type transactionForm struct {
	ID         core.ID
	Values     url.Values
	Categories []core.Category
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r, s.loc)
	txs, err := s.ledger.Transactions(r.Context(), filter)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	byID := make(map[core.ID]core.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	view := transactionList{Kind: r.URL.Query().Get("kind"), Month: r.URL.Query().Get("month")}
	for _, t := range txs {
		row := transactionRow{Transaction: t}
		if c, ok := byID[t.CategoryID]; ok {
			row.Category, row.Color = c.Name, c.Color
		}
		view.Rows = append(view.Rows, row)
	}
	s.render(w, r, http.StatusOK, "transactions.html", page{Title: "Transactions", Active: "transactions", Data: view})
}

func transactionValues(t core.Transaction, loc *time.Location) url.Values {
	kind := kindIncome
	if t.IsExpense() {
		kind = kindExpense
	}
	return url.Values{
		"description": {t.Description},
		"amount":      {t.Amount.Abs().StringFixed(2)},
		"kind":        {kind},
		"date":        {t.Date.In(loc).Format(dateInput)},
		"category_id": {t.CategoryID.String()},
		"notes":       {t.Notes},
	}
}

func (s *Server) renderTransactionForm(w http.ResponseWriter, r *http.Request, status int, form transactionForm, formErr error) {
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	form.Categories = cats
	p := page{Title: "New transaction", Active: "transactions", Data: form}
	if !form.ID.IsZero() {
		p.Title = "Edit transaction"
	}
	if formErr != nil {
		p.Error = formErr.Error()
	}
	s.render(w, r, status, "transaction_form.html", p)
}

func (s *Server) handleNewTransaction(w http.ResponseWriter, r *http.Request) {
	values := url.Values{
		"kind": {kindExpense},
		"date": {s.currentTime().Format(dateInput)},
	}
	s.renderTransactionForm(w, r, http.StatusOK, transactionForm{Values: values}, nil)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in, err := parseTransactionForm(r, s.loc)
	if err == nil {
		var t core.Transaction
		if t, err = s.ledger.CreateTransaction(r.Context(), in); err == nil {
			s.changed(r.Context(), log.OpCreate, "transaction", t.ID.String())
			redirect(w, r, "/transactions", "Transaction added")
			return
		}
	}
	if status := statusFor(err); status == http.StatusUnprocessableEntity {
		s.renderTransactionForm(w, r, status, transactionForm{Values: r.PostForm}, err)
		return
	}
	s.fail(w, r, log.OpCreate, err)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	t, err := s.ledger.Transaction(r.Context(), id)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	s.renderTransactionForm(w, r, http.StatusOK, transactionForm{ID: id, Values: transactionValues(t, s.loc)}, nil)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	in, err := parseTransactionForm(r, s.loc)
	if err == nil {
		if _, err = s.ledger.UpdateTransaction(r.Context(), id, in); err == nil {
			s.changed(r.Context(), log.OpUpdate, "transaction", id.String())
			redirect(w, r, "/transactions", "Transaction updated")
			return
		}
	}
	if status := statusFor(err); status == http.StatusUnprocessableEntity {
		s.renderTransactionForm(w, r, status, transactionForm{ID: id, Values: r.PostForm}, err)
		return
	}
	s.fail(w, r, log.OpUpdate, err)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.ledger.DeleteTransaction(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.changed(r.Context(), log.OpDelete, "transaction", id.String())
	redirect(w, r, "/transactions", "Transaction deleted")
}
