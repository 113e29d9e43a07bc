package http

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type categoryForm struct {
	ID     core.ID
	Values url.Values
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	s.render(w, r, http.StatusOK, "categories.html", page{Title: "Categories", Active: "categories", Data: cats})
}

// handleAPICategories lists categories by name, case-insensitively.
func (s *Server) handleAPICategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	sort.SliceStable(cats, func(i, j int) bool {
		return strings.ToLower(cats[i].Name) < strings.ToLower(cats[j].Name)
	})
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, newCategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) renderCategoryForm(w http.ResponseWriter, r *http.Request, status int, form categoryForm, formErr error) {
	p := page{Title: "New category", Active: "categories", Data: form}
	if !form.ID.IsZero() {
		p.Title = "Edit category"
	}
	if formErr != nil {
		p.Error = formErr.Error()
	}
	s.render(w, r, status, "category_form.html", p)
}

func (s *Server) handleNewCategory(w http.ResponseWriter, r *http.Request) {
	s.renderCategoryForm(w, r, http.StatusOK, categoryForm{Values: url.Values{"color": {"#3b82f6"}}}, nil)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	in, err := parseCategoryForm(r)
	if err == nil {
		var c core.Category
		if c, err = s.ledger.CreateCategory(r.Context(), in); err == nil {
			s.changed(r.Context(), log.OpCreate, "category", c.ID.String())
			redirect(w, r, "/categories", "Category created")
			return
		}
	}
	if status := statusFor(err); status == http.StatusUnprocessableEntity {
		s.renderCategoryForm(w, r, status, categoryForm{Values: r.PostForm}, err)
		return
	}
	s.fail(w, r, log.OpCreate, err)
}

func (s *Server) handleEditCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	c, err := s.ledger.Category(r.Context(), id)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	values := url.Values{"name": {c.Name}, "description": {c.Description}, "color": {c.Color}}
	s.renderCategoryForm(w, r, http.StatusOK, categoryForm{ID: id, Values: values}, nil)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	in, err := parseCategoryForm(r)
	if err == nil {
		if _, err = s.ledger.UpdateCategory(r.Context(), id, in); err == nil {
			s.changed(r.Context(), log.OpUpdate, "category", id.String())
			redirect(w, r, "/categories", "Category updated")
			return
		}
	}
	if status := statusFor(err); status == http.StatusUnprocessableEntity {
		s.renderCategoryForm(w, r, status, categoryForm{ID: id, Values: r.PostForm}, err)
		return
	}
	s.fail(w, r, log.OpUpdate, err)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.ledger.DeleteCategory(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	s.changed(r.Context(), log.OpDelete, "category", id.String())
	redirect(w, r, "/categories", "Category deleted")
}
