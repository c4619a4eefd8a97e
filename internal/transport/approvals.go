package transport

import (
	"net/http"

	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/go-chi/chi/v5"
)

type createApprovalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	RequesterID string `json:"requesterId"`
}

type decideApprovalRequest struct {
	DecidedBy string `json:"decidedBy"`
	Reason    string `json:"reason"`
}

func (s *Server) listApprovals(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts := approval.ListOptions{Limit: limit, Offset: offset}
	if v := r.URL.Query().Get("status"); v != "" {
		st := approval.Status(v)
		opts.Status = &st
	}

	items, err := s.svc.Approvals.List(r.Context(), tenant(r), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items))
}

func (s *Server) createApproval(w http.ResponseWriter, r *http.Request) {
	var req createApprovalRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := s.svc.Approvals.Create(r.Context(), tenant(r), approval.CreateRequest{
		Title:       req.Title,
		Description: req.Description,
		RequesterID: req.RequesterID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) getApproval(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Approvals.Get(r.Context(), tenant(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) approveApproval(w http.ResponseWriter, r *http.Request) {
	var req decideApprovalRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := s.svc.Approvals.Approve(r.Context(), tenant(r), chi.URLParam(r, "id"), req.DecidedBy)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) rejectApproval(w http.ResponseWriter, r *http.Request) {
	var req decideApprovalRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := s.svc.Approvals.Reject(r.Context(), tenant(r), chi.URLParam(r, "id"), req.DecidedBy, req.Reason)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
