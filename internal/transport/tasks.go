package transport

import (
	"net/http"
	"time"

	"github.com/ganot/huddle/internal/domain/task"
	"github.com/go-chi/chi/v5"
)

type createTaskRequest struct {
	Title      string     `json:"title"`
	AssigneeID *string    `json:"assigneeId"`
	DueAt      *time.Time `json:"dueAt"`
}

type updateTaskRequest struct {
	Title      *string    `json:"title"`
	Status     *string    `json:"status"`
	AssigneeID *string    `json:"assigneeId"`
	DueAt      *time.Time `json:"dueAt"`
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
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
	opts := task.ListOptions{Limit: limit, Offset: offset}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		st := task.Status(v)
		opts.Status = &st
	}
	if v := q.Get("assigneeId"); v != "" {
		opts.AssigneeID = &v
	}

	items, err := s.svc.Tasks.List(r.Context(), tenant(r), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items))
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.svc.Tasks.Create(r.Context(), tenant(r), task.CreateRequest{
		Title:      req.Title,
		AssigneeID: req.AssigneeID,
		DueAt:      req.DueAt,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Tasks.Get(r.Context(), tenant(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	update := task.UpdateRequest{
		Title:      req.Title,
		AssigneeID: req.AssigneeID,
		DueAt:      req.DueAt,
	}
	if req.Status != nil {
		st := task.Status(*req.Status)
		update.Status = &st
	}

	t, err := s.svc.Tasks.Update(r.Context(), tenant(r), chi.URLParam(r, "id"), update)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
