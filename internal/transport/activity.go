package transport

import (
	"encoding/json"
	"net/http"

	"github.com/ganot/huddle/internal/domain/activity"
)

type publishActivityRequest struct {
	Type        string          `json:"type"`
	Source      string          `json:"source"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data"`
}

func (s *Server) listActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts := activity.ListOptions{
		Limit: limit,
		Since: r.URL.Query().Get("since"),
	}
	if v := r.URL.Query().Get("type"); v != "" {
		t := activity.Type(v)
		opts.Type = &t
	}

	events, err := s.svc.Activity.Recent(r.Context(), tenant(r), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(events))
}

func (s *Server) publishActivity(w http.ResponseWriter, r *http.Request) {
	var req publishActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	in := activity.Input{
		Type:        activity.Type(req.Type),
		Source:      req.Source,
		Title:       req.Title,
		Description: req.Description,
	}
	if len(req.Data) > 0 {
		in.Payload = req.Data
	}

	event, err := s.svc.Activity.Publish(r.Context(), tenant(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}
