package transport

import (
	"net/http"

	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/go-chi/chi/v5"
)

type createConversationRequest struct {
	Channel    string  `json:"channel"`
	Subject    string  `json:"subject"`
	AssigneeID *string `json:"assigneeId"`
	Priority   string  `json:"priority"`
}

type updateConversationRequest struct {
	Subject     *string `json:"subject"`
	Status      *string `json:"status"`
	AssigneeID  *string `json:"assigneeId"`
	Priority    *string `json:"priority"`
	UnreadCount *int    `json:"unreadCount"`
}

type escalateRequest struct {
	Reason string `json:"reason"`
}

type addMessageRequest struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	opts, err := conversationListOptions(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.svc.Conversations.List(r.Context(), tenant(r), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items))
}

func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	conv, err := s.svc.Conversations.Create(r.Context(), tenant(r), conversation.CreateRequest{
		Channel:    conversation.Channel(req.Channel),
		Subject:    req.Subject,
		AssigneeID: req.AssigneeID,
		Priority:   conversation.Priority(req.Priority),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.svc.Conversations.Get(r.Context(), tenant(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) updateConversation(w http.ResponseWriter, r *http.Request) {
	var req updateConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	update := conversation.UpdateRequest{
		Subject:     req.Subject,
		AssigneeID:  req.AssigneeID,
		UnreadCount: req.UnreadCount,
	}
	if req.Status != nil {
		st := conversation.Status(*req.Status)
		update.Status = &st
	}
	if req.Priority != nil {
		p := conversation.Priority(*req.Priority)
		update.Priority = &p
	}

	conv, err := s.svc.Conversations.Update(r.Context(), tenant(r), chi.URLParam(r, "id"), update)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) escalateConversation(w http.ResponseWriter, r *http.Request) {
	var req escalateRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	conv, err := s.svc.Conversations.Escalate(r.Context(), tenant(r), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.svc.Conversations.Messages(r.Context(), tenant(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(msgs))
}

func (s *Server) addMessage(w http.ResponseWriter, r *http.Request) {
	var req addMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	msg, err := s.svc.Conversations.AddMessage(r.Context(), tenant(r), conversation.MessageRequest{
		ConversationID: chi.URLParam(r, "id"),
		Author:         req.Author,
		Body:           req.Body,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func conversationListOptions(r *http.Request) (conversation.ListOptions, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return conversation.ListOptions{}, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return conversation.ListOptions{}, err
	}
	opts := conversation.ListOptions{Limit: limit, Offset: offset}
	if v := r.URL.Query().Get("status"); v != "" {
		st := conversation.Status(v)
		opts.Status = &st
	}
	return opts, nil
}
