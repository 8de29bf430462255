package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ping-backend/internal/domain"
	"ping-backend/internal/service"
	"ping-backend/internal/ws"
)

type sendMessageRequest struct {
	Content string `json:"content"`
}

func handleSendMessage(msgs *service.MessageService, convs *service.ConversationService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := conversationIDParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.BadRequest("invalid JSON body"))
			return
		}
		msg, err := msgs.Send(r.Context(), CurrentUser(r).ID, id, req.Content)
		if err != nil {
			writeError(w, err)
			return
		}
		if ids, err := convs.ParticipantIDs(r.Context(), id); err == nil {
			hub.BroadcastToUsers(ids, ws.Event{Type: ws.EventMessageCreated, Payload: msg})
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

func handleListMessages(msgs *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := conversationIDParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 0 {
				writeError(w, domain.BadRequest("invalid limit"))
				return
			}
		}
		page, err := msgs.ListPage(r.Context(), CurrentUser(r).ID, id, r.URL.Query().Get("cursor"), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}
