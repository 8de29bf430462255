package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ping-backend/internal/domain"
	"ping-backend/internal/service"
	"ping-backend/internal/ws"
)

func conversationIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
	if err != nil {
		return 0, domain.BadRequest("invalid conversation id")
	}
	return id, nil
}

// notifyConversation pushes a conversation_updated event to all members.
// Delivery is best-effort; membership changes are already committed.
func notifyConversation(r *http.Request, hub *ws.Hub, convs *service.ConversationService, conversationID int64) {
	ids, err := convs.ParticipantIDs(r.Context(), conversationID)
	if err != nil {
		return
	}
	hub.BroadcastToUsers(ids, ws.Event{
		Type:    ws.EventConversationUpdated,
		Payload: map[string]int64{"conversation_id": conversationID},
	})
}

type directConversationRequest struct {
	UserID int64 `json:"userId"`
}

func handleGetOrCreateConversation(convs *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req directConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.BadRequest("invalid JSON body"))
			return
		}
		conv, err := convs.GetOrCreateDirect(r.Context(), CurrentUser(r).ID, req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

type groupConversationRequest struct {
	Name    string  `json:"name"`
	UserIDs []int64 `json:"userIds"`
}

func handleCreateGroupConversation(convs *service.ConversationService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req groupConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.BadRequest("invalid JSON body"))
			return
		}
		conv, err := convs.CreateGroup(r.Context(), CurrentUser(r).ID, req.Name, req.UserIDs)
		if err != nil {
			writeError(w, err)
			return
		}
		notifyConversation(r, hub, convs, conv.ID)
		writeJSON(w, http.StatusCreated, conv)
	}
}

func handleListConversations(convs *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := convs.List(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleGetConversation(convs *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := conversationIDParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		detail, err := convs.Get(r.Context(), CurrentUser(r).ID, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

type inviteRequest struct {
	UserID int64 `json:"userId"`
}

func handleInviteToGroup(convs *service.ConversationService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := conversationIDParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		var req inviteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.BadRequest("invalid JSON body"))
			return
		}
		conv, err := convs.Invite(r.Context(), CurrentUser(r).ID, id, req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		notifyConversation(r, hub, convs, id)
		writeJSON(w, http.StatusOK, conv)
	}
}

type removeRequest struct {
	UserID int64 `json:"userId"`
}

func handleRemoveFromGroup(convs *service.ConversationService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := conversationIDParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		var req removeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.BadRequest("invalid JSON body"))
			return
		}
		if err := convs.Remove(r.Context(), CurrentUser(r).ID, id, req.UserID); err != nil {
			writeError(w, err)
			return
		}
		notifyConversation(r, hub, convs, id)
		writeJSON(w, http.StatusOK, true)
	}
}

type leaveRequest struct {
	SuccessorUserID *int64 `json:"successorUserId"`
}

func handleLeaveGroup(convs *service.ConversationService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := conversationIDParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		var req leaveRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, domain.BadRequest("invalid JSON body"))
				return
			}
		}
		if err := convs.Leave(r.Context(), CurrentUser(r).ID, id, req.SuccessorUserID); err != nil {
			writeError(w, err)
			return
		}
		notifyConversation(r, hub, convs, id)
		writeJSON(w, http.StatusOK, true)
	}
}

type updateSettingsRequest struct {
	Name     *string                    `json:"name"`
	Settings *domain.GroupSettingsPatch `json:"settings"`
}

func handleUpdateGroupSettings(convs *service.ConversationService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := conversationIDParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		var req updateSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.BadRequest("invalid JSON body"))
			return
		}
		var patch domain.GroupSettingsPatch
		if req.Settings != nil {
			patch = *req.Settings
		}
		conv, err := convs.UpdateSettings(r.Context(), CurrentUser(r).ID, id, req.Name, patch)
		if err != nil {
			writeError(w, err)
			return
		}
		notifyConversation(r, hub, convs, id)
		writeJSON(w, http.StatusOK, conv)
	}
}

func handleSetPinned(convs *service.ConversationService, pinned bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := conversationIDParam(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := convs.SetPinned(r.Context(), CurrentUser(r).ID, id, pinned); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, true)
	}
}
