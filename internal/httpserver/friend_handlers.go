package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ping-backend/internal/domain"
	"ping-backend/internal/service"
)

func userIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, domain.BadRequest("invalid user id")
	}
	return id, nil
}

type friendRequestBody struct {
	UserID int64 `json:"userId"`
}

func handleSendFriendRequest(friends *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req friendRequestBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.BadRequest("invalid JSON body"))
			return
		}
		if err := friends.SendRequest(r.Context(), CurrentUser(r).ID, req.UserID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "success"})
	}
}

func handleAcceptFriendRequest(friends *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requesterID, err := userIDParam(r, "userID")
		if err != nil {
			writeError(w, err)
			return
		}
		if err := friends.AcceptRequest(r.Context(), CurrentUser(r).ID, requesterID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func handleDeclineFriendRequest(friends *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requesterID, err := userIDParam(r, "userID")
		if err != nil {
			writeError(w, err)
			return
		}
		if err := friends.DeclineRequest(r.Context(), CurrentUser(r).ID, requesterID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func handleRemoveFriend(friends *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		friendID, err := userIDParam(r, "userID")
		if err != nil {
			writeError(w, err)
			return
		}
		if err := friends.RemoveFriend(r.Context(), CurrentUser(r).ID, friendID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func handleListFriends(friends *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := friends.Friends(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleListFriendRequests(friends *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := friends.PendingRequests(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleBlockUser(friends *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := userIDParam(r, "userID")
		if err != nil {
			writeError(w, err)
			return
		}
		if err := friends.Block(r.Context(), CurrentUser(r).ID, targetID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, true)
	}
}

func handleUnblockUser(friends *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := userIDParam(r, "userID")
		if err != nil {
			writeError(w, err)
			return
		}
		if err := friends.Unblock(r.Context(), CurrentUser(r).ID, targetID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, true)
	}
}

func handleListBlocked(friends *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := friends.BlockedUsers(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}
