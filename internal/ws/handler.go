package ws

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"ping-backend/internal/service"
)

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

func extractToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		if token := strings.TrimSpace(authHeader[len("Bearer "):]); token != "" {
			return token
		}
	}

	// Browsers cannot set headers on WebSocket upgrades; the token rides in
	// the subprotocol list as "bearer, <token>".
	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return ""
}

// clientFrame is the only inbound shape clients may send: typing indicators
// forwarded to the other participants.
type clientFrame struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id"`
}

type typingPayload struct {
	ConversationID int64 `json:"conversation_id"`
	UserID         int64 `json:"user_id"`
}

// MakeHandler returns the /ws endpoint handler. It authenticates the session
// token, registers the connection with the hub, and forwards typing frames;
// all other delivery (message_created, conversation_updated) is pushed by
// the HTTP handlers through the hub.
func MakeHandler(
	hub *Hub,
	auth *service.AuthService,
	convs *service.ConversationService,
	allowedOrigins []string,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin:  checkOrigin,
		Subprotocols: []string{"bearer"},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		token := extractToken(r)
		user, err := auth.Authenticate(r.Context(), token)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws upgrade: %v", err)
			return
		}

		hub.Register(user.ID, conn)
		defer func() {
			hub.Unregister(user.ID, conn)
			conn.Close()
		}()

		for {
			var frame clientFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			if frame.Type != EventTyping || frame.ConversationID == 0 {
				continue
			}

			// Typing is forwarded only within conversations the sender
			// belongs to.
			ctx := context.Background()
			ok, err := convs.IsParticipant(ctx, frame.ConversationID, user.ID)
			if err != nil || !ok {
				continue
			}
			ids, err := convs.ParticipantIDs(ctx, frame.ConversationID)
			if err != nil {
				continue
			}
			others := ids[:0:0]
			for _, id := range ids {
				if id != user.ID {
					others = append(others, id)
				}
			}
			hub.BroadcastToUsers(others, Event{
				Type:    EventTyping,
				Payload: typingPayload{ConversationID: frame.ConversationID, UserID: user.ID},
			})
		}
	}
}
