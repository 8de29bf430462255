package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ping-backend/internal/config"
	"ping-backend/internal/domain"
	"ping-backend/internal/security"
	"ping-backend/internal/service"
	"ping-backend/internal/ws"
)

// Repos bundles the storage interfaces so the router works the same over
// the sqlite and postgres backends. main picks the driver and fills it in.
type Repos struct {
	Users         domain.UserRepository
	Sessions      domain.SessionRepository
	Friendships   domain.FriendshipRepository
	Blacklist     domain.BlacklistRepository
	Conversations domain.ConversationRepository
	Participants  domain.ParticipantRepository
	Messages      domain.MessageRepository
}

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
func NewRouter(
	cfg *config.Config,
	repos Repos,
	hub *ws.Hub,
	passwordHasher *security.PasswordHasher,
	stateSigner *security.StateSigner,
	providers []*security.OAuthProvider,
) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Services
	authSvc := service.NewAuthService(
		repos.Users, repos.Sessions,
		passwordHasher, stateSigner, providers,
		time.Duration(cfg.SessionTTLHours)*time.Hour,
	)
	userSvc := service.NewUserService(repos.Users)
	friendSvc := service.NewFriendshipService(repos.Users, repos.Friendships, repos.Blacklist)
	convSvc := service.NewConversationService(repos.Users, repos.Friendships, repos.Conversations, repos.Participants)
	msgSvc := service.NewMessageService(repos.Conversations, repos.Participants, repos.Messages, repos.Users)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"message":%q,"version":"1.0.0"}`, cfg.AppName)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(authSvc))
			r.Post("/login", handleLogin(authSvc))
			r.Get("/oauth/{provider}", handleBeginOAuth(authSvc))
			r.Get("/oauth/{provider}/callback", handleOAuthCallback(authSvc))
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(authSvc))

			// Authenticated auth endpoints
			r.Post("/auth/logout", handleLogout(authSvc))
			r.Get("/auth/me", handleMe())

			// Users and blacklist
			r.Route("/users", func(r chi.Router) {
				r.Get("/search", handleSearchUsers(userSvc))
				r.Get("/blocked", handleListBlocked(friendSvc))
				r.Get("/{userID}", handleGetUser(userSvc))
				r.Post("/{userID}/block", handleBlockUser(friendSvc))
				r.Post("/{userID}/unblock", handleUnblockUser(friendSvc))
			})

			// Friendships
			r.Route("/friends", func(r chi.Router) {
				r.Get("/", handleListFriends(friendSvc))
				r.Get("/requests", handleListFriendRequests(friendSvc))
				r.Post("/requests", handleSendFriendRequest(friendSvc))
				r.Post("/requests/{userID}/accept", handleAcceptFriendRequest(friendSvc))
				r.Post("/requests/{userID}/decline", handleDeclineFriendRequest(friendSvc))
				r.Delete("/{userID}", handleRemoveFriend(friendSvc))
			})

			// Conversations and messages
			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", handleListConversations(convSvc))
				r.Post("/direct", handleGetOrCreateConversation(convSvc))
				r.Post("/group", handleCreateGroupConversation(convSvc, hub))
				r.Get("/{conversationID}", handleGetConversation(convSvc))
				r.Patch("/{conversationID}", handleUpdateGroupSettings(convSvc, hub))
				r.Post("/{conversationID}/invite", handleInviteToGroup(convSvc, hub))
				r.Post("/{conversationID}/remove", handleRemoveFromGroup(convSvc, hub))
				r.Post("/{conversationID}/leave", handleLeaveGroup(convSvc, hub))
				r.Post("/{conversationID}/pin", handleSetPinned(convSvc, true))
				r.Post("/{conversationID}/unpin", handleSetPinned(convSvc, false))
				r.Get("/{conversationID}/messages", handleListMessages(msgSvc))
				r.Post("/{conversationID}/messages", handleSendMessage(msgSvc, convSvc, hub))
			})
		})
	})

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(hub, authSvc, convSvc, cfg.CORSOrigins))

	return r
}
