package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/alexredboyPRO/Synkim/internal/config"
	"github.com/alexredboyPRO/Synkim/internal/domain"
	"github.com/alexredboyPRO/Synkim/internal/hub"
	"github.com/alexredboyPRO/Synkim/internal/service"
	"github.com/alexredboyPRO/Synkim/pkg/jwt"
	"github.com/alexredboyPRO/Synkim/pkg/log"
)

// WSHandler upgrades websocket connections and dispatches envelope
// messages to the sync service.
type WSHandler struct {
	hub      *hub.Hub
	service  service.SyncService
	verifier *jwt.Verifier
	authCfg  config.AuthConfig
	wsCfg    config.WebSocketConfig
	upgrader websocket.Upgrader
}

func NewWSHandler(h *hub.Hub, svc service.SyncService, cfg *config.Config) *WSHandler {
	var verifier *jwt.Verifier
	if cfg.Auth.Required {
		verifier = jwt.NewVerifier(cfg.Auth.Secret)
	}

	return &WSHandler{
		hub:      h,
		service:  svc,
		verifier: verifier,
		authCfg:  cfg.Auth,
		wsCfg:    cfg.WebSocket,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.Server.AllowedOrigins),
		},
	}
}

// originChecker builds the upgrader's origin policy from the configured
// allow-list. "*" allows everything; an absent Origin header (non-browser
// clients like the watcher) is always allowed.
func originChecker(allowed []string) func(r *http.Request) bool {
	allowAll := false
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		set[strings.TrimSuffix(o, "/")] = struct{}{}
	}

	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimSuffix(origin, "/")]
		return ok
	}
}

// HandleWebSocket upgrades the connection and starts the pump goroutines.
// When auth is required the bearer token is verified before the client is
// registered; past that gate the sync core never consumes identity.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	claims, err := h.authenticate(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	if claims != nil {
		client.Session.Authenticate(claims.UserID, claims.Username)
	}

	h.hub.Register(client)

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleMessage)
		h.service.HandleDisconnect(context.Background(), client)
	}()
}

// authenticate returns the verified claims, or nil when auth is disabled.
// The token may arrive as a bearer header or a query parameter (browser
// websocket clients cannot set headers).
func (h *WSHandler) authenticate(r *http.Request) (*jwt.Claims, error) {
	if h.verifier == nil {
		return nil, nil
	}

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || token == r.Header.Get("Authorization") {
		token = r.URL.Query().Get("token")
	}
	return h.verifier.Verify(token)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message format"))
		return
	}

	ctx := context.Background()

	switch {
	case base.Type == domain.MsgTypeJoin:
		var msg domain.JoinMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid join message"))
			return
		}
		if err := h.service.HandleJoin(ctx, client, msg.RoomID); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldClientID, client.ID).Msg("join failed")
		}

	case domain.IsIntentType(base.Type):
		var intent domain.Intent
		if err := json.Unmarshal(message, &intent); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid intent message"))
			return
		}
		if err := h.service.HandleIntent(ctx, client, &intent, message); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldClientID, client.ID).Str(log.FieldEvent, base.Type).Msg("intent failed")
		}

	case base.Type == domain.MsgTypeLeave:
		if err := h.service.HandleLeave(ctx, client); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldClientID, client.ID).Msg("leave failed")
		}

	case base.Type == domain.MsgTypePing:
		client.SendMessage(map[string]string{"type": domain.MsgTypePong})

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Unknown message type"))
	}
}

// RegisterRoutes attaches the websocket endpoint.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}
