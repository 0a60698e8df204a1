// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/domain/checklist"
	"vigilance-service/internal/domain/condominium"
	wstypes "vigilance-service/internal/domain/websocket"
)

// Authenticator turns an access token into the caller principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Principal, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, token string) (*auth.Principal, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, token string) (*auth.Principal, error) {
	return f(ctx, token)
}

// CondominiumFinder resolves the owner of a condominium for event routing.
type CondominiumFinder interface {
	FindByID(ctx context.Context, id int64) (*condominium.Condominium, error)
}

const ownerLookupTimeout = 5 * time.Second

type Hub struct {
	// Registered clients by user ID
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	handlerRegistry *HandlerRegistry

	authenticator Authenticator
	condos        CondominiumFinder
	logger        *zap.Logger
}

type BroadcastMessage struct {
	// UserIDs limits delivery to these users; nil means everyone.
	UserIDs   []int64
	Channel   wstypes.ChannelType
	AdminOnly bool
	Message   *wstypes.WSMessage
}

func NewHub(authenticator Authenticator, condos CondominiumFinder, logger *zap.Logger) *Hub {
	return &Hub{
		clients:         make(map[int64]map[*Client]bool),
		Register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		done:            make(chan struct{}),
		handlerRegistry: NewHandlerRegistry(),
		authenticator:   authenticator,
		condos:          condos,
		logger:          logger,
	}
}

// AuthenticateClient validates the access token of a connecting client.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*auth.Principal, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	return h.authenticator.Authenticate(ctx, token)
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlerRegistry.Register(handler)
}

// HandleClientMessage processes a message from a client using registered handlers
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return nil
	}
	return handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	client.Subscribe(wstypes.ChannelSystem)
	if client.IsAdmin() {
		client.Subscribe(wstypes.ChannelChecklists)
	}

	h.logger.Info("websocket client connected",
		zap.Int64("user_id", client.userID),
		zap.String("session_id", client.sessionID),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"user_id":    client.userID,
		"session_id": client.sessionID,
		"role":       client.principal.Role,
		"is_admin":   client.IsAdmin(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.userID)
			}

			h.logger.Info("websocket client disconnected",
				zap.Int64("user_id", client.userID),
				zap.String("session_id", client.sessionID),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

// leave hands the client back to the hub unless the hub already stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	deliver := func(clients map[*Client]bool) {
		for client := range clients {
			if msg.AdminOnly && !client.IsAdmin() {
				continue
			}
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}

	if msg.UserIDs == nil {
		for _, clients := range h.clients {
			deliver(clients)
		}
		return
	}
	for _, userID := range msg.UserIDs {
		if clients, ok := h.clients[userID]; ok {
			deliver(clients)
		}
	}
}

func (h *Hub) GetConnectedClients(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[userID]; ok {
		return len(clients)
	}
	return 0
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// ========== Checklist events ==========

// ChecklistCreated tells the admins owning the condominium about a new checklist.
func (h *Hub) ChecklistCreated(condominiumID int64, summary checklist.Summary) {
	h.toOwner(condominiumID, wstypes.NewMessage(wstypes.EventTypeChecklistCreated, wstypes.ChecklistCreatedData{
		CondominiumID: condominiumID,
		Checklist:     summary,
	}))
}

// ChecklistsDeleted tells the owning admins which checklists were removed.
func (h *Hub) ChecklistsDeleted(condominiumID int64, ids []int64) {
	h.toOwner(condominiumID, wstypes.NewMessage(wstypes.EventTypeChecklistDeleted, wstypes.ChecklistDeletedData{
		CondominiumID: condominiumID,
		IDs:           ids,
	}))
}

func (h *Hub) toOwner(condominiumID int64, msg *wstypes.WSMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), ownerLookupTimeout)
	defer cancel()

	condo, err := h.condos.FindByID(ctx, condominiumID)
	if err != nil {
		h.logger.Warn("checklist event dropped, condominium lookup failed",
			zap.Int64("condominium_id", condominiumID),
			zap.String("event", string(msg.Type)),
			zap.Error(err),
		)
		return
	}

	h.enqueue(&BroadcastMessage{
		UserIDs:   []int64{condo.OwnerID},
		Channel:   wstypes.ChannelChecklists,
		AdminOnly: true,
		Message:   msg,
	})
}

// ========== Sessions ==========

func (h *Hub) ForceLogout(userID int64, sessionID string, reason string) {
	msg := wstypes.NewMessage(wstypes.EventTypeForceLogout, wstypes.SessionEventData{
		SessionID: sessionID,
		Reason:    reason,
		Message:   "You have been logged out",
	})
	h.enqueue(&BroadcastMessage{
		UserIDs: []int64{userID},
		Channel: wstypes.ChannelSystem,
		Message: msg,
	})
}

// IsUserConnected checks if a user has any active connections
func (h *Hub) IsUserConnected(userID int64) bool {
	return h.GetConnectedClients(userID) > 0
}

// DisconnectUser forcefully disconnects all sessions for a user
func (h *Hub) DisconnectUser(userID int64, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[userID]; ok {
		disconnectMsg := wstypes.NewMessage(wstypes.EventTypeDisconnected, map[string]interface{}{
			"reason": reason,
		})

		for client := range clients {
			client.SendMessage(disconnectMsg)
			client.Close()
		}

		delete(h.clients, userID)
		h.logger.Info("disconnected all clients of user",
			zap.Int64("user_id", userID),
			zap.String("reason", reason),
		)
	}
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
		delete(h.clients, userID)
	}
}
