// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"vigilance-service/internal/domain/checklist"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Checklist events (server -> client)
	EventTypeChecklistCreated EventType = "checklist:created"
	EventTypeChecklistDeleted EventType = "checklist:deleted"

	// Checklist requests (client -> server)
	EventTypeChecklistRecent EventType = "checklist:recent"

	// Session events
	EventTypeForceLogout EventType = "session:force_logout"

	// Subscription events
	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType              `json:"type"`
	Data      interface{}            `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	ID        string                 `json:"id,omitempty"`
}

// ChannelType names a stream a client can subscribe to.
type ChannelType string

const (
	ChannelChecklists ChannelType = "checklists"
	ChannelSystem     ChannelType = "system"
)

type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

type UnsubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// ChecklistCreatedData announces a newly submitted checklist.
type ChecklistCreatedData struct {
	CondominiumID int64             `json:"condominium_id"`
	Checklist     checklist.Summary `json:"checklist"`
}

// ChecklistDeletedData lists checklists removed from a condominium.
type ChecklistDeletedData struct {
	CondominiumID int64   `json:"condominium_id"`
	IDs           []int64 `json:"ids"`
}

// ChecklistRecentRequest asks for the latest checklists of a condominium.
type ChecklistRecentRequest struct {
	CondominiumID int64 `json:"condominium_id"`
	Limit         int   `json:"limit"`
}

type SessionEventData struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NewMessage creates a new WebSocket message
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        generateMessageID(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("message type is required")
	}
	return &msg, nil
}

func generateMessageID() string {
	return fmt.Sprintf("msg_%d", time.Now().UnixNano())
}
