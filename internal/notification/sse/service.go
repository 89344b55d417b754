// Package sse provides Server-Sent Events support for real-time notifications.
package sse

import (
	"io"
	"sync"

	"inspection_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventWorkOrderCompleted  EventType = "work_order_completed"
	EventWorkOrderReopened   EventType = "work_order_reopened"
	EventWorkOrderIntegrated EventType = "work_order_integrated"
	EventWorkOrderAssigned   EventType = "work_order_assigned"
	EventWorkOrderReminder   EventType = "work_order_reminder"
)

// Event represents an SSE event payload
type Event struct {
	Type        EventType   `json:"type"`
	WorkOrderID uuid.UUID   `json:"workOrderId,omitempty"`
	Message     string      `json:"message,omitempty"`
	Data        interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	userID uuid.UUID
	roles  map[string]bool
	events chan Event
}

// Service manages SSE connections and event broadcasting
type Service struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*client // userID -> clients
}

// New creates a new SSE service
func New() *Service {
	return &Service{
		clients: make(map[uuid.UUID][]*client),
	}
}

// addClient registers a new client connection
func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.userID] = append(s.clients[c.userID], c)
}

// removeClient unregisters a client connection
func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.userID]
	for i, existing := range clients {
		if existing == c {
			s.clients[c.userID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(s.clients[c.userID]) == 0 {
		delete(s.clients, c.userID)
	}
	close(c.events)
}

// SendToUser pushes an event to every connection of one user.
// Slow consumers are skipped rather than blocked on.
func (s *Service) SendToUser(userID uuid.UUID, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients[userID] {
		select {
		case c.events <- event:
		default:
		}
	}
}

// BroadcastToRole pushes an event to every connected client holding the role.
func (s *Service) BroadcastToRole(role string, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, clients := range s.clients {
		for _, c := range clients {
			if !c.roles[role] {
				continue
			}
			select {
			case c.events <- event:
			default:
			}
		}
	}
}

// Stream is the gin handler keeping an SSE connection open for the caller.
func (s *Service) Stream(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	roles := make(map[string]bool)
	for _, r := range identity.Roles() {
		roles[r] = true
	}

	cl := &client{
		userID: identity.UserID(),
		roles:  roles,
		events: make(chan Event, 16),
	}
	s.addClient(cl)
	defer s.removeClient(cl)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-cl.events:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
