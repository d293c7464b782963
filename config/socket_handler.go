package config

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	socketio "github.com/doquangtan/socket.io/v4"
	"github.com/gofiber/fiber/v2"

	"gomatch/app/models"
	"gomatch/app/services"
	"gomatch/redis"
)

// SocketIoHandler is the signaling relay. It accepts the realtime message
// surface (join_strict, join_loose, cancel, signal, call_end, feedback,
// heartbeat), delegates matching decisions to the engine services and
// forwards opaque signaling payloads between already-matched peers. It
// performs no matching logic of its own.
type SocketIoHandler struct {
	io         *socketio.Io
	matching   *services.MatchingService
	matches    *services.MatchService
	feedback   *services.FeedbackService
	redisSvc   *redis.Service
	mu         sync.RWMutex
	userSocket map[string]string // userID -> socketID
	socketUser map[string]string // socketID -> userID
}

// NewSocketHandler creates a new Socket.IO handler instance
func NewSocketHandler(matching *services.MatchingService, matches *services.MatchService, feedback *services.FeedbackService, redisSvc *redis.Service) *SocketIoHandler {
	io := socketio.New()

	handler := &SocketIoHandler{
		io:         io,
		matching:   matching,
		matches:    matches,
		feedback:   feedback,
		redisSvc:   redisSvc,
		userSocket: make(map[string]string),
		socketUser: make(map[string]string),
	}

	handler.setupSocketHandlers()
	return handler
}

// joinPayload is the client payload of join_strict / join_loose
type joinPayload struct {
	UserID      string                 `json:"userId"`
	RequestID   string                 `json:"requestId,omitempty"`
	Preferences models.UserPreferences `json:"preferences"`
}

// cancelPayload is the client payload of cancel
type cancelPayload struct {
	UserID string `json:"userId"`
	Mode   string `json:"mode,omitempty"`
}

// signalPayload is the client payload of signal. Signal is opaque: the
// relay never inspects the SDP/ICE content.
type signalPayload struct {
	MatchID string                 `json:"matchId"`
	To      string                 `json:"to"`
	Signal  map[string]interface{} `json:"signal"`
}

// callEndPayload is the client payload of call_end
type callEndPayload struct {
	MatchID string `json:"matchId"`
	UserID  string `json:"userId"`
	Reason  string `json:"reason,omitempty"`
}

// heartbeatPayload is the client payload of heartbeat
type heartbeatPayload struct {
	UserID string `json:"userId"`
}

// parsePayload decodes the first event argument into dest
func parsePayload(event *socketio.EventPayload, dest interface{}) bool {
	if len(event.Data) == 0 {
		return false
	}
	raw, err := json.Marshal(event.Data[0])
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// emitError sends an error message in the signaling error shape
func emitError(socket *socketio.Socket, code int, message string) {
	socket.Emit("error", map[string]interface{}{
		"code":      code,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// emitEngineError maps an engine error to the signaling error shape
func emitEngineError(socket *socketio.Socket, err error) {
	code := 500
	message := "Internal server error"
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		code, message = 400, err.Error()
	case errors.Is(err, services.ErrForbidden):
		code, message = 403, err.Error()
	case errors.Is(err, services.ErrNotFound):
		code, message = 404, err.Error()
	case errors.Is(err, services.ErrConflict):
		code, message = 409, err.Error()
	}
	emitError(socket, code, message)
}

// setupSocketHandlers configures all Socket.IO event handlers
func (h *SocketIoHandler) setupSocketHandlers() {
	// Authorization handler
	h.io.OnAuthorization(func(params map[string]string) bool {
		return true
	})

	// Main connection handler
	h.io.OnConnection(func(socket *socketio.Socket) {
		log.Printf("Socket connected: %s (namespace: %s)", socket.Id, socket.Nps)

		socket.On("join_strict", func(event *socketio.EventPayload) {
			h.handleJoin(socket, event, models.ModeStrict)
		})

		socket.On("join_loose", func(event *socketio.EventPayload) {
			h.handleJoin(socket, event, models.ModeLoose)
		})

		socket.On("cancel", func(event *socketio.EventPayload) {
			var payload cancelPayload
			if !parsePayload(event, &payload) || payload.UserID == "" {
				emitError(socket, 400, "Invalid cancel payload")
				return
			}

			if err := h.matching.Cancel(models.CancelRequest{UserID: payload.UserID, Mode: payload.Mode}); err != nil {
				emitEngineError(socket, err)
				return
			}
			socket.Emit("cancelled", map[string]interface{}{
				"message": "Successfully removed from queue",
			})
		})

		socket.On("signal", func(event *socketio.EventPayload) {
			var payload signalPayload
			if !parsePayload(event, &payload) || payload.MatchID == "" || payload.To == "" {
				emitError(socket, 400, "Invalid signal payload")
				return
			}

			from := h.userForSocket(socket.Id)
			if !h.emitToUser(payload.To, "signal", map[string]interface{}{
				"matchId": payload.MatchID,
				"from":    from,
				"signal":  payload.Signal,
			}) {
				emitError(socket, 404, "Peer is not connected")
			}
		})

		socket.On("call_end", func(event *socketio.EventPayload) {
			var payload callEndPayload
			if !parsePayload(event, &payload) || payload.MatchID == "" || payload.UserID == "" {
				emitError(socket, 400, "Invalid call_end payload")
				return
			}

			m, err := h.matches.MarkEnd(payload.MatchID, payload.UserID, payload.Reason)
			if err != nil {
				emitEngineError(socket, err)
				return
			}

			// Notify the peer that the call is over.
			if peer := m.Other(payload.UserID); peer != "" {
				h.emitToUser(peer, "call_end", map[string]interface{}{
					"matchId": m.ID,
					"userId":  payload.UserID,
					"reason":  payload.Reason,
				})
			}
			socket.Emit("call_end_response", map[string]interface{}{
				"matchId": m.ID,
				"status":  m.Status,
			})
		})

		socket.On("feedback", func(event *socketio.EventPayload) {
			var payload models.FeedbackRequest
			if !parsePayload(event, &payload) {
				emitError(socket, 400, "Invalid feedback payload")
				return
			}

			if _, err := h.feedback.Submit(payload); err != nil {
				emitEngineError(socket, err)
				return
			}
			socket.Emit("feedback_received", map[string]interface{}{
				"message": "Feedback recorded successfully",
			})
		})

		socket.On("heartbeat", func(event *socketio.EventPayload) {
			var payload heartbeatPayload
			if parsePayload(event, &payload) && payload.UserID != "" {
				h.register(payload.UserID, socket.Id)
			}
			if h.redisSvc != nil {
				h.redisSvc.UpdateConnectionLastSeen(socket.Id)
			}
			socket.Emit("pong", map[string]interface{}{
				"timestamp": time.Now().UTC().UnixMilli(),
			})
		})

		socket.On("disconnect", func(event *socketio.EventPayload) {
			h.handleDisconnect(socket.Id)
		})
	})
}

// handleJoin processes join_strict / join_loose
func (h *SocketIoHandler) handleJoin(socket *socketio.Socket, event *socketio.EventPayload, mode string) {
	var payload joinPayload
	if !parsePayload(event, &payload) || payload.UserID == "" {
		emitError(socket, 400, "Invalid join payload")
		return
	}

	h.register(payload.UserID, socket.Id)

	resp, err := h.matching.Join(models.JoinRequest{
		UserID:      payload.UserID,
		Mode:        mode,
		Preferences: payload.Preferences,
		RequestID:   payload.RequestID,
	})
	if err != nil {
		emitEngineError(socket, err)
		return
	}

	// The requesting socket is always answered directly. A matched
	// response may be a fresh pairing or an idempotent retry replaying
	// the stored response; either way the client gets match_found.
	eventName, message := joinReply(resp, mode)
	socket.Emit(eventName, message)
}

// joinReply maps a join outcome to the event and payload sent back to
// the requesting socket.
func joinReply(resp *models.JoinResponse, mode string) (string, map[string]interface{}) {
	if resp.Status == models.JoinStatusWaiting {
		return "waiting", map[string]interface{}{
			"message": "Added to queue, waiting for match",
		}
	}

	matchMode := models.MatchModeLoose
	if mode == models.ModeStrict {
		matchMode = models.MatchModeStrict
	}
	return "match_found", map[string]interface{}{
		"matchId": resp.MatchID,
		"peerId":  resp.PeerID,
		"mode":    matchMode,
	}
}

// NotifyMatch pushes match_found to the waiting side of a new pairing.
// Registered as the matching service's match listener so the dequeued
// candidate hears about the match no matter which transport the joiner
// used; the joiner is answered on its own request path.
func (h *SocketIoHandler) NotifyMatch(m *models.Match) {
	h.emitToUser(m.UserAID, "match_found", map[string]interface{}{
		"matchId": m.ID,
		"peerId":  m.UserBID,
		"mode":    m.Mode,
	})
}

// register records the user -> socket mapping and mirrors it to Redis
func (h *SocketIoHandler) register(userID, socketID string) {
	h.mu.Lock()
	if old, ok := h.userSocket[userID]; ok && old != socketID {
		delete(h.socketUser, old)
	}
	h.userSocket[userID] = socketID
	h.socketUser[socketID] = userID
	h.mu.Unlock()

	if h.redisSvc != nil {
		h.redisSvc.CacheConnection(redis.ConnectionData{
			SocketID:    socketID,
			UserID:      userID,
			ConnectedAt: time.Now().UTC(),
			LastSeen:    time.Now().UTC(),
		}, 24*time.Hour)
	}
}

// handleDisconnect drops the registry entry and removes the user from all
// wait queues; a client that vanishes should not be matched.
func (h *SocketIoHandler) handleDisconnect(socketID string) {
	h.mu.Lock()
	userID := h.socketUser[socketID]
	delete(h.socketUser, socketID)
	if userID != "" && h.userSocket[userID] == socketID {
		delete(h.userSocket, userID)
	}
	h.mu.Unlock()

	if h.redisSvc != nil {
		h.redisSvc.DeleteConnection(socketID)
	}
	if userID != "" {
		if err := h.matching.Cancel(models.CancelRequest{UserID: userID}); err != nil {
			log.Printf("Failed to clean up queues for %s on disconnect: %v", userID, err)
		}
	}
}

// userForSocket resolves the registered user for a socket id
func (h *SocketIoHandler) userForSocket(socketID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.socketUser[socketID]
}

// emitToUser delivers an event to the user's registered socket, if any
func (h *SocketIoHandler) emitToUser(userID, eventName string, message interface{}) bool {
	h.mu.RLock()
	socketID := h.userSocket[userID]
	h.mu.RUnlock()
	if socketID == "" {
		return false
	}

	for _, socket := range h.io.Sockets() {
		if socket.Id == socketID {
			socket.Emit(eventName, message)
			return true
		}
	}
	return false
}

// GetIo returns the underlying Socket.IO instance
func (h *SocketIoHandler) GetIo() *socketio.Io {
	return h.io
}

// SetupSocketRoutes configures Socket.IO routes for the Fiber app
func (h *SocketIoHandler) SetupSocketRoutes(app *fiber.App) {
	app.Use("/", h.io.Middleware)
	app.Route("/socket.io", h.io.FiberRoute)
}
