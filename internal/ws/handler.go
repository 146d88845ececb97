package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/strudel-live/backend/internal/model"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 65536
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The player is served from the same process; any origin may connect.
		return true
	},
}

// Resolver fulfills a pending call by correlation id. Implemented by
// pending.Registry.
type Resolver interface {
	Resolve(id, value string) bool
}

// Handler upgrades HTTP connections to WebSocket and runs the per-connection
// read and write pumps. Inbound frames are demultiplexed by their envelope
// type; replies to outstanding get-current-code requests are routed to the
// Resolver.
type Handler struct {
	manager  *Manager
	resolver Resolver

	mu          sync.RWMutex
	onEvalError func(sessionID, code, errMsg string)
}

// NewHandler creates a WebSocket handler.
func NewHandler(manager *Manager, resolver Resolver) *Handler {
	return &Handler{
		manager:  manager,
		resolver: resolver,
	}
}

// SetOnEvaluationError sets the callback invoked when a tab reports a runtime
// failure evaluating a pattern.
func (h *Handler) SetOnEvaluationError(callback func(sessionID, code, errMsg string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEvalError = callback
}

// HandleConnection handles a new WebSocket connection for a browser tab.
// sessionID is the optional session code supplied out-of-band by the tab; if
// empty the connection joins the live set unbound.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request, sessionID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, sessionID)
	h.manager.Register(client, sessionID)

	go h.writePump(client)
	go h.readPump(client)

	return nil
}

// readPump pumps frames from the WebSocket connection into the envelope
// demux. Cleanup runs on every exit path: abrupt close, protocol error, or
// explicit close all unregister the connection exactly once.
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.manager.Unregister(client)
		client.Conn().Close()
	}()

	client.Conn().SetReadLimit(maxMessageSize)
	client.Conn().SetReadDeadline(time.Now().Add(pongWait))
	client.Conn().SetPongHandler(func(string) error {
		client.Conn().SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn().ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var env model.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("Invalid JSON received: %s", message)
			continue
		}

		h.handleEnvelope(client, &env)
	}
}

// handleEnvelope dispatches one inbound envelope by its type. Unknown types
// are logged and discarded; nothing here may crash the receive loop.
func (h *Handler) handleEnvelope(client *Client, env *model.Envelope) {
	switch env.Type {
	case model.EnvelopeTypePing:
		h.handlePing(client)
	case model.EnvelopeTypeCodeResponse:
		h.handleCodeResponse(env)
	case model.EnvelopeTypeEvalError:
		h.handleEvalError(client, env)
	default:
		log.Printf("Discarding frame with unknown type %q", env.Type)
	}
}

// handlePing answers a liveness probe with a pong envelope.
func (h *Handler) handlePing(client *Client) {
	data, err := model.NewPongEnvelope().Encode()
	if err != nil {
		return
	}
	client.Send(data)
}

// handleCodeResponse routes a get-current-code reply to its pending call. A
// reply with no request id, or one whose call already resolved or timed out,
// is dropped.
func (h *Handler) handleCodeResponse(env *model.Envelope) {
	if env.RequestID == "" {
		return
	}
	if h.resolver.Resolve(env.RequestID, env.Code) {
		log.Printf("Resolved code request %s with %d characters", env.RequestID, len(env.Code))
	}
}

// handleEvalError records a runtime failure reported by the tab.
func (h *Handler) handleEvalError(client *Client, env *model.Envelope) {
	errMsg := env.Error
	if errMsg == "" {
		errMsg = "Unknown error"
	}
	log.Printf("Strudel evaluation error: %s | Code: %s", errMsg, env.Code)

	h.mu.RLock()
	callback := h.onEvalError
	h.mu.RUnlock()

	if callback != nil {
		callback(client.SessionID(), env.Code, errMsg)
	}
}

// writePump pumps frames from the client's send channel to the WebSocket
// connection and keeps the socket alive with protocol-level pings.
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn().Close()
	}()

	for {
		select {
		case message, ok := <-client.SendChan():
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn().WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One envelope per frame so JSON.parse works on the player side.
			if err := client.Conn().WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn().WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
