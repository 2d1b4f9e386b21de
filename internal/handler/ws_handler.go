package handler

import (
	"net/http"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"myflix-api/internal/middleware"
	"myflix-api/internal/websocket"
	"myflix-api/pkg/response"
)

type WebSocketHandler struct {
	manager   *websocket.Manager
	validator middleware.TokenValidator
	upgrader  ws.Upgrader
	log       *zap.SugaredLogger
}

func NewWebSocketHandler(manager *websocket.Manager, validator middleware.TokenValidator, readBuf, writeBuf int, log *zap.SugaredLogger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:   manager,
		validator: validator,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			// any origin, the token is the credential
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
	}
}

// HandleConnection authenticates with a bearer header or a token query parameter, then upgrades.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = middleware.BearerToken(r)
	}

	if token == "" {
		response.Unauthorized(w)
		return
	}

	claims, err := h.validator.ValidateToken(token)
	if err != nil {
		h.log.Debugw("websocket token rejected", "error", err)
		response.Unauthorized(w)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "user", claims.Username(), "error", err)
		return
	}

	client := websocket.NewClient(uuid.New().String(), claims.Username(), conn, h.manager)
	if err := h.manager.Connect(client); err != nil {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

type WebSocketMessageHandler struct{}

func NewWebSocketMessageHandler() *WebSocketMessageHandler {
	return &WebSocketMessageHandler{}
}

func (h *WebSocketMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypePing:
		pong, err := websocket.NewMessage(websocket.TypePong, nil)
		if err != nil {
			return err
		}
		return client.Manager.SendToClient(client.ID, pong)

	default:
		return errUnknownMessageType(msg.Type)
	}
}

type errUnknownMessageType websocket.MessageType

func (e errUnknownMessageType) Error() string {
	return "unknown message type: " + string(e)
}
