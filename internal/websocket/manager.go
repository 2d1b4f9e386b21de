package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrTooManyConnections = errors.New("too many connections for user")

type ClientMessage struct {
	Client  *Client
	Message []byte
}

type Options struct {
	MaxConnPerUser int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

// Manager tracks live connections by username and fans account events out to them.
type Manager struct {
	clients        map[string]*Client
	userIndex      map[string]map[string]bool
	clientsMutex   sync.RWMutex
	Register       chan *Client
	Unregister     chan *Client
	HandleMessage  chan *ClientMessage
	done           chan struct{}
	stopOnce       sync.Once
	maxConnPerUser int
	maxMessageSize int64
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	messageHandler MessageHandler
	log            *zap.SugaredLogger
}

type MessageHandler interface {
	HandleWebSocketMessage(client *Client, msg *Message) error
}

func NewManager(opts Options, log *zap.SugaredLogger) *Manager {
	if opts.MaxConnPerUser <= 0 {
		opts.MaxConnPerUser = 5
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 4096
	}

	return &Manager{
		clients:        make(map[string]*Client),
		userIndex:      make(map[string]map[string]bool),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		HandleMessage:  make(chan *ClientMessage),
		done:           make(chan struct{}),
		maxConnPerUser: opts.MaxConnPerUser,
		maxMessageSize: opts.MaxMessageSize,
		writeWait:      opts.WriteWait,
		pongWait:       opts.PongWait,
		pingPeriod:     opts.PingPeriod,
		log:            log,
	}
}

func (m *Manager) SetMessageHandler(handler MessageHandler) {
	m.messageHandler = handler
}

// Run serves the register, unregister and inbound message channels until ctx is done, then
// closes every connection.
func (m *Manager) Run(ctx context.Context) {
	defer m.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-m.Register:
			if err := m.registerClient(client); err != nil {
				m.log.Warnw("connection rejected", "user", client.Username, "error", err)
			}

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)
		}
	}
}

func (m *Manager) shutdown() {
	m.stopOnce.Do(func() {
		close(m.done)
	})

	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	for id, client := range m.clients {
		close(client.Send)
		delete(m.clients, id)
	}
	m.userIndex = make(map[string]map[string]bool)
}

// Connect hands a new client to the run loop. It fails once the manager has shut down.
func (m *Manager) Connect(client *Client) error {
	select {
	case m.Register <- client:
		return nil
	case <-m.done:
		return errors.New("websocket manager stopped")
	}
}

func (m *Manager) unregister(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) registerClient(client *Client) error {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if len(m.userIndex[client.Username]) >= m.maxConnPerUser {
		close(client.Send)
		return ErrTooManyConnections
	}

	if m.userIndex[client.Username] == nil {
		m.userIndex[client.Username] = make(map[string]bool)
	}

	m.clients[client.ID] = client
	m.userIndex[client.Username][client.ID] = true

	m.log.Debugw("client registered", "client", client.ID, "user", client.Username)
	return nil
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	m.removeLocked(client)
}

func (m *Manager) removeLocked(client *Client) {
	if _, ok := m.clients[client.ID]; !ok {
		return
	}

	delete(m.clients, client.ID)
	delete(m.userIndex[client.Username], client.ID)
	if len(m.userIndex[client.Username]) == 0 {
		delete(m.userIndex, client.Username)
	}

	close(client.Send)
	m.log.Debugw("client unregistered", "client", client.ID, "user", client.Username)
}

func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		m.log.Debugw("malformed websocket message", "client", clientMsg.Client.ID, "error", err)
		m.sendError(clientMsg.Client, "malformed message")
		return
	}

	if m.messageHandler == nil {
		return
	}

	if err := m.messageHandler.HandleWebSocketMessage(clientMsg.Client, &msg); err != nil {
		m.log.Debugw("websocket message rejected", "client", clientMsg.Client.ID, "type", msg.Type, "error", err)
		m.sendError(clientMsg.Client, err.Error())
	}
}

func (m *Manager) sendError(client *Client, text string) {
	msg, err := NewMessage(TypeError, &ErrorPayload{Message: text})
	if err != nil {
		return
	}
	_ = m.SendToClient(client.ID, msg)
}

// BroadcastToUser queues message on every connection of username. Connections whose buffer is
// full are dropped.
func (m *Manager) BroadcastToUser(username string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	var slow []*Client

	m.clientsMutex.RLock()
	for clientID := range m.userIndex[username] {
		client := m.clients[clientID]
		if !client.Enqueue(messageBytes) {
			slow = append(slow, client)
		}
	}
	m.clientsMutex.RUnlock()

	if len(slow) > 0 {
		m.clientsMutex.Lock()
		for _, client := range slow {
			m.log.Warnw("send buffer full, closing connection", "client", client.ID, "user", client.Username)
			m.removeLocked(client)
		}
		m.clientsMutex.Unlock()
	}

	return nil
}

func (m *Manager) SendToClient(clientID string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	client, exists := m.clients[clientID]
	if !exists {
		return nil
	}

	if !client.Enqueue(messageBytes) {
		m.log.Warnw("send buffer full", "client", clientID)
	}

	return nil
}

// NotifyUser pushes an account event to the user's connections.
func (m *Manager) NotifyUser(username, event string, payload interface{}) {
	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		m.log.Errorw("failed to encode notification", "event", event, "error", err)
		return
	}

	if err := m.BroadcastToUser(username, msg); err != nil {
		m.log.Errorw("failed to broadcast notification", "event", event, "user", username, "error", err)
	}
}

// RenameUser moves the connections of oldUsername under newUsername.
func (m *Manager) RenameUser(oldUsername, newUsername string) {
	if oldUsername == newUsername {
		return
	}

	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	moved, ok := m.userIndex[oldUsername]
	if !ok {
		return
	}
	delete(m.userIndex, oldUsername)

	if m.userIndex[newUsername] == nil {
		m.userIndex[newUsername] = make(map[string]bool)
	}
	for clientID := range moved {
		m.clients[clientID].Username = newUsername
		m.userIndex[newUsername][clientID] = true
	}
}

// DisconnectUser closes every connection of username. Frames already queued are still written.
func (m *Manager) DisconnectUser(username string) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	for clientID := range m.userIndex[username] {
		m.removeLocked(m.clients[clientID])
	}
}

func (m *Manager) GetUserConnections(username string) int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	return len(m.userIndex[username])
}
