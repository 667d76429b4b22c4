// Package feed pushes applied operations to websocket subscribers. Clients
// subscribe to the operations stream or to individual record keys; every
// committed operation is fanned out as one JSON event.
package feed

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LeJamon/goswapd/internal/api/jsonrpc"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

// Stream names a subscription class.
type Stream string

const (
	// StreamOperations delivers every applied operation.
	StreamOperations Stream = "operations"

	// StreamAccounts delivers operations that changed one of the record
	// keys the client listed.
	StreamAccounts Stream = "accounts"
)

const (
	sendBuffer    = 256
	maxMessage    = 512 * 1024
	pongWait      = 60 * time.Second
	pingPeriod    = 54 * time.Second
	writeDeadline = 10 * time.Second
)

// Hub owns the websocket connections and implements the publisher the RPC
// layer hands applied operations to.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[uint64]*client
	nextID  uint64
	closed  bool
}

var _ jsonrpc.EventPublisher = (*Hub)(nil)

type client struct {
	id   uint64
	conn *websocket.Conn
	send chan []byte

	mu       sync.RWMutex
	streams  map[Stream]struct{}
	accounts map[record.Address]struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[uint64]*client),
	}
}

// ServeHTTP upgrades the request and runs the connection until it drops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("feed: upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &client{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		streams:  make(map[Stream]struct{}),
		accounts: make(map[record.Address]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		cancel()
		conn.Close()
		return
	}
	h.nextID++
	c.id = h.nextID
	h.clients[c.id] = c
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscriberCount returns the number of clients subscribed to a stream.
func (h *Hub) SubscriberCount(stream Stream) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, c := range h.clients {
		c.mu.RLock()
		if _, subscribed := c.streams[stream]; subscribed {
			count++
		}
		c.mu.RUnlock()
	}
	return count
}

// Close drops every connection and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.drop(c)
	}
}

func (h *Hub) drop(c *client) {
	c.cancel()
	c.conn.Close()

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
}

// readLoop consumes subscribe and unsubscribe commands until the peer
// goes away.
func (h *Hub) readLoop(c *client) {
	defer h.drop(c)

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("feed: client %d read: %v", c.id, err)
			}
			return
		}
		h.handleCommand(c, message)
	}
}

// writeLoop drains the send queue and keeps the connection alive with
// pings.
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

type command struct {
	Command  string      `json:"command"`
	ID       interface{} `json:"id,omitempty"`
	Streams  []Stream    `json:"streams,omitempty"`
	Accounts []string    `json:"accounts,omitempty"`
}

func (h *Hub) handleCommand(c *client, message []byte) {
	var cmd command
	if err := json.Unmarshal(message, &cmd); err != nil {
		h.sendError(c, nil, "invalidJSON", "Invalid JSON: "+err.Error())
		return
	}

	switch cmd.Command {
	case "subscribe":
		h.handleSubscribe(c, cmd)
	case "unsubscribe":
		h.handleUnsubscribe(c, cmd)
	case "ping":
		h.sendResponse(c, cmd.ID, map[string]interface{}{})
	case "":
		h.sendError(c, cmd.ID, "missingCommand", "Missing command field")
	default:
		h.sendError(c, cmd.ID, "unknownCommand", "Unknown command: "+cmd.Command)
	}
}

func (h *Hub) handleSubscribe(c *client, cmd command) {
	accounts, err := parseAccounts(cmd.Accounts)
	if err != nil {
		h.sendError(c, cmd.ID, "invalidParams", err.Error())
		return
	}
	for _, stream := range cmd.Streams {
		if stream != StreamOperations && stream != StreamAccounts {
			h.sendError(c, cmd.ID, "invalidParams", "Unknown stream: "+string(stream))
			return
		}
	}

	c.mu.Lock()
	for _, stream := range cmd.Streams {
		c.streams[stream] = struct{}{}
	}
	for _, account := range accounts {
		c.accounts[account] = struct{}{}
	}
	if len(accounts) > 0 {
		c.streams[StreamAccounts] = struct{}{}
	}
	c.mu.Unlock()

	h.sendResponse(c, cmd.ID, map[string]interface{}{"subscribed": true})
}

func (h *Hub) handleUnsubscribe(c *client, cmd command) {
	accounts, err := parseAccounts(cmd.Accounts)
	if err != nil {
		h.sendError(c, cmd.ID, "invalidParams", err.Error())
		return
	}

	c.mu.Lock()
	for _, stream := range cmd.Streams {
		delete(c.streams, stream)
	}
	for _, account := range accounts {
		delete(c.accounts, account)
	}
	if len(c.accounts) == 0 {
		delete(c.streams, StreamAccounts)
	}
	c.mu.Unlock()

	h.sendResponse(c, cmd.ID, map[string]interface{}{"unsubscribed": true})
}

func parseAccounts(hexKeys []string) ([]record.Address, error) {
	accounts := make([]record.Address, 0, len(hexKeys))
	for _, s := range hexKeys {
		account, err := record.AddressFromHex(s)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (h *Hub) sendResponse(c *client, id interface{}, result map[string]interface{}) {
	response := map[string]interface{}{
		"type":   "response",
		"status": "success",
		"result": result,
	}
	if id != nil {
		response["id"] = id
	}
	h.enqueue(c, response)
}

func (h *Hub) sendError(c *client, id interface{}, name, message string) {
	response := map[string]interface{}{
		"type":          "response",
		"status":        "error",
		"error":         name,
		"error_message": message,
	}
	if id != nil {
		response["id"] = id
	}
	h.enqueue(c, response)
}

// enqueue queues one command response. A full queue means the peer stopped
// reading; the connection is dropped.
func (h *Hub) enqueue(c *client, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("feed: marshal: %v", err)
		return
	}
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	default:
		log.Printf("feed: client %d send queue full, dropping connection", c.id)
		h.drop(c)
	}
}

// Event is the wire form of one applied operation.
type Event struct {
	Type     string       `json:"type"`
	Seq      uint64       `json:"seq"`
	Tag      string       `json:"tag"`
	Result   string       `json:"result"`
	Accounts []string     `json:"accounts,omitempty"`
	Metadata *op.Metadata `json:"metadata,omitempty"`
}

// PublishApplied fans one applied operation out to subscribers. Operations
// stream subscribers receive every event; account subscribers receive the
// events whose changes touched one of their keys.
func (h *Hub) PublishApplied(sub op.Submission, result op.ApplyResult) {
	if !result.Applied {
		return
	}

	changed := changedKeys(result.Metadata)
	event := Event{
		Type:     "operationApplied",
		Seq:      result.Seq,
		Tag:      result.Tag.String(),
		Result:   result.Result.String(),
		Metadata: result.Metadata,
	}
	for _, key := range changed {
		event.Accounts = append(event.Accounts, key.String())
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("feed: marshal event seq %d: %v", result.Seq, err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if c.wants(changed) {
			h.enqueueRaw(c, data)
		}
	}
}

func (h *Hub) enqueueRaw(c *client, data []byte) {
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	default:
		log.Printf("feed: client %d lagging, event dropped", c.id)
	}
}

func (c *client) wants(changed []record.Address) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, all := c.streams[StreamOperations]; all {
		return true
	}
	if _, filtered := c.streams[StreamAccounts]; !filtered {
		return false
	}
	for _, key := range changed {
		if _, watched := c.accounts[key]; watched {
			return true
		}
	}
	return false
}

func changedKeys(metadata *op.Metadata) []record.Address {
	if metadata == nil {
		return nil
	}
	keys := make([]record.Address, 0, len(metadata.Changes))
	for _, change := range metadata.Changes {
		keys = append(keys, change.Key)
	}
	return keys
}
