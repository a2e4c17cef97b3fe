package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/openalpha/fundvault/metrics"
)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by channel
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients

	// Subscription management
	subscriptions map[string]map[*Client]bool // topic -> clients

	// Inbound messages from clients
	broadcast chan []byte

	// Register/unregister requests
	register   chan *Client
	unregister chan *Client

	// Channel subscription requests
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest

	// Latest vault snapshot, pushed on the snapshot interval
	vaultBuffer *VaultUpdateMessage

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Configuration
	config *HubConfig
}

// HubConfig contains hub configuration
type HubConfig struct {
	// Snapshot cadence for the vault channel. Vault state moves on deposits,
	// approvals and fee cycles, not per tick, so seconds are plenty.
	VaultInterval time.Duration

	// Connection limits
	MaxClientsPerIP  int
	MaxSubscriptions int

	// Rate limiting
	MessageRateLimit int // Messages per second per client
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		VaultInterval:    time.Second,
		MaxClientsPerIP:  10,
		MaxSubscriptions: 50,
		MessageRateLimit: 100,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
	Action  string // "subscribe" or "unsubscribe"
}

// NewHub creates a new Hub
func NewHub(config *HubConfig) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:       make(map[*Client]bool),
		channels:      make(map[string]map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		broadcast:     make(chan []byte, 256),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan *SubscriptionRequest, 256),
		unsubscribe:   make(chan *SubscriptionRequest, 256),
		config:        config,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	vaultTicker := time.NewTicker(h.config.VaultInterval)
	defer vaultTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-vaultTicker.C:
			h.broadcastVaultState()
		}
	}
}

// registerClient adds a new client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	metrics.GetCollector().RecordWSConnection(1)
}

// unregisterClient removes a client
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)

		// Remove from all channels
		for channel, clients := range h.channels {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.channels, channel)
			}
		}

		// Remove from all subscriptions
		for topic := range h.subscriptions {
			delete(h.subscriptions[topic], client)
		}

		close(client.send)
		metrics.GetCollector().RecordWSConnection(-1)
	}
}

// handleSubscription handles a subscription request
func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]bool)
	}
	h.channels[channel][client] = true

	// Send subscription confirmation
	confirmation := &WSMessage{
		Type:    "subscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// handleUnsubscription handles an unsubscription request
func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if clients, ok := h.channels[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}

	// Send unsubscription confirmation
	confirmation := &WSMessage{
		Type:    "unsubscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// broadcastMessage sends a message to all clients in a channel
func (h *Hub) broadcastMessage(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Client buffer is full, skip
		}
	}
}

// BroadcastToChannel sends a message to all clients subscribed to a channel
func (h *Hub) BroadcastToChannel(channel string, message interface{}) {
	h.mu.RLock()
	clients, ok := h.channels[channel]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Make a copy of clients to avoid holding lock during send
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	timer := metrics.NewTimer()
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	for _, client := range clientList {
		select {
		case client.send <- data:
		default:
			// Client buffer is full, skip
		}
	}
	metrics.GetCollector().RecordWSMessage(channel, timer.ElapsedMs())
}

// ============ Channel-specific broadcasts ============

// UpdateVaultState buffers the latest vault snapshot for the next push
func (h *Hub) UpdateVaultState(update *VaultUpdateMessage) {
	h.mu.Lock()
	h.vaultBuffer = update
	h.mu.Unlock()
}

// broadcastVaultState pushes the buffered vault snapshot to subscribers
func (h *Hub) broadcastVaultState() {
	h.mu.RLock()
	update := h.vaultBuffer
	h.mu.RUnlock()

	if update == nil {
		return
	}

	msg := &WSMessage{
		Type:    "vault",
		Channel: "vault",
		Data:    update,
	}
	h.BroadcastToChannel("vault", msg)
}

// BroadcastRequestEvent broadcasts a withdrawal lifecycle event to the public
// requests channel and the requester's private channel
func (h *Hub) BroadcastRequestEvent(event *RequestEventMessage) {
	msg := &WSMessage{
		Type:    "request",
		Channel: "requests",
		Data:    event,
	}
	h.BroadcastToChannel("requests", msg)

	if event.Requester != "" {
		userChannel := "user:" + event.Requester
		userMsg := &WSMessage{
			Type:    "request",
			Channel: userChannel,
			Data:    event,
		}
		h.BroadcastToChannel(userChannel, userMsg)
	}
}

// BroadcastFeeEvent broadcasts a fee collection event to subscribers
func (h *Hub) BroadcastFeeEvent(event *FeeEventMessage) {
	msg := &WSMessage{
		Type:    "fees",
		Channel: "fees",
		Data:    event,
	}
	h.BroadcastToChannel("fees", msg)
}

// ============ Message Types ============

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel"`
	Data    interface{} `json:"data,omitempty"`
}

// VaultUpdateMessage represents a vault state snapshot
type VaultUpdateMessage struct {
	AUM                 string `json:"aum"`
	CustodyBalance      string `json:"custody_balance"`
	SharePrice          string `json:"share_price"`
	TotalShares         string `json:"total_shares"`
	LockedShares        string `json:"locked_shares"`
	HighWaterMark       string `json:"high_water_mark"`
	PendingRequestCount int    `json:"pending_request_count"`
	Paused              bool   `json:"paused"`
	DepositsEnabled     bool   `json:"deposits_enabled"`
	Timestamp           int64  `json:"timestamp"`
}

// RequestEventMessage represents a withdrawal request lifecycle event
type RequestEventMessage struct {
	RequestID        uint64 `json:"request_id"`
	Requester        string `json:"requester"`
	Event            string `json:"event"` // "requested", "approved", "claimed", "cancelled"
	Shares           string `json:"shares"`
	SettlementAmount string `json:"settlement_amount"`
	AvailableAt      int64  `json:"available_at,omitempty"`
	Timestamp        int64  `json:"timestamp"`
}

// FeeEventMessage represents a fee collection event
type FeeEventMessage struct {
	Collected      bool   `json:"collected"`
	ManagementFee  string `json:"management_fee"`
	PerformanceFee string `json:"performance_fee"`
	HighWaterMark  string `json:"high_water_mark"`
	Timestamp      int64  `json:"timestamp"`
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelCount returns the number of active channels
func (h *Hub) GetChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.channels[channel]; ok {
		return len(clients)
	}
	return 0
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = generateID()
	}

	userID := r.URL.Query().Get("user_id")
	ip := getClientIPFromRequest(r)

	client := NewClient(h, conn, clientID, userID, ip)

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// Helper function to get client IP
func getClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}

// Generate a simple ID
func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
