// Package lavalink provides a Lavalink client for music playback.
// Voice gateway handshakes, audio decoding and the playback engine itself all
// live in the Lavalink server; this client only connects to nodes, resolves
// tracks and issues playback commands.
package lavalink

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/AuroraStudios/AuroraBotGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// NodeConfig holds configuration for a Lavalink node
type NodeConfig struct {
	Name     string
	Host     string
	Port     int
	Password string
	Secure   bool
}

// TrackInfo contains information about a track
type TrackInfo struct {
	Identifier string `json:"identifier"`
	IsSeekable bool   `json:"isSeekable"`
	Author     string `json:"author"`
	Length     int64  `json:"length"`
	IsStream   bool   `json:"isStream"`
	Position   int64  `json:"position"`
	Title      string `json:"title"`
	URI        string `json:"uri"`
	ArtworkURL string `json:"artworkUrl"`
	SourceName string `json:"sourceName"`
}

// Track represents a playable track
type Track struct {
	Encoded string    `json:"encoded"`
	Info    TrackInfo `json:"info"`
}

// Load types returned by the node's loadtracks endpoint
const (
	LoadTypeTrack    = "track"
	LoadTypePlaylist = "playlist"
	LoadTypeSearch   = "search"
	LoadTypeEmpty    = "empty"
	LoadTypeError    = "error"
)

// PlaylistInfo describes a loaded playlist
type PlaylistInfo struct {
	Name          string `json:"name"`
	SelectedTrack int    `json:"selectedTrack"`
}

// LoadResult represents a load/search response from Lavalink
type LoadResult struct {
	LoadType     string       `json:"loadType"`
	PlaylistInfo PlaylistInfo `json:"playlistInfo"`
	Tracks       []*Track     `json:"tracks"`
	Exception    *struct {
		Message  string `json:"message"`
		Severity string `json:"severity"`
	} `json:"exception"`
}

// IsCollection reports whether the result refers to more than a single item
func (r *LoadResult) IsCollection() bool {
	return r.LoadType == LoadTypePlaylist
}

// ErrorMessage returns the exception message of a failed load, if any
func (r *LoadResult) ErrorMessage() string {
	if r.Exception == nil {
		return ""
	}
	return r.Exception.Message
}

// Client manages the connection to Lavalink
type Client struct {
	session   *discordgo.Session
	nodes     []*Node
	events    chan Event
	positions map[string]int64
	mu        sync.RWMutex
}

// Node represents a Lavalink node connection
type Node struct {
	config       NodeConfig
	conn         *websocket.Conn
	client       *Client
	connected    bool
	reconnecting bool
	closed       bool
	mu           sync.RWMutex
}

var (
	client *Client
	once   sync.Once
)

// Init initializes the global Lavalink client
func Init(session *discordgo.Session, nodeConfigs []NodeConfig) *Client {
	once.Do(func() {
		client = NewClient(session, nodeConfigs)
	})
	return client
}

// Get returns the global Lavalink client
func Get() *Client {
	return client
}

// NewClient creates a new Lavalink client
func NewClient(session *discordgo.Session, nodeConfigs []NodeConfig) *Client {
	logger.Debug("Initializing Lavalink client", "Lavalink")

	c := &Client{
		session:   session,
		nodes:     make([]*Node, 0, len(nodeConfigs)),
		events:    make(chan Event, 64),
		positions: make(map[string]int64),
	}

	for _, config := range nodeConfigs {
		c.nodes = append(c.nodes, &Node{config: config, client: c})
	}

	// Voice updates must be forwarded to the node so it can take over the
	// actual voice connection.
	session.AddHandler(c.voiceStateUpdate)
	session.AddHandler(c.voiceServerUpdate)

	return c
}

// Connect connects to all Lavalink nodes
func (c *Client) Connect() error {
	for _, node := range c.nodes {
		go node.connect()
	}
	return nil
}

// Disconnect closes all node connections
func (c *Client) Disconnect() {
	for _, node := range c.nodes {
		node.mu.Lock()
		node.closed = true
		if node.conn != nil {
			node.conn.Close()
		}
		node.connected = false
		node.mu.Unlock()
	}
}

// Events returns the typed playback event stream.
// A single consumer is expected; events are dropped when the channel is full.
func (c *Client) Events() <-chan Event {
	return c.events
}

// emit delivers a typed event without ever blocking the websocket reader
func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		logger.Warn(fmt.Sprintf("Event dropped (channel full): %s guild=%s", ev.Type, ev.GuildID), "Lavalink")
	}
}

// connect establishes connection to a Lavalink node
func (n *Node) connect() {
	n.mu.Lock()
	if n.connected || n.reconnecting || n.closed {
		n.mu.Unlock()
		return
	}
	n.reconnecting = true
	n.mu.Unlock()

	scheme := "ws"
	if n.config.Secure {
		scheme = "wss"
	}

	url := fmt.Sprintf("%s://%s:%d/v4/websocket", scheme, n.config.Host, n.config.Port)

	headers := http.Header{}
	headers.Set("Authorization", n.config.Password)
	headers.Set("User-Id", n.client.session.State.User.ID)
	headers.Set("Client-Name", "AuroraBot-Go/1.0")

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.Dial(url, headers)
	if err != nil {
		logger.Error(fmt.Sprintf("Error connecting to Lavalink %s: %v", n.config.Name, err), "Lavalink")
		n.mu.Lock()
		n.reconnecting = false
		n.mu.Unlock()

		// Retry connection
		go func() {
			time.Sleep(5 * time.Second)
			n.connect()
		}()
		return
	}

	n.mu.Lock()
	n.conn = conn
	n.connected = true
	n.reconnecting = false
	n.mu.Unlock()

	logger.Success(fmt.Sprintf("Connected to Lavalink node: %s", n.config.Name), "Lavalink")

	go n.readMessages()
}

// readMessages reads messages from the Lavalink websocket
func (n *Node) readMessages() {
	for {
		_, message, err := n.conn.ReadMessage()
		if err != nil {
			n.mu.RLock()
			closed := n.closed
			n.mu.RUnlock()
			if closed {
				return
			}
			logger.Warn(fmt.Sprintf("Error reading Lavalink message: %v", err), "Lavalink")
			n.handleDisconnect()
			return
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(message, &payload); err != nil {
			continue
		}

		n.handleMessage(payload)
	}
}

// handleMessage processes incoming Lavalink messages
func (n *Node) handleMessage(payload map[string]interface{}) {
	op, ok := payload["op"].(string)
	if !ok {
		return
	}

	switch op {
	case "ready":
		logger.Info("Lavalink ready", "Lavalink")
	case "playerUpdate":
		n.handlePlayerUpdate(payload)
	case "event":
		if ev, ok := translateEvent(payload); ok {
			n.client.emit(ev)
		}
	case "stats":
		// Node statistics are not used
	}
}

// handlePlayerUpdate records the playback position for a guild
func (n *Node) handlePlayerUpdate(payload map[string]interface{}) {
	guildID, ok := payload["guildId"].(string)
	if !ok {
		return
	}

	state, ok := payload["state"].(map[string]interface{})
	if !ok {
		return
	}

	position, _ := state["position"].(float64)

	n.client.mu.Lock()
	n.client.positions[guildID] = int64(position)
	n.client.mu.Unlock()
}

// handleDisconnect handles node disconnection
func (n *Node) handleDisconnect() {
	n.mu.Lock()
	n.connected = false
	if n.conn != nil {
		n.conn.Close()
	}
	closed := n.closed
	n.mu.Unlock()

	if closed {
		return
	}

	logger.Warn(fmt.Sprintf("Disconnected from Lavalink: %s. Retrying...", n.config.Name), "Lavalink")

	time.Sleep(5 * time.Second)
	go n.connect()
}

// sendOp sends an operation to the Lavalink node
func (n *Node) sendOp(data map[string]interface{}) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if !n.connected || n.conn == nil {
		return fmt.Errorf("node not connected")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return n.conn.WriteMessage(websocket.TextMessage, payload)
}

// sendToAnyNode sends an op to the first connected node
func (c *Client) sendToAnyNode(data map[string]interface{}) error {
	for _, node := range c.nodes {
		node.mu.RLock()
		connected := node.connected
		node.mu.RUnlock()
		if connected {
			return node.sendOp(data)
		}
	}
	return fmt.Errorf("no available Lavalink nodes")
}

// Position returns the last reported playback position for a guild in ms
func (c *Client) Position(guildID string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.positions[guildID]
}

// Voice handlers for Discord

func (c *Client) voiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.UserID != s.State.User.ID {
		return
	}

	c.sendToAnyNode(map[string]interface{}{
		"op":        "voiceUpdate",
		"guildId":   v.GuildID,
		"sessionId": v.SessionID,
	})
}

func (c *Client) voiceServerUpdate(s *discordgo.Session, v *discordgo.VoiceServerUpdate) {
	c.sendToAnyNode(map[string]interface{}{
		"op":      "voiceServerUpdate",
		"guildId": v.GuildID,
		"event": map[string]interface{}{
			"token":    v.Token,
			"endpoint": v.Endpoint,
		},
	})
}
