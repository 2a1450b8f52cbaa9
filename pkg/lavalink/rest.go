package lavalink

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// searchPrefix is prepended to plain text queries so the node performs a
// provider search instead of a direct URL load.
const searchPrefix = "ytsearch:"

// LoadTracks resolves an identifier (URL or search expression) against the
// first available node.
func (c *Client) LoadTracks(identifier string) (*LoadResult, error) {
	for _, node := range c.nodes {
		node.mu.RLock()
		connected := node.connected
		node.mu.RUnlock()
		if !connected {
			continue
		}

		scheme := "http"
		if node.config.Secure {
			scheme = "https"
		}

		endpoint := fmt.Sprintf("%s://%s:%d/v4/loadtracks?identifier=%s",
			scheme, node.config.Host, node.config.Port, url.QueryEscape(identifier))

		req, err := http.NewRequest("GET", endpoint, nil)
		if err != nil {
			continue
		}
		req.Header.Set("Authorization", node.config.Password)

		httpClient := &http.Client{Timeout: 10 * time.Second}
		resp, err := httpClient.Do(req)
		if err != nil {
			continue
		}

		var result LoadResult
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			continue
		}

		return &result, nil
	}

	return nil, fmt.Errorf("no available Lavalink nodes")
}

// Search resolves a user query: direct URLs are loaded as-is, anything else
// goes through the provider search.
func (c *Client) Search(query string) (*LoadResult, error) {
	identifier := query
	if !strings.HasPrefix(query, "http://") && !strings.HasPrefix(query, "https://") {
		identifier = searchPrefix + query
	}
	return c.LoadTracks(identifier)
}

// PlayEncoded starts playback of an encoded track in a guild
func (c *Client) PlayEncoded(guildID, encoded string) error {
	return c.sendToAnyNode(map[string]interface{}{
		"op":      "play",
		"guildId": guildID,
		"track":   encoded,
	})
}

// StopPlayback stops the current track in a guild
func (c *Client) StopPlayback(guildID string) error {
	return c.sendToAnyNode(map[string]interface{}{
		"op":      "stop",
		"guildId": guildID,
	})
}

// SetPaused pauses or resumes playback in a guild
func (c *Client) SetPaused(guildID string, paused bool) error {
	return c.sendToAnyNode(map[string]interface{}{
		"op":      "pause",
		"guildId": guildID,
		"pause":   paused,
	})
}

// SeekTo seeks the current track to the given position in milliseconds
func (c *Client) SeekTo(guildID string, positionMs int64) error {
	return c.sendToAnyNode(map[string]interface{}{
		"op":       "seek",
		"guildId":  guildID,
		"position": positionMs,
	})
}

// SetVolume sets the playback volume for a guild
func (c *Client) SetVolume(guildID string, volume int) error {
	return c.sendToAnyNode(map[string]interface{}{
		"op":      "volume",
		"guildId": guildID,
		"volume":  volume,
	})
}

// DestroyPlayer tells the node to drop all playback state for a guild
func (c *Client) DestroyPlayer(guildID string) {
	c.mu.Lock()
	delete(c.positions, guildID)
	c.mu.Unlock()

	c.sendToAnyNode(map[string]interface{}{
		"op":      "destroy",
		"guildId": guildID,
	})
}

// JoinVoice asks Discord to move the bot into a voice channel.
// The actual voice connection is handled by the node; we only need the
// gateway-side state change.
func (c *Client) JoinVoice(guildID, channelID string) error {
	if err := c.session.ChannelVoiceJoinManual(guildID, channelID, false, true); err != nil {
		return fmt.Errorf("error joining voice channel: %w", err)
	}
	return nil
}

// LeaveVoice disconnects the bot from voice in a guild
func (c *Client) LeaveVoice(guildID string) error {
	return c.session.ChannelVoiceJoinManual(guildID, "", false, true)
}
