// Package web provides API routes for the web server.
package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
	"github.com/AuroraStudios/AuroraBotGo/pkg/music"
)

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server) {
	s.GET("/health", healthHandler)

	api := s.Group("/api")
	{
		api.GET("/stats", statsHandler)
		api.GET("/guilds/:id/queue", guildQueueHandler)
		api.GET("/guilds/:id/history", guildHistoryHandler)
	}
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "AuroraBot Go is running",
	})
}

// statsHandler returns bot-wide statistics
func statsHandler(c *gin.Context) {
	client := discord.Get()
	svc := music.Get()

	botOnline := client != nil && client.IsReady()
	uptime := ""
	guilds := 0
	if client != nil {
		uptime = time.Since(client.StartTime).Round(time.Second).String()
		guilds = client.GuildCount()
	}
	activeQueues := 0
	if svc != nil {
		activeQueues = svc.ActiveQueues()
	}

	c.JSON(http.StatusOK, gin.H{
		"bot": gin.H{
			"isOnline": botOnline,
			"uptime":   uptime,
			"guilds":   guilds,
		},
		"music": gin.H{
			"activeQueues": activeQueues,
		},
	})
}

type songView struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Author    string `json:"author"`
	Duration  string `json:"duration"`
	Requester string `json:"requester"`
}

func viewOf(s *music.Song) songView {
	return songView{
		Name:      s.Name,
		URL:       s.URL,
		Author:    s.Author,
		Duration:  s.FormatDuration(),
		Requester: s.RequesterName,
	}
}

// guildQueueHandler returns a read-only snapshot of a guild's queue
func guildQueueHandler(c *gin.Context) {
	svc := music.Get()
	if svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "music service unavailable"})
		return
	}

	q, ok := svc.Resolve(music.ByGuild(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active queue for this guild"})
		return
	}

	snapshot := svc.Snapshot(q.GuildID)
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active queue for this guild"})
		return
	}

	var current *songView
	if snapshot.Current != nil {
		v := viewOf(snapshot.Current)
		current = &v
	}
	pending := make([]songView, 0, len(snapshot.Pending))
	for _, s := range snapshot.Pending {
		pending = append(pending, viewOf(s))
	}

	c.JSON(http.StatusOK, gin.H{
		"guildId": snapshot.GuildID,
		"current": current,
		"pending": pending,
		"paused":  snapshot.Paused,
		"repeat":  snapshot.Repeat.String(),
		"volume":  snapshot.Volume,
	})
}

// guildHistoryHandler returns a guild's recent plays
func guildHistoryHandler(c *gin.Context) {
	svc := music.Get()
	if svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "music service unavailable"})
		return
	}

	items, source, err := svc.History(c.Param("id"), "", 25)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}

	sourceName := "live"
	if source == music.HistoryPersisted {
		sourceName = "persisted"
	}

	views := make([]gin.H, 0, len(items))
	for _, item := range items {
		views = append(views, gin.H{
			"name":      item.Name,
			"url":       item.URL,
			"requester": item.RequesterName,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"guildId": c.Param("id"),
		"source":  sourceName,
		"history": views,
	})
}
