// Package main is the entry point for the AuroraBot Go application.
// It initializes all systems and starts the Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AuroraStudios/AuroraBotGo/internal/commands"
	"github.com/AuroraStudios/AuroraBotGo/internal/events"
	"github.com/AuroraStudios/AuroraBotGo/pkg/config"
	"github.com/AuroraStudios/AuroraBotGo/pkg/database"
	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
	"github.com/AuroraStudios/AuroraBotGo/pkg/errors"
	"github.com/AuroraStudios/AuroraBotGo/pkg/lavalink"
	"github.com/AuroraStudios/AuroraBotGo/pkg/logger"
	"github.com/AuroraStudios/AuroraBotGo/pkg/mqtt"
	"github.com/AuroraStudios/AuroraBotGo/pkg/music"
	"github.com/AuroraStudios/AuroraBotGo/pkg/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init()
	defer log.Close()

	logger.System("Starting AuroraBot Go...", "Main")
	logger.Info(fmt.Sprintf("Working directory: %s", getCurrentDir()), "Main")

	// Initialize error handler
	var discordClient *discord.ExtendedClient
	var lavalinkClient *lavalink.Client
	errors.Init(func() {
		if discordClient != nil {
			_ = discordClient.Stop()
		}
		if lavalinkClient != nil {
			lavalinkClient.Disconnect()
		}
	})
	defer errors.Get().Stop()

	// Initialize database
	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error opening database: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error(fmt.Sprintf("Error closing database: %v", err), "Main")
		}
	}()

	// Initialize MQTT
	mqttClientID := "aurorabot"
	if !cfg.IsProd() {
		mqttClientID = "aurorabot_canary"
	}

	mqttClient := mqtt.Init(
		cfg.MQTTHost,
		cfg.MQTTPort,
		cfg.MQTTUser,
		cfg.MQTTPassword,
		mqttClientID,
	)
	defer mqttClient.Destroy()

	// Initialize Discord client
	discordClient, err = discord.Init(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}

	// Lavalink rides on the Discord session for voice updates, so it is
	// built before the gateway connection opens.
	lavalinkClient = lavalink.Init(discordClient.Session, []lavalink.NodeConfig{
		{
			Name:     "AuroraMain",
			Host:     cfg.LinkHost,
			Port:     cfg.LinkPort,
			Password: cfg.LinkPassword,
			Secure:   false,
		},
	})

	// Initialize the music service with its collaborators
	musicService := music.Init(music.Options{
		DB:                db,
		Control:           lavalinkClient,
		Messenger:         music.NewSessionMessenger(discordClient.Session),
		Publisher:         mqttClient,
		DynamicInterval:   cfg.DynamicInterval,
		DisconnectTimeout: cfg.DisconnectTimeout,
	})

	// Register commands and events
	commands.RegisterAll(discordClient)
	events.RegisterAll(discordClient)

	// Initialize web server
	webServer := web.Init()
	web.SetupAPIRoutes(webServer)
	webServer.StartAsync(cfg.Port)

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := discordClient.Stop(); err != nil {
			logger.Error(fmt.Sprintf("Error stopping Discord client: %v", err), "Main")
		}
	}()

	// Connect to Lavalink after Discord is up
	if err := lavalinkClient.Connect(); err != nil {
		logger.Critical(fmt.Sprintf("Error connecting to Lavalink: %v", err), "Main")
		os.Exit(1)
	}
	defer lavalinkClient.Disconnect()

	// Pump player events into the music service
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go musicService.Run(ctx, lavalinkClient.Events())

	logger.Success("AuroraBot Go started successfully!", "Main")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Shutting down AuroraBot Go...", "Main")
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
