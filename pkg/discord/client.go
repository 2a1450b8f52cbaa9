// Package discord provides the Discord bot client and related structures.
// It wraps discordgo with additional functionality for command, component
// and event handling.
package discord

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/AuroraStudios/AuroraBotGo/pkg/config"
	"github.com/AuroraStudios/AuroraBotGo/pkg/logger"
	"github.com/AuroraStudios/AuroraBotGo/pkg/music"
)

// Note: discordgo.Logger is a function, not an interface
func init() {
	discordgo.Logger = func(msgL int, caller int, format string, a ...interface{}) {
		logger.Info(fmt.Sprintf(format, a...), "DiscordGo")
	}
}

// ExtendedClient wraps discordgo.Session with additional functionality
type ExtendedClient struct {
	Session        *discordgo.Session
	Commands       *CommandCollection
	CommandHandler *CommandHandler
	EventHandler   *EventHandler
	StartTime      time.Time

	middlewares []Middleware
	components  map[string]ComponentRunFunc

	mu      sync.RWMutex
	isReady bool
}

// CommandCollection holds registered commands
type CommandCollection struct {
	commands map[string]*Command
	mu       sync.RWMutex
}

// NewCommandCollection creates a new CommandCollection
func NewCommandCollection() *CommandCollection {
	return &CommandCollection{
		commands: make(map[string]*Command),
	}
}

// Set adds or updates a command
func (cc *CommandCollection) Set(name string, cmd *Command) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.commands[name] = cmd
}

// Get retrieves a command by name
func (cc *CommandCollection) Get(name string) (*Command, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	cmd, ok := cc.commands[name]
	return cmd, ok
}

// Size returns the number of commands
func (cc *CommandCollection) Size() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.commands)
}

// All returns all commands
func (cc *CommandCollection) All() map[string]*Command {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	result := make(map[string]*Command)
	for k, v := range cc.commands {
		result[k] = v
	}
	return result
}

var (
	client *ExtendedClient
	once   sync.Once
)

// Init initializes the global Discord client
func Init(token string) (*ExtendedClient, error) {
	var err error
	once.Do(func() {
		client, err = NewClient(token)
	})
	return client, err
}

// Get returns the global Discord client
func Get() *ExtendedClient {
	return client
}

// NewClient creates a new ExtendedClient
func NewClient(token string) (*ExtendedClient, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates

	session.ShardCount = 1
	session.SyncEvents = false
	session.StateEnabled = true
	session.LogLevel = discordgo.LogWarning

	c := &ExtendedClient{
		Session:    session,
		Commands:   NewCommandCollection(),
		components: make(map[string]ComponentRunFunc),
	}

	c.CommandHandler = NewCommandHandler(c)
	c.EventHandler = NewEventHandler(c)
	c.middlewares = []Middleware{
		BlacklistGuard,
		VoiceGuard,
		PermissionGuard,
	}

	return c, nil
}

// Use appends a middleware to the command execution chain
func (c *ExtendedClient) Use(m Middleware) {
	c.middlewares = append(c.middlewares, m)
}

// RegisterComponent routes message component interactions whose custom ID
// starts with prefix to the given handler. The part of the custom ID after
// the prefix (minus a leading colon) is passed as the argument.
func (c *ExtendedClient) RegisterComponent(prefix string, run ComponentRunFunc) {
	c.components[prefix] = run
}

// Start initializes and starts the bot
func (c *ExtendedClient) Start() error {
	c.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		c.mu.Lock()
		c.isReady = true
		c.mu.Unlock()

		logger.Success("Bot connected as: "+r.User.Username, "Client")

		c.CommandHandler.RegisterCommands()
	})

	c.Session.AddHandler(c.handleInteraction)

	c.StartTime = time.Now()

	return c.Session.Open()
}

// fullCommandName builds the registry key, including subcommand paths
func fullCommandName(data discordgo.ApplicationCommandInteractionData) string {
	name := data.Name
	if len(data.Options) > 0 {
		opt := data.Options[0]
		if opt.Type == discordgo.ApplicationCommandOptionSubCommandGroup {
			if len(opt.Options) > 0 {
				name = data.Name + "." + opt.Name + "." + opt.Options[0].Name
			}
		} else if opt.Type == discordgo.ApplicationCommandOptionSubCommand {
			name = data.Name + "." + opt.Name
		}
	}
	return name
}

// handleInteraction handles incoming Discord interactions
func (c *ExtendedClient) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommandAutocomplete:
		commandName := fullCommandName(i.ApplicationCommandData())
		cmd, ok := c.Commands.Get(commandName)
		if !ok || cmd.AutoComplete == nil {
			return
		}
		cmd.AutoComplete(&CommandContext{Session: s, Interaction: i, Client: c})

	case discordgo.InteractionApplicationCommand:
		commandName := fullCommandName(i.ApplicationCommandData())
		cmd, ok := c.Commands.Get(commandName)
		if !ok {
			logger.Warn("Command not found: "+commandName, "Client")
			return
		}

		ctx := &CommandContext{Session: s, Interaction: i, Client: c}

		for _, m := range c.middlewares {
			if err := m(ctx, cmd); err != nil {
				if music.IsInfo(err) {
					ctx.ReplyEphemeralEmbed(music.ErrorEmbed(err.Error()))
				}
				return
			}
		}

		if err := cmd.Run(ctx); err != nil {
			c.replyError(ctx, commandName, err)
		}

	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		ctx := &CommandContext{Session: s, Interaction: i, Client: c}
		for prefix, run := range c.components {
			if customID == prefix || strings.HasPrefix(customID, prefix+":") {
				arg := strings.TrimPrefix(strings.TrimPrefix(customID, prefix), ":")
				if err := run(ctx, arg); err != nil {
					c.replyError(ctx, customID, err)
				}
				return
			}
		}
	}
}

// replyError renders a failure to the user. Informational errors are shown
// as-is; anything else is logged and answered generically.
func (c *ExtendedClient) replyError(ctx *CommandContext, source string, err error) {
	if music.IsInfo(err) {
		if respondErr := ctx.ReplyEphemeralEmbed(music.ErrorEmbed(err.Error())); respondErr != nil {
			ctx.EditReplyEmbed(music.ErrorEmbed(err.Error()))
		}
		return
	}
	logger.Error(fmt.Sprintf("Error executing %s: %v", source, err), "Client")
	if respondErr := ctx.ReplyEphemeralEmbed(music.ErrorEmbed("Something went wrong. Try again later.")); respondErr != nil {
		ctx.EditReplyEmbed(music.ErrorEmbed("Something went wrong. Try again later."))
	}
}

// Stop stops the bot and closes the session
func (c *ExtendedClient) Stop() error {
	c.mu.Lock()
	c.isReady = false
	c.mu.Unlock()

	if c.Session != nil {
		return c.Session.Close()
	}
	return nil
}

// IsReady returns true if the bot is ready
func (c *ExtendedClient) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReady
}

// GuildCount returns the number of guilds the bot is in
func (c *ExtendedClient) GuildCount() int {
	if c.Session == nil || c.Session.State == nil {
		return 0
	}
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	return len(c.Session.State.Guilds)
}

// GetConfig returns the bot configuration
func (c *ExtendedClient) GetConfig() *config.Config {
	return config.Get()
}
