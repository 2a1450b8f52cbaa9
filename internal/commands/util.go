package commands

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/AuroraStudios/AuroraBotGo/pkg/config"
	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
	"github.com/AuroraStudios/AuroraBotGo/pkg/errors"
	"github.com/AuroraStudios/AuroraBotGo/pkg/music"
)

// RegisterUtilCommands registers general utility commands
func RegisterUtilCommands(client *discord.ExtendedClient) {
	ch := client.CommandHandler

	ch.RegisterCommand(discord.NewCommand(
		"ping",
		"Check the bot's latency",
		"utils",
		pingHandler,
	))

	ch.RegisterCommand(discord.NewCommand(
		"stats",
		"Show bot statistics",
		"utils",
		statsHandler,
	))

	ch.RegisterCommand(discord.NewCommand(
		"help",
		"List available commands",
		"utils",
		helpHandler,
	))
}

func pingHandler(ctx *discord.CommandContext) error {
	latency := ctx.Client.Session.HeartbeatLatency().Milliseconds()
	return ctx.Reply(fmt.Sprintf("🏓 Pong! Latency: %dms", latency))
}

func statsHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		uptime := time.Since(ctx.Client.StartTime).Round(time.Second)

		embed := &discordgo.MessageEmbed{
			Title: "📊 Bot statistics",
			Color: music.ColorPlaying,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "🤖 Bot version", Value: config.Version, Inline: true},
				{Name: "🐹 Go version", Value: strings.TrimPrefix(runtime.Version(), "go"), Inline: true},
				{Name: "📚 DiscordGo version", Value: discordgo.VERSION, Inline: true},
				{Name: "🖥 RAM usage", Value: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024), Inline: true},
				{Name: "⚙️ Runtime", Value: fmt.Sprintf("%d goroutines / %d CPUs", runtime.NumGoroutine(), runtime.NumCPU()), Inline: true},
				{Name: "⏱ Uptime", Value: uptime.String(), Inline: true},
				{Name: "🌐 Guilds", Value: fmt.Sprintf("%d", ctx.Client.GuildCount()), Inline: true},
				{Name: "🎵 Active queues", Value: fmt.Sprintf("%d", music.Get().ActiveQueues()), Inline: true},
			},
		}
		ctx.ReplyEmbed(embed)
	}()
	return nil
}

func helpHandler(ctx *discord.CommandContext) error {
	categories := make(map[string][]string)
	for name, cmd := range ctx.Client.Commands.All() {
		if cmd.IsDev || strings.Contains(name, ".") {
			continue
		}
		categories[cmd.Category] = append(categories[cmd.Category], fmt.Sprintf("`/%s` — %s", cmd.Name, cmd.Description))
	}

	embed := &discordgo.MessageEmbed{
		Title: "Commands",
		Color: music.ColorPlaying,
	}
	for category, lines := range categories {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  strings.ToUpper(category[:1]) + category[1:],
			Value: strings.Join(lines, "\n"),
		})
	}
	return ctx.ReplyEphemeralEmbed(embed)
}
