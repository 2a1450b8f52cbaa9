// Package dev provides developer-only commands, registered in dev guilds.
package dev

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/AuroraStudios/AuroraBotGo/pkg/config"
	"github.com/AuroraStudios/AuroraBotGo/pkg/database"
	"github.com/AuroraStudios/AuroraBotGo/pkg/discord"
	"github.com/AuroraStudios/AuroraBotGo/pkg/errors"
	"github.com/AuroraStudios/AuroraBotGo/pkg/logger"
	"github.com/AuroraStudios/AuroraBotGo/pkg/music"
)

// CreateEvalCommand creates the /eval dev command
func CreateEvalCommand() *discord.Command {
	return discord.NewCommand(
		"eval",
		"Evaluate Go code against the running bot (dangerous)",
		"dev",
		evalHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "code",
			Description: "Go code or expression to evaluate",
			Required:    true,
		},
	).AsDev()
}

func evalHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()
		start := time.Now()

		ctx.Defer()

		code := ctx.GetStringOption("code")
		code = strings.TrimPrefix(code, "```go")
		code = strings.TrimPrefix(code, "```")
		code = strings.TrimSuffix(code, "```")
		code = strings.TrimSpace(code)

		i := interp.New(interp.Options{})

		if err := i.Use(stdlib.Symbols); err != nil {
			ctx.EditReply(fmt.Sprintf("❌ Error loading stdlib: %v", err))
			return
		}

		botExports := map[string]reflect.Value{
			"Ctx":     reflect.ValueOf(ctx),
			"Bot":     reflect.ValueOf(ctx.Client),
			"Session": reflect.ValueOf(ctx.Session),
			"DB":      reflect.ValueOf(database.Get()),
			"Music":   reflect.ValueOf(music.Get()),
			"Config":  reflect.ValueOf(config.Get()),
		}

		if err := i.Use(interp.Exports{
			"github.com/AuroraStudios/AuroraBotGo/internal/commands/dev/dev": botExports,
		}); err != nil {
			ctx.EditReply(fmt.Sprintf("❌ Error registering variables: %v", err))
			return
		}

		if _, err := i.Eval(`import . "github.com/AuroraStudios/AuroraBotGo/internal/commands/dev"`); err != nil {
			ctx.EditReply(fmt.Sprintf("❌ Error importing variables: %v", err))
			return
		}

		res, err := i.Eval(code)

		var output string
		if err != nil {
			output = fmt.Sprintf("❌ **Execution error:**\n```go\n%v\n```", err)
		} else {
			resStr := "nil"
			if res.IsValid() {
				resStr = fmt.Sprintf("%#v", res.Interface())
			}
			if len(resStr) > 1900 {
				resStr = resStr[:1900] + "... (truncated)"
			}
			output = fmt.Sprintf("✅ **Result:**\n```go\n%s\n```", resStr)
		}

		logger.Debug(fmt.Sprintf("Eval finished in %s", time.Since(start)), "DevEval")
		ctx.EditReply(output)
	}()
	return nil
}
