// Package dispatch routes verified interactions to their handlers.
//
// It is called only after the request signature has been verified. Every
// path returns a response within the platform's reply window; internal
// failures degrade to a user-visible error message instead of an unanswered
// request.
package dispatch

import (
	"context"
	"fmt"

	"weeklybot/internal/discord"
	"weeklybot/internal/storage"
	logx "weeklybot/pkg/logx"
)

const commandConfigure = "configure"

// Option names of the configure command.
const (
	optChannel    = "channel"
	optBossBattle = "boss_battle"
)

// User-visible reply texts.
const (
	msgGuildOnly      = "This command can only be used in a server."
	msgUnknownCommand = "Unknown command."
	msgSaveFailed     = "Could not save the configuration right now. Please try again."
)

// channelSources is the resolution order for the notification channel:
// first non-empty wins. The order is behaviorally significant — an explicit
// option always beats the channel the command was invoked from.
var channelSources = [...]func(*discord.Interaction) string{
	func(in *discord.Interaction) string { s, _ := in.StringOption(optChannel); return s },
	func(in *discord.Interaction) string { return in.ChannelID },
}

type Dispatcher struct {
	store storage.Store
	log   logx.Logger
}

func New(store storage.Store, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{store: store, log: log}
}

// Dispatch routes one verified interaction and produces its reply.
// Only the configure path touches the store; everything else is pure.
func (d *Dispatcher) Dispatch(ctx context.Context, in *discord.Interaction) discord.Response {
	switch in.Kind() {
	case discord.KindPing:
		return discord.Pong()
	case discord.KindCommand:
		return d.dispatchCommand(ctx, in)
	default:
		// Acknowledge without content.
		return discord.Response{}
	}
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, in *discord.Interaction) discord.Response {
	name := in.CommandName()
	if name != commandConfigure {
		d.log.Debug("unknown command", logx.String("command", name))
		return discord.Message(msgUnknownCommand)
	}

	if in.GuildID == "" {
		return discord.Message(msgGuildOnly)
	}

	channelID := resolveChannel(in)
	showBoss := in.BoolOption(optBossBattle, true)

	cfg := storage.TenantConfig{
		GuildID:        in.GuildID,
		ChannelID:      channelID,
		ShowBossBattle: showBoss,
	}
	if err := d.store.Upsert(ctx, cfg); err != nil {
		d.log.Error("config upsert failed", logx.String("guild", in.GuildID), logx.Err(err))
		return discord.Message(msgSaveFailed)
	}

	d.log.Info("config saved",
		logx.String("guild", in.GuildID),
		logx.String("channel", channelID),
		logx.Bool("boss_battle", showBoss))
	return discord.Message(fmt.Sprintf("Configuration saved! Channel: <#%s>, Boss Messages: %v", channelID, showBoss))
}

func resolveChannel(in *discord.Interaction) string {
	for _, src := range channelSources {
		if v := src(in); v != "" {
			return v
		}
	}
	return ""
}
