package handlers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"

	"github.com/ellavondegurechaff/gavel/gavelbot"
	"github.com/ellavondegurechaff/gavel/gavelbot/commands"
	"github.com/ellavondegurechaff/gavel/gavelbot/utils"
)

// MessageHandler listens for chat messages in the configured channels,
// strips the command prefix, tokenizes the line, and dispatches it. The
// reply is computed first (the router releases the auction lock before
// returning) and only then sent, so message I/O never happens under the
// lock.
func MessageHandler(b *gavelbot.Bot, router *commands.Router, sender *gavelbot.ChannelSender) bot.EventListener {
	channels := make(map[string]struct{}, len(b.Cfg.Bot.Channels))
	for _, id := range b.Cfg.Bot.Channels {
		channels[id.String()] = struct{}{}
	}

	return bot.NewListenerFunc(func(e *events.MessageCreate) {
		if e.Message.Author.Bot {
			return
		}
		if _, ok := channels[e.ChannelID.String()]; !ok {
			return
		}

		prefix := b.Cfg.Bot.Prefix
		content := e.Message.Content
		if prefix == "" || !strings.HasPrefix(content, prefix) {
			return
		}

		words := utils.SplitCommand(strings.TrimPrefix(content, prefix))
		if len(words) == 0 {
			return
		}

		display := e.Message.Author.Username
		if e.Message.Author.GlobalName != nil && *e.Message.Author.GlobalName != "" {
			display = *e.Message.Author.GlobalName
		}
		who := commands.Sender{
			Name:    strings.ToLower(e.Message.Author.Username),
			Display: display,
		}

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		reply := router.Dispatch(ctx, e.ChannelID, who, words)

		slog.Info("Command handled",
			slog.String("type", "cmd"),
			slog.String("name", strings.ToLower(words[0])),
			slog.String("user_name", who.Name),
			slog.String("channel_id", e.ChannelID.String()),
			slog.Duration("took", time.Since(start)))

		if reply == "" {
			return
		}
		if err := sender.SendLine(ctx, e.ChannelID, reply); err != nil {
			slog.Error("Failed to send command reply",
				slog.String("type", "cmd"),
				slog.String("channel_id", e.ChannelID.String()),
				slog.Any("error", err))
		}
	})
}
