package gavelbot

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"

	"github.com/ellavondegurechaff/gavel/gavelbot/auction"
	"github.com/ellavondegurechaff/gavel/gavelbot/database/repositories"
	"github.com/ellavondegurechaff/gavel/gavelbot/services"
)

// ChannelSender adapts the Discord REST client to the auction package's
// Sender interface. It reads the client off the Bot on every call; nothing
// sends before the gateway is up, by which point the client exists.
type ChannelSender struct {
	bot *Bot
}

func NewChannelSender(b *Bot) *ChannelSender {
	return &ChannelSender{bot: b}
}

func (s *ChannelSender) SendLine(ctx context.Context, channelID snowflake.ID, text string) error {
	_, err := s.bot.Client.Rest().CreateMessage(channelID,
		discord.NewMessageCreateBuilder().SetContent(text).Build(),
		rest.WithCtx(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", channelID, err)
	}
	return nil
}

// GatewayConnection exposes the gateway's liveness to the auction package.
type GatewayConnection struct {
	bot *Bot
}

func NewGatewayConnection(b *Bot) *GatewayConnection {
	return &GatewayConnection{bot: b}
}

func (c *GatewayConnection) Active() bool {
	if c.bot.Client == nil {
		return false
	}
	return c.bot.Client.Gateway().Status() == gateway.StatusReady
}

// RecordKeeper fans a finished auction out to whichever persistence backends
// are configured. Each backend's failure is logged and swallowed so one
// broken store never costs the other a record, and neither ever interrupts
// an auction.
type RecordKeeper struct {
	Repo    repositories.AuctionRepository
	Archive *services.ArchiveService
}

func (k *RecordKeeper) SaveFinished(ctx context.Context, channelID snowflake.ID, fin *auction.FinishedAuction) error {
	var firstErr error

	if k.Repo != nil {
		if _, err := k.Repo.Save(ctx, channelID, fin); err != nil {
			firstErr = err
		}
	}
	if k.Archive != nil {
		if err := k.Archive.StoreAuction(ctx, channelID, fin); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
