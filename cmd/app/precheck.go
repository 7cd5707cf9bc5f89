package main

import (
	"context"

	"github.com/bitful-pannul/kinogate/internal/common/logger"
	"github.com/bitful-pannul/kinogate/internal/platform/telegram"
)

type identityProber interface {
	GetMe(ctx context.Context) (*telegram.User, error)
}

type rightsChecker interface {
	CheckBotRights(ctx context.Context, botID int64) error
}

// probeTelegram verifies the bot credentials and its rights in the gated
// chat at startup. Failures surface loudly for the operator but never
// abort boot; only config validation does that.
func probeTelegram(ctx context.Context, tg identityProber, issuer rightsChecker) {
	me, err := tg.GetMe(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("telegram credential check failed, invites will fail until resolved")
		return
	}
	logger.Info().Str("bot", me.Username).Msg("Telegram bot authenticated")

	if err := issuer.CheckBotRights(ctx, me.ID); err != nil {
		logger.Error().Err(err).Msg("bot cannot mint invites in the gated chat yet")
	}
}
