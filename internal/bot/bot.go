package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bitful-pannul/kinogate/internal/common/logger"
	"github.com/bitful-pannul/kinogate/internal/features/gate/models"
	"github.com/bitful-pannul/kinogate/internal/platform/telegram"
)

// Transport is the slice of the Telegram client the bot loop needs.
type Transport interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// SessionStarter begins (or resumes) a gating session for a chat.
type SessionStarter interface {
	Begin(chatID int64) (*models.Session, error)
}

// Config carries the texts and identifiers the bot puts in front of visitors.
type Config struct {
	PrivateChatID int64
	BaseURL       string
	ChainID       uint64
	Contract      string
	MinAmount     uint64
	PollTimeout   int
}

// Bot consumes Telegram updates one at a time and hands out the sign-page
// link on /start. All gate decisions happen elsewhere; the bot is the thin
// command edge.
type Bot struct {
	tg   Transport
	gate SessionStarter
	cfg  Config
}

func New(tg Transport, gate SessionStarter, cfg Config) *Bot {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30
	}
	return &Bot{tg: tg, gate: gate, cfg: cfg}
}

// Run long-polls until ctx is cancelled. Handler errors are logged and the
// loop moves on; one bad update must never stop the bot.
func (b *Bot) Run(ctx context.Context) error {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := b.tg.GetUpdates(ctx, offset, b.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn().Err(err).Msg("getUpdates failed, backing off")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			if err := b.handleUpdate(ctx, update); err != nil {
				logger.Error().Int64("update_id", update.UpdateID).Err(err).Msg("update handling failed")
			}
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update telegram.Update) error {
	msg := update.Message
	if msg == nil {
		return nil
	}
	// The bot must not spam the gated chat itself.
	if msg.Chat.ID == b.cfg.PrivateChatID {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	cmd, _, _ := strings.Cut(text, " ")
	// Commands may arrive addressed, e.g. /start@gatebot.
	cmd, _, _ = strings.Cut(cmd, "@")

	switch cmd {
	case "/start":
		return b.handleStart(ctx, msg.Chat.ID)
	default:
		return b.tg.SendMessage(ctx, msg.Chat.ID, "type /start to start.")
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64) error {
	intro := fmt.Sprintf(
		"hello, to enter this chat you need at least %d of %s on chain %d. if you have that, sign the challenge to get your invite link.",
		b.cfg.MinAmount, b.cfg.Contract, b.cfg.ChainID,
	)
	if err := b.tg.SendMessage(ctx, chatID, intro); err != nil {
		return err
	}

	if _, err := b.gate.Begin(chatID); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/?chat_id=%d", strings.TrimRight(b.cfg.BaseURL, "/"), chatID)
	return b.tg.SendMessage(ctx, chatID, link)
}
