package invites

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitful-pannul/kinogate/internal/platform/telegram"
)

var (
	// ErrPlatformUnavailable: transport failure talking to Telegram, retryable.
	ErrPlatformUnavailable = errors.New("chat platform unavailable")
	// ErrPlatformRejected: Telegram refused the request, typically because
	// the bot lacks invite rights in the gated chat. Operator-facing.
	ErrPlatformRejected = errors.New("chat platform rejected invite request")
)

// InviteCreator is the slice of the Telegram client the issuer needs.
type InviteCreator interface {
	CreateChatInviteLink(ctx context.Context, chatID int64, memberLimit int) (*telegram.ChatInviteLink, error)
	RevokeChatInviteLink(ctx context.Context, chatID int64, inviteLink string) error
	GetChatMember(ctx context.Context, chatID, userID int64) (*telegram.ChatMember, error)
}

// Service mints single-use invite links for the gated chat. The member limit
// of one is the mechanism that keeps a verified visitor from sharing the
// link; Telegram enforces it, the gate just never asks for more.
type Service struct {
	tg     InviteCreator
	chatID int64
}

func NewService(tg InviteCreator, chatID int64) *Service {
	return &Service{tg: tg, chatID: chatID}
}

// IssueSingleUseInvite requests one invite link limited to a single join and
// no expiry, returning it as an opaque token.
func (s *Service) IssueSingleUseInvite(ctx context.Context) (string, error) {
	link, err := s.tg.CreateChatInviteLink(ctx, s.chatID, 1)
	if err != nil {
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: %s", ErrPlatformRejected, apiErr.Description)
		}
		return "", fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}
	return link.InviteLink, nil
}

// RevokeInvite invalidates a minted link that will never be handed out,
// so it cannot linger as a live way into the gated chat.
func (s *Service) RevokeInvite(ctx context.Context, link string) error {
	if err := s.tg.RevokeChatInviteLink(ctx, s.chatID, link); err != nil {
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %s", ErrPlatformRejected, apiErr.Description)
		}
		return fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}
	return nil
}

// CheckBotRights probes whether the bot can mint invites in the gated chat.
// Called at startup so a missing admin grant surfaces before the first
// visitor hits it.
func (s *Service) CheckBotRights(ctx context.Context, botID int64) error {
	member, err := s.tg.GetChatMember(ctx, s.chatID, botID)
	if err != nil {
		return err
	}
	if member.Status == "creator" {
		return nil
	}
	if member.Status != "administrator" || !member.CanInviteUsers {
		return fmt.Errorf("%w: bot status %q, can_invite_users=%v", ErrPlatformRejected, member.Status, member.CanInviteUsers)
	}
	return nil
}
