package service

import (
	"context"
	"errors"
	"math/big"

	"github.com/bitful-pannul/kinogate/internal/common/logger"
	"github.com/bitful-pannul/kinogate/internal/features/gate/models"
	"github.com/bitful-pannul/kinogate/internal/features/gate/repository"
	"github.com/bitful-pannul/kinogate/internal/service/ethbalance"
)

// nonTerminal is the from-set for every terminal transition.
var nonTerminal = []models.State{models.StateStarted, models.StateAwaitingProof}

// Service is the gate decision engine: it ties the session store, signature
// recovery, the balance oracle and invite issuance into one ordered decision
// per proof submission.
type Service struct {
	sessions  repository.SessionRepository
	verifier  AddressRecoverer
	oracle    BalanceClient
	issuer    InviteIssuer
	minAmount *big.Int
}

func NewService(sessions repository.SessionRepository, verifier AddressRecoverer, oracle BalanceClient, issuer InviteIssuer, minAmount uint64) *Service {
	return &Service{
		sessions:  sessions,
		verifier:  verifier,
		oracle:    oracle,
		issuer:    issuer,
		minAmount: new(big.Int).SetUint64(minAmount),
	}
}

// Begin ensures a session exists for chatID and marks it awaiting proof.
// Called by the bot when it hands out the sign-page link. Re-running /start
// on a live non-terminal session is harmless.
func (s *Service) Begin(chatID int64) (*models.Session, error) {
	sess, err := s.sessions.Ensure(chatID)
	if err != nil {
		return nil, err
	}
	if sess.State != models.StateStarted {
		return sess, nil
	}
	moved, err := s.sessions.Transition(chatID, []models.State{models.StateStarted}, models.StateAwaitingProof, nil)
	if errors.Is(err, repository.ErrStaleSession) {
		// Lost a race with another /start or a proof; current state wins.
		return s.sessions.Get(chatID)
	}
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// SubmitProof runs the full gate for one submission: session check,
// signature recovery, balance query, threshold policy, invite issuance.
// Terminal states latch; oracle and issuance failures leave the session
// non-terminal so the same signature can be retried.
func (s *Service) SubmitProof(ctx context.Context, chatID int64, signature string) models.Outcome {
	sess, err := s.sessions.Ensure(chatID)
	if err != nil {
		return models.Outcome{Kind: models.OutcomeError, Reason: "session error", Err: err}
	}

	switch sess.State {
	case models.StateVerified:
		// Idempotent replay: the stored invite, never a new one.
		return models.Outcome{Kind: models.OutcomeAlreadyVerified, InviteLink: sess.InviteLink}
	case models.StateDenied:
		// A denied session gets no second chance within its lifetime, and
		// notably no further oracle calls.
		return models.Outcome{Kind: models.OutcomeDenied, Reason: models.ReasonAlreadyDenied}
	}

	addr, err := s.verifier.Recover(signature)
	if err != nil {
		logger.Debug().Int64("chat_id", chatID).Err(err).Msg("signature rejected")
		s.deny(chatID)
		return models.Outcome{Kind: models.OutcomeDenied, Reason: models.ReasonInvalidSignature, Err: err}
	}

	balance, err := s.oracle.BalanceOf(ctx, addr)
	if err != nil {
		if errors.Is(err, ethbalance.ErrDecode) {
			// Misconfiguration, not a visitor problem. Shout at the operator
			// and keep the session open.
			logger.Error().Int64("chat_id", chatID).Err(err).
				Msg("balance oracle decode failure, check CONTRACT_ADDRESS and CHAIN_ID")
		} else {
			logger.Warn().Int64("chat_id", chatID).Err(err).Msg("balance oracle unavailable")
		}
		return models.Outcome{Kind: models.OutcomeError, Reason: models.ReasonOracleUnavailable, Err: err}
	}

	// Inclusive threshold: exactly minAmount qualifies.
	if balance.Cmp(s.minAmount) < 0 {
		logger.Info().Int64("chat_id", chatID).
			Str("address", addr.Hex()).
			Str("balance", balance.String()).
			Str("min_amount", s.minAmount.String()).
			Msg("balance below threshold")
		s.deny(chatID)
		return models.Outcome{Kind: models.OutcomeDenied, Reason: models.ReasonInsufficientBalance}
	}

	invite, err := s.issuer.IssueSingleUseInvite(ctx)
	if err != nil {
		// The visitor proved ownership; leave the session open so a retry
		// can still produce a link once the platform recovers.
		logger.Error().Int64("chat_id", chatID).Err(err).Msg("invite issuance failed")
		return models.Outcome{Kind: models.OutcomeError, Reason: models.ReasonIssuanceFailed, Err: err}
	}

	moved, err := s.sessions.Transition(chatID, nonTerminal, models.StateVerified, func(sess *models.Session) {
		sess.InviteLink = invite
	})
	if err != nil {
		// A concurrent submission won the compare-and-set; its recorded
		// state is authoritative. The invite minted here would otherwise
		// stay a live way into the chat, so revoke it before replaying.
		logger.Warn().Int64("chat_id", chatID).Err(err).Msg("verification raced, replaying stored state")
		if revokeErr := s.issuer.RevokeInvite(ctx, invite); revokeErr != nil {
			logger.Error().Int64("chat_id", chatID).Err(revokeErr).Msg("failed to revoke discarded invite")
		}
		return s.replay(chatID)
	}

	logger.Info().Int64("chat_id", chatID).Str("address", addr.Hex()).Msg("visitor verified, invite issued")
	return models.Outcome{Kind: models.OutcomeVerified, InviteLink: moved.InviteLink}
}

// deny latches a non-terminal session into StateDenied. A stale result means
// another submission already drove the session terminal, which is fine.
func (s *Service) deny(chatID int64) {
	_, err := s.sessions.Transition(chatID, nonTerminal, models.StateDenied, nil)
	if err != nil && !errors.Is(err, repository.ErrStaleSession) {
		logger.Warn().Int64("chat_id", chatID).Err(err).Msg("deny transition failed")
	}
}

// replay resolves a lost transition race from the stored terminal state.
func (s *Service) replay(chatID int64) models.Outcome {
	sess, err := s.sessions.Get(chatID)
	if err != nil {
		return models.Outcome{Kind: models.OutcomeError, Reason: models.ReasonIssuanceFailed, Err: err}
	}
	if sess.State == models.StateVerified {
		return models.Outcome{Kind: models.OutcomeAlreadyVerified, InviteLink: sess.InviteLink}
	}
	return models.Outcome{Kind: models.OutcomeDenied, Reason: models.ReasonAlreadyDenied}
}
