package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/bitful-pannul/kinogate/internal/common/errors"
	"github.com/bitful-pannul/kinogate/internal/common/logger"
	"github.com/bitful-pannul/kinogate/internal/features/gate/models"
	"github.com/bitful-pannul/kinogate/internal/features/gate/repository"
	"github.com/bitful-pannul/kinogate/internal/service/ethbalance"
	"github.com/bitful-pannul/kinogate/internal/service/invites"
	"github.com/bitful-pannul/kinogate/internal/service/sigverify"
)

// GateService is the decision engine as seen from the HTTP edge.
type GateService interface {
	SubmitProof(ctx context.Context, chatID int64, signature string) models.Outcome
}

// Replier delivers gate replies back into the visitor's chat.
type Replier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// GateParams describes the gate to the sign page.
type GateParams struct {
	Challenge string `json:"challenge"`
	ChainID   uint64 `json:"chain_id"`
	Contract  string `json:"contract"`
	MinAmount uint64 `json:"min_amount"`
}

// Reply texts sent into the originating chat per outcome.
const (
	msgVerifying       = "verifying your signature..."
	msgVerified        = "damn what a chad, pls do join!"
	msgAlreadyVerified = "you're already verified, here's your link again:"
	msgBadSignature    = "that signature doesn't check out, not letting you in."
	msgLowBalance      = "you don't have enough tokens to enter... it's over for u"
	msgAlreadyDenied   = "this chat already had its shot."
	msgRetryLater      = "couldn't finish the check right now, try again in a bit."
)

type SubmitRequest struct {
	Signature string `json:"signature" binding:"required"`
}

type SubmitResponse struct {
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type Handler struct {
	gate    GateService
	replier Replier
	params  GateParams
}

func NewHandler(gate GateService, replier Replier, params GateParams) *Handler {
	return &Handler{gate: gate, replier: replier, params: params}
}

// Register mounts the gate routes on the given group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/challenge", h.GetChallenge)
	rg.POST("/signature", h.SubmitSignature)
}

// GetChallenge godoc
// @Summary      Gate parameters
// @Description  Returns the challenge text and gating requirements for the sign page.
// @Tags         gate
// @Produce      json
// @Success      200 {object} GateParams
// @Router       /challenge [get]
func (h *Handler) GetChallenge(c *gin.Context) {
	c.JSON(http.StatusOK, h.params)
}

// SubmitSignature godoc
// @Summary      Submit an ownership proof
// @Description  Verifies the signature over the configured challenge, checks the on-chain balance and, when qualifying, issues a single-use invite for the gated chat. Replies are also posted into the visitor's chat.
// @Tags         gate
// @Accept       json
// @Produce      json
// @Param        chat_id query int true "chat id from the sign-page link"
// @Param        body body SubmitRequest true "hex-encoded recoverable signature"
// @Success      200 {object} SubmitResponse
// @Failure      400 {object} SubmitResponse
// @Failure      403 {object} SubmitResponse
// @Failure      503 {object} SubmitResponse
// @Router       /signature [post]
func (h *Handler) SubmitSignature(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Query("chat_id"), 10, 64)
	if err != nil {
		badInput(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "unparsable chat_id"))
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "missing signature"))
		return
	}

	ctx := c.Request.Context()
	h.reply(ctx, chatID, msgVerifying)

	outcome := h.gate.SubmitProof(ctx, chatID, req.Signature)
	switch outcome.Kind {
	case models.OutcomeVerified:
		h.reply(ctx, chatID, msgVerified)
		h.reply(ctx, chatID, outcome.InviteLink)
		c.JSON(http.StatusOK, SubmitResponse{Status: string(outcome.Kind)})

	case models.OutcomeAlreadyVerified:
		h.reply(ctx, chatID, msgAlreadyVerified)
		h.reply(ctx, chatID, outcome.InviteLink)
		c.JSON(http.StatusOK, SubmitResponse{Status: string(outcome.Kind)})

	case models.OutcomeDenied:
		h.reply(ctx, chatID, denialText(outcome.Reason))
		c.JSON(http.StatusForbidden, SubmitResponse{Status: string(outcome.Kind), Reason: outcome.Reason})

	default:
		appErr := classify(outcome.Err)
		if appErr.Retryable() {
			logger.Warn().Int64("chat_id", chatID).Str("code", string(appErr.Code)).Err(appErr).Msg("submission failed, visitor may retry")
		} else {
			logger.Error().Int64("chat_id", chatID).Str("code", string(appErr.Code)).Err(appErr).Msg("submission failed")
		}
		h.reply(ctx, chatID, msgRetryLater)
		c.JSON(appErr.HTTPStatus(), SubmitResponse{
			Status:    string(models.OutcomeError),
			Reason:    outcome.Reason,
			Code:      string(appErr.Code),
			Retryable: appErr.Retryable(),
		})
	}
}

func badInput(c *gin.Context, appErr *apperrors.AppError) {
	c.JSON(appErr.HTTPStatus(), SubmitResponse{
		Status: "error",
		Reason: appErr.Message,
		Code:   string(appErr.Code),
	})
}

// classify wraps the engine's sentinel errors into the application error
// taxonomy at the delivery boundary.
func classify(err error) *apperrors.AppError {
	switch {
	case err == nil:
		return apperrors.New(apperrors.ErrCodeInternal, "gate could not decide")
	case errors.Is(err, sigverify.ErrMalformedSignature):
		return apperrors.Wrap(err, apperrors.ErrCodeMalformedSignature, "signature cannot be parsed")
	case errors.Is(err, sigverify.ErrRecoveryFailed):
		return apperrors.Wrap(err, apperrors.ErrCodeRecoveryFailed, "address recovery failed")
	case errors.Is(err, ethbalance.ErrTimeout):
		return apperrors.Wrap(err, apperrors.ErrCodeRPCTimeout, "balance query timed out")
	case errors.Is(err, ethbalance.ErrRPCUnavailable):
		return apperrors.Wrap(err, apperrors.ErrCodeRPCUnavailable, "balance oracle unreachable")
	case errors.Is(err, ethbalance.ErrDecode):
		return apperrors.Wrap(err, apperrors.ErrCodeOracleDecode, "balance response undecodable")
	case errors.Is(err, invites.ErrPlatformRejected):
		return apperrors.Wrap(err, apperrors.ErrCodePlatformRejected, "chat platform rejected invite")
	case errors.Is(err, invites.ErrPlatformUnavailable):
		return apperrors.Wrap(err, apperrors.ErrCodePlatformUnavailable, "chat platform unreachable")
	case errors.Is(err, repository.ErrSessionNotFound):
		return apperrors.Wrap(err, apperrors.ErrCodeSessionNotFound, "no session for chat")
	case errors.Is(err, repository.ErrStaleSession):
		return apperrors.Wrap(err, apperrors.ErrCodeStaleSession, "session already settled")
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "gate failure")
	}
}

func denialText(reason string) string {
	switch reason {
	case models.ReasonInsufficientBalance:
		return msgLowBalance
	case models.ReasonAlreadyDenied:
		return msgAlreadyDenied
	default:
		return msgBadSignature
	}
}

// reply is best-effort; a failed chat delivery must not fail the submission.
func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.replier.SendMessage(ctx, chatID, text); err != nil {
		logger.Warn().Int64("chat_id", chatID).Err(err).Msg("chat reply failed")
	}
}
