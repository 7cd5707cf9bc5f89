package service

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitful-pannul/kinogate/internal/features/gate/models"
	"github.com/bitful-pannul/kinogate/internal/features/gate/repository/memory"
	"github.com/bitful-pannul/kinogate/internal/service/ethbalance"
	"github.com/bitful-pannul/kinogate/internal/service/invites"
	"github.com/bitful-pannul/kinogate/internal/service/sigverify"
)

var holder = common.HexToAddress("0x00000000000000000000000000000000DeaDBeef")

type fakeVerifier struct {
	addr common.Address
	err  error
}

func (f *fakeVerifier) Recover(string) (common.Address, error) {
	return f.addr, f.err
}

type fakeOracle struct {
	balance *big.Int
	err     error
	calls   int
}

func (f *fakeOracle) BalanceOf(context.Context, common.Address) (*big.Int, error) {
	f.calls++
	return f.balance, f.err
}

type fakeIssuer struct {
	err       error
	calls     int
	revoked   []string
	revokeErr error
	onIssue   func(link string)
}

func (f *fakeIssuer) IssueSingleUseInvite(context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	link := fmt.Sprintf("https://t.me/+invite%d", f.calls)
	if f.onIssue != nil {
		f.onIssue(link)
	}
	return link, nil
}

func (f *fakeIssuer) RevokeInvite(_ context.Context, link string) error {
	f.revoked = append(f.revoked, link)
	return f.revokeErr
}

type gateFixture struct {
	svc      *Service
	sessions *memory.Repository
	verifier *fakeVerifier
	oracle   *fakeOracle
	issuer   *fakeIssuer
}

func newFixture(t *testing.T, minAmount uint64) *gateFixture {
	t.Helper()
	f := &gateFixture{
		sessions: memory.New(0),
		verifier: &fakeVerifier{addr: holder},
		oracle:   &fakeOracle{balance: big.NewInt(150)},
		issuer:   &fakeIssuer{},
	}
	t.Cleanup(f.sessions.Close)
	f.svc = NewService(f.sessions, f.verifier, f.oracle, f.issuer, minAmount)
	return f
}

func TestQualifyingProofIsVerifiedThenReplayed(t *testing.T) {
	// Config {minAmount: 100}, holder balance 150: first submission verifies
	// and issues, the resubmission replays the identical invite.
	f := newFixture(t, 100)
	ctx := context.Background()

	out := f.svc.SubmitProof(ctx, 42, "0xsig")
	require.Equal(t, models.OutcomeVerified, out.Kind)
	require.NotEmpty(t, out.InviteLink)

	again := f.svc.SubmitProof(ctx, 42, "0xsig")
	assert.Equal(t, models.OutcomeAlreadyVerified, again.Kind)
	assert.Equal(t, out.InviteLink, again.InviteLink)
	assert.Equal(t, 1, f.issuer.calls, "issuer is invoked exactly once per session")
}

func TestThresholdBoundaryIsInclusive(t *testing.T) {
	t.Run("exactly min qualifies", func(t *testing.T) {
		f := newFixture(t, 100)
		f.oracle.balance = big.NewInt(100)

		out := f.svc.SubmitProof(context.Background(), 1, "sig")
		assert.Equal(t, models.OutcomeVerified, out.Kind)
	})

	t.Run("min minus one is denied", func(t *testing.T) {
		f := newFixture(t, 100)
		f.oracle.balance = big.NewInt(99)

		out := f.svc.SubmitProof(context.Background(), 1, "sig")
		assert.Equal(t, models.OutcomeDenied, out.Kind)
		assert.Equal(t, models.ReasonInsufficientBalance, out.Reason)
	})
}

func TestDeniedSessionLatches(t *testing.T) {
	// Balance 40 against min 100: denied, and a resubmission is refused
	// before the oracle is consulted again.
	f := newFixture(t, 100)
	f.oracle.balance = big.NewInt(40)
	ctx := context.Background()

	out := f.svc.SubmitProof(ctx, 7, "sig")
	require.Equal(t, models.OutcomeDenied, out.Kind)
	require.Equal(t, models.ReasonInsufficientBalance, out.Reason)
	require.Equal(t, 1, f.oracle.calls)

	// Even a would-be qualifying balance no longer helps this session.
	f.oracle.balance = big.NewInt(1000)
	again := f.svc.SubmitProof(ctx, 7, "sig")
	assert.Equal(t, models.OutcomeDenied, again.Kind)
	assert.Equal(t, models.ReasonAlreadyDenied, again.Reason)
	assert.Equal(t, 1, f.oracle.calls, "denied sessions never re-query the oracle")
	assert.Zero(t, f.issuer.calls)
}

func TestInvalidSignatureDenies(t *testing.T) {
	f := newFixture(t, 100)
	f.verifier.err = sigverify.ErrMalformedSignature

	out := f.svc.SubmitProof(context.Background(), 3, "garbage")
	assert.Equal(t, models.OutcomeDenied, out.Kind)
	assert.Equal(t, models.ReasonInvalidSignature, out.Reason)
	assert.Zero(t, f.oracle.calls, "no oracle call for an unverifiable signature")

	sess, err := f.sessions.Get(3)
	require.NoError(t, err)
	assert.Equal(t, models.StateDenied, sess.State)
}

func TestOracleOutageIsRetryable(t *testing.T) {
	f := newFixture(t, 100)
	f.oracle.err = ethbalance.ErrRPCUnavailable
	ctx := context.Background()

	out := f.svc.SubmitProof(ctx, 9, "sig")
	require.Equal(t, models.OutcomeError, out.Kind)
	require.Equal(t, models.ReasonOracleUnavailable, out.Reason)

	sess, err := f.sessions.Get(9)
	require.NoError(t, err)
	assert.False(t, sess.State.Terminal(), "oracle outage must not drive the session terminal")

	// Oracle recovers; the same signature now succeeds.
	f.oracle.err = nil
	retry := f.svc.SubmitProof(ctx, 9, "sig")
	assert.Equal(t, models.OutcomeVerified, retry.Kind)
	assert.NotEmpty(t, retry.InviteLink)
}

func TestOracleDecodeFailureIsNotTerminal(t *testing.T) {
	f := newFixture(t, 100)
	f.oracle.err = fmt.Errorf("%w: got 0 bytes", ethbalance.ErrDecode)

	out := f.svc.SubmitProof(context.Background(), 5, "sig")
	assert.Equal(t, models.OutcomeError, out.Kind)

	sess, err := f.sessions.Get(5)
	require.NoError(t, err)
	assert.False(t, sess.State.Terminal())
}

func TestIssuanceFailureIsRetryable(t *testing.T) {
	f := newFixture(t, 100)
	f.issuer.err = invites.ErrPlatformUnavailable
	ctx := context.Background()

	out := f.svc.SubmitProof(ctx, 11, "sig")
	require.Equal(t, models.OutcomeError, out.Kind)
	require.Equal(t, models.ReasonIssuanceFailed, out.Reason)

	sess, err := f.sessions.Get(11)
	require.NoError(t, err)
	assert.False(t, sess.State.Terminal(), "a proven visitor keeps a retryable session")

	f.issuer.err = nil
	retry := f.svc.SubmitProof(ctx, 11, "sig")
	assert.Equal(t, models.OutcomeVerified, retry.Kind)
}

func TestLostVerificationRaceRevokesDiscardedInvite(t *testing.T) {
	// A concurrent submission drives the session terminal between this
	// submission's issuance and its compare-and-set. The stored state must
	// win, and the invite minted here must not stay a live way in.
	f := newFixture(t, 100)
	f.issuer.onIssue = func(string) {
		_, err := f.sessions.Transition(42, nonTerminal, models.StateVerified, func(sess *models.Session) {
			sess.InviteLink = "https://t.me/+winner"
		})
		require.NoError(t, err)
	}

	out := f.svc.SubmitProof(context.Background(), 42, "sig")
	assert.Equal(t, models.OutcomeAlreadyVerified, out.Kind)
	assert.Equal(t, "https://t.me/+winner", out.InviteLink)
	assert.Equal(t, []string{"https://t.me/+invite1"}, f.issuer.revoked)
}

func TestLostRaceReplaysEvenWhenRevokeFails(t *testing.T) {
	f := newFixture(t, 100)
	f.issuer.revokeErr = invites.ErrPlatformUnavailable
	f.issuer.onIssue = func(string) {
		_, err := f.sessions.Transition(42, nonTerminal, models.StateDenied, nil)
		require.NoError(t, err)
	}

	out := f.svc.SubmitProof(context.Background(), 42, "sig")
	assert.Equal(t, models.OutcomeDenied, out.Kind)
	assert.Equal(t, models.ReasonAlreadyDenied, out.Reason)
	assert.Len(t, f.issuer.revoked, 1, "revocation is attempted even when it fails")
}

func TestBegin(t *testing.T) {
	f := newFixture(t, 100)

	sess, err := f.svc.Begin(21)
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingProof, sess.State)

	// Re-running /start leaves the session where it is.
	sess, err = f.svc.Begin(21)
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingProof, sess.State)
}

func TestBeginAfterVerificationKeepsTerminalState(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	out := f.svc.SubmitProof(ctx, 33, "sig")
	require.Equal(t, models.OutcomeVerified, out.Kind)

	sess, err := f.svc.Begin(33)
	require.NoError(t, err)
	assert.Equal(t, models.StateVerified, sess.State)
	assert.Equal(t, out.InviteLink, sess.InviteLink)
}

func TestSubmitWithoutStartStillGates(t *testing.T) {
	// A proof can arrive before any /start (e.g. a reused link); the gate
	// creates the session on the fly rather than erroring.
	f := newFixture(t, 100)

	out := f.svc.SubmitProof(context.Background(), 77, "sig")
	assert.Equal(t, models.OutcomeVerified, out.Kind)
}

