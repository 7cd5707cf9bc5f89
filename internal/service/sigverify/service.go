package sigverify

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrMalformedSignature: the input cannot be parsed into a canonical
	// 65-byte recoverable signature.
	ErrMalformedSignature = errors.New("malformed signature")
	// ErrRecoveryFailed: the signature parsed but address recovery failed.
	ErrRecoveryFailed = errors.New("signature recovery failed")
)

// Service recovers the signing address of EIP-191 personal_sign signatures
// over one fixed challenge text. The challenge is server-controlled and never
// taken from the request, so a signature can only ever be checked against the
// exact message the visitor was asked to sign.
type Service struct {
	challenge []byte
}

func NewService(challenge string) *Service {
	return &Service{challenge: []byte(challenge)}
}

// Challenge returns the configured challenge text.
func (s *Service) Challenge() string {
	return string(s.challenge)
}

// Recover parses a hex signature (0x-prefixed or bare, any case) and returns
// the address that signed the configured challenge. Pure: no state, no I/O.
func (s *Service) Recover(signature string) (common.Address, error) {
	raw := strings.TrimSpace(signature)
	raw = strings.TrimPrefix(raw, "0x")
	raw = strings.TrimPrefix(raw, "0X")

	sig, err := hex.DecodeString(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: %d bytes, want %d", ErrMalformedSignature, len(sig), crypto.SignatureLength)
	}

	// Wallets emit V as 27/28; go-ethereum expects 0/1.
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return common.Address{}, fmt.Errorf("%w: invalid recovery id %d", ErrMalformedSignature, sig[64])
	}

	pub, err := crypto.SigToPub(accounts.TextHash(s.challenge), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrRecoveryFailed, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
