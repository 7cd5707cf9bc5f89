package sigverify

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signChallenge(t *testing.T, text string) (string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte(text)), key)
	require.NoError(t, err)

	addr := crypto.PubkeyToAddress(key.PublicKey)
	return hex.EncodeToString(sig), addr.Hex()
}

func TestRecoverEncodingVariants(t *testing.T) {
	svc := NewService("hello")
	sig, want := signChallenge(t, "hello")

	// Wallet-style variant with V shifted to 27/28.
	shifted, err := hex.DecodeString(sig)
	require.NoError(t, err)
	shifted[64] += 27

	variants := map[string]string{
		"bare hex":    sig,
		"0x prefixed": "0x" + sig,
		"upper case":  "0X" + strings.ToUpper(sig),
		"v 27/28":     "0x" + hex.EncodeToString(shifted),
		"whitespace":  "  " + sig + "\n",
	}

	for name, input := range variants {
		t.Run(name, func(t *testing.T) {
			addr, err := svc.Recover(input)
			require.NoError(t, err)
			assert.Equal(t, want, addr.Hex())
		})
	}
}

func TestRecoverWrongChallenge(t *testing.T) {
	svc := NewService("hello")
	sig, signer := signChallenge(t, "goodbye")

	addr, err := svc.Recover(sig)
	require.NoError(t, err)
	assert.NotEqual(t, signer, addr.Hex(),
		"a signature over another message must not recover the signer")
}

func TestRecoverMalformed(t *testing.T) {
	svc := NewService("hello")
	sig, _ := signChallenge(t, "hello")

	badRecID, err := hex.DecodeString(sig)
	require.NoError(t, err)
	badRecID[64] = 9

	cases := map[string]string{
		"not hex":         "0xzz" + sig[4:],
		"truncated":       sig[:64],
		"empty":           "",
		"bad recovery id": hex.EncodeToString(badRecID),
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Recover(input)
			assert.ErrorIs(t, err, ErrMalformedSignature)
		})
	}
}

func TestRecoverIsDeterministic(t *testing.T) {
	svc := NewService("hello")
	sig, want := signChallenge(t, "hello")

	first, err := svc.Recover(sig)
	require.NoError(t, err)
	second, err := svc.Recover("0x" + sig)
	require.NoError(t, err)

	assert.Equal(t, want, first.Hex())
	assert.Equal(t, first, second)
}
