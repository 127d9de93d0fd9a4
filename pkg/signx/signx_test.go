package signx_test

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/adflow/filegate/pkg/signx"
	"github.com/stretchr/testify/require"
)

// TestSignDeterministic verifies signing is a pure function of the
// payload and secret.
func TestSignDeterministic(t *testing.T) {
	signer := signx.New("test-secret")

	sig1 := signer.Sign("12345:1700000000")
	sig2 := signer.Sign("12345:1700000000")

	require.Equal(t, sig1, sig2, "same payload should produce same signature")
	require.Len(t, sig1, 64, "signature should be hex-encoded SHA-256 output")
}

// TestSignVerifyRoundtrip verifies that a signature produced by Sign is
// accepted by Verify, and rejected under a different secret.
func TestSignVerifyRoundtrip(t *testing.T) {
	signer := signx.New("test-secret")
	other := signx.New("other-secret")

	payload := "12345:1700000000"
	sig := signer.Sign(payload)

	require.True(t, signer.Verify(payload, sig), "own signature should verify")
	require.False(t, other.Verify(payload, sig), "signature should not verify under a different secret")
	require.False(t, signer.Verify("12345:1700000001", sig), "signature should not verify for a different payload")
}

// TestVerifyRejectsMutations flips every character of a valid signature
// and payload in turn and checks each mutation is rejected.
func TestVerifyRejectsMutations(t *testing.T) {
	signer := signx.New("test-secret")
	payload := "12345:1700000000"
	sig := signer.Sign(payload)

	t.Run("signature mutations", func(t *testing.T) {
		for i := 0; i < len(sig); i++ {
			mutated := []byte(sig)
			if mutated[i] == 'a' {
				mutated[i] = 'b'
			} else {
				mutated[i] = 'a'
			}
			require.False(t, signer.Verify(payload, string(mutated)),
				"mutated signature at index %d should be rejected", i)
		}
	})

	t.Run("payload mutations", func(t *testing.T) {
		for i := 0; i < len(payload); i++ {
			mutated := []byte(payload)
			mutated[i]++
			require.False(t, signer.Verify(string(mutated), sig),
				"mutated payload at index %d should be rejected", i)
		}
	})
}

// TestEncodeDecodeToken verifies the wire encoding roundtrip and that
// the decoder splits on the last colon, since payloads contain one.
func TestEncodeDecodeToken(t *testing.T) {
	signer := signx.New("test-secret")
	payload := "12345:1700000000"
	sig := signer.Sign(payload)

	encoded := signx.EncodeToken(payload, sig)

	gotPayload, gotSig, err := signx.DecodeToken(encoded)
	require.NoError(t, err)
	require.Equal(t, payload, gotPayload)
	require.Equal(t, sig, gotSig)
}

// TestDecodeTokenPaddingTolerance verifies that both padded and
// unpadded base64url forms decode, since intermediaries sometimes
// append padding to URL parameters.
func TestDecodeTokenPaddingTolerance(t *testing.T) {
	signer := signx.New("test-secret")
	payload := "7:1700000000"
	sig := signer.Sign(payload)

	raw := payload + ":" + sig

	unpadded := base64.RawURLEncoding.EncodeToString([]byte(raw))
	padded := base64.URLEncoding.EncodeToString([]byte(raw))

	for _, tc := range []struct {
		name    string
		encoded string
	}{
		{"unpadded", unpadded},
		{"padded", padded},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gotPayload, gotSig, err := signx.DecodeToken(tc.encoded)
			require.NoError(t, err)
			require.Equal(t, payload, gotPayload)
			require.Equal(t, sig, gotSig)
		})
	}
}

// TestDecodeTokenMalformed checks the failure modes: invalid base64,
// and decoded strings with no separator.
func TestDecodeTokenMalformed(t *testing.T) {
	cases := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"no separator", base64.RawURLEncoding.EncodeToString([]byte("no-colon-here"))},
		{"plain text", "hello world"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := signx.DecodeToken(tc.encoded)
			require.ErrorIs(t, err, signx.ErrMalformed)
		})
	}
}

// TestVerifyConstantLength checks signatures of varied payload sizes
// all have the fixed digest length expected by storage.
func TestVerifyConstantLength(t *testing.T) {
	signer := signx.New("test-secret")

	for _, n := range []int{1, 10, 100, 1000} {
		payload := fmt.Sprintf("%0*d:1700000000", n, 1)
		require.Len(t, signer.Sign(payload), 64)
	}
}
