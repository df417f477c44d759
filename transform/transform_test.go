package transform

import (
	"cipher-chat/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_Modes(t *testing.T) {
	req := require.New(t)

	for _, mode := range []string{ModeNone, ModeXOR, ModeChaCha} {
		tr, err := New(mode, "CipherChatKey123")
		req.NoError(err)
		req.Equal(mode, tr.Name())
	}

	_, err := New("rot13", "key")
	req.ErrorIs(err, errors.ErrUnknownTransform)

	_, err = New(ModeChaCha, "")
	req.ErrorIs(err, errors.ErrInvalidConfig)
}

func TestTransforms_DecodeReversesEncode(t *testing.T) {
	payload := []byte("meet me in #secure at 10")

	for _, mode := range []string{ModeNone, ModeXOR, ModeChaCha} {
		t.Run(mode, func(t *testing.T) {
			req := require.New(t)
			tr, err := New(mode, "CipherChatKey123")
			req.NoError(err)

			encoded, err := tr.Encode(payload)
			req.NoError(err)
			if mode != ModeNone {
				req.NotEqual(payload, encoded)
			}

			decoded, err := tr.Decode(encoded)
			req.NoError(err)
			req.Equal(payload, decoded)
		})
	}
}

func TestXOR_MatchesLegacyCipher(t *testing.T) {
	req := require.New(t)
	x, err := NewXOR("CipherChatKey123")
	req.NoError(err)

	// 'h' ^ 'C' = 0x2b, + 13 = 0x38
	encoded, err := x.Encode([]byte("h"))
	req.NoError(err)
	req.Equal([]byte{0x38}, encoded)
}

func TestChaCha_TamperedPayload(t *testing.T) {
	req := require.New(t)
	c, err := NewChaCha("passphrase")
	req.NoError(err)

	encoded, err := c.Encode([]byte("hello"))
	req.NoError(err)
	encoded[len(encoded)-1] ^= 0xff

	_, err = c.Decode(encoded)
	req.ErrorIs(err, errors.ErrInvalidPayload)

	_, err = c.Decode([]byte("short"))
	req.ErrorIs(err, errors.ErrInvalidPayload)
}
