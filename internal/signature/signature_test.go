package signature

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/lot-vision/internal/core"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	signer := NewSigner("test-shared-key")

	req := &core.BatchRequest{
		Version:   core.Version,
		Languages: []string{"en", "de"},
		Lots: []core.Lot{
			{
				LotID:          "lot-42",
				Webhook:        "https://caller.example.com/hook?a=1&b=2",
				AdditionalInfo: "minor scratch on rear bumper",
				Images:         []core.Image{{URL: "https://img.example.com/1.jpg"}},
			},
		},
	}

	sig, err := signer.Sign(req)
	require.NoError(t, err)
	require.NotEmpty(t, sig)
	assert.Len(t, sig, 64, "HMAC-SHA256 hex digest should be 64 chars")

	req.Signature = sig
	assert.NoError(t, signer.Verify(req, req.Signature))
}

func TestVerify_RejectsMutation(t *testing.T) {
	signer := NewSigner("test-shared-key")

	req := &core.BatchRequest{
		Version:   core.Version,
		Languages: []string{"en"},
		Lots: []core.Lot{
			{
				LotID:   "lot-1",
				Webhook: "https://caller.example.com/hook",
				Images:  []core.Image{{URL: "https://img.example.com/1.jpg"}},
			},
		},
	}
	sig, err := signer.Sign(req)
	require.NoError(t, err)

	// Any change to the message body must invalidate the signature.
	req.Lots[0].LotID = "lot-2"
	assert.ErrorIs(t, signer.Verify(req, sig), core.ErrAuthenticationFailed)
}

func TestVerify_RejectsMissingSignature(t *testing.T) {
	signer := NewSigner("test-shared-key")
	err := signer.Verify(&core.BatchRequest{Version: core.Version}, "")
	assert.ErrorIs(t, err, core.ErrAuthenticationFailed)
}

func TestVerify_RejectsTamperedSignature(t *testing.T) {
	signer := NewSigner("test-shared-key")

	payload := core.SuccessPayload("lot-1", core.Descriptions{"en": "<p>clean</p>"})
	sig, err := signer.Sign(payload)
	require.NoError(t, err)

	// Flip one hex character.
	flipped := []byte(sig)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	assert.ErrorIs(t, signer.Verify(payload, string(flipped)), core.ErrAuthenticationFailed)
}

func TestVerify_DifferentKeyFails(t *testing.T) {
	payload := core.SuccessPayload("lot-1", core.Descriptions{"en": "text"})

	sig, err := NewSigner("key-one").Sign(payload)
	require.NoError(t, err)

	assert.ErrorIs(t, NewSigner("key-two").Verify(payload, sig), core.ErrAuthenticationFailed)
}

func TestSign_KeyOrderIndependent(t *testing.T) {
	signer := NewSigner("k")

	a := json.RawMessage(`{"version":"1.0.0","languages":["en"],"lots":[{"lot_id":"1","webhook":"https://h.example.com","images":[{"url":"https://i.example.com/1.jpg"}]}]}`)
	b := json.RawMessage(`{"lots":[{"images":[{"url":"https://i.example.com/1.jpg"}],"webhook":"https://h.example.com","lot_id":"1"}],"languages":["en"],"version":"1.0.0"}`)

	sigA, err := signer.Sign(a)
	require.NoError(t, err)
	sigB, err := signer.Sign(b)
	require.NoError(t, err)

	assert.Equal(t, sigA, sigB, "field order must not affect the signature")
}

func TestSign_IgnoresSignatureField(t *testing.T) {
	signer := NewSigner("k")

	unsigned := json.RawMessage(`{"version":"1.0.0","languages":["en"],"lots":[]}`)
	signed := json.RawMessage(`{"version":"1.0.0","languages":["en"],"lots":[],"signature":"deadbeef"}`)

	sigA, err := signer.Sign(unsigned)
	require.NoError(t, err)
	sigB, err := signer.Sign(signed)
	require.NoError(t, err)

	assert.Equal(t, sigA, sigB, "an embedded signature field must not feed the MAC")
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{
			name:  "sorts object keys",
			input: json.RawMessage(`{"b":1,"a":2}`),
			want:  `{"a":2,"b":1}`,
		},
		{
			name:  "strips whitespace",
			input: json.RawMessage("{\n  \"a\": [1, 2,\t3]\n}"),
			want:  `{"a":[1,2,3]}`,
		},
		{
			name:  "preserves array order",
			input: json.RawMessage(`{"langs":["de","en","ar"]}`),
			want:  `{"langs":["de","en","ar"]}`,
		},
		{
			name:  "no html escaping",
			input: json.RawMessage(`{"url":"https://x.example.com/?a=1&b=<2>"}`),
			want:  `{"url":"https://x.example.com/?a=1&b=<2>"}`,
		},
		{
			name:  "sorts nested objects",
			input: json.RawMessage(`{"outer":{"z":null,"a":true}}`),
			want:  `{"outer":{"a":true,"z":null}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}
