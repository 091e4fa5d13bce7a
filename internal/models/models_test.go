package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "prefixed", input: "0x01", want: "0x01"},
		{name: "unprefixed", input: "02ab", want: "0x02ab"},
		{name: "upper prefix", input: "0XAB", want: "0xab"},
		{name: "surrounding whitespace", input: "  0x0a0b  ", want: "0x0a0b"},
		{name: "prefix only", input: "0x", want: "0x"},
		{name: "empty", input: "", wantErr: true},
		{name: "odd length", input: "0x123", wantErr: true},
		{name: "non hex", input: "0xzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHexBytes(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestHexBytesJSON(t *testing.T) {
	type payload struct {
		Data HexBytes `json:"data"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"data":"beef"}`), &p))
	assert.Equal(t, HexBytes{0xbe, 0xef}, p.Data)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":"0xbeef"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"data":"nothex"}`), &p))
}

func TestHexBytesShort(t *testing.T) {
	h := MustParseHexBytes("0x0102030405060708")
	assert.Equal(t, "0x01020304…", h.Short(8))
	assert.Equal(t, "0x0102030405060708", h.Short(16))
}

func TestErrorKinds(t *testing.T) {
	base := WrapError(KindBroadcast, "failed to send transaction", errors.New("nonce too low"))
	wrapped := fmt.Errorf("submit: %w", base)

	assert.True(t, IsKind(wrapped, KindBroadcast))
	assert.False(t, IsKind(wrapped, KindConfirmationTimeout))
	assert.Equal(t, KindBroadcast, KindOf(wrapped))
	assert.Contains(t, wrapped.Error(), "nonce too low")

	nested := WrapError(KindInvalidInput, "invalid recipient", NewError(KindInvalidAddress, "bad"))
	assert.Equal(t, KindInvalidInput, KindOf(nested))
	assert.True(t, IsKind(nested, KindInvalidAddress))

	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindBroadcast))
}

func TestStateIsTerminal(t *testing.T) {
	terminal := []State{StateDryRunExit, StateCancelled, StateReported, StateFailed}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), s)
	}
	for _, s := range []State{StateCollecting, StateValidated, StateProving, StateSubmitting} {
		assert.False(t, s.IsTerminal(), s)
	}
}

func TestChainKeyIsSupported(t *testing.T) {
	assert.True(t, ChainEthereum.IsSupported())
	assert.True(t, ChainBNB.IsSupported())
	assert.False(t, ChainKey("sol").IsSupported())
}
