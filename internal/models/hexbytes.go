package models

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HexBytes is an opaque byte string that only enters the system as well-formed hex.
// It always renders with a 0x prefix.
type HexBytes []byte

// ParseHexBytes decodes s, accepting it with or without the 0x prefix
func ParseHexBytes(s string) (HexBytes, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil, fmt.Errorf("empty hex string")
	}
	if !strings.HasPrefix(v, "0x") && !strings.HasPrefix(v, "0X") {
		v = "0x" + v
	}
	b, err := hexutil.Decode(v)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string %q: %w", truncate(s, 24), err)
	}
	return HexBytes(b), nil
}

// MustParseHexBytes is ParseHexBytes for constants and tests
func MustParseHexBytes(s string) HexBytes {
	b, err := ParseHexBytes(s)
	if err != nil {
		panic(err)
	}
	return b
}

func (h HexBytes) String() string {
	return hexutil.Encode(h)
}

// Short renders at most n hex characters after the prefix, followed by an ellipsis when cut
func (h HexBytes) Short(n int) string {
	s := h.String()
	if len(s) <= n+2 {
		return s
	}
	return s[:n+2] + "…"
}

func (h HexBytes) MarshalText() ([]byte, error) {
	return hexutil.Bytes(h).MarshalText()
}

func (h *HexBytes) UnmarshalText(input []byte) error {
	b, err := ParseHexBytes(string(input))
	if err != nil {
		return err
	}
	*h = b
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
