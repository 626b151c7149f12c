package rpc

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// decodeParam re-encodes a decoded JSON parameter into the target type.
func decodeParam(param, dst any) error {
	raw, err := json.Marshal(param)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}

	return nil
}

// parseID parses a hex-encoded 32-byte identifier, with or without the 0x
// prefix.
func parseID(param any) ([32]byte, error) {
	var id [32]byte

	str, ok := param.(string)
	if !ok {
		return id, ErrParamMustBeString
	}

	str = strings.TrimPrefix(str, "0x")

	raw, err := hex.DecodeString(str)
	if err != nil {
		return id, fmt.Errorf("%w: %w", ErrInvalidIDFormat, err)
	}

	if len(raw) != len(id) {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidIDFormat, len(id), len(raw))
	}

	copy(id[:], raw)

	return id, nil
}

// formatID renders a 32-byte identifier as 0x-prefixed hex.
func formatID(id [32]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}
