// Package utility provides small helpers shared across the SDK.
package utility

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"

	"github.com/mr-tron/base58"
)

// Flatten serializes chunks into a single length-prefixed byte slice.
func Flatten(chunks [][]byte) []byte {
	buf := new(bytes.Buffer)
	for _, chunk := range chunks {
		_ = binary.Write(buf, binary.LittleEndian, uint32(len(chunk)))
		buf.Write(chunk)
	}

	return buf.Bytes()
}

// Unflatten splits a length-prefixed byte slice back into chunks.
func Unflatten(data []byte) ([][]byte, error) {
	var result [][]byte

	buf := bytes.NewReader(data)

	for {
		var length uint32

		err := binary.Read(buf, binary.LittleEndian, &length)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		chunk := make([]byte, length)

		n, err := io.ReadFull(buf, chunk)
		if err != nil || uint32(n) != length {
			return nil, io.ErrUnexpectedEOF
		}

		result = append(result, chunk)
	}

	return result, nil
}

// CheckHash reports whether the SHA-256 hash of flat equals want.
func CheckHash(flat, want []byte) bool {
	if len(want) != sha256.Size {
		return false
	}

	sum := sha256.Sum256(flat)

	return bytes.Equal(sum[:], want)
}

// FormatID renders an identifier as a short base58 string for logs and CLI
// output. This rendering is not part of the wire contract.
func FormatID(id []byte) string {
	const shortLen = 8

	encoded := base58.Encode(id)
	if len(encoded) <= shortLen {
		return encoded
	}

	return encoded[:shortLen]
}
