package services

import (
	"bytes"
	"fmt"

	"weeromzet/models"
)

// DefaultMaxPayloadBytes is the upload limit used when none is configured.
const DefaultMaxPayloadBytes = 5 * 1024 * 1024

var binarySignatures = []struct {
	name  string
	magic []byte
}{
	{"zip/xlsx", []byte("PK\x03\x04")},
	{"zip/xlsx", []byte("PK\x05\x06")},
	{"ole2/xls", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}},
	{"pdf", []byte("%PDF-")},
}

// RejectBinary refuses spreadsheet and other binary payloads before they
// reach the text parser.
func RejectBinary(payload []byte) error {
	for _, sig := range binarySignatures {
		if bytes.HasPrefix(payload, sig.magic) {
			return fmt.Errorf("%w (%s)", models.ErrBinaryContent, sig.name)
		}
	}
	head := payload
	if len(head) > 8192 {
		head = head[:8192]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return fmt.Errorf("%w (NUL byte)", models.ErrBinaryContent)
	}
	return nil
}

// CheckPayload applies the size limit and the binary guard.
func CheckPayload(payload []byte, maxBytes int) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPayloadBytes
	}
	if len(payload) > maxBytes {
		return fmt.Errorf("%w: %d bytes > %d", models.ErrPayloadTooLarge, len(payload), maxBytes)
	}
	return RejectBinary(payload)
}
