// Package encoding provides text decoding helpers for mesh container names.
package encoding

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// UTF16LEToUTF8 converts UTF-16 little-endian bytes to a UTF-8 string.
// Decoding stops at the first NUL code unit. An odd trailing byte is dropped.
func UTF16LEToUTF8(data []byte) string {
	data = data[:len(data)&^1]
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			data = data[:i]
			break
		}
	}
	result, _, err := transform.Bytes(utf16LE.NewDecoder(), data)
	if err != nil {
		return ""
	}
	return string(result)
}

// UTF8ToUTF16LE converts a UTF-8 string to UTF-16 little-endian bytes
// without a byte order mark. Returns nil if conversion fails.
func UTF8ToUTF16LE(s string) []byte {
	result, _, err := transform.Bytes(utf16LE.NewEncoder(), []byte(s))
	if err != nil {
		return nil
	}
	return result
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// TrimNullString removes trailing null bytes and converts to string.
func TrimNullString(data []byte) string {
	return string(TrimNullBytes(data))
}

