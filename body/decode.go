package body

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Decode decodes URL-safe base64 into text. It never fails: padding is
// optional, the standard alphabet is tolerated, whitespace is ignored, and
// when the input is corrupt the bytes decoded before the corruption are kept.
// Byte sequences that are not valid UTF-8 come back as U+FFFD.
func Decode(payload string) string {
	return toValidUTF8(DecodeBytes(payload))
}

// DecodeBytes is Decode without the UTF-8 repair, for payloads such as raw
// messages whose bytes are in some other charset.
func DecodeBytes(payload string) []byte {
	if payload == "" {
		return nil
	}

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '+':
			return '-'
		case '/':
			return '_'
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, payload)
	cleaned = strings.TrimRight(cleaned, "=")

	// On error DecodeString still returns what it wrote before the bad byte.
	raw, _ := base64.RawURLEncoding.DecodeString(cleaned)
	return raw
}

func toValidUTF8(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	fixed, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	return string(fixed)
}
