package utils

import (
	"encoding/json"
	"errors"
	"strings"
)

// PayloadKind selects the JSON shape expected from model output.
type PayloadKind int

const (
	PayloadArray PayloadKind = iota
	PayloadObject
)

// ExtractTier records which fallback tier produced the payload.
type ExtractTier string

const (
	// whole text parsed after fence stripping
	TierDirect ExtractTier = "direct"
	// outermost bracketed block parsed
	TierBracketed ExtractTier = "bracketed"
	// nothing parsed; callers fall back to the raw text
	TierRaw ExtractTier = "raw"
)

var ErrNoPayload = errors.New("no structured payload found in model output")

func (k PayloadKind) delimiters() (byte, byte) {
	if k == PayloadObject {
		return '{', '}'
	}
	return '[', ']'
}

// ExtractPayload pulls a JSON array or object out of free-form model output.
// Tiers are tried in order: direct, bracketed, raw. On TierRaw the payload is nil
// and the error is ErrNoPayload.
func ExtractPayload(text string, kind PayloadKind) (json.RawMessage, ExtractTier, error) {
	open, closing := kind.delimiters()

	cleaned := StripFences(text)
	if isPayload(cleaned, open) {
		return json.RawMessage(cleaned), TierDirect, nil
	}

	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, closing)
	if start >= 0 && end > start {
		candidate := text[start : end+1]
		if isPayload(candidate, open) {
			return json.RawMessage(candidate), TierBracketed, nil
		}
	}

	return nil, TierRaw, ErrNoPayload
}

func isPayload(candidate string, open byte) bool {
	return len(candidate) > 0 && candidate[0] == open && json.Valid([]byte(candidate))
}
