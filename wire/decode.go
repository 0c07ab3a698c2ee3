package wire

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dictumlabs/dictum/types"
)

// Wire discriminator codes.
const (
	codeContent   = "c"
	codeReasoning = "r"
	codePlan      = "p"
	codeStatus    = "s"
	codeContext   = "x"
	codeError     = "e"
)

// Decode parses one complete record into a stream event.
//
// Returns (nil, false) for empty or whitespace-only records, which are
// silently skipped. Every other record produces exactly one event: decode
// failures (invalid JSON, unrecognized discriminator, malformed payload)
// yield a DecodeError event rather than an error, so a corrupt record
// never aborts the session.
func Decode(record string) (types.Event, bool) {
	trimmed := strings.TrimSpace(record)
	if trimmed == "" {
		return nil, false
	}

	if !gjson.Valid(trimmed) {
		return decodeError(record, "invalid JSON"), true
	}

	tag := gjson.Get(trimmed, "t")
	if !tag.Exists() || tag.Type != gjson.String {
		return decodeError(record, "missing or non-string discriminator"), true
	}
	payload := gjson.Get(trimmed, "v")

	switch tag.Str {
	case codeContent:
		text, ok := stringPayload(payload)
		if !ok {
			return decodeError(record, "content payload must be a string"), true
		}
		return types.ContentDelta{Text: text}, true

	case codeReasoning:
		text, ok := stringPayload(payload)
		if !ok {
			return decodeError(record, "reasoning payload must be a string"), true
		}
		return types.ReasoningDelta{Text: text}, true

	case codePlan:
		text, ok := stringPayload(payload)
		if !ok {
			return decodeError(record, "plan payload must be a string"), true
		}
		return types.PlanDelta{Text: text}, true

	case codeStatus:
		name, ok := stringPayload(payload)
		if !ok {
			return decodeError(record, "status payload must be a string"), true
		}
		ph, ok := types.ParsePhase(name)
		if !ok {
			return decodeError(record, "unknown phase name: "+name), true
		}
		return types.StatusUpdate{Phase: ph}, true

	case codeContext:
		if !payload.IsObject() {
			return decodeError(record, "context payload must be an object"), true
		}
		return types.ContextUpdate{
			Usage:        payload.Get("usage").Float(),
			InputTokens:  payload.Get("input_tokens").Int(),
			OutputTokens: payload.Get("output_tokens").Int(),
		}, true

	case codeError:
		if !payload.IsObject() {
			return decodeError(record, "error payload must be an object"), true
		}
		msg := payload.Get("message")
		if msg.Type != gjson.String || msg.Str == "" {
			return decodeError(record, "error payload missing message"), true
		}
		return types.AssistantError{
			Message: msg.Str,
			Code:    payload.Get("code").String(),
		}, true

	default:
		// Default-deny: future discriminators surface as decode errors
		// instead of being silently dropped.
		return decodeError(record, "unrecognized discriminator: "+tag.Str), true
	}
}

func stringPayload(payload gjson.Result) (string, bool) {
	if payload.Type != gjson.String {
		return "", false
	}
	return payload.Str, true
}

func decodeError(raw, reason string) types.DecodeError {
	return types.DecodeError{Raw: raw, Reason: reason}
}
