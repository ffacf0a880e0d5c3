package llm

import (
	"encoding/json"
	"unicode/utf8"
)

// maxRawDump bounds the stringified fallback when no known envelope matches.
const maxRawDump = 1500

// envelope covers every response shape the hosted providers have been seen to
// use. Extraction tries each location in a fixed priority order rather than
// inspecting the payload's runtime structure.
type envelope struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Response string `json:"response"`
	Content  string `json:"content"`
}

// extractors, in priority order. Each returns the embedded answer text or "".
var extractors = []func(envelope) string{
	func(e envelope) string {
		if len(e.Choices) > 0 {
			return e.Choices[0].Message.Content
		}
		return ""
	},
	func(e envelope) string { return e.Message.Content },
	func(e envelope) string { return e.Response },
	func(e envelope) string { return e.Content },
}

// extractText pulls the answer out of a provider payload. When no known shape
// matches it degrades to a bounded dump of the raw payload so the caller
// still sees something rather than a crash; that text is not an answer but it
// is diagnosable.
func extractText(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		for _, extract := range extractors {
			if text := extract(env); text != "" {
				return text
			}
		}
	}

	dump := string(raw)
	if len(dump) > maxRawDump {
		// Cut on a rune boundary so the degraded text stays valid UTF-8.
		cut := maxRawDump
		for cut > 0 && !utf8.RuneStart(dump[cut]) {
			cut--
		}
		dump = dump[:cut]
	}
	return dump
}
