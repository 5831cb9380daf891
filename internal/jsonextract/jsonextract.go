package jsonextract

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// DefaultMaxBytes bounds how much response text the parser will look at when
// the caller does not supply its own limit.
const DefaultMaxBytes = 1 << 20

// Stage names the recovery strategy that produced a candidate or, on
// failure, the furthest strategy that ran.
type Stage string

const (
	StageSizeGuard  Stage = "size_guard"
	StageRaw        Stage = "raw"
	StageFenceStrip Stage = "fence_strip"
	StageExtract    Stage = "extract"
)

// Validate checks one candidate payload. It should parse the text and apply
// any semantic checks in a single step; a nil return accepts the candidate.
type Validate func(text string) error

// Options tune the recovery run.
type Options struct {
	// MaxBytes rejects inputs larger than this before any parsing work.
	// Zero selects DefaultMaxBytes.
	MaxBytes int
	// DebugPreview attaches a bounded excerpt of the offending text to
	// failures. Off by default so response bodies stay out of logs.
	DebugPreview bool
}

func (o Options) maxBytes() int {
	if o.MaxBytes > 0 {
		return o.MaxBytes
	}
	return DefaultMaxBytes
}

// Result reports the accepted candidate and which strategy produced it.
type Result struct {
	Text  string
	Stage Stage
}

// ParseFailure describes an exhausted recovery run.
type ParseFailure struct {
	Stage   Stage
	Message string
	// Preview is a cleaned excerpt of the input, set only when the run
	// had DebugPreview enabled.
	Preview string
}

func (e *ParseFailure) Error() string {
	if e.Preview != "" {
		return fmt.Sprintf("%s (stage %s; payload preview: %s)", e.Message, e.Stage, e.Preview)
	}
	return fmt.Sprintf("%s (stage %s)", e.Message, e.Stage)
}

// Recover runs the strategy chain over text until validate accepts a
// candidate: the raw text first, then the text with Markdown code fences
// stripped (only when stripping changed it), then the first balanced JSON
// object or array found by scanning. Oversized input fails before any
// strategy runs.
func Recover(text string, validate Validate, opts Options) (Result, error) {
	if len(text) > opts.maxBytes() {
		return Result{}, failure(StageSizeGuard,
			fmt.Sprintf("response size %d exceeds the %d byte limit", len(text), opts.maxBytes()),
			text, opts)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{}, failure(StageRaw, "empty payload", text, opts)
	}

	stage := StageRaw
	lastErr := errAttemptSkipped
	if looksDirect(trimmed) {
		if lastErr = validate(trimmed); lastErr == nil {
			return Result{Text: trimmed, Stage: StageRaw}, nil
		}
	}

	base := trimmed
	if stripped := StripFences(trimmed); stripped != "" && stripped != trimmed {
		stage = StageFenceStrip
		base = stripped
		if lastErr = validate(stripped); lastErr == nil {
			return Result{Text: stripped, Stage: StageFenceStrip}, nil
		}
	}

	if fragment, ok := ExtractFragment(base); ok && fragment != base {
		stage = StageExtract
		if lastErr = validate(fragment); lastErr == nil {
			return Result{Text: fragment, Stage: StageExtract}, nil
		}
	}

	return Result{}, failure(stage,
		fmt.Sprintf("no parseable JSON found: %v", lastErr),
		text, opts)
}

// errAttemptSkipped stands in for a strategy that never ran, so the failure
// message still has something to report when no strategy applied at all.
var errAttemptSkipped = fmt.Errorf("text is not directly parseable and holds no JSON fragment")

// looksDirect reports whether the trimmed text is worth a direct parse: it
// must start with an object or array bracket and not with a code fence.
func looksDirect(trimmed string) bool {
	if strings.HasPrefix(trimmed, "```") {
		return false
	}
	return trimmed[0] == '{' || trimmed[0] == '['
}

func failure(stage Stage, message, text string, opts Options) *ParseFailure {
	fail := &ParseFailure{Stage: stage, Message: message}
	if opts.DebugPreview {
		fail.Preview = Preview(text)
	}
	return fail
}

// Into builds a Validate that decodes each candidate into a fresh value,
// runs check on it, and copies it into dst only when both succeed. Using a
// fresh value per attempt keeps a failed candidate from leaving partial
// fields behind.
func Into[T any](dst *T, check func(*T) error) Validate {
	return func(text string) error {
		var decoded T
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			return err
		}
		if check != nil {
			if err := check(&decoded); err != nil {
				return err
			}
		}
		*dst = decoded
		return nil
	}
}

// StripFences removes a wrapping Markdown code fence, including a language
// tag such as json on the opening fence. Text without a leading fence comes
// back trimmed but otherwise untouched.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t")
	if idx := strings.IndexAny(body, "\r\n"); idx >= 0 && isFenceTag(body[:idx]) {
		body = body[idx:]
	} else if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func isFenceTag(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ExtractFragment returns the first balanced JSON object or array in text.
// The scan tracks one bracket type at a time and skips bracket characters
// inside string literals, honoring backslash escapes, so braces embedded in
// values do not end the fragment early.
func ExtractFragment(text string) (string, bool) {
	start := -1
	var open, close byte
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if start < 0 {
			if c == '{' || c == '[' {
				start = i
				open = c
				close = '}'
				if c == '[' {
					close = ']'
				}
				depth = 1
			}
			continue
		}
		if inString {
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// Preview returns a single-line excerpt of content capped at 160 runes.
func Preview(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
