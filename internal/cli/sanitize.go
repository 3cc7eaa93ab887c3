package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxPromptSize bounds one prompt in bytes.
	DefaultMaxPromptSize = 4096
	// EnvMaxPromptSize overrides DefaultMaxPromptSize.
	EnvMaxPromptSize = "HLG_MAX_PROMPT_SIZE"
)

var (
	ErrPromptTooLarge = errors.New("prompt exceeds maximum allowed size")
	ErrInvalidUTF8    = errors.New("prompt contains invalid UTF-8 sequences")
)

// SanitizePrompt rejects oversized or malformed prompts and strips control
// characters, keeping tabs and line breaks. Oversized prompts are rejected
// rather than cut so the stored history matches what the user typed.
func SanitizePrompt(input string) (string, error) {
	limit := maxPromptSize()
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrPromptTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func maxPromptSize() int {
	if val := os.Getenv(EnvMaxPromptSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxPromptSize
}
