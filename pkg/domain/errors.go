package domain

import "errors"

// ErrNullPointer is returned when a required argument (instance, output buffer, path) is missing.
var ErrNullPointer = errors.New("required argument missing")

// ErrFileOpen is returned when a model or embedding file cannot be opened.
var ErrFileOpen = errors.New("file open failed")

// ErrAllocation is returned when a required buffer or cache cannot be sized.
var ErrAllocation = errors.New("allocation failed")

// ErrNotInitialized is returned when an operation targets an instance that is not Initialized.
var ErrNotInitialized = errors.New("instance not initialized")

// ErrInvalidModel is returned when a model file parses but violates a structural invariant.
var ErrInvalidModel = errors.New("invalid model")

// ErrConversationNotFound is returned when a conversation ID cannot be found in the store.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrSealedSnapshot is returned when a sealed snapshot reaches code that
// needs its plaintext, usually because the store key is missing.
var ErrSealedSnapshot = errors.New("snapshot is sealed")

// Numeric error codes, kept stable for hosts that need an integer surface.
const (
	CodeOK             = 0
	CodeNullPointer    = -1
	CodeFileOpen       = -2
	CodeAllocation     = -3
	CodeNotInitialized = -4
	CodeInvalidModel   = -5
	CodeUnknown        = -99
)

// Code maps an error returned by this module to its numeric code.
// A nil error maps to CodeOK.
func Code(err error) int {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrNullPointer):
		return CodeNullPointer
	case errors.Is(err, ErrFileOpen):
		return CodeFileOpen
	case errors.Is(err, ErrAllocation):
		return CodeAllocation
	case errors.Is(err, ErrNotInitialized):
		return CodeNotInitialized
	case errors.Is(err, ErrInvalidModel):
		return CodeInvalidModel
	default:
		return CodeUnknown
	}
}
