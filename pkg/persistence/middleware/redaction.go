package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/Lenny-the-burger/hlg/pkg/ports"
)

// Mask replaces every redacted match in stored history.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.ConversationStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks every match of the
// given patterns in history text before it is saved. The caller's snapshot
// is not modified. The context vector is stored as is.
func NewRedactionMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redaction pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.ConversationStore) ports.ConversationStore {
		return &redactionMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactionMiddleware) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("redact %s: %w", id, domain.ErrNullPointer)
	}
	cloned := snap.Clone()
	for i, text := range cloned.History {
		cloned.History[i] = m.mask(text)
	}
	return m.next.Save(ctx, id, cloned)
}

func (m *redactionMiddleware) mask(text string) string {
	for _, p := range m.patterns {
		text = p.ReplaceAllLiteralString(text, Mask)
	}
	return text
}

func (m *redactionMiddleware) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, id)
}

func (m *redactionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
