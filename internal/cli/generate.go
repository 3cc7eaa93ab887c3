package cli

import (
	"context"
	"fmt"

	"github.com/Lenny-the-burger/hlg/pkg/observability"
)

// GenerateOptions configures a one-shot generation.
type GenerateOptions struct {
	Prompts []string
	// Capacity is the output buffer size in bytes, terminator included.
	// Zero means unbounded.
	Capacity int
	Metrics  bool
}

// RunGenerate feeds the prompts to a fresh conversation and prints one
// generated sentence.
func RunGenerate(ctx context.Context, opts RunOptions, gen GenerateOptions) error {
	logger := createLogger(opts.Debug)
	inst, reg, err := createInstance(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer inst.Cleanup()

	conv, err := inst.NewConversation(0)
	if err != nil {
		return err
	}
	defer conv.Cleanup()

	for _, p := range gen.Prompts {
		p, err := SanitizePrompt(p)
		if err != nil {
			return err
		}
		if err := conv.AddPrompt(ctx, p); err != nil {
			return fmt.Errorf("add prompt: %w", err)
		}
	}

	var text string
	if gen.Capacity > 0 {
		buf := make([]byte, gen.Capacity)
		n, err := inst.Generate(ctx, conv, buf)
		if err != nil {
			return err
		}
		text = string(buf[:n])
	} else {
		if text, err = inst.GenerateText(ctx, conv); err != nil {
			return err
		}
	}

	out := opts.stdout()
	fmt.Fprintln(out, text)
	if gen.Metrics {
		fmt.Fprintln(out)
		return observability.WriteText(out, reg)
	}
	return nil
}
