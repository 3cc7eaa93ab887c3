package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/Lenny-the-burger/hlg"
	"github.com/Lenny-the-burger/hlg/internal/presentation/tui"
	"github.com/Lenny-the-burger/hlg/pkg/conversation"
	"github.com/Lenny-the-burger/hlg/pkg/session"
)

// ChatOptions configures the REPL.
type ChatOptions struct {
	// SessionID names the persisted conversation. Empty means the
	// conversation lives only as long as the REPL.
	SessionID string
}

// RunChat runs a read-generate-print loop over one conversation. Each turn
// (prompt, generation, save) holds the conversation lock.
func RunChat(opts RunOptions, chat ChatOptions) error {
	logger := createLogger(opts.Debug)
	in, out := opts.stdin(), opts.stdout()
	interactive := isTerminal(in) && isTerminal(out)

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	inst, _, err := createInstance(sigCtx, opts, logger)
	if err != nil {
		return err
	}
	defer inst.Cleanup()

	var manager *session.Manager
	if chat.SessionID != "" {
		store, err := openStore(opts.Store, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		mgrOpts := []session.Option{session.WithLogger(logger)}
		if store.locker != nil {
			mgrOpts = append(mgrOpts, session.WithLocker(store.locker))
		}
		manager = session.NewManager(store, mgrOpts...)
	}

	newConv := func() (*conversation.Conversation, error) {
		return inst.NewConversation(0)
	}
	var conv *conversation.Conversation
	if manager != nil {
		conv, err = manager.Open(sigCtx, chat.SessionID, newConv)
	} else {
		conv, err = newConv()
	}
	if err != nil {
		return fmt.Errorf("failed to open conversation: %w", err)
	}
	defer func() { conv.Cleanup() }()

	if interactive {
		tui.PrintBanner(out, hlg.Version)
	}
	if manager != nil {
		if n := len(conv.History()); n > 0 {
			fmt.Fprintln(out, tui.System(out, "Resuming conversation '%s' (%d entries).", chat.SessionID, n))
		} else {
			fmt.Fprintln(out, tui.System(out, "Conversation '%s' active.", chat.SessionID))
		}
	}

	turn := func(ctx context.Context, prompt string) (string, error) {
		if err := conv.AddPrompt(ctx, prompt); err != nil {
			return "", err
		}
		text, err := inst.GenerateText(ctx, conv)
		if err != nil {
			return "", err
		}
		if manager != nil {
			if err := manager.Store().Save(ctx, chat.SessionID, conv.Snapshot()); err != nil {
				return "", fmt.Errorf("failed to save conversation: %w", err)
			}
		}
		return text, nil
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-sigCtx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		var line string
		select {
		case <-sigCtx.Done():
			if interactive {
				fmt.Fprintln(out, "[CTRL+C]")
			}
			return nil
		case err := <-readErr:
			return handleExecutionError(err)
		case line = <-lines:
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			fmt.Fprintln(out, tui.System(out, "Bye!"))
			return nil
		case "/history":
			for _, h := range conv.History() {
				fmt.Fprintln(out, "  "+h)
			}
			continue
		case "/reset":
			fresh, err := newConv()
			if err != nil {
				return err
			}
			if manager != nil {
				fresh.SetID(chat.SessionID)
				if err := manager.Save(sigCtx, fresh); err != nil {
					return err
				}
			}
			conv.Cleanup()
			conv = fresh
			fmt.Fprintln(out, tui.System(out, "History cleared."))
			continue
		}

		if line, err = SanitizePrompt(line); err != nil {
			fmt.Fprintln(out, tui.System(out, "Rejected prompt: %v", err))
			continue
		}

		var text string
		run := func(ctx context.Context) error {
			var err error
			text, err = turn(ctx, line)
			return err
		}
		if manager != nil {
			err = manager.WithLock(sigCtx, chat.SessionID, run)
		} else {
			err = run(sigCtx)
		}
		if err != nil {
			if isInterrupted(err) {
				return nil
			}
			return err
		}
		fmt.Fprintln(out, tui.Reply(out, text))
	}
}
