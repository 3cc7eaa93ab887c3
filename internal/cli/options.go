package cli

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/Lenny-the-burger/hlg/internal/config"
	"github.com/Lenny-the-burger/hlg/pkg/domain"
)

// DefaultConfigFile is picked up from the working directory when --config
// is not given.
const DefaultConfigFile = "hlg.yaml"

// RunOptions carries the global flags shared by every command.
type RunOptions struct {
	ConfigPath string
	Debug      bool
	// Overrides holds option values set on the command line, keyed by
	// their config file name.
	Overrides map[string]any
	Store     StoreOptions

	Stdin  io.Reader
	Stdout io.Writer
}

// StoreOptions selects and configures the conversation store.
type StoreOptions struct {
	Kind          string // file, redis or badger
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration

	// Key seals stored snapshots when set (hex or base64, 32 bytes).
	// FallbackKeys open snapshots sealed with earlier keys.
	Key          string
	FallbackKeys []string
	// Redact lists patterns masked out of history before it is stored.
	Redact []string
}

func (o RunOptions) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

func (o RunOptions) stdin() io.Reader {
	if o.Stdin != nil {
		return o.Stdin
	}
	return os.Stdin
}

// ResolveOptions merges the config file and flag overrides, in that order
// of precedence from lowest to highest.
func ResolveOptions(opts RunOptions) (domain.Options, error) {
	var (
		base domain.Options
		err  error
	)
	path := opts.ConfigPath
	if path == "" {
		if _, statErr := os.Stat(DefaultConfigFile); statErr == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		if base, err = config.Load(path, base); err != nil {
			return domain.Options{}, err
		}
	}
	if len(opts.Overrides) > 0 {
		if base, err = config.Decode(opts.Overrides, base); err != nil {
			return domain.Options{}, err
		}
	}
	base = base.WithDefaults()
	if err := base.Validate(); err != nil {
		if errors.Is(err, domain.ErrNullPointer) && path == "" {
			return domain.Options{}, errors.Join(err, errors.New("no config file found; pass --config or the model path flags"))
		}
		return domain.Options{}, err
	}
	return base, nil
}
