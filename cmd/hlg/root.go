package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Lenny-the-burger/hlg/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hlg",
	Short: "hlg generates sentences from layered n-gram models",
	Long: `hlg expands a start symbol through syntax layers, fills the resulting
slots with words steered by the conversation context, and smooths the
surface with cohesion rules.`,
	SilenceUsage: true,
}

// Store keys are read from the environment so they stay out of shell history.
const (
	envStoreKey          = "HLG_STORE_KEY"
	envStoreFallbackKeys = "HLG_STORE_FALLBACK_KEYS"
)

// optionFlags maps command line flags to config file keys.
var optionFlags = []struct {
	flag, key, usage string
	kind             string
}{
	{"syntax-model", "syntactic_model_path", "Syntax model file", "string"},
	{"semantic-model", "semantic_model_path", "Semantic model file", "string"},
	{"cohesion-model", "cohesion_model_path", "Cohesion model file", "string"},
	{"embeddings", "embeddings_path", "Binary embedding table", "string"},
	{"syntactic-layers", "syntactic_layers", "Number of syntax layers to load", "int"},
	{"cohesion-layers", "cohesion_layers", "Number of cohesion layers to load", "int"},
	{"cache-mb", "embedding_cache_size_mb", "Embedding cache budget in MiB (0 streams from disk)", "int"},
	{"ngram-weight", "ngram_weight", "Share of n-gram probability in word scores", "float"},
	{"history-capacity", "history_capacity", "Conversation history entries kept", "int"},
	{"max-span", "max_span", "Longest expansion of one syntax token", "int"},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "Config file (defaults to ./"+cli.DefaultConfigFile+" when present)")
	pf.Bool("debug", false, "Log pipeline stages to stderr")

	for _, f := range optionFlags {
		switch f.kind {
		case "int":
			pf.Int(f.flag, 0, f.usage)
		case "float":
			pf.Float64(f.flag, 0, f.usage)
		default:
			pf.String(f.flag, "", f.usage)
		}
	}

	pf.String("store", cli.StoreFile, "Conversation store: file, redis or badger")
	pf.String("store-dir", "", "Directory for the file and badger stores")
	pf.String("redis-addr", "localhost:6379", "Redis address")
	pf.String("redis-password", "", "Redis password")
	pf.Int("redis-db", 0, "Redis database")
	pf.Duration("store-ttl", 0, "Expire stored conversations after this long (redis only)")
	pf.StringSlice("redact", nil, "Regular expressions masked out of stored history")
}

// runOptions collects the global flags. Only flags set explicitly become
// overrides so they never mask config file values.
func runOptions(cmd *cobra.Command) cli.RunOptions {
	flags := cmd.Flags()
	opts := cli.RunOptions{Overrides: map[string]any{}}
	opts.ConfigPath, _ = flags.GetString("config")
	opts.Debug, _ = flags.GetBool("debug")

	for _, f := range optionFlags {
		if !flags.Changed(f.flag) {
			continue
		}
		opts.Overrides[f.key] = flags.Lookup(f.flag).Value.String()
	}

	opts.Store.Kind, _ = flags.GetString("store")
	opts.Store.Dir, _ = flags.GetString("store-dir")
	opts.Store.RedisAddr, _ = flags.GetString("redis-addr")
	opts.Store.RedisPassword, _ = flags.GetString("redis-password")
	opts.Store.RedisDB, _ = flags.GetInt("redis-db")
	opts.Store.TTL, _ = flags.GetDuration("store-ttl")
	opts.Store.Redact, _ = flags.GetStringSlice("redact")
	opts.Store.Key = os.Getenv(envStoreKey)
	if fallback := os.Getenv(envStoreFallbackKeys); fallback != "" {
		opts.Store.FallbackKeys = strings.Split(fallback, ",")
	}
	return opts
}
