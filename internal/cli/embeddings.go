package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lenny-the-burger/hlg/internal/embedding"
	"github.com/Lenny-the-burger/hlg/pkg/domain"
)

// RunConvert converts a GloVe text file to the binary embedding table.
// The output is written to a temp file next to dst and renamed on success.
func RunConvert(opts RunOptions, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("convert: %w: %w", domain.ErrFileOpen, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "tmp-*.bin")
	if err != nil {
		return fmt.Errorf("convert: %w: %w", domain.ErrFileOpen, err)
	}
	defer os.Remove(tmp.Name())

	stats, err := embedding.ConvertGloVe(in, tmp, nil)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("convert %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	fmt.Fprintf(opts.stdout(), "Converted %d of %d lines (%d skipped), dimension %d -> %s\n",
		stats.Kept, stats.Lines, stats.Skipped, stats.Dim, dst)
	return nil
}
