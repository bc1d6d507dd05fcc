// ABOUTME: Output delivery
// ABOUTME: Saver interface and a directory-backed implementation
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Saver persists a finished conversion
type Saver interface {
	Save(filename string, data []byte) error
}

// DirSaver writes outputs into a directory
type DirSaver struct {
	Dir string
}

// Save writes data to Dir/filename, creating Dir if needed
func (s DirSaver) Save(filename string, data []byte) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	// Keep the file inside dir
	path := filepath.Join(dir, filepath.Base(filename))
	return os.WriteFile(path, data, 0o644)
}

// ConvertAndSave converts input and hands the output to saver. Nothing is
// saved when conversion fails; a save failure is reported like a conversion
// failure and OnSuccess is not called.
func (c *Converter) ConvertAndSave(ctx context.Context, input []byte, cfg Config, saver Saver) (*Output, error) {
	if saver == nil {
		err := fmt.Errorf("%w: no saver", ErrInvalidConfig)
		if cfg.OnError != nil {
			cfg.OnError(err)
		}
		return nil, err
	}
	return c.run(ctx, input, cfg, saver)
}
