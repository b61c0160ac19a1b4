package app

import (
	"fmt"
	"image/png"
	"os"

	"github.com/five82/sunface/internal/face"
)

// writeSnapshot encodes frame as a PNG at path.
func writeSnapshot(path string, frame face.Frame) error {
	if frame.Empty() {
		return fmt.Errorf("write snapshot: empty frame")
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := png.Encode(file, frame.Raster()); err != nil {
		_ = file.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
