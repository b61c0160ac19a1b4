package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/five82/sunface/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override sunface config path (optional)")
	prefsPath := flag.String("prefs", "", "override saved face preferences path (optional)")
	snapshot := flag.String("snapshot", "", "render one frame to this PNG file and exit")
	snapshotSize := flag.String("snapshot-size", "", "snapshot size as WIDTHxHEIGHT (optional, defaults to 320x320)")
	flag.Parse()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Snapshot:   *snapshot,
	}
	if *snapshotSize != "" {
		size, err := parseSize(*snapshotSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sunface: %v\n", err)
			return 2
		}
		opts.SnapshotSize = size
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "sunface: %v\n", err)
		return 1
	}
	return 0
}

func parseSize(value string) (image.Point, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(value)), "x")
	if !ok {
		return image.Point{}, fmt.Errorf("snapshot-size %q: want WIDTHxHEIGHT", value)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return image.Point{}, fmt.Errorf("snapshot-size %q: bad width", value)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return image.Point{}, fmt.Errorf("snapshot-size %q: bad height", value)
	}
	return image.Pt(width, height), nil
}
