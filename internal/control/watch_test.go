package control

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/five82/sunface/internal/palette"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestReadColorFile(t *testing.T) {
	base := palette.ColorConfiguration{Background: palette.MustParseHex("#111111"), DateTime: palette.MustParseHex("#EEEEEE")}

	tests := []struct {
		name    string
		body    string
		want    palette.ColorConfiguration
		wantErr string
	}{
		{
			name: "both keys",
			body: "background = \"#000080\"\ndate_time = \"#FFFF00\"\n",
			want: palette.ColorConfiguration{Background: palette.MustParseHex("#000080"), DateTime: palette.MustParseHex("#FFFF00")},
		},
		{
			name: "face prefs file",
			body: "theme = \"Slate\"\nbackground = \"#222222\"\n",
			want: palette.ColorConfiguration{Background: palette.MustParseHex("#222222"), DateTime: base.DateTime},
		},
		{
			name:    "invalid colour",
			body:    "date_time = \"yellow\"\n",
			want:    base,
			wantErr: "date_time",
		},
		{
			name:    "no colour keys",
			body:    "theme = \"Slate\"\n",
			want:    base,
			wantErr: "neither",
		},
		{
			name:    "invalid toml",
			body:    "background = [",
			want:    base,
			wantErr: "parse colours",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "colours.toml")
			writeFile(t, path, tt.body)

			got, err := ReadColorFile(path, base)
			if tt.wantErr == "" && err != nil {
				t.Fatalf("ReadColorFile error = %v", err)
			}
			if tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)) {
				t.Fatalf("ReadColorFile error = %v, want it to mention %q", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ReadColorFile = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadColorFile_Missing(t *testing.T) {
	_, err := ReadColorFile(filepath.Join(t.TempDir(), "nope.toml"), palette.Default())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ReadColorFile error = %v, want ErrNotExist", err)
	}
}

func TestWatchColors_AppliesInitialAndChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colours.toml")
	writeFile(t, path, "background = \"#112233\"\n")

	applied := make(chan palette.ColorConfiguration, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchColors(ctx, path, WatchOptions{
			Base:     palette.Default(),
			Debounce: 10 * time.Millisecond,
			Apply: func(_ context.Context, cfg palette.ColorConfiguration) error {
				applied <- cfg
				return nil
			},
			Logger: discardLogger(),
		})
	}()

	expect := func(want palette.ColorConfiguration) {
		t.Helper()
		select {
		case got := <-applied:
			if got != want {
				t.Fatalf("applied %v, want %v", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %v", want)
		}
	}

	expect(palette.ColorConfiguration{Background: palette.MustParseHex("#112233"), DateTime: palette.White})

	// An invalid edit is skipped; the next valid one keeps the earlier background.
	writeFile(t, path, "date_time = \"nope\"\n")
	time.Sleep(50 * time.Millisecond)
	writeFile(t, path, "date_time = \"#00FF00\"\n")
	expect(palette.ColorConfiguration{Background: palette.MustParseHex("#112233"), DateTime: palette.MustParseHex("#00FF00")})

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("WatchColors returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("WatchColors did not return after cancel")
	}
	select {
	case extra := <-applied:
		t.Fatalf("unexpected extra apply %v", extra)
	default:
	}
}

func TestWatchColors_RequiresApply(t *testing.T) {
	if err := WatchColors(context.Background(), "colours.toml", WatchOptions{}); err == nil {
		t.Fatalf("WatchColors without apply returned nil error")
	}
}
