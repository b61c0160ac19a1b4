package control

import (
	"fmt"
	"time"

	"github.com/five82/sunface/internal/datalayer"
	"github.com/five82/sunface/internal/palette"
	"github.com/five82/sunface/internal/settings"
)

// Describe renders rec as one human-readable line.
func Describe(rec datalayer.Record) string {
	stamp := "seed"
	if !rec.Timestamp.IsZero() {
		stamp = rec.Timestamp.Local().Format(time.TimeOnly)
	}
	origin := rec.Origin
	if origin == "" {
		origin = "local"
	}

	switch rec.Path {
	case datalayer.PathWatchFaceConfig:
		cfg, _, err := settings.DecodeColors(rec.Payload, palette.Default())
		if err != nil {
			return fmt.Sprintf("%s %s colours: %v", stamp, origin, err)
		}
		return fmt.Sprintf("%s %s colours background=%s date_time=%s", stamp, origin, cfg.Background.Hex(), cfg.DateTime.Hex())
	case datalayer.PathWeather:
		snap, art, err := settings.DecodeWeather(rec.Payload)
		if err != nil {
			return fmt.Sprintf("%s %s weather: %v", stamp, origin, err)
		}
		line := fmt.Sprintf("%s %s weather %s condition=%d", stamp, origin, snap.Summary(), snap.ConditionID)
		if art.Valid() {
			line += " art=" + shortDigest(art.Digest)
		}
		return line
	default:
		return fmt.Sprintf("%s %s %s (%d fields)", stamp, origin, rec.Path, rec.Payload.Len())
	}
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
