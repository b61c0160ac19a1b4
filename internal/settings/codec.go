package settings

import (
	"errors"
	"fmt"
	"math"

	"github.com/five82/sunface/internal/datalayer"
	"github.com/five82/sunface/internal/palette"
	"github.com/five82/sunface/internal/weather"
)

// Payload keys.
const (
	KeyBackgroundColour = "KEY_BACKGROUND_COLOUR"
	KeyDateTimeColour   = "KEY_DATE_TIME_COLOUR"

	KeyTempMax   = "weather_temp_max"
	KeyTempMin   = "weather_temp_min"
	KeyWeatherID = "weather_id"
	KeyArt       = "art"
)

// EncodeColors builds the /watch_face_config payload for cfg.
func EncodeColors(cfg palette.ColorConfiguration) *datalayer.Payload {
	return datalayer.NewPayload().
		PutString(KeyBackgroundColour, cfg.Background.Hex()).
		PutString(KeyDateTimeColour, cfg.DateTime.Hex())
}

// DecodeColors overlays the colours present in p onto base.
//
// A payload carrying neither key is malformed and returns an error wrapping
// datalayer.ErrMalformedPayload. Otherwise each key is parsed on its own: an
// invalid value keeps the base colour for that field and is reported in
// fieldErr, while valid fields still apply.
func DecodeColors(p *datalayer.Payload, base palette.ColorConfiguration) (cfg palette.ColorConfiguration, fieldErr error, err error) {
	hasBG, hasFG := p.Has(KeyBackgroundColour), p.Has(KeyDateTimeColour)
	if !hasBG && !hasFG {
		return base, nil, fmt.Errorf("%w: no colour keys", datalayer.ErrMalformedPayload)
	}

	cfg = base
	var errs []error
	if hasBG {
		if c, e := colourField(p, KeyBackgroundColour); e != nil {
			errs = append(errs, e)
		} else {
			cfg.Background = c
		}
	}
	if hasFG {
		if c, e := colourField(p, KeyDateTimeColour); e != nil {
			errs = append(errs, e)
		} else {
			cfg.DateTime = c
		}
	}
	return cfg, errors.Join(errs...), nil
}

func colourField(p *datalayer.Payload, key string) (palette.RGB, error) {
	raw, ok := p.String(key)
	if !ok {
		return palette.RGB{}, fmt.Errorf("%s: %w: not a string", key, palette.ErrInvalidColor)
	}
	c, err := palette.ParseHex(raw)
	if err != nil {
		return palette.RGB{}, fmt.Errorf("%s: %w", key, err)
	}
	return c, nil
}

// EncodeWeather builds the /weather payload. art is attached when valid.
func EncodeWeather(s weather.Snapshot, art datalayer.AssetRef) *datalayer.Payload {
	p := datalayer.NewPayload().
		PutFloat(KeyTempMax, s.High).
		PutFloat(KeyTempMin, s.Low).
		PutInt(KeyWeatherID, int64(s.ConditionID))
	if art.Valid() {
		p.PutAsset(KeyArt, art)
	}
	return p
}

// DecodeWeather reads a /weather payload. The icon is not resolved here; the
// returned reference is empty when the payload has no art.
func DecodeWeather(p *datalayer.Payload) (weather.Snapshot, datalayer.AssetRef, error) {
	high, ok := p.Float(KeyTempMax)
	if !ok {
		return weather.Snapshot{}, datalayer.AssetRef{}, missing(KeyTempMax)
	}
	low, ok := p.Float(KeyTempMin)
	if !ok {
		return weather.Snapshot{}, datalayer.AssetRef{}, missing(KeyTempMin)
	}
	id, ok := p.Float(KeyWeatherID)
	if !ok || id != math.Trunc(id) {
		return weather.Snapshot{}, datalayer.AssetRef{}, missing(KeyWeatherID)
	}
	art, _ := p.Asset(KeyArt)
	return weather.Snapshot{High: high, Low: low, ConditionID: int(id)}, art, nil
}

func missing(key string) error {
	return fmt.Errorf("%w: missing %s", datalayer.ErrMalformedPayload, key)
}
