package settings

import (
	"errors"
	"testing"

	"github.com/five82/sunface/internal/datalayer"
	"github.com/five82/sunface/internal/palette"
	"github.com/five82/sunface/internal/weather"
)

func TestDecodeColors(t *testing.T) {
	base := palette.ColorConfiguration{Background: palette.MustParseHex("#101010"), DateTime: palette.MustParseHex("#202020")}

	tests := []struct {
		name      string
		payload   *datalayer.Payload
		want      palette.ColorConfiguration
		fieldErr  bool
		malformed bool
	}{
		{
			name:    "both valid",
			payload: datalayer.NewPayload().PutString(KeyBackgroundColour, "#000000").PutString(KeyDateTimeColour, "#ffffff"),
			want:    palette.ColorConfiguration{Background: palette.Black, DateTime: palette.White},
		},
		{
			name:    "background only",
			payload: datalayer.NewPayload().PutString(KeyBackgroundColour, "#FF0000"),
			want:    palette.ColorConfiguration{Background: palette.MustParseHex("#FF0000"), DateTime: base.DateTime},
		},
		{
			name:     "invalid background keeps base",
			payload:  datalayer.NewPayload().PutString(KeyBackgroundColour, "not-a-color").PutString(KeyDateTimeColour, "#FFFFFF"),
			want:     palette.ColorConfiguration{Background: base.Background, DateTime: palette.White},
			fieldErr: true,
		},
		{
			name:     "non-string value",
			payload:  datalayer.NewPayload().PutInt(KeyDateTimeColour, 0xFFFFFF),
			want:     base,
			fieldErr: true,
		},
		{
			name:      "no colour keys",
			payload:   datalayer.NewPayload().PutString("other", "#FFFFFF"),
			want:      base,
			malformed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fieldErr, err := DecodeColors(tt.payload, base)
			if tt.malformed != errors.Is(err, datalayer.ErrMalformedPayload) {
				t.Fatalf("err = %v, malformed want %v", err, tt.malformed)
			}
			if tt.fieldErr != (fieldErr != nil) {
				t.Fatalf("fieldErr = %v, want error %v", fieldErr, tt.fieldErr)
			}
			if fieldErr != nil && !errors.Is(fieldErr, palette.ErrInvalidColor) {
				t.Fatalf("fieldErr = %v, want ErrInvalidColor", fieldErr)
			}
			if got != tt.want {
				t.Fatalf("cfg = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodeColorsUsesHex(t *testing.T) {
	p := EncodeColors(palette.ColorConfiguration{Background: palette.MustParseHex("#0a0b0c"), DateTime: palette.White})
	if bg, _ := p.String(KeyBackgroundColour); bg != "#0A0B0C" {
		t.Fatalf("background = %q, want #0A0B0C", bg)
	}
	if fg, _ := p.String(KeyDateTimeColour); fg != "#FFFFFF" {
		t.Fatalf("date/time = %q, want #FFFFFF", fg)
	}
}

func TestDecodeWeather(t *testing.T) {
	art := datalayer.AssetRef{Digest: "abc"}
	snap, ref, err := DecodeWeather(EncodeWeather(weather.Snapshot{High: 18.5, Low: 7, ConditionID: 500}, art))
	if err != nil {
		t.Fatalf("DecodeWeather() error = %v", err)
	}
	if snap.High != 18.5 || snap.Low != 7 || snap.ConditionID != 500 || ref != art {
		t.Fatalf("DecodeWeather() = %+v, %v", snap, ref)
	}

	// Integers from other encoders are accepted for every numeric key.
	ints := datalayer.NewPayload().PutInt(KeyTempMax, 20).PutInt(KeyTempMin, 10).PutInt(KeyWeatherID, 800)
	if snap, _, err := DecodeWeather(ints); err != nil || snap.High != 20 {
		t.Fatalf("DecodeWeather(ints) = %+v, %v", snap, err)
	}

	for _, key := range []string{KeyTempMax, KeyTempMin, KeyWeatherID} {
		p := datalayer.NewPayload()
		for _, k := range []string{KeyTempMax, KeyTempMin, KeyWeatherID} {
			if k != key {
				p.PutInt(k, 1)
			}
		}
		if _, _, err := DecodeWeather(p); !errors.Is(err, datalayer.ErrMalformedPayload) {
			t.Fatalf("missing %s: err = %v, want ErrMalformedPayload", key, err)
		}
	}

	if _, ref, _ := DecodeWeather(EncodeWeather(weather.Snapshot{}, datalayer.AssetRef{})); ref.Valid() {
		t.Fatalf("art present without an icon")
	}
}
