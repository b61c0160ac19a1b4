package datalayer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind tags the type of a payload value.
type Kind string

const (
	KindString Kind = "string"
	KindFloat  Kind = "float"
	KindInt    Kind = "int"
	KindAsset  Kind = "asset"
)

// AssetRef is an opaque handle to a binary blob stored beside a record.
type AssetRef struct {
	Digest string `json:"digest"`
}

// Valid reports whether the handle points at anything.
func (a AssetRef) Valid() bool {
	return strings.TrimSpace(a.Digest) != ""
}

// Field is one key/value entry of a payload.
type Field struct {
	Key   string
	Kind  Kind
	Str   string
	Float float64
	Int   int64
	Asset AssetRef
}

// Payload is an ordered key/value mapping. Setting an existing key replaces
// the value in place.
type Payload struct {
	fields []Field
}

// NewPayload returns an empty payload.
func NewPayload() *Payload {
	return &Payload{}
}

func (p *Payload) set(f Field) *Payload {
	for i := range p.fields {
		if p.fields[i].Key == f.Key {
			p.fields[i] = f
			return p
		}
	}
	p.fields = append(p.fields, f)
	return p
}

// PutString sets a string value.
func (p *Payload) PutString(key, value string) *Payload {
	return p.set(Field{Key: key, Kind: KindString, Str: value})
}

// PutFloat sets a float value.
func (p *Payload) PutFloat(key string, value float64) *Payload {
	return p.set(Field{Key: key, Kind: KindFloat, Float: value})
}

// PutInt sets an integer value.
func (p *Payload) PutInt(key string, value int64) *Payload {
	return p.set(Field{Key: key, Kind: KindInt, Int: value})
}

// PutAsset sets an asset handle.
func (p *Payload) PutAsset(key string, ref AssetRef) *Payload {
	return p.set(Field{Key: key, Kind: KindAsset, Asset: ref})
}

// Len returns the number of fields.
func (p *Payload) Len() int {
	if p == nil {
		return 0
	}
	return len(p.fields)
}

// Keys returns field keys in insertion order.
func (p *Payload) Keys() []string {
	if p == nil {
		return nil
	}
	keys := make([]string, len(p.fields))
	for i, f := range p.fields {
		keys[i] = f.Key
	}
	return keys
}

// Field looks up a field by key.
func (p *Payload) Field(key string) (Field, bool) {
	if p == nil {
		return Field{}, false
	}
	for _, f := range p.fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Has reports whether key is present.
func (p *Payload) Has(key string) bool {
	_, ok := p.Field(key)
	return ok
}

// String returns a string value.
func (p *Payload) String(key string) (string, bool) {
	f, ok := p.Field(key)
	if !ok || f.Kind != KindString {
		return "", false
	}
	return f.Str, true
}

// Float returns a numeric value as float64. Integers are widened.
func (p *Payload) Float(key string) (float64, bool) {
	f, ok := p.Field(key)
	if !ok {
		return 0, false
	}
	switch f.Kind {
	case KindFloat:
		return f.Float, true
	case KindInt:
		return float64(f.Int), true
	}
	return 0, false
}

// Int returns an integer value.
func (p *Payload) Int(key string) (int64, bool) {
	f, ok := p.Field(key)
	if !ok || f.Kind != KindInt {
		return 0, false
	}
	return f.Int, true
}

// Asset returns an asset handle.
func (p *Payload) Asset(key string) (AssetRef, bool) {
	f, ok := p.Field(key)
	if !ok || f.Kind != KindAsset {
		return AssetRef{}, false
	}
	return f.Asset, true
}

// Clone returns a deep copy.
func (p *Payload) Clone() *Payload {
	if p == nil {
		return NewPayload()
	}
	out := &Payload{fields: make([]Field, len(p.fields))}
	copy(out.fields, p.fields)
	return out
}

// Equal reports whether both payloads hold the same fields in the same order.
func (p *Payload) Equal(other *Payload) bool {
	if p.Len() != other.Len() {
		return false
	}
	for i := 0; i < p.Len(); i++ {
		if p.fields[i] != other.fields[i] {
			return false
		}
	}
	return true
}

type wireField struct {
	Key   string    `json:"k"`
	Kind  Kind      `json:"t"`
	Str   *string   `json:"s,omitempty"`
	Float *float64  `json:"f,omitempty"`
	Int   *int64    `json:"i,omitempty"`
	Asset *AssetRef `json:"a,omitempty"`
}

// MarshalJSON encodes the payload as an ordered array of typed fields.
func (p *Payload) MarshalJSON() ([]byte, error) {
	wire := make([]wireField, 0, p.Len())
	if p != nil {
		for _, f := range p.fields {
			w := wireField{Key: f.Key, Kind: f.Kind}
			switch f.Kind {
			case KindString:
				w.Str = &f.Str
			case KindFloat:
				w.Float = &f.Float
			case KindInt:
				w.Int = &f.Int
			case KindAsset:
				w.Asset = &f.Asset
			}
			wire = append(wire, w)
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the array form produced by MarshalJSON.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var wire []wireField
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	p.fields = p.fields[:0]
	for _, w := range wire {
		f := Field{Key: w.Key, Kind: w.Kind}
		switch {
		case w.Kind == KindString && w.Str != nil:
			f.Str = *w.Str
		case w.Kind == KindFloat && w.Float != nil:
			f.Float = *w.Float
		case w.Kind == KindInt && w.Int != nil:
			f.Int = *w.Int
		case w.Kind == KindAsset && w.Asset != nil:
			f.Asset = *w.Asset
		default:
			return fmt.Errorf("%w: field %q has no %s value", ErrMalformedPayload, w.Key, w.Kind)
		}
		p.set(f)
	}
	return nil
}

// Record is the latest value published under a path.
type Record struct {
	Path      string    `json:"path"`
	Payload   *Payload  `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
	Origin    string    `json:"origin,omitempty"` // publishing node id
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.Payload = r.Payload.Clone()
	return out
}
