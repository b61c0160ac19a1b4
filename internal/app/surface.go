package app

import (
	"context"
	"image"

	"github.com/five82/sunface/internal/engine"
	"github.com/five82/sunface/internal/face"
	"github.com/five82/sunface/internal/looper"
)

// loopSurface exposes the engine to the UI goroutine by marshalling every
// call onto the loop.
type loopSurface struct {
	loop   *looper.Loop
	engine *engine.Engine
}

func (s loopSurface) Draw(ctx context.Context, bounds image.Rectangle) (face.Frame, error) {
	var frame face.Frame
	err := s.loop.Call(ctx, func() { frame = s.engine.Draw(bounds) })
	return frame, err
}

func (s loopSurface) SetVisible(visible bool) {
	s.loop.Post(func() { s.engine.HandleVisibility(visible) })
}

func (s loopSurface) SetAmbient(on bool) {
	s.loop.Post(func() { s.engine.HandleAmbient(on) })
}
