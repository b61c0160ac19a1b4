// Package ui hosts the clock face in a terminal using Bubble Tea.
//
// The terminal plays the role of the display surface. Each text cell shows
// two face pixels with an upper half-block glyph: the foreground carries the
// top pixel and the background the bottom one, so a W×H terminal shows a
// W×2(H-2) pixel face above a status footer and a help bar.
//
// # Data Flow
//
//	engine.OnInvalidate ─> Program.Send(InvalidateMsg)
//	InvalidateMsg       ─> drawCmd ─> Surface.Draw (on the engine loop)
//	frameMsg            ─> Model.frame ─> View
//
// The Model never touches the engine directly. Surface implementations
// marshal calls onto the loop that owns it.
//
// # Keys
//
//   - a: toggle ambient mode
//   - v: toggle visibility
//   - T: cycle theme (saved to prefs)
//   - ?: help, q: quit
//
// The footer shows the link badge (connected, connecting, disconnected or
// offline after repeated failures), the last sync time, the last error class
// and the newest log entry read through logtail.
package ui
