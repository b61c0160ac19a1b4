// Package app wires the sunface display together.
//
// Run loads the configuration, opens the log file, restores the saved
// colours and starts one looper.Loop that owns the render engine and the
// settings store. Around the loop run:
//
//   - the settings receiver (settings.Service.Run), pulling peer records
//   - the connection supervisor, reconnecting with exponential backoff
//     (base·2^n, capped at 30s) and calling Resync after every connect
//   - the prefs saver, persisting every applied colour configuration
//   - a minute ticker posting time ticks to the engine
//
// The Bubble Tea UI reaches the engine through loopSurface, and engine
// redraw requests reach the UI as ui.InvalidateMsg through a one-slot
// channel so the loop never blocks on the terminal.
//
// With Options.Snapshot set, Run connects once, resyncs, writes a single
// PNG frame and returns without starting the UI.
package app
