// Package engine runs the watch face render state machine.
//
// Transition is a pure function from (State, Event) to the next State and a
// list of effects. Engine executes those effects against a face.Face and a
// per-second ticker, so the decision logic can be tested without timers.
//
// Ambient mode forces a black background with the ambient grey text and
// stops the second hand. A colour configuration received while ambient is
// remembered and applied on the way out.
package engine
