// Package viz runs the breathing session in a terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [App]: preset menu and stage editor in front of a session
//   - [Model]: a live session hosting a [sim.Loop]
//   - [Surface]: draws frames onto a [Canvas] of braille sub-pixels
//   - Four built-in colour themes
//
// The loop is pumped from Bubble Tea ticks through a [sim.PumpScheduler],
// so all loop calls happen on the program goroutine.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart the cycle
//	N     - Next preset
//	T     - Cycle colour themes
//	C     - Cycle counter mode
//	A/M   - Toggle audio, mute
//	+/-   - Master volume
//	K     - Next music track
//	?     - Show help overlay
package viz
