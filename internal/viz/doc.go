// Package viz renders a running world in the terminal.
//
// The live view is a Bubble Tea program:
//
//   - [Model]: steps the world and draws a braille projection of every ball
//   - [Canvas]: braille pixel canvas, 2x4 dots per character cell
//   - [Camera]: side, top and orbiting projections of the domain
//   - Theme selection with 4 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	V     - Cycle views
//	+/-   - Steps per frame
//	←/→   - Orbit the camera
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	Q     - Quit
//
// # Recording
//
// G starts capturing rendered frames; pressing it again writes them to
// ballsim.gif in the current directory.
package viz
