// Package viz provides the terminal live view of a physics world.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: steps a world at 60 Hz and draws it with a stats panel
//   - [Canvas]: Braille-based pixel canvas for high-fidelity rendering
//   - [Viewport]: maps world coordinates onto the canvas
//
// # Key Bindings
//
//	Space  - Pause/Resume simulation
//	R      - Rebuild the scene
//	Tab    - Select the next movable body
//	Arrows - Push the selected body
//	A      - Add a body if there is room
//	B      - Switch the mouse between moving and creating boxes
//	C      - Cull bodies below the view
//	T      - Cycle color themes
//	G      - Toggle GIF recording
//	?      - Show help overlay
//
// In move mode, dragging with the left mouse button pulls a body toward the
// pointer. In create mode it draws a box from the press point to the
// pointer, crossed out while it overlaps another body, and adds it on
// release.
package viz
