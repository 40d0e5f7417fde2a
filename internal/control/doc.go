// Package control provides controllers that act on a world between steps.
//
// Controllers implement the [sim.Controller] interface and only ever
// touch the world through its command queue, so they are safe to drive
// from a UI goroutine:
//
//   - [Drag]: pulls a grabbed body toward a pointer
//   - [Manual]: pushes a body with a fixed force while active
//   - [PID]: the vector feedback law both are built on
//
// # Usage
//
//	drag := control.NewDrag()
//	if drag.Grab(w, pointer) {
//		sim.AddController(drag)
//	}
//	drag.MoveTo(newPointer) // each input event
//	drag.Release(w)         // on button up
//
// [PID] implements live tuning through GetParams and SetParam.
package control
