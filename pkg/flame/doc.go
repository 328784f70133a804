// Package flame implements a chaos-game fractal flame engine.
//
// A flame is the attractor of a small set of nonlinear transforms. The engine
// repeatedly applies a randomly chosen [Transform] to a walker point and
// records where the walker lands in a fixed-resolution density [Grid]. The
// grid is then mapped to pixels using log-scaled density for brightness and a
// running color average for hue.
//
// # Pipeline
//
// Rendering runs in two phases that repeat on every [Engine.Rerender]:
//
//  1. Estimate: a few short, discarded chaos-game passes measure the extent
//     of the attractor ([EstimateBounds]).
//  2. Accumulate: each call to [Engine.Step] runs one bounded batch of
//     iterations ([Accumulate]) and then maps the grid into the frame buffer
//     ([MapGrid]).
//
// Steps are sized so that a host surface can call [Engine.Step] once per
// displayed frame and stay responsive. After the configured number of steps
// the engine freezes: further steps only re-emit the frame.
//
// # Usage
//
//	eng, err := flame.New(flame.Config{Width: 512, Height: 512, Seed: 7})
//	if err != nil {
//	    return err
//	}
//	for !eng.Frozen() {
//	    frame := eng.Step()
//	    display(frame)
//	}
//
// An Engine is not safe for concurrent use. Hosts that share one between
// goroutines must serialize calls.
package flame
