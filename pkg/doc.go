// Package pkg provides the core libraries for Flametower fractal flame rendering.
//
// # Overview
//
// Flametower renders fractal flames progressively with the chaos game: a point
// is pushed through randomly chosen nonlinear transforms, every landing spot is
// counted in a density grid, and the grid is tone-mapped into a color frame
// one bounded step at a time. The pkg directory is organized as follows:
//
//  1. [flame] - The engine (variations, transforms, bounds, accumulation, mapping)
//  2. [pipeline] - Headless runs with cached statistics
//  3. [store] - Preset and run storage (file, Redis, MongoDB)
//  4. [session] - Live engines addressed by ID with idle expiry
//  5. [server] - HTTP surface over sessions, presets and runs
//
// # Architecture
//
// The typical data flow through Flametower:
//
//	Config / Preset
//	         ↓
//	flame.New → Engine.Rerender (bounds warm-up)
//	         ↓
//	Engine.Step (accumulate → peak → map) ... frozen
//	         ↓
//	terminal viewer / HTTP frame / run statistics
//
// Supporting packages: [errors] defines coded errors shared by every layer,
// [observability] holds the engine, run and store hook registry, and
// [buildinfo] carries version information set at link time.
package pkg
