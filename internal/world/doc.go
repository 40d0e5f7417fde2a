// Package world owns the bodies, contact arbiters and joints of a
// simulation and advances them with [World.Update].
//
// # Stepping
//
// Each call to Update runs, in order:
//
//  1. pending commands queued with the Queue* methods
//  2. collision detection over every body pair with at least one movable
//     body, creating, refreshing or dropping that pair's arbiter
//  3. velocity integration under gravity and accumulated forces
//  4. PreStep on every arbiter, then every joint
//  5. the configured number of ApplyImpulse passes over the same constraints
//  6. position integration and clearing of force accumulators
//
// # Ownership
//
// Bodies live in an arena keyed by [BodyID]. IDs are never reused, so a
// stale ID simply fails lookup. Arbiters are keyed by the ordered ID pair,
// and the solve order follows body insertion order so runs are repeatable.
//
// A World is not safe for concurrent use, except for the Queue* methods,
// which may be called from other goroutines (a UI, a script) while the
// owning goroutine calls Update.
package world
