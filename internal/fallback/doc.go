// Package fallback resolves a resource through an ordered ladder of
// strategies.
//
// Strategies run strictly in order and the first success wins; later
// strategies are never invoked. A strategy that finds nothing returns
// ErrNoAsset. When every strategy fails the ladder fails with a
// resource-unavailable error that wraps each attempt, and cancellation stops
// the ladder immediately.
package fallback
