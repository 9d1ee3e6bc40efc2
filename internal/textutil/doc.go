// Package textutil provides small text helpers shared across the pipeline:
// filesystem-safe names and tokens, and stock search keyword normalization.
package textutil
