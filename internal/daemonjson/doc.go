// Package daemonjson maintains the effective docker daemon configuration.
//
// The effective configuration is built from two layers:
//
//  1. Additions: daemon options set at runtime, persisted in the overlay
//     store under the daemon-opts-additions record.
//  2. Baseline: the daemon-opts the operator declared, re-read on every
//     call.
//
// Baseline keys win over additions on collision. Only top-level keys are
// merged; a nested value such as log-opts is taken wholesale from the layer
// that wins.
//
// [Engine.Set] and [Engine.Delete] change the additions. Neither can change
// the value a baseline key ends up with: Set refuses a different value for
// a baseline key and Delete only sees additions. Every successful change
// rewrites daemon.json through [Engine.Write], which is the only writer of
// that file.
package daemonjson
