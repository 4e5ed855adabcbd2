// Package search drives a replay target through the gradient runtime.
//
// A Target is an ordinary Go function instrumented against the grsan ABI.
// The search replays it on an input in two phases:
//
//   - Collect replays the target once per input byte, seeding that byte with
//     a fresh label, and keeps a snapshot of every run's label table.
//   - Optimize takes one (input byte, sink label) target selected by a
//     filter and runs Newton steps on the byte value, one replay per epoch.
//
// Pipeline chains collect, filter and optimize over every selected target
// and returns a Report. Every phase emits structured entries (COLLECT,
// FILTER, OPT) through apex/log.
package search
