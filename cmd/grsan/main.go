// Package main implements the grsan CLI tool.
//
// The grsan tool replays a registered target program through the gradient
// sanitizer runtime. It works by:
//
//  1. Seeding one input byte with a label
//  2. Replaying the target, which propagates derivatives to every value
//     computed from that byte
//  3. Selecting labels that look like bugs (integer additions that may
//     overflow)
//  4. Moving the seeded byte along the gradient until the bug triggers
//
// Usage:
//
//	grsan run --target overflow input.bin        # Single replay
//	grsan collect --target overflow input.bin    # Gradients of every byte
//	grsan optimize --target overflow input.bin   # Full search
//	grsan inspect --target overflow input.bin    # Label table
//
// Runtime options are read from GRSAN_* environment variables.
package main

func main() {
	Execute()
}
