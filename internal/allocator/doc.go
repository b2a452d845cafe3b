// Package allocator places a fixed lineup of time-bounded shows onto the
// smallest number of interchangeable stages.
//
// A show occupies its stage for the closed slot range [Start, End] and
// keeps the stage blocked for a further turnover window (End, End+T]. Shows
// are ordered deterministically, grouped into priority tiers when the
// Popularity policy is active, and placed greedily on an occupancy grid.
// When a show finds no free stage the pass is abandoned, one stage is added
// and the whole lineup is placed again from an empty grid. The loop starts
// from the lower bound returned by MinimumStages and always converges,
// because one stage per show can never conflict.
//
// The package performs no I/O. Every call to Allocate owns its own grid, so
// independent runs may execute concurrently.
package allocator
