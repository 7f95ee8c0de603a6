// Package palette implements the color-reduction core: frequency
// histograms, median-cut palette quantization and nearest-color search.
//
// Data flows in one direction:
//
//	Histogram -> Quantize -> NewSearcher -> (package dither)
//
// # Colors
//
// A Color holds four non-premultiplied 8-bit channels (R, G, B, A). The
// quantizer splits on R, G and B only; a Searcher compares either the
// first three channels or all four, chosen when it is built.
//
// # Thread Safety
//
// Histogram and Quantize are pure functions and may be called
// concurrently. A Searcher carries a match cache and an exclusion set and
// must be owned by a single conversion at a time; build one per goroutine.
//
// # Determinism
//
// For identical inputs every function in this package produces identical
// output. Ties are broken by channel order rather than map or sort
// instability.
package palette
