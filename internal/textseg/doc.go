// Package textseg splits source text into synthesis chunks, splits chunks into
// subtitle sub-units, and fits sub-units to a display line.
//
// Chunking packs whole sentences greedily up to a character limit. Sub-units
// group words (spaced languages) or characters (Japanese, Chinese, Korean) so
// every subtitle entry carries a similar amount of speech. All lengths are
// counted in Unicode code points.
package textseg
