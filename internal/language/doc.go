// Package language normalizes subtitle language codes and decides whether a
// language is grouped by words or by characters when building subtitle units.
package language
