// Package textutil sanitizes user-supplied titles into file names for run
// artifacts.
package textutil
