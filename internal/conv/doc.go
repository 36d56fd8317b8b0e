// Package conv provides checked integer conversions for the binary codec.
package conv
