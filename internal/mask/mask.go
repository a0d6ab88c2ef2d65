// Package mask disguises detected secrets, leaving a short prefix visible.
package mask

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultVisiblePrefix is the number of leading characters left readable.
const DefaultVisiblePrefix = 5

// maskWidth caps the disguise for values of this length and longer.
const maskWidth = 10

// ErrInvalidInput is returned for an empty value or a negative prefix length.
var ErrInvalidInput = errors.New("invalid mask input")

// Mask returns value with everything after the first visible characters
// replaced by asterisks. Values no longer than visible are returned unchanged.
// Short values keep their length in asterisks; values of ten characters or
// more are cut down so that prefix and asterisks total ten characters. Lengths
// are counted in runes.
func Mask(value string, visible int) (string, error) {
	if value == "" {
		return "", fmt.Errorf("mask: empty value: %w", ErrInvalidInput)
	}
	if visible < 0 {
		return "", fmt.Errorf("mask: negative visible prefix %d: %w", visible, ErrInvalidInput)
	}
	n := utf8.RuneCountInString(value)
	if visible >= n {
		return value, nil
	}
	hidden := n
	if n >= maskWidth {
		hidden = max(maskWidth-visible, 0)
	}
	prefix, i := "", 0
	for off := range value {
		if i == visible {
			prefix = value[:off]
			break
		}
		i++
	}
	return prefix + strings.Repeat("*", hidden), nil
}
