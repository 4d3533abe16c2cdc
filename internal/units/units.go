// Package units parses human-readable sizes.
package units

import (
	"fmt"
	"strings"

	"github.com/c2h5oh/datasize"
)

// suffixes maps accepted unit spellings, lowercased, to the form datasize
// parses. Units are binary: "1GB", "1GiB" and "1g" are all 1073741824.
var suffixes = map[string]string{
	"": "", "b": "",
	"k": "KB", "kb": "KB", "kib": "KB",
	"m": "MB", "mb": "MB", "mib": "MB",
	"g": "GB", "gb": "GB", "gib": "GB",
	"t": "TB", "tb": "TB", "tib": "TB",
	"p": "PB", "pb": "PB", "pib": "PB",
	"e": "EB", "eb": "EB", "eib": "EB",
}

// ParseSize parses a positive size such as "1073741824", "512MB", "10GiB"
// or "2 gib" into bytes.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("size is required")
	}

	num, unit := s, ""
	if i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		num, unit = s[:i], strings.TrimSpace(s[i:])
	}
	suffix, ok := suffixes[strings.ToLower(unit)]
	if num == "" || !ok {
		return 0, fmt.Errorf("invalid size %q", s)
	}

	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(num + suffix)); err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if size.Bytes() == 0 {
		return 0, fmt.Errorf("size must be greater than 0")
	}
	return size.Bytes(), nil
}
