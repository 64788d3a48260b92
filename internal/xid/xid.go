package xid

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	ProductPrefix = "PROD"
	OrderPrefix   = "ORD"
)

var widths = map[string]int{
	ProductPrefix: 4,
	OrderPrefix:   5,
}

// Sequence formats n with the prefix's fixed-width zero padding, e.g. ORD00042.
func Sequence(prefix string, n int) string {
	width, ok := widths[prefix]
	if !ok {
		width = 4
	}
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

// ParseSequence extracts the numeric suffix of an id built by Sequence.
func ParseSequence(prefix string, id string) (int, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
