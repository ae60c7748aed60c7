package config

import (
	"strconv"
	"strings"
)

// DefaultMaxFileSizeBytes is used when the configured size expression is
// invalid, per spec.md §9.
const DefaultMaxFileSizeBytes int64 = 10 * 1024 * 1024

// ParseSizeExpression accepts either a bare integer byte count or a
// minimal "N * M * ..." multiplicative expression (e.g.
// "5 * 1024 * 1024"), per spec.md §6. It deliberately does not
// implement a general expression evaluator — only products of
// non-negative integers. Invalid input returns DefaultMaxFileSizeBytes.
func ParseSizeExpression(expr string) int64 {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return DefaultMaxFileSizeBytes
	}

	parts := strings.Split(expr, "*")
	var product int64 = 1
	for _, part := range parts {
		part = strings.TrimSpace(part)
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 {
			return DefaultMaxFileSizeBytes
		}
		product *= n
	}
	if product <= 0 {
		return DefaultMaxFileSizeBytes
	}
	return product
}
