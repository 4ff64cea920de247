package utils

import (
	"strings"

	"github.com/google/uuid"
)

func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

// SplitCSV splits a comma separated query value, dropping blanks.
// Repeated params (?skills=a&skills=b,c) are flattened the same way.
func SplitCSV(values ...string) []string {
	out := make([]string, 0)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
