package handler

import (
	"strings"
	"time"

	"github.com/iliyamo/tricket/internal/model"
)

// splitList turns "a, b,,c" into [a b c].
func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validDate reports whether s is a YYYY-MM-DD date.
func validDate(s string) bool {
	_, err := time.Parse(model.DateLayout, s)
	return err == nil
}
