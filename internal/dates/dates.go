// Package dates normalizes benchmark start times written in the formats
// produced by different benchmark versions.
package dates

import "time"

// Layouts are tried in order. The first has no zone and is read as UTC. The
// last two both accept a numeric offset; the second also takes "Z" and "+00:00".
var Layouts = []string{
	"2006-01-02-15:04",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05Z07:00",
}

// Parse returns the UTC instant for raw, or false when no layout matches.
func Parse(raw string) (time.Time, bool) {
	for _, layout := range Layouts {
		ts, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		return ts.UTC(), true
	}
	return time.Time{}, false
}
