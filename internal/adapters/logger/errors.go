package logger

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// zerrError is the subset of zerr.Error the formatter relies on.
type zerrError interface {
	Message() string
	Metadata() map[string]any
}

// ErrorEntry is one link of an error chain.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries walks the chain of err. A zerr link contributes its own
// message and metadata; the first foreign error contributes its full text and
// ends the walk. A zerr link without a message folds its metadata into the next entry.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	var carry map[string]any

	for current := err; current != nil; {
		z, ok := current.(zerrError)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error(), Metadata: carry})
			break
		}

		meta := z.Metadata()
		for k, v := range carry {
			if _, exists := meta[k]; !exists {
				meta[k] = v
			}
		}
		carry = nil

		if z.Message() == "" {
			carry = meta
		} else {
			entries = append(entries, ErrorEntry{Message: z.Message(), Metadata: meta})
		}
		current = errors.Unwrap(current)
	}

	return entries
}

// takeTarget removes the outermost "target" metadata from entries and returns it.
func takeTarget(entries []ErrorEntry) string {
	for _, entry := range entries {
		if v, ok := entry.Metadata[TargetKey]; ok {
			delete(entry.Metadata, TargetKey)
			return fmt.Sprint(v)
		}
	}
	return ""
}

// formatErrorEntries renders entries as a headline followed by a "Caused by" list.
// Metadata lines are sorted by key.
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string

	for i, entry := range entries {
		msgLines := strings.Split(entry.Message, "\n")

		var head, indent string
		if i == 0 {
			head, indent = "Error: ", "       "
		} else {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			head, indent = "    → ", "      "
		}

		lines = append(lines, head+msgLines[0])
		for _, line := range msgLines[1:] {
			lines = append(lines, indent+line)
		}

		keys := make([]string, 0, len(entry.Metadata))
		for k := range entry.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, k, entry.Metadata[k]))
		}
	}

	return strings.Join(lines, "\n")
}
