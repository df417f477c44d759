package search

import (
	"strconv"
	"strings"
)

// Query represents the structured parameters of a room search.
// It decouples the raw chat input from the actual index requirements.
type Query struct {
	RawInput string // The original arguments typed by the user
	Terms    string // The actual text to search in the index
	Room     string // Target room for the search
	Limit    int    // Number of results
}

// NewSearchQuery parses the arguments of a search command.
// Example: /search "invoice" --limit 5
func NewSearchQuery(input string, room string, defaultLimit int) Query {
	query := Query{
		RawInput: input,
		Room:     room,
		Limit:    defaultLimit,
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		// Handle flags like --limit 5
		if part == "--limit" && i+1 < len(parts) {
			if limit, err := strconv.Atoi(parts[i+1]); err == nil && limit > 0 {
				query.Limit = limit
			}
			i++ // Skip the value part in next iteration
			continue
		}

		textTerms = append(textTerms, strings.Trim(part, `"`))
	}

	query.Terms = strings.TrimSpace(strings.Join(textTerms, " "))
	return query
}

func (q Query) IsEmpty() bool {
	return q.Terms == ""
}
