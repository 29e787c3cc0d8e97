// Package corpus merges extracted papers into the single text blob sent
// for classification.
package corpus

import "strings"

// Boundary marks the end of each paper in the corpus
const Boundary = "--- END OF PAPER ---"

const separator = "\n\n" + Boundary + "\n\n"

// Build concatenates texts in order, closing each one with the boundary line
func Build(texts []string) string {
	var sb strings.Builder
	n := 0
	for _, t := range texts {
		n += len(t) + len(separator)
	}
	sb.Grow(n)

	for _, t := range texts {
		sb.WriteString(t)
		sb.WriteString(separator)
	}
	return sb.String()
}
