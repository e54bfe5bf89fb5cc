package sensors

import (
	"regexp"
	"strings"
)

var blankLinesRe = regexp.MustCompile(`\n{2,}`)

var lineEndingReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// SplitBlocks cuts raw output into per-chip blocks on blank-line boundaries
// and returns the lines of every block whose first line is a registered
// chip, in source order. Everything else (unknown chips, summaries) is
// dropped.
func (r *Registry) SplitBlocks(raw string) [][]string {
	normalized := lineEndingReplacer.Replace(raw)

	var blocks [][]string
	for _, block := range blankLinesRe.Split(normalized, -1) {
		block = strings.Trim(block, "\n")
		if block == "" {
			continue
		}

		lines := strings.Split(block, "\n")
		if !r.Knows(lines[0]) {
			continue
		}

		blocks = append(blocks, lines)
	}

	return blocks
}
