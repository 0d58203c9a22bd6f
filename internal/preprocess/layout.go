package preprocess

import (
	"math"
	"sort"
	"strings"

	"pointake/internal/port"
)

// itemSeparator joins text items that share a line.
const itemSeparator = "  "

// layoutLines orders page text top to bottom, left to right, and groups items into
// lines. An item whose Y differs from the previous item by more than threshold
// starts a new line.
func layoutLines(items []port.TextItem, threshold float64) []string {
	sorted := make([]port.TextItem, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Text) != "" {
			sorted = append(sorted, it)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []string
	var current []string
	lastY := 0.0
	for i, it := range sorted {
		if i > 0 && math.Abs(it.Y-lastY) > threshold {
			lines = append(lines, strings.Join(current, itemSeparator))
			current = nil
		}
		current = append(current, strings.TrimSpace(it.Text))
		lastY = it.Y
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, itemSeparator))
	}
	return lines
}

// budgetWriter accumulates lines until a word limit is reached.
type budgetWriter struct {
	b     strings.Builder
	limit int
	words int
	full  bool
}

// write appends line, truncating it to the words that still fit. It returns false
// once the budget is exhausted.
func (w *budgetWriter) write(line string) bool {
	if w.full {
		return false
	}
	words := strings.Fields(line)
	if len(words) == 0 {
		return true
	}
	remaining := w.limit - w.words
	if len(words) > remaining {
		if remaining > 0 {
			w.b.WriteString(strings.Join(words[:remaining], " "))
			w.b.WriteByte('\n')
			w.words = w.limit
		}
		w.full = true
		return false
	}
	w.b.WriteString(line)
	w.b.WriteByte('\n')
	w.words += len(words)
	return true
}

// writeWhole appends line only when all of it fits.
func (w *budgetWriter) writeWhole(line string) bool {
	if w.full || w.words+len(strings.Fields(line)) > w.limit {
		w.full = true
		return false
	}
	w.b.WriteByte('\n')
	return w.write(line)
}
