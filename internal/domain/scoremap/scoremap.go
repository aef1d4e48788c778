// Package scoremap parses the age-bucketed step tables that organizers
// maintain as semicolon-separated CSV files.
//
// File layout: the first row is the header. Its first column is a label and
// every further column names an age bucket ("10-11", "12-13", ...). Each
// following row contributes one threshold per bucket. Decimal commas are
// accepted. Shot power tables carry one extra metadata row after the header.
package scoremap

import (
	"math"
	"strconv"
	"strings"
)

// Format describes how many leading rows precede the data rows.
type Format struct {
	HeaderRows int
}

// Table formats.
var (
	// StandardFormat is used by the agility and speed tables.
	StandardFormat = Format{HeaderRows: 1}
	// PowerFormat is used by the shot power table.
	PowerFormat = Format{HeaderRows: 2}
)

// Table maps age-bucket labels to ordered thresholds. Row order is kept:
// earlier thresholds are better results. A Table is read-only once parsed.
type Table struct {
	labels []string
	rows   map[string][]float64
}

// Labels returns the non-empty bucket labels in header order.
func (t *Table) Labels() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}

// Thresholds returns the ordered thresholds of a bucket, or nil.
func (t *Table) Thresholds(label string) []float64 {
	if t == nil {
		return nil
	}
	return t.rows[label]
}

// Len returns the number of non-empty buckets.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.labels)
}

// Parse builds a Table from raw CSV text. It returns nil when the text holds
// no usable threshold, which callers treat as "no table".
func Parse(text string, f Format) *Table {
	lines := make([]string, 0)
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	header := strings.Split(lines[0], ";")
	if len(header) < 2 {
		return nil
	}
	// A repeated label keeps its first column only.
	labels := make([]string, 0, len(header)-1)
	cols := make([]int, 0, len(header)-1)
	seen := make(map[string]bool, len(header)-1)
	for i, h := range header[1:] {
		label := strings.TrimSpace(h)
		if seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
		cols = append(cols, i+1)
	}

	skip := f.HeaderRows
	if skip < 1 {
		skip = 1
	}
	if skip > len(lines) {
		skip = len(lines)
	}

	rows := make(map[string][]float64, len(labels))
	for _, line := range lines[skip:] {
		cells := strings.Split(line, ";")
		for i, label := range labels {
			if cols[i] >= len(cells) {
				break
			}
			v, ok := parseCell(cells[cols[i]])
			if !ok {
				continue
			}
			rows[label] = append(rows[label], v)
		}
	}

	t := &Table{rows: make(map[string][]float64, len(rows))}
	for _, label := range labels {
		vals := rows[label]
		if len(vals) == 0 {
			continue
		}
		t.labels = append(t.labels, label)
		t.rows[label] = vals
	}
	if len(t.labels) == 0 {
		return nil
	}
	return t
}

func parseCell(cell string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
