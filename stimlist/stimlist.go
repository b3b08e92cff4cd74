// Package stimlist loads tab-delimited stimulus lists. The first line names
// the columns; every following line is one trial's stimuli and metadata.
package stimlist

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
)

// Row is one trial's stimuli and metadata, keyed by column name.
type Row map[string]string

// Get returns the value for a column, or "" when the column is unknown.
func (r Row) Get(column string) string { return r[column] }

// List is an ordered collection of stimulus rows.
type List struct {
	Columns []string
	Rows    []Row

	next int
}

// Load reads a tab-delimited file with a header row.
func Load(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("stimulus list %s: %w", path, err)
	}
	return FromRecords(records)
}

// FromRecords builds a list from pre-split records, the first being the
// header.
func FromRecords(records [][]string) (*List, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("stimulus list: missing header row")
	}
	header := records[0]
	l := &List{Columns: header}
	for i, record := range records[1:] {
		if len(record) > len(header) {
			return nil, fmt.Errorf("stimulus list: line %d has %d fields, header has %d",
				i+2, len(record), len(header))
		}
		row := make(Row, len(header))
		for j, col := range header {
			if j < len(record) {
				row[col] = record[j]
			}
		}
		l.Rows = append(l.Rows, row)
	}
	return l, nil
}

// Shuffle randomizes the row order in place.
func (l *List) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(l.Rows), func(i, j int) {
		l.Rows[i], l.Rows[j] = l.Rows[j], l.Rows[i]
	})
	l.next = 0
}

// Next retrieves rows without replacement, in current order.
func (l *List) Next() (Row, bool) {
	if l.next >= len(l.Rows) {
		return nil, false
	}
	row := l.Rows[l.next]
	l.next++
	return row, true
}

// Remaining is the number of rows Next has not yet returned.
func (l *List) Remaining() int { return len(l.Rows) - l.next }
