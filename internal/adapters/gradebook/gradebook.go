// Package gradebook reads the external grade store: a wide CSV keyed by
// student_id with one numeric column per assignment. The store is read-only
// from this side; grades are entered by the grading-administration system.
package gradebook

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
)

// Book is an in-memory view of the grade table.
type Book struct {
	cols  map[string]int // column name -> index
	rows  map[string]int // student_id -> row index
	cells [][]string
}

// Open reads and indexes the grade table. The column layout is dynamic
// (one column per assignment), so the header drives the index.
func Open(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gradebook %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse gradebook %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBook, path)
	}

	b := &Book{
		cols:  make(map[string]int, len(records[0])),
		rows:  make(map[string]int),
		cells: records[1:],
	}
	for i, name := range records[0] {
		b.cols[name] = i
	}
	idCol, ok := b.cols["student_id"]
	if !ok {
		return nil, fmt.Errorf("%w: no student_id column", ErrEmptyBook)
	}
	for i, rec := range b.cells {
		b.rows[rec[idCol]] = i
	}
	return b, nil
}

// Grade returns the raw numeric grade for one (student, assignment) pair.
// Callers round for presentation.
func (b *Book) Grade(studentID, assignment string) (float64, error) {
	col, ok := b.cols[assignment]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAssignment, assignment)
	}
	row, ok := b.rows[studentID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownStudent, studentID)
	}
	v, err := strconv.ParseFloat(b.cells[row][col], 64)
	if err != nil {
		return 0, fmt.Errorf("grade for %s in %s: %w", studentID, assignment, err)
	}
	return v, nil
}

// Stats holds the per-assignment summary sent out with every grade email.
type Stats struct {
	Mean   float64
	Median float64
	Max    float64
}

// String renders the summary the way it appears in email bodies.
func (s Stats) String() string {
	return fmt.Sprintf("mean      %.2f\nmedian    %.2f\nmax       %.2f", s.Mean, s.Median, s.Max)
}

// Stats computes mean, median and max for an assignment, rounded to two
// decimals. Computed once per assignment and reused for every student.
func (b *Book) Stats(assignment string) (Stats, error) {
	col, ok := b.cols[assignment]
	if !ok {
		return Stats{}, fmt.Errorf("%w: %s", ErrUnknownAssignment, assignment)
	}

	grades := make([]float64, 0, len(b.cells))
	var sum float64
	for _, rec := range b.cells {
		v, err := strconv.ParseFloat(rec[col], 64)
		if err != nil {
			return Stats{}, fmt.Errorf("stats for %s: %w", assignment, err)
		}
		grades = append(grades, v)
		sum += v
	}
	if len(grades) == 0 {
		return Stats{}, fmt.Errorf("%w: no grades for %s", ErrEmptyBook, assignment)
	}

	sort.Float64s(grades)
	n := len(grades)
	median := grades[n/2]
	if n%2 == 0 {
		median = (grades[n/2-1] + grades[n/2]) / 2
	}

	return Stats{
		Mean:   Round2(sum / float64(n)),
		Median: Round2(median),
		Max:    Round2(grades[n-1]),
	}, nil
}

// Summary renders the assignment's statistics for inclusion in an email
// body. It satisfies the mailer's grade-source contract.
func (b *Book) Summary(assignment string) (string, error) {
	stats, err := b.Stats(assignment)
	if err != nil {
		return "", err
	}
	return stats.String(), nil
}

// Round2 rounds to two decimal places, the precision used everywhere a grade
// is shown to a student.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
