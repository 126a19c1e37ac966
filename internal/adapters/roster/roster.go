// Package roster loads the student registry from the course CSV export.
package roster

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/courseops/taflow/internal/domain/model"
)

// row mirrors one line of the registry CSV.
type row struct {
	FirstName  string `csv:"first_name"`
	LastName   string `csv:"last_name"`
	Department string `csv:"department"`
	ID         string `csv:"student_id"`
	Email      string `csv:"email"`
	Withdraw   string `csv:"withdraw"` // blank means false in the source export
}

// Load reads and validates the registry file. Names are transliterated to
// ASCII on the way in, a blank withdraw column defaults to false, and rows
// sharing a student ID are deduplicated first-occurrence-wins.
func Load(path string) ([]model.Student, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster %s: %w", path, err)
	}
	defer f.Close()

	var rows []*row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRoster, path, err)
	}

	students := make([]model.Student, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: row with empty student_id", ErrMalformedRoster)
		}
		students = append(students, model.Student{
			FirstName:  model.Transliterate(r.FirstName),
			LastName:   model.Transliterate(r.LastName),
			Department: r.Department,
			ID:         r.ID,
			Email:      r.Email,
			Withdrawn:  parseWithdraw(r.Withdraw),
		})
	}

	students = model.Dedupe(students)
	if len(students) == 0 {
		return nil, ErrEmptyRoster
	}
	return students, nil
}

func parseWithdraw(v string) bool {
	switch v {
	case "", "0", "false", "False", "FALSE", "no", "No":
		return false
	default:
		return true
	}
}
