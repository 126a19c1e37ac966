package gradebook

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/courseops/taflow/internal/domain/model"
)

// exportRow is the two-column shape consumed by the external
// grading-administration upload.
type exportRow struct {
	StudentID string  `csv:"student_id"`
	Grade     float64 `csv:"grade"`
}

// Export writes one (student_id, grade) CSV per assignment into outDir,
// named {assignment}.csv, in registry order.
func (b *Book) Export(students []model.Student, assignments []string, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", outDir, err)
	}

	for _, assignment := range assignments {
		rows := make([]*exportRow, 0, len(students))
		for _, s := range students {
			grade, err := b.Grade(s.ID, assignment)
			if err != nil {
				return err
			}
			rows = append(rows, &exportRow{StudentID: s.ID, Grade: Round2(grade)})
		}

		path := filepath.Join(outDir, assignment+".csv")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create export %s: %w", path, err)
		}
		if err := gocsv.MarshalFile(&rows, f); err != nil {
			f.Close()
			return fmt.Errorf("write export %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close export %s: %w", path, err)
		}
	}
	return nil
}
