// Package match implements the assignment distributor: fuzzy matching of
// submitted files to students and one-claim-per-student allocation.
package match

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/google/uuid"

	"github.com/courseops/taflow/internal/adapters/storage"
	"github.com/courseops/taflow/internal/domain/model"
	"github.com/courseops/taflow/pkg/logger"
	"github.com/courseops/taflow/pkg/metrics"
)

// DefaultThreshold is the minimum similarity score for a valid match,
// on the 0-100 scale.
const DefaultThreshold = 35

// candidate pairs a precomputed ASCII key with its student. Candidates are
// held in registry order so ties resolve to the first-seen student.
type candidate struct {
	key     string
	student model.Student
}

// Distributor matches submission files to students and optionally copies
// them into the students' assignment directories.
type Distributor struct {
	root      string
	threshold int
	copy      bool
	logger    logger.Logger
}

// NewDistributor creates a distributor rooted at the project directory.
func NewDistributor(projectRoot string, opts ...Option) *Distributor {
	d := &Distributor{
		root:      projectRoot,
		threshold: DefaultThreshold,
		logger:    logger.Get().Named("match"),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Score computes the 0-100 fuzzy similarity between a filename and a
// candidate full name. Both sides are transliterated and lowercased first;
// the metric is token-order-insensitive.
func Score(filename, candidateName string) int {
	return fuzzy.TokenSetRatio(normalize(filename), normalize(candidateName))
}

func normalize(s string) string {
	return strings.ToLower(model.Transliterate(s))
}

// Run distributes every .pdf in each assignment's source directory to its
// best-matching student. Allocation state is scoped to this call: each
// student claims at most one file per run, first-seen wins. Source files are
// never removed, so re-running against the same directory re-matches and
// re-copies every file.
func (d *Distributor) Run(ctx context.Context, students []model.Student, assignments []string) error {
	runID := uuid.NewString()
	d.logger.Info(ctx, "distribution run starting",
		logger.String("run_id", runID),
		logger.Int("students", len(students)),
		logger.Int("assignments", len(assignments)),
		logger.Int("threshold", d.threshold),
	)

	candidates := make([]candidate, 0, len(students))
	for _, s := range students {
		candidates = append(candidates, candidate{key: s.Key(), student: s})
	}

	// student ID -> claiming score, owned by this call only
	claims := make(map[string]int, len(students))

	for _, assignment := range assignments {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("distribution interrupted: %w", err)
		}
		if err := d.runAssignment(ctx, assignment, candidates, claims); err != nil {
			return err
		}
	}

	d.logger.Info(ctx, "distribution run finished",
		logger.String("run_id", runID),
		logger.Int("claimed", len(claims)),
	)
	return nil
}

func (d *Distributor) runAssignment(ctx context.Context, assignment string, candidates []candidate, claims map[string]int) error {
	srcDir := filepath.Join(d.root, assignment)
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceDirMissing, srcDir)
		}
		return fmt.Errorf("read source dir %s: %w", srcDir, err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			continue
		}

		name := model.Transliterate(entry.Name())
		best, bestScore := d.bestCandidate(name, candidates)

		if bestScore < d.threshold {
			metrics.RecordFileRejected()
			d.logger.Info(ctx, "no match for file",
				logger.String("assignment", assignment),
				logger.String("file", name),
				logger.Int("score", bestScore),
			)
			continue
		}

		if prior, claimed := claims[best.student.ID]; claimed {
			metrics.RecordFileDuplicate()
			d.logger.Info(ctx, "student already matched",
				logger.String("assignment", assignment),
				logger.String("file", name),
				logger.String("student", best.student.FullName()),
				logger.Int("score", bestScore),
				logger.Int("claiming_score", prior),
			)
			continue
		}

		claims[best.student.ID] = bestScore
		metrics.RecordFileMatched()
		d.logger.Info(ctx, "match found",
			logger.String("assignment", assignment),
			logger.String("file", name),
			logger.String("student", best.student.FullName()),
			logger.Int("score", bestScore),
		)

		if !d.copy {
			continue
		}

		dst := filepath.Join(storage.AssignmentDir(d.root, best.student, assignment), entry.Name())
		if err := storage.CopyFile(filepath.Join(srcDir, entry.Name()), dst); err != nil {
			return fmt.Errorf("place %s for %s: %w", entry.Name(), best.student.DirName(), err)
		}
		metrics.RecordFileCopied()
	}

	return nil
}

// bestCandidate scans candidates in order and keeps the strictly highest
// score, so earlier students win ties.
func (d *Distributor) bestCandidate(filename string, candidates []candidate) (candidate, int) {
	var best candidate
	bestScore := -1
	ascii := normalize(filename)
	for _, c := range candidates {
		score := fuzzy.TokenSetRatio(ascii, normalize(c.key))
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best, bestScore
}
