// Package pdfsplit cuts scanned quiz batches into per-submission documents.
package pdfsplit

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const dirPermission = 0o755

// Split writes one PDF per pagesPer-page span of the input batch into
// outDir. A scanner producing two pages per quiz sheet uses pagesPer=2.
func Split(in, outDir string, pagesPer int) error {
	if pagesPer < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSpan, pagesPer)
	}
	if _, err := os.Stat(in); err != nil {
		return fmt.Errorf("input batch %s: %w", in, err)
	}
	if err := os.MkdirAll(outDir, dirPermission); err != nil {
		return fmt.Errorf("create output dir %s: %w", outDir, err)
	}
	if err := api.SplitFile(in, outDir, pagesPer, nil); err != nil {
		return fmt.Errorf("split %s: %w", in, err)
	}
	return nil
}
