package pdfsplit_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/courseops/taflow/internal/adapters/pdfsplit"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSplitValidation(t *testing.T) {
	Convey("Given invalid inputs", t, func() {
		dir := t.TempDir()

		Convey("Then a non-positive page span is rejected", func() {
			err := pdfsplit.Split(filepath.Join(dir, "batch.pdf"), dir, 0)
			So(errors.Is(err, pdfsplit.ErrInvalidPageSpan), ShouldBeTrue)
		})

		Convey("Then a missing input batch is reported before splitting", func() {
			err := pdfsplit.Split(filepath.Join(dir, "missing.pdf"), dir, 2)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, pdfsplit.ErrInvalidPageSpan), ShouldBeFalse)
		})
	})
}
