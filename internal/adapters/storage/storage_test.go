package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/courseops/taflow/internal/adapters/storage"
	"github.com/courseops/taflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScaffold(t *testing.T) {
	Convey("Given students and assignments", t, func() {
		root := t.TempDir()
		students := []model.Student{
			{FirstName: "John", LastName: "Smith", ID: "12345"},
			{FirstName: "Jane", LastName: "Doe", ID: "67890"},
		}
		assignments := []string{"Homework_1", "Quiz_1"}

		Convey("When scaffolding the tree", func() {
			err := storage.Scaffold(root, students, assignments)
			So(err, ShouldBeNil)

			Convey("Then every (student, assignment) directory exists", func() {
				for _, s := range students {
					for _, a := range assignments {
						info, err := os.Stat(storage.AssignmentDir(root, s, a))
						So(err, ShouldBeNil)
						So(info.IsDir(), ShouldBeTrue)
					}
				}
			})

			Convey("And scaffolding again is a no-op", func() {
				marker := filepath.Join(storage.AssignmentDir(root, students[0], "Homework_1"), "keep.pdf")
				writeFile(t, marker, "x")

				So(storage.Scaffold(root, students, assignments), ShouldBeNil)

				_, err := os.Stat(marker)
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestCopyFileIsAdditive(t *testing.T) {
	Convey("Given a source file", t, func() {
		dir := t.TempDir()
		src := filepath.Join(dir, "report.pdf")
		dst := filepath.Join(dir, "copy.pdf")
		writeFile(t, src, "pdf-bytes")

		Convey("When copying", func() {
			err := storage.CopyFile(src, dst)
			So(err, ShouldBeNil)

			Convey("Then the source still exists at its original path", func() {
				_, err := os.Stat(src)
				So(err, ShouldBeNil)
			})

			Convey("And the destination has the same content", func() {
				data, err := os.ReadFile(dst)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "pdf-bytes")
			})
		})

		Convey("When the destination directory is missing", func() {
			err := storage.CopyFile(src, filepath.Join(dir, "missing", "copy.pdf"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestMirrorToFallback(t *testing.T) {
	Convey("Given submission files and an empty fallback root", t, func() {
		dir := t.TempDir()
		fallback := t.TempDir()
		s := model.Student{FirstName: "Jane", LastName: "Doe", ID: "67890"}

		var files []string
		for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
			p := filepath.Join(dir, name)
			writeFile(t, p, name)
			files = append(files, p)
		}

		Convey("When mirroring", func() {
			out, err := storage.MirrorToFallback(fallback, s, "Homework_2", files)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, filepath.Join(fallback, "Doe_67890", "Homework_2"))

			Convey("Then all files land under the student's fallback directory", func() {
				for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
					data, err := os.ReadFile(filepath.Join(out, name))
					So(err, ShouldBeNil)
					So(string(data), ShouldEqual, name)
				}
			})
		})
	})
}

func TestNormalizeDir(t *testing.T) {
	Convey("Given a directory with messy filenames", t, func() {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "my report - v2.pdf"), "a")
		writeFile(t, filepath.Join(dir, "clean.pdf"), "b")

		Convey("When normalizing", func() {
			err := storage.NormalizeDir(dir)
			So(err, ShouldBeNil)

			Convey("Then messy names are rewritten and clean ones untouched", func() {
				_, err := os.Stat(filepath.Join(dir, "my_report__v2.pdf"))
				So(err, ShouldBeNil)
				_, err = os.Stat(filepath.Join(dir, "clean.pdf"))
				So(err, ShouldBeNil)
			})

			Convey("And normalizing again changes nothing", func() {
				So(storage.NormalizeDir(dir), ShouldBeNil)
				entries, err := os.ReadDir(dir)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
			})
		})
	})
}

func TestListPDFs(t *testing.T) {
	Convey("Given a directory with mixed entries", t, func() {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "b.pdf"), "b")
		writeFile(t, filepath.Join(dir, "a.pdf"), "a")
		writeFile(t, filepath.Join(dir, "notes.txt"), "t")
		So(os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755), ShouldBeNil)

		Convey("When listing", func() {
			files, err := storage.ListPDFs(dir)
			So(err, ShouldBeNil)

			Convey("Then only regular pdf files are returned, sorted", func() {
				So(len(files), ShouldEqual, 2)
				So(filepath.Base(files[0]), ShouldEqual, "a.pdf")
				So(filepath.Base(files[1]), ShouldEqual, "b.pdf")
			})
		})

		Convey("When the directory is missing", func() {
			_, err := storage.ListPDFs(filepath.Join(dir, "nope"))
			So(err, ShouldNotBeNil)
		})
	})
}
