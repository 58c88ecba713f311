package cli

import (
	"io"
	"os"
	"path/filepath"

	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

// isStdio reports whether path names stdin or stdout.
func isStdio(path string) bool {
	return path == "" || path == "-"
}

// openInput opens path for reading, or returns stdin for "" and "-".
func openInput(stdin io.Reader, path string) (io.ReadCloser, error) {
	if isStdio(path) {
		return io.NopCloser(stdin), nil
	}
	if err := apperr.ValidateFilePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidPath, err, "input %s not found", path)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeIO, err, "open %s", path)
	}
	return f, nil
}

// output is the destination of a command. File outputs go to a temp file
// in the target directory that Commit renames into place, so a failed run
// never leaves a partial file behind.
type output struct {
	io.Writer
	path string
	tmp  *os.File
	done bool
}

// createOutput prepares path for writing, or wraps stdout for "" and "-".
func createOutput(stdout io.Writer, path string) (*output, error) {
	if isStdio(path) {
		return &output{Writer: stdout}, nil
	}
	if err := apperr.ValidateFilePath(path); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeIO, err, "create %s", path)
	}
	return &output{Writer: tmp, path: path, tmp: tmp}, nil
}

// outputMode keeps the permissions of a file being replaced; new files get
// 0644 instead of the 0600 of the temp file.
func outputMode(path string) os.FileMode {
	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		return fi.Mode().Perm()
	}
	return 0o644
}

// IsFile reports whether the output is a named file.
func (o *output) IsFile() bool { return o.tmp != nil }

// Commit closes the temp file and moves it to the final path.
func (o *output) Commit() error {
	if o.tmp == nil || o.done {
		return nil
	}
	o.done = true
	if err := o.tmp.Chmod(outputMode(o.path)); err != nil {
		o.tmp.Close()
		os.Remove(o.tmp.Name())
		return apperr.Wrap(apperr.ErrCodeIO, err, "write %s", o.path)
	}
	if err := o.tmp.Close(); err != nil {
		os.Remove(o.tmp.Name())
		return apperr.Wrap(apperr.ErrCodeIO, err, "write %s", o.path)
	}
	if err := os.Rename(o.tmp.Name(), o.path); err != nil {
		os.Remove(o.tmp.Name())
		return apperr.Wrap(apperr.ErrCodeIO, err, "write %s", o.path)
	}
	return nil
}

// Abort discards the temp file. It does nothing after Commit.
func (o *output) Abort() {
	if o.tmp == nil || o.done {
		return
	}
	o.done = true
	o.tmp.Close()
	os.Remove(o.tmp.Name())
}
