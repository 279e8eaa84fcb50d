package evaluator

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/traefik/yaegi/interp"
)

var errChdir = errors.New("chdir is not available to snippets")

// workdir is the private working directory of one Go evaluation. Relative
// paths used by a snippet resolve under it instead of the checker's cwd.
type workdir struct {
	dir string
}

func newWorkdir() (*workdir, error) {
	dir, err := os.MkdirTemp("", "snipcheck-go-*")
	if err != nil {
		return nil, err
	}
	return &workdir{dir: dir}, nil
}

func (w *workdir) remove() {
	_ = os.RemoveAll(w.dir)
}

func (w *workdir) path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(w.dir, name)
}

// temp roots temporary files and directories under the workdir too
func (w *workdir) temp(dir string) string {
	if dir == "" {
		return w.dir
	}
	return w.path(dir)
}

// rel maps a path produced under a relative root back to its relative form
func (w *workdir) rel(root, p string) string {
	if filepath.IsAbs(root) {
		return p
	}
	r, err := filepath.Rel(w.dir, p)
	if err != nil {
		return p
	}
	return r
}

// exports overrides the file-system symbols of os, io/ioutil and
// path/filepath. It is applied on top of the sandbox symbol table.
func (w *workdir) exports() interp.Exports {
	return interp.Exports{
		"os/os": {
			"Chdir":      reflect.ValueOf(func(string) error { return errChdir }),
			"Chmod":      reflect.ValueOf(func(name string, mode os.FileMode) error { return os.Chmod(w.path(name), mode) }),
			"Chtimes":    reflect.ValueOf(func(name string, atime, mtime time.Time) error { return os.Chtimes(w.path(name), atime, mtime) }),
			"Create":     reflect.ValueOf(func(name string) (*os.File, error) { return os.Create(w.path(name)) }),
			"CreateTemp": reflect.ValueOf(func(dir, pattern string) (*os.File, error) { return os.CreateTemp(w.temp(dir), pattern) }),
			"DirFS":      reflect.ValueOf(func(dir string) fs.FS { return os.DirFS(w.path(dir)) }),
			"Getwd":      reflect.ValueOf(func() (string, error) { return w.dir, nil }),
			"Link":       reflect.ValueOf(func(oldname, newname string) error { return os.Link(w.path(oldname), w.path(newname)) }),
			"Lstat":      reflect.ValueOf(func(name string) (os.FileInfo, error) { return os.Lstat(w.path(name)) }),
			"Mkdir":      reflect.ValueOf(func(name string, perm os.FileMode) error { return os.Mkdir(w.path(name), perm) }),
			"MkdirAll":   reflect.ValueOf(func(name string, perm os.FileMode) error { return os.MkdirAll(w.path(name), perm) }),
			"MkdirTemp":  reflect.ValueOf(func(dir, pattern string) (string, error) { return os.MkdirTemp(w.temp(dir), pattern) }),
			"Open":       reflect.ValueOf(func(name string) (*os.File, error) { return os.Open(w.path(name)) }),
			"OpenFile": reflect.ValueOf(func(name string, flag int, perm os.FileMode) (*os.File, error) {
				return os.OpenFile(w.path(name), flag, perm)
			}),
			"ReadDir":   reflect.ValueOf(func(name string) ([]os.DirEntry, error) { return os.ReadDir(w.path(name)) }),
			"ReadFile":  reflect.ValueOf(func(name string) ([]byte, error) { return os.ReadFile(w.path(name)) }),
			"Readlink":  reflect.ValueOf(func(name string) (string, error) { return os.Readlink(w.path(name)) }),
			"Remove":    reflect.ValueOf(func(name string) error { return os.Remove(w.path(name)) }),
			"RemoveAll": reflect.ValueOf(func(name string) error { return os.RemoveAll(w.path(name)) }),
			"Rename":    reflect.ValueOf(func(oldpath, newpath string) error { return os.Rename(w.path(oldpath), w.path(newpath)) }),
			"Stat":      reflect.ValueOf(func(name string) (os.FileInfo, error) { return os.Stat(w.path(name)) }),
			"Symlink":   reflect.ValueOf(func(oldname, newname string) error { return os.Symlink(oldname, w.path(newname)) }),
			"Truncate":  reflect.ValueOf(func(name string, size int64) error { return os.Truncate(w.path(name), size) }),
			"WriteFile": reflect.ValueOf(func(name string, data []byte, perm os.FileMode) error {
				return os.WriteFile(w.path(name), data, perm)
			}),
		},
		"io/ioutil/ioutil": {
			"ReadDir": reflect.ValueOf(func(name string) ([]fs.FileInfo, error) {
				entries, err := os.ReadDir(w.path(name))
				if err != nil {
					return nil, err
				}
				infos := make([]fs.FileInfo, 0, len(entries))
				for _, e := range entries {
					info, err := e.Info()
					if err != nil {
						return nil, err
					}
					infos = append(infos, info)
				}
				return infos, nil
			}),
			"ReadFile": reflect.ValueOf(func(name string) ([]byte, error) { return os.ReadFile(w.path(name)) }),
			"TempDir":  reflect.ValueOf(func(dir, pattern string) (string, error) { return os.MkdirTemp(w.temp(dir), pattern) }),
			"TempFile": reflect.ValueOf(func(dir, pattern string) (*os.File, error) { return os.CreateTemp(w.temp(dir), pattern) }),
			"WriteFile": reflect.ValueOf(func(name string, data []byte, perm fs.FileMode) error {
				return os.WriteFile(w.path(name), data, perm)
			}),
		},
		"path/filepath/filepath": {
			"Abs": reflect.ValueOf(func(p string) (string, error) {
				if filepath.IsAbs(p) {
					return filepath.Clean(p), nil
				}
				return filepath.Join(w.dir, p), nil
			}),
			"EvalSymlinks": reflect.ValueOf(func(p string) (string, error) {
				resolved, err := filepath.EvalSymlinks(w.path(p))
				if err != nil {
					return "", err
				}
				return w.rel(p, resolved), nil
			}),
			"Glob": reflect.ValueOf(func(pattern string) ([]string, error) {
				matches, err := filepath.Glob(w.path(pattern))
				for i, m := range matches {
					matches[i] = w.rel(pattern, m)
				}
				return matches, err
			}),
			"Walk": reflect.ValueOf(func(root string, fn filepath.WalkFunc) error {
				return filepath.Walk(w.path(root), func(p string, info fs.FileInfo, err error) error {
					return fn(w.rel(root, p), info, err)
				})
			}),
			"WalkDir": reflect.ValueOf(func(root string, fn fs.WalkDirFunc) error {
				return filepath.WalkDir(w.path(root), func(p string, d fs.DirEntry, err error) error {
					return fn(w.rel(root, p), d, err)
				})
			}),
		},
	}
}
