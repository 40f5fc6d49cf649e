package std

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

type FilesConfig struct {
	// Root restricts capability access to the subtree under it.
	Root string `config:"root"`
}

func DefaultFilesConfig() FilesConfig {
	return FilesConfig{Root: "."}
}

// Files donates read only file capabilities over fs, confined to the
// configured root.
type Files struct {
	fs afero.Fs
}

func NewFiles(fs afero.Fs, conf FilesConfig) *Files {
	base := fs
	if conf.Root != "" && conf.Root != "." {
		base = afero.NewBasePathFs(fs, conf.Root)
	}
	return &Files{fs: afero.NewReadOnlyFs(base)}
}

// Read returns the contents of name.
func (f *Files) Read(name string) (string, error) {
	data, err := afero.ReadFile(f.fs, name)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(data), nil
}

// Exists reports whether name exists.
func (f *Files) Exists(name string) bool {
	ok, err := afero.Exists(f.fs, name)
	return err == nil && ok
}

// Size returns the size of name in bytes.
func (f *Files) Size(name string) (int64, error) {
	info, err := f.fs.Stat(name)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return info.Size(), nil
}
