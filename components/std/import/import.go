package std

import (
	"github.com/spf13/afero"

	"github.com/buildeasy/buildeasy/components/std"
	"github.com/buildeasy/buildeasy/core/register"
)

const (
	envKey   = "env"
	clockKey = "clock"
	filesKey = "files"
)

// Import registers the builtin mixins: process environment, wall clock and
// read only file access over fs.
func Import(fs afero.Fs) {
	register.Mixin(envKey, std.NewEnv)
	register.Mixin(clockKey, std.NewClock)
	register.Mixin(filesKey, func(conf std.FilesConfig) *std.Files {
		return std.NewFiles(fs, conf)
	}, std.DefaultFilesConfig)
}
