// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/afero"

	"github.com/buildeasy/buildeasy/cli"
	hello "github.com/buildeasy/buildeasy/components/hello/import"
	std "github.com/buildeasy/buildeasy/components/std/import"
	coreimport "github.com/buildeasy/buildeasy/core/import"
)

func init() {
	fs := afero.NewOsFs()
	coreimport.Import(fs)

	// Components should not write anything to files.
	readOnlyFs := afero.NewReadOnlyFs(fs)
	std.Import(readOnlyFs)
	hello.Import()
}

func main() {
	cli.Run()
}
