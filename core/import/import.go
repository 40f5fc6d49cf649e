// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package coreimport

import (
	"context"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/buildeasy/buildeasy/core/module"
	"github.com/buildeasy/buildeasy/core/module/moduleconfig"
	"github.com/buildeasy/buildeasy/core/register"
	"github.com/buildeasy/buildeasy/core/scanner"
	"github.com/buildeasy/buildeasy/core/state"
)

const (
	scannerKey = "scanner"
	stateKey   = "state"
)

// GetFs returns the OS filesystem, so embedders don't need a direct afero
// dependency to call Import.
func GetFs() afero.Fs {
	return afero.NewOsFs()
}

// Import registers the core module types: the manifest scanner and the state
// store. Both are registered as definitions too, so they are materializable
// by name with default config.
func Import(fs afero.Fs) {
	register.Module(scannerKey, func(conf scanner.Config) *scannerModule {
		return &scannerModule{fs: fs, conf: conf}
	}, scanner.DefaultConfig)

	register.Module(stateKey, func() *stateModule {
		return &stateModule{store: state.NewStore(fs, zap.L())}
	})

	// Required for decoding module references in config fields.
	moduleconfig.AddHooks()
}

// scannerModule exposes manifest directory scanning as module capabilities
// scan and scan_dir.
type scannerModule struct {
	fs   afero.Fs
	conf scanner.Config
}

// Scan loads every manifest in the configured directory.
func (s *scannerModule) Scan() error {
	return s.scan(s.conf)
}

// ScanDir loads manifests from dir, with default manifest extensions.
func (s *scannerModule) ScanDir(dir string) error {
	conf := scanner.DefaultConfig()
	conf.Dir = dir
	return s.scan(conf)
}

func (s *scannerModule) scan(conf scanner.Config) error {
	sc := scanner.New(s.fs, module.DefaultRegistry(), zap.L(), scanner.Metrics{})
	return sc.Scan(context.Background(), conf)
}

// stateModule exposes the snapshot store as module capabilities save and
// restore, operating on registered singletons by name.
type stateModule struct {
	store *state.Store
}

// Save captures the named module state into a file at path.
func (s *stateModule) Save(name, path string) error {
	inst, err := module.Get(name)
	if err != nil {
		return err
	}
	return s.store.SaveState(inst, path)
}

// Restore applies the state file at path onto the named module singleton.
func (s *stateModule) Restore(name, path string) error {
	inst, err := module.Get(name)
	if err != nil {
		return err
	}
	return s.store.RestoreState(inst, path)
}
