// Package scanner loads module definitions from manifest files in plugin
// directories.
//
// A manifest is a small HCL or YAML file declaring one module: its type,
// an optional name, config parameter overrides and mixins. Manifests are
// materialized independently, so one broken file never aborts the scan:
// its failure is logged and counted, and scanning continues with the next
// file.
package scanner

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/buildeasy/buildeasy/core/module"
	"github.com/buildeasy/buildeasy/lib/monitoring"
)

// Config is one directory to scan.
type Config struct {
	// Dir is the directory to read manifests from. Subdirectories are not
	// descended into.
	Dir string `config:"dir" validate:"required"`
	// Extensions are the manifest file suffixes to load. Other entries are
	// skipped silently.
	Extensions []string `config:"extensions"`
}

func DefaultConfig() Config {
	return Config{Extensions: []string{".hcl", ".yaml", ".yml"}}
}

// Metrics are scan activity counters. Counters left nil still count, they
// are just not published anywhere.
type Metrics struct {
	Scanned *monitoring.Counter
	Loaded  *monitoring.Counter
	Failed  *monitoring.Counter
}

func (m Metrics) withDefaults() Metrics {
	if m.Scanned == nil {
		m.Scanned = &monitoring.Counter{}
	}
	if m.Loaded == nil {
		m.Loaded = &monitoring.Counter{}
	}
	if m.Failed == nil {
		m.Failed = &monitoring.Counter{}
	}
	return m
}

// Scanner materializes manifest files into module instances.
type Scanner struct {
	fs      afero.Fs
	reg     *module.Registry
	log     *zap.Logger
	metrics Metrics
}

// New returns a scanner materializing manifests into reg. Nil reg means the
// default module registry, nil log the global logger.
func New(fs afero.Fs, reg *module.Registry, log *zap.Logger, m Metrics) *Scanner {
	if reg == nil {
		reg = module.DefaultRegistry()
	}
	if log == nil {
		log = zap.L()
	}
	return &Scanner{fs: fs, reg: reg, log: log, metrics: m.withDefaults()}
}

// Scan loads every manifest in conf.Dir. An unreadable directory is the
// only failing path; per file failures are logged at warn level and
// scanning continues. Ctx cancel is honored between files.
func (s *Scanner) Scan(ctx context.Context, conf Config) error {
	if len(conf.Extensions) == 0 {
		conf.Extensions = DefaultConfig().Extensions
	}
	entries, err := afero.ReadDir(s.fs, conf.Dir)
	if err != nil {
		return errors.WithMessage(err, "plugin dir read")
	}
	var scanned, loaded, failed int
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !matchExt(conf.Extensions, entry.Name()) {
			continue
		}
		scanned++
		s.metrics.Scanned.Inc()
		path := filepath.Join(conf.Dir, entry.Name())
		inst, err := s.loadFile(path)
		if err != nil {
			failed++
			s.metrics.Failed.Inc()
			s.log.Warn("Plugin load failed", zap.String("file", path), zap.Error(err))
			continue
		}
		loaded++
		s.metrics.Loaded.Inc()
		s.log.Debug("Plugin loaded",
			zap.String("file", path),
			zap.String("module", inst.Info().Name),
			zap.String("type", inst.Info().Type))
	}
	s.log.Info("Plugin scan finished",
		zap.String("dir", conf.Dir),
		zap.Int("scanned", scanned),
		zap.Int("loaded", loaded),
		zap.Int("failed", failed))
	return nil
}

func (s *Scanner) loadFile(path string) (*module.Instance, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, errors.WithMessage(err, "manifest read")
	}
	man, err := ParseManifest(path, data)
	if err != nil {
		return nil, err
	}
	return s.reg.Materialize(man.Definition(path))
}

func matchExt(extensions []string, name string) bool {
	ext := filepath.Ext(name)
	for _, e := range extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
