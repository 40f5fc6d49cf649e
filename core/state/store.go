package state

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/buildeasy/buildeasy/core/module"
	"github.com/buildeasy/buildeasy/lib/errutil"
)

// FileMagic marks module state files.
const FileMagic = "buildeasy-state\n"

// Store saves and loads snapshots as files with a magic header and a JSON
// body.
type Store struct {
	fs  afero.Fs
	log *zap.Logger
}

func NewStore(fs afero.Fs, log *zap.Logger) *Store {
	if log == nil {
		log = zap.L()
	}
	return &Store{fs: fs, log: log}
}

// Save writes snap to path, truncating whatever was there.
func (s *Store) Save(path string, snap *Snapshot) (err error) {
	file, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.WithMessage(err, "state file open")
	}
	defer func() { err = errutil.Join(err, file.Close()) }()
	if _, err := io.WriteString(file, FileMagic); err != nil {
		return errors.WithMessage(err, "magic write")
	}
	if err := jsonAPI.NewEncoder(file).Encode(snap); err != nil {
		return errors.WithMessage(err, "snapshot encode")
	}
	s.log.Debug("Module state saved",
		zap.String("module", snap.Module),
		zap.String("path", path),
		zap.Int("fields", len(snap.Fields)))
	return nil
}

// Load reads a snapshot from path, verifying the magic header first.
func (s *Store) Load(path string) (snap *Snapshot, err error) {
	file, err := s.fs.Open(path)
	if err != nil {
		return nil, errors.WithMessage(err, "state file open")
	}
	defer func() { err = errutil.Join(err, file.Close()) }()
	magic := make([]byte, len(FileMagic))
	if _, err := io.ReadFull(file, magic); err != nil {
		return nil, errors.WithMessage(err, "magic read")
	}
	if string(magic) != FileMagic {
		return nil, errors.Errorf("%q is not a module state file", path)
	}
	snap = &Snapshot{}
	if err := jsonAPI.NewDecoder(file).Decode(snap); err != nil {
		return nil, errors.WithMessage(err, "snapshot decode")
	}
	return snap, nil
}

// SaveState captures inst state and saves it to path.
func (s *Store) SaveState(inst *module.Instance, path string) error {
	snap, err := Capture(inst)
	if err != nil {
		return err
	}
	return s.Save(path, snap)
}

// RestoreState loads a snapshot from path and applies it onto inst, so
// every holder of the singleton sees the restored state.
func (s *Store) RestoreState(inst *module.Instance, path string) error {
	snap, err := s.Load(path)
	if err != nil {
		return err
	}
	return Apply(inst, snap)
}
