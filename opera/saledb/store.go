// Package saledb persists sale-engine state snapshots. A snapshot is the
// engine's deterministic exported state stamped with the ledger height it
// was taken at, serialized with the canonical codec so equal states always
// produce byte-identical files.
package saledb

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-opera-badge/opera/contracts/sale"
	"github.com/rony4d/go-opera-badge/utils/cser"
)

var (
	// ErrNoSnapshot: the store's file does not exist yet.
	ErrNoSnapshot = errors.New("no snapshot: store file does not exist")
)

// snapshotVersion is bumped whenever the on-disk layout changes.
const snapshotVersion = 1

// Snapshot is engine state pinned to a ledger height.
type Snapshot struct {
	Block idx.Block
	State sale.State
}

// MarshalBinary serializes the snapshot canonically.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	return cser.MarshalBinaryAdapter(func(w *cser.Writer) error {
		w.U8(snapshotVersion)
		w.U64(uint64(s.Block))
		writeState(w, &s.State)
		return nil
	})
}

// UnmarshalBinary deserializes a snapshot, rejecting unknown layout
// versions and any non-canonical encoding.
func (s *Snapshot) UnmarshalBinary(raw []byte) error {
	return cser.UnmarshalBinaryAdapter(raw, func(r *cser.Reader) error {
		if v := r.U8(); v != snapshotVersion {
			return fmt.Errorf("unsupported snapshot version %d", v)
		}
		s.Block = idx.Block(r.U64())
		readState(r, &s.State)
		return nil
	})
}

// Store reads and writes the snapshot file under a datadir.
type Store struct {
	path string
	log  *logrus.Entry
}

// NewStore opens a snapshot store backed by the given file path.
func NewStore(path string, lg *logrus.Logger) *Store {
	return &Store{
		path: path,
		log:  lg.WithField("store", "saledb").WithField("path", path),
	}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Save writes the snapshot atomically (temp file then rename), so a crash
// mid-write never leaves a torn snapshot behind.
func (s *Store) Save(snap *Snapshot) error {
	raw, err := snap.MarshalBinary()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := ioutil.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"block": snap.Block,
		"bytes": len(raw),
	}).Info("snapshot saved")
	return nil
}

// Load reads the stored snapshot. A missing file is ErrNoSnapshot.
func (s *Store) Load() (*Snapshot, error) {
	raw, err := ioutil.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	if err := snap.UnmarshalBinary(raw); err != nil {
		return nil, err
	}

	s.log.WithField("block", snap.Block).Info("snapshot loaded")
	return snap, nil
}
