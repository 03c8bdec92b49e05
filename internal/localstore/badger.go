package localstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Badger stores snapshots in an embedded badger database
type Badger struct {
	db *badger.DB
}

// NewBadger opens a badger database at path, or an in-memory one when path is empty
func NewBadger(path string, logger *zap.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (b *Badger) Set(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		if errors.Is(err, badger.ErrTxnTooBig) {
			return ErrQuotaExceeded
		}
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (b *Badger) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger's internal logging into zap
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.s.Errorf(strings.TrimSpace(f), v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.s.Warnf(strings.TrimSpace(f), v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.s.Debugf(strings.TrimSpace(f), v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.s.Debugf(strings.TrimSpace(f), v...) }
