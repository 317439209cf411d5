// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package badger caches raw extraction-service responses in BadgerDB, keyed
// by the 64-bit hash of the prompt. A re-run answers unchanged prompts from
// the cache instead of the service, which is what makes skipping and
// re-running individual stages cheap.
package badger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/circuitkg/ai"
)

// responsePrefix namespaces cache keys within the database.
var responsePrefix = []byte("resp:")

// Cache is the BadgerDB-backed ai.ResponseCache.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ ai.ResponseCache = (*Cache)(nil)

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenCache opens the response cache at the given path, creating the
// directory if needed. With inMemory set the cache lives only for the
// process, which tests use.
func OpenCache(path string, inMemory bool) (*Cache, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if err := os.MkdirAll(path, 0o755); err != nil {
				return nil, err
			}
		} else if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", path)
		}
		opts = badger.DefaultOptions(path)
	}

	logger := slog.Default().With("component", "response-cache")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db, logger: logger}, nil
}

// Get implements ai.ResponseCache.
func (c *Cache) Get(key uint64) (string, bool, error) {
	var response string
	err := c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(cacheKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			response = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return response, true, nil
}

// Put implements ai.ResponseCache.
func (c *Cache) Put(key uint64, response string) error {
	return c.db.Update(func(tx *badger.Txn) error {
		return tx.Set(cacheKey(key), []byte(response))
	})
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(key uint64) []byte {
	buf := make([]byte, len(responsePrefix)+8)
	copy(buf, responsePrefix)
	binary.BigEndian.PutUint64(buf[len(responsePrefix):], key)
	return buf
}
