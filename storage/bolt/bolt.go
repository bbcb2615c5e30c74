/* Copyright 2026 Almadar, Inc.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package bolt is a storage.Store on a bbolt file: one bucket per
// entity kind, JSON record values keyed by id.
package bolt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/almadar-io/orbital/storage"
)

type Store struct {
	filename string
	db       *bolt.DB
}

// NewStore makes a store for the given file.  Call Open before use.
func NewStore(filename string) *Store {
	return &Store{filename: filename}
}

func (s *Store) Open() error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}
	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, kind, id string) (map[string]interface{}, error) {
	var rec map[string]interface{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(kind))
		if b == nil {
			return storage.NotFound
		}
		bs := b.Get([]byte(id))
		if bs == nil {
			return storage.NotFound
		}
		return json.Unmarshal(bs, &rec)
	})
	if err != nil {
		return nil, err
	}
	rec["id"] = id
	return rec, nil
}

func (s *Store) List(ctx context.Context, kind string) ([]map[string]interface{}, error) {
	acc := make([]map[string]interface{}, 0, 32)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(kind))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for id, bs := c.First(); id != nil; id, bs = c.Next() {
			var rec map[string]interface{}
			if err := json.Unmarshal(bs, &rec); err != nil {
				return err
			}
			rec["id"] = string(id)
			acc = append(acc, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *Store) Create(ctx context.Context, kind string, data map[string]interface{}) (map[string]interface{}, error) {
	rec := make(map[string]interface{}, len(data))
	for k, v := range data {
		rec[k] = v
	}
	id, _ := rec["id"].(string)
	if id == "" {
		id = uuid.NewString()
		rec["id"] = id
	}

	if err := s.put(kind, id, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) Update(ctx context.Context, kind, id string, data map[string]interface{}) (map[string]interface{}, error) {
	rec, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	for k, v := range data {
		rec[k] = v
	}
	rec["id"] = id

	if err := s.put(kind, id, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, kind, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(kind))
		if b == nil {
			return storage.NotFound
		}
		if b.Get([]byte(id)) == nil {
			return storage.NotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *Store) put(kind, id string, rec map[string]interface{}) error {
	// To save some space, the id lives in the key only.
	slim := make(map[string]interface{}, len(rec))
	for k, v := range rec {
		if k == "id" {
			continue
		}
		slim[k] = v
	}
	js, err := json.Marshal(slim)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(kind))
		if err != nil {
			return err
		}
		return b.Put([]byte(id), js)
	})
}
