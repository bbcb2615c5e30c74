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

// Package storage defines the entity store contract behind the
// persist and fetch effects, plus an in-memory implementation.
package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var NotFound = errors.New("not found")

// Store keeps entities by kind and id.  Records are JSON-shaped maps;
// the store owns its copies, so callers may mutate what they pass in
// and what they get back.
type Store interface {
	Get(ctx context.Context, kind, id string) (map[string]interface{}, error)
	List(ctx context.Context, kind string) ([]map[string]interface{}, error)
	Create(ctx context.Context, kind string, data map[string]interface{}) (map[string]interface{}, error)
	Update(ctx context.Context, kind, id string, data map[string]interface{}) (map[string]interface{}, error)
	Delete(ctx context.Context, kind, id string) error
}

// Mem is an in-memory Store.
type Mem struct {
	mu    sync.RWMutex
	kinds map[string]map[string]map[string]interface{}
}

// NewMem makes an empty in-memory store.
func NewMem() *Mem {
	return &Mem{kinds: map[string]map[string]map[string]interface{}{}}
}

func copyRecord(m map[string]interface{}) map[string]interface{} {
	acc := make(map[string]interface{}, len(m))
	for k, v := range m {
		acc[k] = v
	}
	return acc
}

func (s *Mem) Get(ctx context.Context, kind, id string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, have := s.kinds[kind][id]
	if !have {
		return nil, NotFound
	}
	return copyRecord(rec), nil
}

func (s *Mem) List(ctx context.Context, kind string) ([]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.kinds[kind]))
	for id := range s.kinds[kind] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	acc := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		acc = append(acc, copyRecord(s.kinds[kind][id]))
	}
	return acc, nil
}

func (s *Mem) Create(ctx context.Context, kind string, data map[string]interface{}) (map[string]interface{}, error) {
	rec := copyRecord(data)
	id, _ := rec["id"].(string)
	if id == "" {
		id = uuid.NewString()
		rec["id"] = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kinds[kind] == nil {
		s.kinds[kind] = map[string]map[string]interface{}{}
	}
	s.kinds[kind][id] = rec
	return copyRecord(rec), nil
}

func (s *Mem) Update(ctx context.Context, kind, id string, data map[string]interface{}) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, have := s.kinds[kind][id]
	if !have {
		return nil, NotFound
	}
	for k, v := range data {
		rec[k] = v
	}
	rec["id"] = id
	return copyRecord(rec), nil
}

func (s *Mem) Delete(ctx context.Context, kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, have := s.kinds[kind][id]; !have {
		return NotFound
	}
	delete(s.kinds[kind], id)
	return nil
}
