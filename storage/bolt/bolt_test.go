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

package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almadar-io/orbital/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, s.Open())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.Create(ctx, "task", map[string]interface{}{"title": "one"})
	require.NoError(t, err)
	id, _ := rec["id"].(string)
	require.NotEmpty(t, id)

	got, err := s.Get(ctx, "task", id)
	require.NoError(t, err)
	assert.Equal(t, "one", got["title"])
	assert.Equal(t, id, got["id"])

	_, err = s.Update(ctx, "task", id, map[string]interface{}{"done": true})
	require.NoError(t, err)
	got, _ = s.Get(ctx, "task", id)
	assert.Equal(t, true, got["done"])

	recs, err := s.List(ctx, "task")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	require.NoError(t, s.Delete(ctx, "task", id))
	_, err = s.Get(ctx, "task", id)
	assert.ErrorIs(t, err, storage.NotFound)
}

func TestMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "task", "nope")
	assert.ErrorIs(t, err, storage.NotFound)
	assert.ErrorIs(t, s.Delete(ctx, "task", "nope"), storage.NotFound)
	_, err = s.Update(ctx, "task", "nope", nil)
	assert.ErrorIs(t, err, storage.NotFound)

	recs, err := s.List(ctx, "task")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestEffectHandlersOnBolt(t *testing.T) {
	s := openTestStore(t)
	h := storage.Handlers(s)
	ctx := context.Background()

	v, err := h.Persist(ctx, "create", map[string]interface{}{
		"kind": "note",
		"data": map[string]interface{}{"body": "hello"},
	})
	require.NoError(t, err)
	rec, _ := v.(map[string]interface{})
	id, _ := rec["id"].(string)
	require.NotEmpty(t, id)

	v, err = h.Fetch(ctx, "note", map[string]interface{}{"id": id})
	require.NoError(t, err)
	rec, _ = v.(map[string]interface{})
	assert.Equal(t, "hello", rec["body"])
}
