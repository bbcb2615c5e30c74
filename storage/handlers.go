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

package storage

import (
	"context"
	"errors"

	"github.com/almadar-io/orbital/eval"
)

// Handlers adapts a Store to the persist and fetch effect handlers.
//
// A persist call carries an action (create, update, delete) and a
// data map with a "kind" (defaults to "entity"), an "id" where the
// action needs one, and the record under "data".  A fetch call
// carries the entity kind plus options: an "id" for a point read, or
// an optional "where" equality map to filter a listing.
func Handlers(store Store) *eval.Handlers {
	return &eval.Handlers{
		Persist: func(ctx context.Context, action string, data map[string]interface{}) (interface{}, error) {
			kind := stringAt(data, "kind", "entity")
			switch action {
			case "create":
				return store.Create(ctx, kind, recordOf(data))
			case "update":
				id := stringAt(data, "id", "")
				if id == "" {
					return nil, errors.New("update needs an id")
				}
				return store.Update(ctx, kind, id, recordOf(data))
			case "delete":
				id := stringAt(data, "id", "")
				if id == "" {
					return nil, errors.New("delete needs an id")
				}
				return nil, store.Delete(ctx, kind, id)
			default:
				return nil, errors.New("unknown persist action: " + action)
			}
		},

		Fetch: func(ctx context.Context, kind string, opts map[string]interface{}) (interface{}, error) {
			if id := stringAt(opts, "id", ""); id != "" {
				return store.Get(ctx, kind, id)
			}
			recs, err := store.List(ctx, kind)
			if err != nil {
				return nil, err
			}
			where, _ := opts["where"].(map[string]interface{})
			acc := make([]interface{}, 0, len(recs))
			for _, rec := range recs {
				if matches(rec, where) {
					acc = append(acc, rec)
				}
			}
			return acc, nil
		},
	}
}

func matches(rec, where map[string]interface{}) bool {
	for k, v := range where {
		if !eval.Equal(rec[k], v) {
			return false
		}
	}
	return true
}

func stringAt(m map[string]interface{}, key, fallback string) string {
	if s, is := m[key].(string); is && s != "" {
		return s
	}
	return fallback
}

// recordOf extracts the record to write: the "data" submap if
// present, otherwise the map itself minus the routing keys.
func recordOf(data map[string]interface{}) map[string]interface{} {
	if rec, is := data["data"].(map[string]interface{}); is {
		return rec
	}
	acc := make(map[string]interface{}, len(data))
	for k, v := range data {
		if k == "kind" {
			continue
		}
		acc[k] = v
	}
	return acc
}
