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

package catalog

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"

	"github.com/almadar-io/orbital/trait"
)

// Load parses a YAML trait definition and validates it.
//
// YAML maps arrive with interface{} keys, and expressions in guards
// and effects must stay loose (they are data, not structs), so the
// document is canonicalized to string-keyed maps first and then
// decoded field-by-field with mapstructure against the trait's json
// tags.
func Load(bs []byte) (*trait.Trait, error) {
	var doc interface{}
	if err := yaml.Unmarshal(bs, &doc); err != nil {
		return nil, err
	}
	doc, err := canonicalize(doc)
	if err != nil {
		return nil, err
	}

	var t trait.Trait
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &t,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, err
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return &t, nil
}

// LoadFile reads and Loads one trait definition file.
func LoadFile(filename string) (*trait.Trait, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	t, err := Load(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return t, nil
}

// canonicalize rewrites yaml.v2's interface{}-keyed maps as
// string-keyed maps, recursively, and normalizes ints to float64 so
// expression data matches the evaluator's value model.
func canonicalize(x interface{}) (interface{}, error) {
	switch v := x.(type) {
	case map[interface{}]interface{}:
		acc := make(map[string]interface{}, len(v))
		for k, e := range v {
			s, is := k.(string)
			if !is {
				return nil, fmt.Errorf("non-string key %#v", k)
			}
			canon, err := canonicalize(e)
			if err != nil {
				return nil, err
			}
			acc[s] = canon
		}
		return acc, nil
	case map[string]interface{}:
		acc := make(map[string]interface{}, len(v))
		for k, e := range v {
			canon, err := canonicalize(e)
			if err != nil {
				return nil, err
			}
			acc[k] = canon
		}
		return acc, nil
	case []interface{}:
		acc := make([]interface{}, len(v))
		for i, e := range v {
			canon, err := canonicalize(e)
			if err != nil {
				return nil, err
			}
			acc[i] = canon
		}
		return acc, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return x, nil
	}
}
