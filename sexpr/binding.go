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

package sexpr

import (
	"errors"
	"strings"
)

// BindingType classifies a binding by its root.
type BindingType int

const (
	// CoreBinding means the root is one of the reserved context
	// roots.
	CoreBinding BindingType = iota

	// EntityBinding means the root names a singleton entity.
	EntityBinding
)

// coreRoots are the reserved binding roots.  Anything else refers to
// a singleton entity by name.
var coreRoots = map[string]bool{
	"entity":   true,
	"payload":  true,
	"state":    true,
	"now":      true,
	"config":   true,
	"computed": true,
	"trait":    true,
}

// pathlessRoots may not be followed by a path.
var pathlessRoots = map[string]bool{
	"state": true,
	"now":   true,
}

var (
	NotABinding    = errors.New("not a binding")
	EmptyBinding   = errors.New("empty binding")
	EmptySegment   = errors.New("empty binding path segment")
	PathNotAllowed = errors.New("binding root does not take a path")
)

// Binding is a parsed "@"-reference into context data.
type Binding struct {
	Type BindingType `json:"type"`
	Root string      `json:"root"`
	Path []string    `json:"path,omitempty"`
}

// IsBinding reports whether s is a binding string: a string atom
// beginning with "@".
func IsBinding(s string) bool {
	return strings.HasPrefix(s, "@")
}

// ParseBinding parses a binding string such as "@entity.items.0" or
// "@now".
//
// Parsing is plain string splitting on ".".  A binding that is empty
// after the "@", or that has an empty path segment, is rejected.
// Validity is structural only; whether the referenced value exists is
// a runtime question.
func ParseBinding(s string) (*Binding, error) {
	if !IsBinding(s) {
		return nil, NotABinding
	}
	rest := s[1:]
	if rest == "" {
		return nil, EmptyBinding
	}
	parts := strings.Split(rest, ".")
	for _, p := range parts {
		if p == "" {
			return nil, EmptySegment
		}
	}
	root := parts[0]
	if pathlessRoots[root] && 1 < len(parts) {
		return nil, PathNotAllowed
	}
	typ := EntityBinding
	if coreRoots[root] {
		typ = CoreBinding
	}
	var path []string
	if 1 < len(parts) {
		path = parts[1:]
	}
	return &Binding{
		Type: typ,
		Root: root,
		Path: path,
	}, nil
}
