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

// Package catalog is the registry of named, reusable trait templates,
// plus a YAML loader for external trait definitions.
package catalog

import (
	"errors"
	"sort"
	"sync"

	"github.com/almadar-io/orbital/trait"
)

var ErrNotFound = errors.New("trait not found")

// Registry is a thread-safe name-to-template catalog.
type Registry struct {
	mu     sync.RWMutex
	traits map[string]*trait.Trait
}

// NewRegistry makes an empty registry.
func NewRegistry() *Registry {
	return &Registry{traits: map[string]*trait.Trait{}}
}

// Register validates and adds a template.  Later registrations win.
func (r *Registry) Register(t *trait.Trait) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.traits[t.Name] = t
	r.mu.Unlock()
	return nil
}

// Find returns the template with the given name.
func (r *Registry) Find(name string) (*trait.Trait, error) {
	r.mu.RLock()
	t, have := r.traits[name]
	r.mu.RUnlock()
	if !have {
		return nil, ErrNotFound
	}
	return t, nil
}

// Names lists registered template names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.traits))
	for name := range r.traits {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Std builds a registry preloaded with the standard templates.
func Std() *Registry {
	r := NewRegistry()
	for _, t := range []*trait.Trait{
		Pagination(),
		Selection(),
		Sort(),
		Filter(),
		Search(),
		Toggle(),
	} {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}
