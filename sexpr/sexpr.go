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

// Package sexpr defines the S-expression data model used for guards,
// effects, and computed values.
//
// An expression is an ordinary JSON-shaped value: nil, bool, float64,
// string, []interface{}, or map[string]interface{}.  A non-empty
// slice whose first element is a string is a "call"; everything else
// is an atom.  That structural test is the only call/atom
// distinction; there is no keyword or syntax heuristic.
package sexpr

// IsCall reports whether v is an operator call: a non-empty slice
// whose head is a string.
//
// An array-shaped literal such as [1,2,3] is not a call because its
// head isn't a string.
func IsCall(v interface{}) bool {
	xs, is := v.([]interface{})
	if !is || len(xs) == 0 {
		return false
	}
	_, is = xs[0].(string)
	return is
}

// Operator returns the operator name of a call, or "" if v isn't a
// call.
func Operator(v interface{}) string {
	if !IsCall(v) {
		return ""
	}
	return v.([]interface{})[0].(string)
}

// Args returns the argument expressions of a call, or nil if v isn't
// a call.
//
// The returned slice aliases the call; callers must not mutate it.
func Args(v interface{}) []interface{} {
	if !IsCall(v) {
		return nil
	}
	return v.([]interface{})[1:]
}

// Visitor is called by Walk for each node.  parent is nil for the
// root, and index is the node's position in its parent slice (-1 for
// map values and the root).
type Visitor func(node interface{}, parent interface{}, index int)

// Walk traverses an expression in pre-order, visiting every node.
//
// Walk descends into slices and string-keyed maps, so it also reaches
// bindings buried inside literal payload objects.  Walk never
// evaluates anything.
func Walk(v interface{}, visit Visitor) {
	walk(v, nil, -1, visit)
}

func walk(v interface{}, parent interface{}, index int, visit Visitor) {
	visit(v, parent, index)
	switch x := v.(type) {
	case []interface{}:
		for i, child := range x {
			walk(child, x, i, visit)
		}
	case map[string]interface{}:
		for _, child := range x {
			walk(child, x, -1, visit)
		}
	}
}

// CollectBindings returns the distinct "@"-prefixed string atoms
// reachable from v, in first-encounter order.
//
// This supports static dependency extraction without evaluation.
func CollectBindings(v interface{}) []string {
	var (
		seen = map[string]bool{}
		acc  = make([]string, 0, 8)
	)
	Walk(v, func(node interface{}, parent interface{}, index int) {
		s, is := node.(string)
		if !is || !IsBinding(s) {
			return
		}
		if seen[s] {
			return
		}
		seen[s] = true
		acc = append(acc, s)
	})
	return acc
}
