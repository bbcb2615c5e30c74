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

package std

import (
	"context"
	"sort"
	"strings"

	"github.com/almadar-io/orbital/eval"
)

func init() {
	register(map[string]eval.OpFunc{
		"obj/get":    opObjGet,
		"obj/keys":   opObjKeys,
		"obj/values": opObjValues,
		"obj/merge":  opObjMerge,
		"obj/has":    opObjHas,
		"obj/pick":   opObjPick,
		"obj/omit":   opObjOmit,
		"obj/of":     opObjOf,
	})
}

// opObjGet reads a dotted path out of a map, nil on any miss.
func opObjGet(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "obj/get", args, 2, env)
	if err != nil {
		return nil, err
	}
	cur := vs[0]
	for _, seg := range strings.Split(eval.Str(vs[1]), ".") {
		m := eval.ToMap(cur)
		if m == nil {
			return nil, nil
		}
		cur = m[seg]
	}
	return cur, nil
}

func opObjKeys(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "obj/keys", args, 1, env)
	if err != nil {
		return nil, err
	}
	m := eval.ToMap(vs[0])
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	acc := make([]interface{}, len(keys))
	for i, k := range keys {
		acc[i] = k
	}
	return acc, nil
}

func opObjValues(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "obj/values", args, 1, env)
	if err != nil {
		return nil, err
	}
	m := eval.ToMap(vs[0])
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	acc := make([]interface{}, len(keys))
	for i, k := range keys {
		acc[i] = m[k]
	}
	return acc, nil
}

// opObjMerge shallow-merges left to right; later keys win.  Non-map
// arguments contribute nothing.
func opObjMerge(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := eval.EvalArgs(ctx, args, env)
	if err != nil {
		return nil, err
	}
	acc := map[string]interface{}{}
	for _, v := range vs {
		for k, x := range eval.ToMap(v) {
			acc[k] = x
		}
	}
	return acc, nil
}

func opObjHas(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "obj/has", args, 2, env)
	if err != nil {
		return nil, err
	}
	m := eval.ToMap(vs[0])
	if m == nil {
		return false, nil
	}
	_, have := m[eval.Str(vs[1])]
	return have, nil
}

func opObjPick(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "obj/pick", args, 2, env)
	if err != nil {
		return nil, err
	}
	m := eval.ToMap(vs[0])
	acc := map[string]interface{}{}
	for _, k := range eval.ToArray(vs[1]) {
		key := eval.Str(k)
		if x, have := m[key]; have {
			acc[key] = x
		}
	}
	return acc, nil
}

func opObjOmit(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "obj/omit", args, 2, env)
	if err != nil {
		return nil, err
	}
	drop := map[string]bool{}
	for _, k := range eval.ToArray(vs[1]) {
		drop[eval.Str(k)] = true
	}
	acc := map[string]interface{}{}
	for k, x := range eval.ToMap(vs[0]) {
		if !drop[k] {
			acc[k] = x
		}
	}
	return acc, nil
}

// opObjOf builds a map from alternating key/value arguments.
func opObjOf(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := eval.EvalArgs(ctx, args, env)
	if err != nil {
		return nil, err
	}
	acc := map[string]interface{}{}
	for i := 0; i+1 < len(vs); i += 2 {
		acc[eval.Str(vs[i])] = vs[i+1]
	}
	return acc, nil
}
