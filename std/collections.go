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

	"github.com/almadar-io/orbital/eval"
)

func init() {
	register(map[string]eval.OpFunc{
		"coll/reverse":  opCollReverse,
		"coll/unique":   opCollUnique,
		"coll/slice":    opCollSlice,
		"coll/index-of": opCollIndexOf,
		"coll/flatten":  opCollFlatten,
		"coll/sort-by":  opCollSortBy,
		"coll/group-by": opCollGroupBy,
	})
}

func opCollReverse(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "coll/reverse", args, 1, env)
	if err != nil {
		return nil, err
	}
	view := eval.ToArray(vs[0])
	acc := make([]interface{}, len(view))
	for i, x := range view {
		acc[len(view)-1-i] = x
	}
	return acc, nil
}

func opCollUnique(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "coll/unique", args, 1, env)
	if err != nil {
		return nil, err
	}
	view := eval.ToArray(vs[0])
	acc := make([]interface{}, 0, len(view))
	for _, x := range view {
		dup := false
		for _, y := range acc {
			if eval.Equal(x, y) {
				dup = true
				break
			}
		}
		if !dup {
			acc = append(acc, x)
		}
	}
	return acc, nil
}

func opCollSlice(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "coll/slice", args, 2, env)
	if err != nil {
		return nil, err
	}
	view := eval.ToArray(vs[0])
	lo := boundIndex(int(eval.Num(vs[1])), len(view))
	hi := len(view)
	if 2 < len(vs) {
		hi = boundIndex(int(eval.Num(vs[2])), len(view))
	}
	if hi < lo {
		hi = lo
	}
	acc := make([]interface{}, hi-lo)
	copy(acc, view[lo:hi])
	return acc, nil
}

func opCollIndexOf(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "coll/index-of", args, 2, env)
	if err != nil {
		return nil, err
	}
	for i, x := range eval.ToArray(vs[0]) {
		if eval.Equal(x, vs[1]) {
			return float64(i), nil
		}
	}
	return float64(-1), nil
}

func opCollFlatten(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "coll/flatten", args, 1, env)
	if err != nil {
		return nil, err
	}
	view := eval.ToArray(vs[0])
	acc := make([]interface{}, 0, len(view))
	for _, x := range view {
		if xs, is := x.([]interface{}); is {
			acc = append(acc, xs...)
		} else {
			acc = append(acc, x)
		}
	}
	return acc, nil
}

// opCollSortBy sorts by a key lambda (stable; keys compare with the
// ordering coercion table).  Without a lambda, elements sort by their
// own coerced order.
func opCollSortBy(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	if len(args) < 1 {
		return nil, &eval.MissingArg{Op: "coll/sort-by", Pos: 0}
	}
	coll, err := eval.Eval(ctx, args[0], env)
	if err != nil {
		return nil, err
	}
	view := eval.ToArray(coll)

	keys := make([]interface{}, len(view))
	if 1 < len(args) {
		fv, err := eval.Eval(ctx, args[1], env)
		if err != nil {
			return nil, err
		}
		f, is := fv.(*eval.Closure)
		if !is {
			return nil, &eval.NotAFunction{Op: "coll/sort-by"}
		}
		for i, x := range view {
			if keys[i], err = f.Call(ctx, x); err != nil {
				return nil, err
			}
		}
	} else {
		copy(keys, view)
	}

	idx := make([]int, len(view))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return eval.Less(keys[idx[a]], keys[idx[b]])
	})

	acc := make([]interface{}, len(view))
	for i, j := range idx {
		acc[i] = view[j]
	}
	return acc, nil
}

// opCollGroupBy groups elements by the string form of a key lambda's
// result.
func opCollGroupBy(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	if len(args) < 2 {
		return nil, &eval.MissingArg{Op: "coll/group-by", Pos: len(args)}
	}
	coll, err := eval.Eval(ctx, args[0], env)
	if err != nil {
		return nil, err
	}
	fv, err := eval.Eval(ctx, args[1], env)
	if err != nil {
		return nil, err
	}
	f, is := fv.(*eval.Closure)
	if !is {
		return nil, &eval.NotAFunction{Op: "coll/group-by"}
	}
	acc := map[string]interface{}{}
	for _, x := range eval.ToArray(coll) {
		k, err := f.Call(ctx, x)
		if err != nil {
			return nil, err
		}
		key := eval.Str(k)
		group, _ := acc[key].([]interface{})
		acc[key] = append(group, x)
	}
	return acc, nil
}
