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

package eval

import "context"

// Collection operators work over a coerced array view of their first
// argument (see ToArray).  Lambda-consuming operators run one fresh
// child context per element, in index order, left to right, with no
// parallelism.

func evalCollection(ctx context.Context, op string, args []interface{}, env *Ctx) (interface{}, error) {
	if len(args) < 1 {
		return nil, &MissingArg{op, 0}
	}
	coll, err := Eval(ctx, args[0], env)
	if err != nil {
		return nil, err
	}
	view := ToArray(coll)

	switch op {
	case "map":
		f, err := closureArg(ctx, op, args, 1, env)
		if err != nil {
			return nil, err
		}
		acc := make([]interface{}, 0, len(view))
		for _, x := range view {
			v, err := f.Call(ctx, x)
			if err != nil {
				return nil, err
			}
			acc = append(acc, v)
		}
		return acc, nil

	case "filter":
		f, err := closureArg(ctx, op, args, 1, env)
		if err != nil {
			return nil, err
		}
		acc := make([]interface{}, 0, len(view))
		for _, x := range view {
			v, err := f.Call(ctx, x)
			if err != nil {
				return nil, err
			}
			if Truthy(v) {
				acc = append(acc, x)
			}
		}
		return acc, nil

	case "find":
		f, err := closureArg(ctx, op, args, 1, env)
		if err != nil {
			return nil, err
		}
		for _, x := range view {
			v, err := f.Call(ctx, x)
			if err != nil {
				return nil, err
			}
			if Truthy(v) {
				return x, nil
			}
		}
		return nil, nil

	case "count":
		return float64(len(view)), nil

	case "sum":
		// Optional mapper lambda.
		var f *Closure
		if 1 < len(args) {
			if f, err = closureArg(ctx, op, args, 1, env); err != nil {
				return nil, err
			}
		}
		acc := float64(0)
		for _, x := range view {
			if f != nil {
				v, err := f.Call(ctx, x)
				if err != nil {
					return nil, err
				}
				acc += Num(v)
			} else {
				acc += Num(x)
			}
		}
		return acc, nil

	case "first":
		if len(view) == 0 {
			return nil, nil
		}
		return view[0], nil

	case "last":
		if len(view) == 0 {
			return nil, nil
		}
		return view[len(view)-1], nil

	case "nth":
		if len(args) < 2 {
			return nil, &MissingArg{op, 1}
		}
		iv, err := Eval(ctx, args[1], env)
		if err != nil {
			return nil, err
		}
		i := int(Num(iv))
		if i < 0 || len(view) <= i {
			return nil, nil
		}
		return view[i], nil

	case "concat":
		acc := make([]interface{}, 0, len(view))
		acc = append(acc, view...)
		for _, a := range args[1:] {
			v, err := Eval(ctx, a, env)
			if err != nil {
				return nil, err
			}
			acc = append(acc, ToArray(v)...)
		}
		return acc, nil

	case "includes":
		if len(args) < 2 {
			return nil, &MissingArg{op, 1}
		}
		want, err := Eval(ctx, args[1], env)
		if err != nil {
			return nil, err
		}
		for _, x := range view {
			if Equal(x, want) {
				return true, nil
			}
		}
		return false, nil

	case "empty":
		return len(view) == 0, nil
	}

	return nil, &UnknownOp{op}
}
