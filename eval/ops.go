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

import (
	"context"
	"math"
)

func evalArith(ctx context.Context, op string, args []interface{}, env *Ctx) (interface{}, error) {
	vs, err := EvalArgs(ctx, args, env)
	if err != nil {
		return nil, err
	}

	switch op {
	case "+":
		acc := float64(0)
		for _, v := range vs {
			acc += Num(v)
		}
		return acc, nil

	case "-":
		switch len(vs) {
		case 0:
			return nil, &MissingArg{op, 0}
		case 1:
			return -Num(vs[0]), nil
		default:
			acc := Num(vs[0])
			for _, v := range vs[1:] {
				acc -= Num(v)
			}
			return acc, nil
		}

	case "*":
		acc := float64(1)
		for _, v := range vs {
			acc *= Num(v)
		}
		return acc, nil

	case "/":
		if len(vs) < 2 {
			return nil, &MissingArg{op, len(vs)}
		}
		num, den := Num(vs[0]), Num(vs[1])
		if den == 0 {
			// Division by zero yields signed infinity
			// rather than raising.
			if num < 0 {
				return math.Inf(-1), nil
			}
			return math.Inf(1), nil
		}
		return num / den, nil

	case "%":
		if len(vs) < 2 {
			return nil, &MissingArg{op, len(vs)}
		}
		return math.Mod(Num(vs[0]), Num(vs[1])), nil

	case "abs":
		if len(vs) < 1 {
			return nil, &MissingArg{op, 0}
		}
		return math.Abs(Num(vs[0])), nil

	case "min":
		if len(vs) < 1 {
			return nil, &MissingArg{op, 0}
		}
		acc := Num(vs[0])
		for _, v := range vs[1:] {
			acc = math.Min(acc, Num(v))
		}
		return acc, nil

	case "max":
		if len(vs) < 1 {
			return nil, &MissingArg{op, 0}
		}
		acc := Num(vs[0])
		for _, v := range vs[1:] {
			acc = math.Max(acc, Num(v))
		}
		return acc, nil

	case "floor":
		if len(vs) < 1 {
			return nil, &MissingArg{op, 0}
		}
		return math.Floor(Num(vs[0])), nil

	case "ceil":
		if len(vs) < 1 {
			return nil, &MissingArg{op, 0}
		}
		return math.Ceil(Num(vs[0])), nil

	case "round":
		if len(vs) < 1 {
			return nil, &MissingArg{op, 0}
		}
		// Half rounds up, toward positive infinity.
		return math.Floor(Num(vs[0]) + 0.5), nil

	case "clamp":
		if len(vs) < 3 {
			return nil, &MissingArg{op, len(vs)}
		}
		x, lo, hi := Num(vs[0]), Num(vs[1]), Num(vs[2])
		return math.Min(math.Max(x, lo), hi), nil
	}

	return nil, &UnknownOp{op}
}

func evalCompare(ctx context.Context, op string, args []interface{}, env *Ctx) (interface{}, error) {
	if len(args) < 2 {
		return nil, &MissingArg{op, len(args)}
	}
	vs, err := EvalArgs(ctx, args, env)
	if err != nil {
		return nil, err
	}
	a, b := vs[0], vs[1]

	switch op {
	case "=":
		return Equal(a, b), nil
	case "!=":
		return !Equal(a, b), nil
	}

	cmp, ok := order(a, b)
	if !ok {
		return false, nil
	}
	switch op {
	case "<":
		return cmp < 0, nil
	case ">":
		return cmp > 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">=":
		return cmp >= 0, nil
	}

	return nil, &UnknownOp{op}
}
