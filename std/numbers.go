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
	"math"
	"strconv"
	"strings"

	"github.com/almadar-io/orbital/eval"
)

func init() {
	register(map[string]eval.OpFunc{
		"num/parse":    opNumParse,
		"num/fixed":    opNumFixed,
		"num/sign":     opNumSign,
		"num/in-range": opNumInRange,
	})
}

// opNumParse parses a string strictly: an unparsable string yields
// nil rather than the lenient 0 of arithmetic coercion.
func opNumParse(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "num/parse", args, 1, env)
	if err != nil {
		return nil, err
	}
	s, is := vs[0].(string)
	if !is {
		return eval.Num(vs[0]), nil
	}
	n, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if perr != nil {
		return nil, nil
	}
	return n, nil
}

// opNumFixed renders a number with a fixed number of decimals.
func opNumFixed(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "num/fixed", args, 2, env)
	if err != nil {
		return nil, err
	}
	digits := int(eval.Num(vs[1]))
	if digits < 0 {
		digits = 0
	}
	return strconv.FormatFloat(eval.Num(vs[0]), 'f', digits, 64), nil
}

func opNumSign(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "num/sign", args, 1, env)
	if err != nil {
		return nil, err
	}
	n := eval.Num(vs[0])
	switch {
	case math.IsNaN(n), n == 0:
		return float64(0), nil
	case n < 0:
		return float64(-1), nil
	default:
		return float64(1), nil
	}
}

func opNumInRange(ctx context.Context, args []interface{}, env *eval.Ctx) (interface{}, error) {
	vs, err := evalN(ctx, "num/in-range", args, 3, env)
	if err != nil {
		return nil, err
	}
	x, lo, hi := eval.Num(vs[0]), eval.Num(vs[1]), eval.Num(vs[2])
	return lo <= x && x <= hi, nil
}
