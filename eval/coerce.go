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
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Runtime values are JSON-shaped: nil, bool, float64, string,
// []interface{}, map[string]interface{}, and *Closure.  The coercion
// functions below are total over that set, with lenient fallbacks by
// design: coercion failure degrades to a safe default instead of
// failing the evaluation.

// Num coerces a value to a number.
//
// Strings parse with locale-free float parsing; non-numeric strings
// coerce to 0.  Booleans coerce to 0/1.  Everything else coerces to
// 0.
func Num(x interface{}) float64 {
	switch v := x.(type) {
	case nil:
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Truthy reports a value's truthiness: false, 0, "", nil, and NaN are
// falsy; everything else -- including empty maps and arrays -- is
// truthy.
func Truthy(x interface{}) bool {
	switch v := x.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case float32:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}

// Str coerces a value to its string form.
func Str(x interface{}) string {
	switch v := x.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func isNumber(x interface{}) bool {
	switch x.(type) {
	case float64, float32, int, int64:
		return true
	}
	return false
}

// Equal is deep structural equality.  Numbers compare numerically,
// arrays and maps compare recursively, and nil equals only nil.
// Values of different kinds are never equal.
func Equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNumber(a) && isNumber(b) {
		return Num(a) == Num(b)
	}
	switch av := a.(type) {
	case bool:
		bv, is := b.(bool)
		return is && av == bv
	case string:
		bv, is := b.(string)
		return is && av == bv
	case []interface{}:
		bv, is := b.([]interface{})
		if !is || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		bv, is := b.(map[string]interface{})
		if !is || len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, have := bv[k]
			if !have || !Equal(x, y) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// ordKey coerces a value for the ordering operators: numbers stay
// numbers, strings stay strings, booleans become 0/1, nil becomes 0,
// and anything else becomes its string form.  Each operand is coerced
// independently, which deliberately permits cross-type comparisons
// (a documented quirk of the source semantics, not a bug to fix).
func ordKey(x interface{}) interface{} {
	switch v := x.(type) {
	case nil:
		return float64(0)
	case bool:
		return Num(v)
	case string:
		return v
	default:
		if isNumber(x) {
			return Num(x)
		}
		return fmt.Sprintf("%v", x)
	}
}

// order compares two values per the ordering coercion table.  ok is
// false when the comparison is undefined (a NaN was involved), in
// which case every ordering operator answers false.
func order(a, b interface{}) (cmp int, ok bool) {
	ka, kb := ordKey(a), ordKey(b)

	if sa, is := ka.(string); is {
		if sb, is := kb.(string); is {
			return strings.Compare(sa, sb), true
		}
	}

	// Mixed types compare numerically; an unparsable string is
	// NaN, and NaN comparisons are false.
	na, nb := ordNum(ka), ordNum(kb)
	if math.IsNaN(na) || math.IsNaN(nb) {
		return 0, false
	}
	switch {
	case na < nb:
		return -1, true
	case na > nb:
		return 1, true
	default:
		return 0, true
	}
}

// Less reports a < b per the ordering coercion table, answering false
// for undefined comparisons.
func Less(a, b interface{}) bool {
	cmp, ok := order(a, b)
	return ok && cmp < 0
}

func ordNum(key interface{}) float64 {
	switch v := key.(type) {
	case float64:
		return v
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		return math.NaN()
	}
}

// ToArray coerces a value to an array view: nil coerces to an empty
// array, arrays are themselves, and any other scalar becomes a
// single-element array.
func ToArray(x interface{}) []interface{} {
	switch v := x.(type) {
	case nil:
		return []interface{}{}
	case []interface{}:
		return v
	default:
		return []interface{}{x}
	}
}

// ToMap returns x as a string-keyed map, or nil.
func ToMap(x interface{}) map[string]interface{} {
	m, _ := x.(map[string]interface{})
	return m
}
