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

// These errors are user errors: a malformed expression fails the
// whole evaluation with a descriptive error rather than a silent nil.
// Coercion leniency (Num, Truthy, ...) is not an error class.

import "strconv"

// UnknownOp occurs when a call references an operator that is neither
// a core built-in nor registered.
type UnknownOp struct {
	Op string
}

func (e *UnknownOp) Error() string {
	return `unknown operator "` + e.Op + `"`
}

// MissingArg occurs when a required positional argument is absent.
type MissingArg struct {
	Op  string
	Pos int
}

func (e *MissingArg) Error() string {
	return `operator "` + e.Op + `" missing argument at position ` + strconv.Itoa(e.Pos)
}

// NotAFunction occurs when an operator needs a lambda and got
// something else.
type NotAFunction struct {
	Op string
}

func (e *NotAFunction) Error() string {
	return `operator "` + e.Op + `" wanted a lambda argument`
}

// BadArg occurs when an argument evaluated to a value of an
// unusable kind (e.g. a non-string effect target).
type BadArg struct {
	Op     string
	Pos    int
	Wanted string
}

func (e *BadArg) Error() string {
	return `operator "` + e.Op + `" wanted a ` + e.Wanted +
		` at position ` + strconv.Itoa(e.Pos)
}
