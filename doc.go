// Package orbital provides an embeddable S-expression runtime and a
// declarative state-machine ("trait") engine for entity behaviors.
//
// The expression evaluator is in package 'eval' (with its data model
// in 'sexpr' and standard-library operators in 'std').  The trait
// engine is in 'trait', reusable trait templates are in 'catalog',
// and persistence adapters are in 'storage'.  A small command-line
// driver is in cmd/orbio.
package orbital
