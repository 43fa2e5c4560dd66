// Package div compiles and runs programs in div, a small expression
// language whose only type is the 64-bit float.
//
// A div program is a sequence of top-level entries separated by optional
// semicolons:
//
//	# Function definition
//	def fib(x) if x < 3 then 1 else fib(x-1) + fib(x-2);
//
//	# Declaration of a host intrinsic
//	extern sin(x);
//
//	# Top-level expression, evaluated immediately
//	fib(10);
//
// # Quick Start
//
// For one-off evaluation:
//
//	v, err := div.Eval("def sq(x) x*x; sq(4)", nil)
//
// # Engines
//
// An [Engine] keeps definitions across calls, so code can be fed to it piece
// by piece:
//
//	e := div.New(&div.Config{Output: os.Stdout})
//	for _, res := range e.Run(strings.NewReader(src)) {
//	    if res.Err != nil {
//	        log.Println(res.Err)
//	    }
//	}
//
// Each entry is parsed, lowered to SSA IR, verified, optimized and linked
// into an in-process session. Expressions are wrapped in an anonymous
// function which is called once and then unlinked.
//
// # Error Handling
//
// Errors are returned as specific types for detailed handling:
//   - [ParseError]: syntax errors
//   - [CompileError]: unknown names, wrong argument counts
//   - [RuntimeError]: unresolved externs, call depth, cancellation
//
// A failed entry never stops the ones after it.
//
// # Thread Safety
//
// An [Engine] must not be used from several goroutines at once. Independent
// engines share nothing except the registry of native intrinsics.
package div
