package jit

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
)

// NativeFunc implements an intrinsic. w is the session output.
type NativeFunc func(w io.Writer, args []float64) float64

// Native is a host function callable from div code through an extern.
type Native struct {
	Name  string
	Arity int
	Fn    NativeFunc
}

var natives = struct {
	sync.RWMutex
	m map[string]Native
}{m: make(map[string]Native)}

// RegisterNative makes fn callable as name from every session in the
// process. A later registration replaces an earlier one.
func RegisterNative(name string, arity int, fn NativeFunc) {
	natives.Lock()
	defer natives.Unlock()
	natives.m[name] = Native{Name: name, Arity: arity, Fn: fn}
}

// LookupNative returns the intrinsic registered as name.
func LookupNative(name string) (Native, bool) {
	natives.RLock()
	defer natives.RUnlock()
	n, ok := natives.m[name]
	return n, ok
}

// Natives returns the registered intrinsic names in sorted order.
func Natives() []string {
	natives.RLock()
	defer natives.RUnlock()
	names := make([]string, 0, len(natives.m))
	for name := range natives.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unary(f func(float64) float64) NativeFunc {
	return func(_ io.Writer, args []float64) float64 {
		return f(args[0])
	}
}

func init() {
	RegisterNative("sin", 1, unary(math.Sin))
	RegisterNative("cos", 1, unary(math.Cos))
	RegisterNative("tan", 1, unary(math.Tan))
	RegisterNative("atan", 1, unary(math.Atan))
	RegisterNative("sqrt", 1, unary(math.Sqrt))
	RegisterNative("exp", 1, unary(math.Exp))
	RegisterNative("log", 1, unary(math.Log))
	RegisterNative("fabs", 1, unary(math.Abs))
	RegisterNative("floor", 1, unary(math.Floor))
	RegisterNative("pow", 2, func(_ io.Writer, args []float64) float64 {
		return math.Pow(args[0], args[1])
	})

	// putchard writes the byte x and returns 0.
	RegisterNative("putchard", 1, func(w io.Writer, args []float64) float64 {
		_, _ = w.Write([]byte{byte(int(args[0]))})
		return 0
	})
	// printd writes x followed by a newline and returns 0.
	RegisterNative("printd", 1, func(w io.Writer, args []float64) float64 {
		fmt.Fprintf(w, "%f\n", args[0])
		return 0
	})
}
