package div

import (
	"io"

	"github.com/rs/zerolog"
)

// DefaultMaxCallDepth bounds recursion when Config.MaxCallDepth is zero.
const DefaultMaxCallDepth = 10000

// Config holds configuration options for an Engine.
type Config struct {
	// Output receives what putchard and printd write.
	// If nil, output is discarded.
	Output io.Writer

	// Logger receives diagnostics from every stage.
	// If nil, nothing is logged.
	Logger *zerolog.Logger

	// Optimize runs the optimization pipeline over every generated function
	// (default true).
	Optimize *bool

	// GuardLoops makes for loops test their end condition before the first
	// iteration. By default the body always runs at least once.
	GuardLoops bool

	// MaxCallDepth bounds the call stack at run time (default 10000).
	MaxCallDepth int

	// DumpIR, if set, receives the IR of every module after it is generated.
	DumpIR io.Writer

	// Filename is reported in source positions.
	Filename string
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults() {
	if c.Output == nil {
		c.Output = io.Discard
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	if c.Optimize == nil {
		on := true
		c.Optimize = &on
	}
	if c.MaxCallDepth <= 0 {
		c.MaxCallDepth = DefaultMaxCallDepth
	}
}

// Bool returns a pointer to b, for Config.Optimize.
func Bool(b bool) *bool {
	return &b
}
