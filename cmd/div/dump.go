package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kr/pretty"

	"github.com/kolkov/div/internal/ast"
	"github.com/kolkov/div/internal/parser"
)

// dumpAST prints the entries of every file. "source" prints them back as
// div code; "go" prints the Go syntax trees.
func dumpAST(paths []string, format string, w io.Writer) error {
	if format != "source" && format != "go" {
		return fmt.Errorf("unknown --dump-ast format %q (want source or go)", format)
	}
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	for _, path := range paths {
		var src []byte
		var err error
		if path == "-" {
			src, err = io.ReadAll(os.Stdin)
		} else {
			src, err = os.ReadFile(path)
		}
		if err != nil {
			return err
		}
		nodes, err := parser.ParseAll(string(src))
		for _, node := range nodes {
			if format == "go" {
				pretty.Fprintf(w, "%# v\n", node)
			} else {
				fmt.Fprintln(w, ast.String(node))
			}
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
