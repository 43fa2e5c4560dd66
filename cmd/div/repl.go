package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/kolkov/div"
)

const (
	historyFile = ".div_history"
	promptMain  = "div> "
	promptCont  = "...> "
)

var banner = fmt.Sprintf("div %s\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.", version)

const help = `:funcs [regex]  list known functions
:ir [regex]     print the IR of matching functions
:natives        list host intrinsics available to extern
:quit           exit`

func repl(ctx context.Context, engine *div.Engine, out io.Writer) error {
	fmt.Fprintln(out, banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		src, ok := readEntry(ln)
		if !ok {
			fmt.Fprintln(out)
			return nil
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if quit := command(engine, trimmed, out); quit {
				return nil
			}
			continue
		}
		report(engine.RunContext(ctx, strings.NewReader(src)), out, os.Stderr)
	}
}

// readEntry reads lines until they form complete input. ok is false at
// end of input.
func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !div.Incomplete(src) {
			return src, true
		}
	}
}

// command runs a REPL command and reports whether the session should end.
func command(engine *div.Engine, cmd string, out io.Writer) bool {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(out, help)
	case ":funcs":
		names, err := engine.Symbols(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			break
		}
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
	case ":ir":
		names, err := engine.Symbols(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			break
		}
		for _, n := range names {
			if ir, ok := engine.IR(n); ok {
				fmt.Fprintln(out, ir)
			}
		}
	case ":natives":
		fmt.Fprintln(out, strings.Join(div.Natives(), " "))
	default:
		fmt.Fprintf(out, "unknown command %s. Type :help for commands.\n", name)
	}
	return false
}
