/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command peephole applies the peephole rewrites to a module in the textual
// IR form, and prints the rewritten module.
//
//     peephole [-config file] [-stats] [-dot func] [-v] [file]
//
// The module is read from the standard input if file is omitted or "-".
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"github.com/cloudwego/peephole"
	"github.com/cloudwego/peephole/debug"
)

type _FuncReport struct {
	Name     string                 `json:"name"`
	Modified bool                   `json:"modified"`
	Before   []peephole.OpcodeCount `json:"before"`
	After    []peephole.OpcodeCount `json:"after"`
}

type _Report struct {
	Funcs []_FuncReport `json:"funcs"`
	Stats debug.Stats   `json:"stats"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("peephole", flag.ContinueOnError)
	fs.SetOutput(stderr)

	/* command line flags */
	cfg := fs.String("config", "", "read options from a TOML `file`")
	dot := fs.String("dot", "", "print the CFG of `func` in DOT format after rewriting, instead of the module")
	stats := fs.Bool("stats", false, "print opcode frequencies and rewrite statistics as JSON to stderr")
	verbose := fs.Bool("v", false, "log every rewrite, and dump functions before and after each pass")

	/* parse the flags */
	if err := fs.Parse(args); err != nil {
		return 2
	} else if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "peephole: too many input files")
		return 2
	}

	/* build the options */
	opts, lg, err := options(*cfg, *verbose)
	if err != nil {
		fmt.Fprintln(stderr, "peephole:", err)
		return 1
	}

	/* flush the logs before exiting */
	defer func() { _ = lg.Sync() }()

	/* read the module */
	src, err := readInput(fs.Arg(0), stdin)
	if err != nil {
		fmt.Fprintln(stderr, "peephole:", err)
		return 1
	}

	/* parse the module */
	mod, err := peephole.Parse(string(src))
	if err != nil {
		fmt.Fprintln(stderr, "peephole:", err)
		return 1
	}

	/* opcode frequencies before rewriting */
	rep := make([]_FuncReport, len(mod.Funcs))
	for i, fn := range mod.Funcs {
		rep[i] = _FuncReport{Name: fn.Name, Before: peephole.Frequency(fn)}
	}

	/* rewrite every function */
	res, err := peephole.RunModule(mod, opts...)
	if err != nil {
		lg.Error("rewrite failed", zap.Error(err))
		fmt.Fprintln(stderr, "peephole:", err)
		return 1
	}

	/* print the statistics */
	if *stats {
		for i, fn := range mod.Funcs {
			rep[i].After = peephole.Frequency(fn)
			rep[i].Modified = res[fn.Name]
		}
		if err = json.NewEncoder(stderr).Encode(_Report{Funcs: rep, Stats: debug.GetStats()}); err != nil {
			fmt.Fprintln(stderr, "peephole:", err)
			return 1
		}
	}

	/* print the rewritten module, or the CFG of one function */
	if *dot == "" {
		fmt.Fprintln(stdout, mod.String())
	} else if fn := mod.Lookup(*dot); fn == nil {
		fmt.Fprintf(stderr, "peephole: function %s not found\n", *dot)
		return 1
	} else {
		fmt.Fprintln(stdout, peephole.DotGraph(fn))
	}

	/* all done */
	return 0
}

func options(cfg string, verbose bool) ([]peephole.Option, *zap.Logger, error) {
	var err error
	var ret []peephole.Option
	var opt peephole.Option

	/* options from the config file */
	if cfg != "" {
		if opt, err = peephole.LoadConfig(cfg); err != nil {
			return nil, nil, err
		} else {
			ret = append(ret, opt)
		}
	}

	/* silent by default */
	if !verbose {
		return ret, zap.NewNop(), nil
	}

	/* development logger writes to stderr at debug level */
	lg, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, err
	}

	/* log every rewrite */
	ret = append(ret, peephole.WithLogger(lg))
	return ret, lg, nil
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(stdin)
	} else {
		return os.ReadFile(name)
	}
}
