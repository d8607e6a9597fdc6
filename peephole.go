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

package peephole

import (
	"fmt"
	"sync"

	"github.com/bytedance/gopkg/util/gopool"
	"go.uber.org/multierr"

	"github.com/cloudwego/peephole/internal/opts"
	"github.com/cloudwego/peephole/internal/ssa"
)

type (
	Type        = ssa.Type
	Value       = ssa.Value
	Opcode      = ssa.Opcode
	Function    = ssa.Function
	Module      = ssa.Module
	Builder     = ssa.Builder
	CallFunc    = ssa.CallFunc
	OpcodeCount = ssa.OpcodeCount
)

const (
	Void = ssa.Void
	I1   = ssa.I1
	I8   = ssa.I8
	I16  = ssa.I16
	I32  = ssa.I32
	I64  = ssa.I64
)

const (
	OpCmpEq  = ssa.OpCmpEq
	OpCmpNe  = ssa.OpCmpNe
	OpCmpLt  = ssa.OpCmpLt
	OpCmpLtu = ssa.OpCmpLtu
)

// CreateBuilder starts building a new function.
func CreateBuilder(name string, ret Type) *Builder {
	return ssa.CreateBuilder(name, ret)
}

// Parse reads a module in the textual IR form, as printed by Module.String.
func Parse(src string) (*Module, error) {
	return ssa.Parse(src)
}

// Verify checks that fn is well-formed, it returns a *VerifyError otherwise.
func Verify(fn *Function) error {
	return ssa.Verify(fn)
}

// Eval interprets fn with args, calling into calls for external functions.
func Eval(fn *Function, args []uint64, calls map[string]CallFunc) (uint64, error) {
	return ssa.Eval(fn, args, calls)
}

// Frequency counts the instructions of fn by opcode, most frequent first.
func Frequency(fn *Function) []OpcodeCount {
	return ssa.Frequency(fn)
}

// DotGraph renders the control flow graph of fn in Graphviz DOT format.
func DotGraph(fn *Function) string {
	return ssa.DotGraph(fn)
}

func loadOptions(options []Option) opts.Options {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}
	return o
}

// Run applies the enabled peephole rewrites to fn in place, and reports
// whether fn was modified.
//
// fn is left well-formed even when an error is returned, but may be
// partially rewritten by the passes that ran before the failing one.
func Run(fn *Function, options ...Option) (bool, error) {
	o := loadOptions(options)
	return ssa.Optimize(fn, &o)
}

// RunModule applies the enabled peephole rewrites to every function of m,
// at most MaxWorkers functions at a time. It reports which functions were
// modified, by name. Errors of individual functions are combined, a failing
// function does not prevent the others from being rewritten.
func RunModule(m *Module, options ...Option) (map[string]bool, error) {
	var err error
	var mu sync.Mutex
	var wg sync.WaitGroup

	/* load the options */
	o := loadOptions(options)
	ret := make(map[string]bool, len(m.Funcs))
	pool := gopool.NewPool("peephole", int32(o.MaxWorkers), gopool.NewConfig())

	/* functions share nothing, so each one is a separate task */
	for _, fn := range m.Funcs {
		fn := fn
		wg.Add(1)
		pool.Go(func() {
			var ok bool
			var ex error

			/* recover from panics, and report them as errors of this function */
			defer wg.Done()
			defer func() {
				if v := recover(); v != nil {
					ex = fmt.Errorf("peephole: panic while rewriting %s: %v", fn.Name, v)
				}
				mu.Lock()
				ret[fn.Name] = ok
				err = multierr.Append(err, ex)
				mu.Unlock()
			}()

			/* rewrite the function */
			ok, ex = ssa.Optimize(fn, &o)
		})
	}

	/* wait for all the tasks */
	wg.Wait()
	return ret, err
}
