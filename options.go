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

	"go.uber.org/zap"

	"github.com/cloudwego/peephole/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithStrengthReduction enables or disables rewriting multiplications by a
// power of two into left shifts.
//
// This option can also be configured with the `PEEPHOLE_STRENGTH_REDUCTION`
// environment variable.
//
// The default value of this option is "true".
func WithStrengthReduction(enable bool) Option {
	return func(o *opts.Options) { o.StrengthReduction = enable }
}

// WithFusion enables or disables fusing a bitwise complement and the Or
// consuming it into a single "OR-with-complement" intrinsic.
//
// This option can also be configured with the `PEEPHOLE_FUSION` environment
// variable.
//
// The default value of this option is "true".
func WithFusion(enable bool) Option {
	return func(o *opts.Options) { o.Fusion = enable }
}

// WithFusionEntry restricts the fusion to the function with the given name,
// which is usually the program entry point. An empty name lets the fusion
// rewrite every function.
//
// This option can also be configured with the `PEEPHOLE_FUSION_ENTRY`
// environment variable.
//
// The default value of this option is "main".
func WithFusionEntry(name string) Option {
	return func(o *opts.Options) { o.FusionEntry = name }
}

// WithVerify checks every function before rewriting it, and again after every
// pass that modified it.
//
// This option can also be configured with the `PEEPHOLE_VERIFY` environment
// variable.
//
// The default value of this option is "false".
func WithVerify(enable bool) Option {
	return func(o *opts.Options) { o.Verify = enable }
}

// WithLogger sets the logger receiving every rewrite, and the function dumps
// before and after each pass, all at debug level.
//
// Nothing is logged by default.
func WithLogger(lg *zap.Logger) Option {
	if lg == nil {
		panic("peephole: nil logger")
	} else {
		return func(o *opts.Options) { o.Logger = lg }
	}
}

// WithMaxWorkers sets the maximum number of functions RunModule rewrites
// concurrently.
//
// This option can also be configured with the `PEEPHOLE_MAX_WORKERS`
// environment variable.
//
// The default value of this option is the value of runtime.GOMAXPROCS(0).
func WithMaxWorkers(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("peephole: invalid worker count: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxWorkers = n }
	}
}

// LoadConfig reads options from a TOML file. Keys absent from the file keep
// their current values.
//
//     enable_strength_reduction = true
//     enable_fusion = true
//     fusion_entry = "main"
//     verify = false
//     max_workers = 4
//
func LoadConfig(path string) (Option, error) {
	if f, err := opts.LoadFile(path); err != nil {
		return nil, err
	} else {
		return f.Apply, nil
	}
}

// SetFusionEntry sets the default fusion entry for all the rewrites from now
// on.
//
// Returns the old opts.FusionEntry value.
func SetFusionEntry(name string) string {
	name, opts.FusionEntry = opts.FusionEntry, name
	return name
}
