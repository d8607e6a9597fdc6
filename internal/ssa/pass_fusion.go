/*
 * Copyright 2022 ByteDance Inc.
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

package ssa

import (
    `github.com/cloudwego/peephole/internal/opts`
)

// Fusion fuses a bitwise complement and the Or consuming it into a single
// "OR-with-complement" intrinsic.
//
// Only Or instructions having the complement as their first operand are
// fused, the complement is expected to be canonicalized to that position.
type Fusion struct{}

func (Fusion) Match(ins Instr, uses *UseIndex) []*Match {
    return matchOrNot(ins, uses)
}

/* t = xor.T a, $-1 ; r = or.T t, b --> r = intrinsic.T @orn(a, b) */
func (Fusion) Build(m *Match) Instr {
    return &IrIntrinsic {
        Id   : IntrinsicOrNot,
        T    : m.T,
        Args : []Value { m.X.Value(), m.Y.Value() },
    }
}

func (self Fusion) Apply(fn *Function, o *opts.Options) (Result, error) {
    if !o.CanFuse(fn.Name) {
        return Result{}, nil
    }
    return (&Driver { Name: "fusion", Rule: self, Logger: o.Logger }).Run(fn)
}
