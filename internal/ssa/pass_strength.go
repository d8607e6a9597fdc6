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

// StrengthReduce replaces multiplications by a power of two with left shifts.
type StrengthReduce struct{}

func (StrengthReduce) Match(ins Instr, _ *UseIndex) []*Match {
    if m := matchShift(ins); m == nil {
        return nil
    } else {
        return []*Match { m }
    }
}

/* mul.T x, $2^n --> shl.T x, $n */
func (StrengthReduce) Build(m *Match) Instr {
    return &IrBinaryExpr {
        Op : OpShl,
        T  : m.T,
        X  : m.X.Value(),
        Y  : Const(m.T, int64(m.Amount)),
    }
}

func (self StrengthReduce) Apply(fn *Function, o *opts.Options) (Result, error) {
    if !o.StrengthReduction {
        return Result{}, nil
    }
    return (&Driver { Name: "strength-reduction", Rule: self, Logger: o.Logger }).Run(fn)
}
