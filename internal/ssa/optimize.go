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
    `go.uber.org/zap`
    `go.uber.org/zap/zapcore`

    `github.com/cloudwego/peephole/internal/opts`
)

type Pass interface {
    Apply(*Function, *opts.Options) (Result, error)
}

type PassDescriptor struct {
    Pass Pass
    Name string
}

var Passes = [...]PassDescriptor {
    { Name: "Strength Reduction" , Pass: new(StrengthReduce) },
    { Name: "Bitwise Fusion"     , Pass: new(Fusion) },
}

// Optimize runs every enabled pass over fn, one after another. It reports
// whether fn was modified. An error aborts the remaining passes.
func Optimize(fn *Function, o *opts.Options) (modified bool, err error) {
    var res Result
    lg := o.Log()
    addFuncCount()

    /* reject malformed input before touching it */
    if o.Verify {
        if err = Verify(fn); err != nil {
            return false, err
        }
    }

    /* execute every pass */
    for _, p := range Passes {
        dump(lg, "before", p.Name, fn)
        res, err = p.Pass.Apply(fn, o)
        modified = modified || res.Modified
        addPassCount(p.Pass, res)

        /* the pass failed, stop here */
        if err != nil {
            return
        }

        /* nothing changed, nothing to check */
        if !res.Modified {
            continue
        }

        /* dump the modified function */
        dump(lg, "after", p.Name, fn)

        /* the output must still be well-formed */
        if o.Verify {
            if verr := Verify(fn); verr != nil {
                return modified, einvariant(fn, nil, "%s produced an ill-formed function: %v", p.Name, verr)
            }
        }
    }

    /* count the modified functions */
    if modified {
        addModifiedCount()
    }

    /* all done */
    return
}

func dump(lg *zap.Logger, when string, pass string, fn *Function) {
    if ce := lg.Check(zapcore.DebugLevel, "function " + when + " pass"); ce != nil {
        ce.Write(
            zap.String("pass", pass),
            zap.String("func", fn.Name),
            zap.String("ir", fn.String()),
        )
    }
}
