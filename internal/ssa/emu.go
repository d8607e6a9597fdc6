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
    `fmt`
)

const (
    _DefaultMaxSteps = 1 << 20
)

type CallFunc func(args []uint64) uint64

// Emulator interprets a function over fixed-width integers.
type Emulator struct {
    Calls    map[string]CallFunc
    MaxSteps int
    vals     map[Value]uint64
    args     []uint64
}

func NewEmulator(calls map[string]CallFunc) *Emulator {
    return &Emulator {
        Calls    : calls,
        MaxSteps : _DefaultMaxSteps,
    }
}

// Eval runs fn with args, returning the value it returns, or 0 for void functions.
func Eval(fn *Function, args []uint64, calls map[string]CallFunc) (uint64, error) {
    return NewEmulator(calls).Run(fn, args)
}

func (self *Emulator) Run(fn *Function, args []uint64) (uint64, error) {
    if len(args) != len(fn.Params) {
        return 0, fmt.Errorf("emu: %s takes %d arguments, got %d", fn.Name, len(fn.Params), len(args))
    } else if fn.Entry() == nil {
        return 0, fmt.Errorf("emu: %s has no body", fn.Name)
    }

    /* reset the state */
    self.args = args
    self.vals = make(map[Value]uint64)

    /* execute blocks until returned */
    for bb, n := fn.Entry(), 0; ; n++ {
        if self.MaxSteps > 0 && n >= self.MaxSteps {
            return 0, fmt.Errorf("emu: %s did not return after %d blocks", fn.Name, n)
        }

        /* execute every instruction */
        for _, v := range bb.Ins {
            if err := self.exec(v); err != nil {
                return 0, err
            }
        }

        /* then the terminator */
        switch p := bb.Term.(type) {
            default: {
                return 0, fmt.Errorf("emu: bb_%d is not terminated", bb.Id)
            }

            /* return from function */
            case *IrReturn: {
                if p.V == nil {
                    return 0, nil
                } else {
                    return self.value(p.V)
                }
            }

            /* unconditional branch */
            case *IrBranch: {
                bb = p.To
            }

            /* conditional branch */
            case *IrCondBranch: {
                if c, err := self.value(p.Cond); err != nil {
                    return 0, err
                } else if c != 0 {
                    bb = p.Then
                } else {
                    bb = p.Else
                }
            }
        }
    }
}

func (self *Emulator) value(v Value) (uint64, error) {
    switch p := v.(type) {
        case *IrConst: {
            return p.Bits(), nil
        }

        /* function arguments */
        case *IrParam: {
            if p.Index < 0 || p.Index >= len(self.args) {
                return 0, fmt.Errorf("emu: invalid argument %s", p)
            } else {
                return p.T.trunc(self.args[p.Index]), nil
            }
        }

        /* instruction results */
        default: {
            if r, ok := self.vals[v]; ok {
                return r, nil
            } else {
                return 0, fmt.Errorf("emu: %s is used before its definition", vref(v))
            }
        }
    }
}

func (self *Emulator) operands(v []Value) ([]uint64, error) {
    var err error
    ret := make([]uint64, len(v))

    /* evaluate every operand */
    for i, p := range v {
        if ret[i], err = self.value(p); err != nil {
            return nil, err
        }
    }

    /* all done */
    return ret, nil
}

func (self *Emulator) exec(ins Instr) error {
    var r uint64
    var x []uint64
    var err error

    /* evaluate the operands first */
    if x, err = self.operands(derefs(ins.Usages())); err != nil {
        return err
    }

    /* dispatch by instruction */
    switch p := ins.(type) {
        default: {
            return fmt.Errorf("emu: unsupported instruction %s", ins)
        }

        /* arithmetic and logic */
        case *IrBinaryExpr: {
            if r, err = binop(p.Op, p.T, x[0], x[1]); err != nil {
                return err
            }
        }

        /* external calls */
        case *IrCall: {
            if fn, ok := self.Calls[p.Fn]; !ok {
                return fmt.Errorf("emu: undefined function @%s", p.Fn)
            } else {
                r = p.T.trunc(fn(x))
            }
        }

        /* intrinsics */
        case *IrIntrinsic: {
            if p.Id != IntrinsicOrNot || len(x) != 2 {
                return fmt.Errorf("emu: unsupported intrinsic %s", ins)
            } else {
                r = p.T.trunc(^x[0] | x[1])
            }
        }
    }

    /* store the result */
    self.vals[ins] = r
    return nil
}

func binop(op Opcode, t Type, x uint64, y uint64) (uint64, error) {
    switch op {
        case OpAdd    : return t.trunc(x + y), nil
        case OpSub    : return t.trunc(x - y), nil
        case OpMul    : return t.trunc(x * y), nil
        case OpAnd    : return x & y, nil
        case OpOr     : return x | y, nil
        case OpXor    : return t.trunc(x ^ y), nil
        case OpShl    : if y >= uint64(t) { return 0, nil } else { return t.trunc(x << y), nil }
        case OpLShr   : if y >= uint64(t) { return 0, nil } else { return x >> y, nil }
        case OpAShr   : if y >= uint64(t) { y = uint64(t) - 1 }; return t.trunc(uint64(t.sext(x) >> y)), nil
        case OpCmpEq  : return b2u(x == y), nil
        case OpCmpNe  : return b2u(x != y), nil
        case OpCmpLt  : return b2u(t.sext(x) < t.sext(y)), nil
        case OpCmpLtu : return b2u(x < y), nil
        default       : return 0, fmt.Errorf("emu: unsupported operator %s", op)
    }
}

func b2u(v bool) uint64 {
    if v {
        return 1
    } else {
        return 0
    }
}

func derefs(r []*Value) []Value {
    ret := make([]Value, len(r))
    for i, p := range r { ret[i] = *p }
    return ret
}
