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

// Builder constructs functions instruction by instruction, appending to the
// current block. The entry block is created on first use.
type Builder struct {
    fn *Function
    bb *BasicBlock
}

func CreateBuilder(name string, ret Type) *Builder {
    return &Builder { fn: NewFunction(name, ret) }
}

func (self *Builder) Func() *Function {
    return self.fn
}

func (self *Builder) Param(name string, t Type) *IrParam {
    return self.fn.AddParam(name, t)
}

// Block returns the current block.
func (self *Builder) Block() *BasicBlock {
    if self.bb == nil {
        self.bb = self.fn.NewBlock()
    }
    return self.bb
}

// NewBlock creates a block without switching to it.
func (self *Builder) NewBlock() *BasicBlock {
    if self.bb == nil {
        self.bb = self.fn.NewBlock()
    }
    return self.fn.NewBlock()
}

func (self *Builder) SetBlock(bb *BasicBlock) *Builder {
    if bb.fn != self.fn {
        panic("block is not in function " + self.fn.Name)
    }
    self.bb = bb
    return self
}

func (self *Builder) Const(t Type, v int64) *IrConst {
    return Const(t, v)
}

func (self *Builder) Binary(op Opcode, x Value, y Value) *IrBinaryExpr {
    if !op.IsBinary() {
        panic("not a binary operator: " + op.String())
    }

    /* constants follow the type of the other side */
    t := x.Type()
    if _, ok := x.(*IrConst); ok {
        if _, ok = y.(*IrConst); !ok {
            t = y.Type()
        }
    }

    /* build the instruction */
    ins := &IrBinaryExpr {
        Op : op,
        T  : t,
        X  : x,
        Y  : y,
    }

    /* add to current block */
    self.Block().Append(ins)
    return ins
}

func (self *Builder) Add(x Value, y Value) *IrBinaryExpr  { return self.Binary(OpAdd, x, y) }
func (self *Builder) Sub(x Value, y Value) *IrBinaryExpr  { return self.Binary(OpSub, x, y) }
func (self *Builder) Mul(x Value, y Value) *IrBinaryExpr  { return self.Binary(OpMul, x, y) }
func (self *Builder) And(x Value, y Value) *IrBinaryExpr  { return self.Binary(OpAnd, x, y) }
func (self *Builder) Or(x Value, y Value) *IrBinaryExpr   { return self.Binary(OpOr, x, y) }
func (self *Builder) Xor(x Value, y Value) *IrBinaryExpr  { return self.Binary(OpXor, x, y) }
func (self *Builder) Shl(x Value, y Value) *IrBinaryExpr  { return self.Binary(OpShl, x, y) }
func (self *Builder) LShr(x Value, y Value) *IrBinaryExpr { return self.Binary(OpLShr, x, y) }
func (self *Builder) AShr(x Value, y Value) *IrBinaryExpr { return self.Binary(OpAShr, x, y) }

// Not emits the canonical bitwise complement, xor x, $-1.
func (self *Builder) Not(x Value) *IrBinaryExpr {
    return self.Binary(OpXor, x, Const(x.Type(), -1))
}

func (self *Builder) Cmp(op Opcode, x Value, y Value) *IrBinaryExpr {
    if !op.IsCompare() {
        panic("not a comparison: " + op.String())
    }
    return self.Binary(op, x, y)
}

func (self *Builder) Call(fn string, t Type, args ...Value) *IrCall {
    ins := &IrCall { Fn: fn, T: t, Args: args }
    self.Block().Append(ins)
    return ins
}

func (self *Builder) Intrinsic(id Intrinsic, t Type, args ...Value) *IrIntrinsic {
    ins := &IrIntrinsic { Id: id, T: t, Args: args }
    self.Block().Append(ins)
    return ins
}

func (self *Builder) Ret(v Value) {
    self.Block().SetTerm(&IrReturn { V: v })
}

func (self *Builder) RetVoid() {
    self.Block().SetTerm(&IrReturn{})
}

func (self *Builder) Jmp(to *BasicBlock) {
    self.Block().SetTerm(&IrBranch { To: to })
}

func (self *Builder) Br(cond Value, t *BasicBlock, f *BasicBlock) {
    self.Block().SetTerm(&IrCondBranch { Cond: cond, Then: t, Else: f })
}

func (self *Builder) Build() *Function {
    return self.fn
}
