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
    `strings`
)

type Opcode uint8

const (
    OpInvalid Opcode = iota
    OpAdd
    OpSub
    OpMul
    OpAnd
    OpOr
    OpXor
    OpShl
    OpLShr
    OpAShr
    OpCmpEq
    OpCmpNe
    OpCmpLt
    OpCmpLtu
    OpCall
    OpIntrinsic
    OpRet
    OpBr
    OpCondBr
)

var _OpNames = [...]string {
    OpInvalid   : "invalid",
    OpAdd       : "add",
    OpSub       : "sub",
    OpMul       : "mul",
    OpAnd       : "and",
    OpOr        : "or",
    OpXor       : "xor",
    OpShl       : "shl",
    OpLShr      : "lshr",
    OpAShr      : "ashr",
    OpCmpEq     : "eq",
    OpCmpNe     : "ne",
    OpCmpLt     : "lt",
    OpCmpLtu    : "ltu",
    OpCall      : "call",
    OpIntrinsic : "intrinsic",
    OpRet       : "ret",
    OpBr        : "br",
    OpCondBr    : "condbr",
}

func (self Opcode) String() string {
    if int(self) < len(_OpNames) {
        return _OpNames[self]
    } else {
        return fmt.Sprintf("op(%d)", uint8(self))
    }
}

func (self Opcode) MarshalText() ([]byte, error) {
    return []byte(self.String()), nil
}

func (self *Opcode) UnmarshalText(text []byte) error {
    for op, name := range _OpNames {
        if op != int(OpInvalid) && name == string(text) {
            *self = Opcode(op)
            return nil
        }
    }
    return fmt.Errorf("invalid opcode: %q", text)
}

// IsBinary reports whether the opcode is carried by IrBinaryExpr.
func (self Opcode) IsBinary() bool {
    return self >= OpAdd && self <= OpCmpLtu
}

func (self Opcode) IsCompare() bool {
    return self >= OpCmpEq && self <= OpCmpLtu
}

func (self Opcode) IsTerminator() bool {
    return self >= OpRet
}

func lookupBinaryOp(name string) (Opcode, bool) {
    for op := OpAdd; op <= OpCmpLtu; op++ {
        if _OpNames[op] == name {
            return op, true
        }
    }
    return OpInvalid, false
}

type Intrinsic uint8

const (
    // IntrinsicOrNot computes (^x | y), the fused "OR-with-complement".
    IntrinsicOrNot Intrinsic = iota + 1
)

var _IntrinsicNames = map[Intrinsic]string {
    IntrinsicOrNot: "orn",
}

func (self Intrinsic) String() string {
    if v, ok := _IntrinsicNames[self]; ok {
        return v
    } else {
        return fmt.Sprintf("intrinsic(%d)", uint8(self))
    }
}

func lookupIntrinsic(name string) (Intrinsic, bool) {
    for k, v := range _IntrinsicNames {
        if v == name {
            return k, true
        }
    }
    return 0, false
}

type Value interface {
    fmt.Stringer
    Type() Type
    irvalue()
}

func (*IrConst)      irvalue() {}
func (*IrParam)      irvalue() {}
func (*IrBinaryExpr) irvalue() {}
func (*IrCall)       irvalue() {}
func (*IrIntrinsic)  irvalue() {}

type IrNode interface {
    fmt.Stringer
    Opcode() Opcode
    Block() *BasicBlock
    base() *irbase
    irnode()
}

func (*IrBinaryExpr) irnode() {}
func (*IrCall)       irnode() {}
func (*IrIntrinsic)  irnode() {}
func (*IrReturn)     irnode() {}
func (*IrBranch)     irnode() {}
func (*IrCondBranch) irnode() {}

// Instr is an instruction living in BasicBlock.Ins, its result is the node itself.
type Instr interface {
    IrNode
    Value
    Name() string
    Usages() []*Value
}

type IrUsages interface {
    IrNode
    Usages() []*Value
}

// IrImpure marks nodes with observable side effects, they are never removed.
type IrImpure interface {
    IrNode
    irimpure()
}

func (*IrCall) irimpure() {}

type IrTerminator interface {
    IrNode
    Successors() []*BasicBlock
    irterminator()
}

func (*IrReturn)     irterminator() {}
func (*IrBranch)     irterminator() {}
func (*IrCondBranch) irterminator() {}

type irbase struct {
    bb   *BasicBlock
    name string
}

func (self *irbase) base() *irbase {
    return self
}

func (self *irbase) Block() *BasicBlock {
    return self.bb
}

func (self *irbase) Name() string {
    return self.name
}

func vref(v Value) string {
    switch p := v.(type) {
        case nil   : return "<nil>"
        case Instr : return "%" + p.Name()
        default    : return v.String()
    }
}

func vrefs(v []Value) string {
    ret := make([]string, 0, len(v))
    for _, p := range v { ret = append(ret, vref(p)) }
    return strings.Join(ret, ", ")
}

func vsliceref(v []Value) (r []*Value) {
    r = make([]*Value, len(v))
    for i := range v { r[i] = &v[i] }
    return
}

type IrConst struct {
    T Type
    V int64
}

// Const creates a new constant, each call yields a distinct value.
func Const(t Type, v int64) *IrConst {
    return &IrConst { T: t, V: v }
}

func (self *IrConst) Type() Type {
    return self.T
}

// Bits returns the constant truncated to its bit width.
func (self *IrConst) Bits() uint64 {
    return self.T.trunc(uint64(self.V))
}

// IsAllOnes reports whether every bit of the constant is set, which is the
// canonical encoding of a bitwise NOT operand.
func (self *IrConst) IsAllOnes() bool {
    return self.T.Valid() && self.Bits() == self.T.Mask()
}

func (self *IrConst) String() string {
    return fmt.Sprintf("$%d", self.V)
}

type IrParam struct {
    Name  string
    Index int
    T     Type
}

func (self *IrParam) Type() Type {
    return self.T
}

func (self *IrParam) String() string {
    return "%" + self.Name
}

type IrBinaryExpr struct {
    irbase
    Op Opcode
    T  Type
    X  Value
    Y  Value
}

func (self *IrBinaryExpr) Opcode() Opcode {
    return self.Op
}

func (self *IrBinaryExpr) Type() Type {
    if self.Op.IsCompare() {
        return I1
    } else {
        return self.T
    }
}

func (self *IrBinaryExpr) Usages() []*Value {
    return []*Value { &self.X, &self.Y }
}

func (self *IrBinaryExpr) String() string {
    return fmt.Sprintf("%%%s = %s.%s %s, %s", self.name, self.Op, self.T, vref(self.X), vref(self.Y))
}

type IrCall struct {
    irbase
    Fn   string
    T    Type
    Args []Value
}

func (self *IrCall) Opcode() Opcode {
    return OpCall
}

func (self *IrCall) Type() Type {
    return self.T
}

func (self *IrCall) Usages() []*Value {
    return vsliceref(self.Args)
}

func (self *IrCall) String() string {
    if self.T == Void {
        return fmt.Sprintf("call.void @%s(%s)", self.Fn, vrefs(self.Args))
    } else {
        return fmt.Sprintf("%%%s = call.%s @%s(%s)", self.name, self.T, self.Fn, vrefs(self.Args))
    }
}

type IrIntrinsic struct {
    irbase
    Id   Intrinsic
    T    Type
    Args []Value
}

func (self *IrIntrinsic) Opcode() Opcode {
    return OpIntrinsic
}

func (self *IrIntrinsic) Type() Type {
    return self.T
}

func (self *IrIntrinsic) Usages() []*Value {
    return vsliceref(self.Args)
}

func (self *IrIntrinsic) String() string {
    return fmt.Sprintf("%%%s = intrinsic.%s @%s(%s)", self.name, self.T, self.Id, vrefs(self.Args))
}

type IrReturn struct {
    irbase
    V Value
}

func (self *IrReturn) Opcode() Opcode {
    return OpRet
}

func (self *IrReturn) Usages() []*Value {
    if self.V == nil {
        return nil
    } else {
        return []*Value { &self.V }
    }
}

func (self *IrReturn) Successors() []*BasicBlock {
    return nil
}

func (self *IrReturn) String() string {
    if self.V == nil {
        return "ret"
    } else {
        return "ret " + vref(self.V)
    }
}

type IrBranch struct {
    irbase
    To *BasicBlock
}

func (self *IrBranch) Opcode() Opcode {
    return OpBr
}

func (self *IrBranch) Successors() []*BasicBlock {
    return []*BasicBlock { self.To }
}

func (self *IrBranch) String() string {
    return fmt.Sprintf("br bb_%d", self.To.Id)
}

type IrCondBranch struct {
    irbase
    Cond Value
    Then *BasicBlock
    Else *BasicBlock
}

func (self *IrCondBranch) Opcode() Opcode {
    return OpCondBr
}

func (self *IrCondBranch) Usages() []*Value {
    return []*Value { &self.Cond }
}

func (self *IrCondBranch) Successors() []*BasicBlock {
    return []*BasicBlock { self.Then, self.Else }
}

func (self *IrCondBranch) String() string {
    return fmt.Sprintf("br %s, bb_%d, bb_%d", vref(self.Cond), self.Then.Id, self.Else.Id)
}
