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
    `math/bits`
)

type MatchKind uint8

const (
    MatchShift MatchKind = iota + 1
    MatchOrNot
)

func (self MatchKind) String() string {
    switch self {
        case MatchShift : return "shift"
        case MatchOrNot : return "orn"
        default         : return fmt.Sprintf("match(%d)", uint8(self))
    }
}

// Operand refers to an operand slot of an instruction. The value is read
// from the slot when it is needed, so it follows the rewires done meanwhile.
type Operand struct {
    Ins  Instr
    Slot int
}

// Value returns what the slot currently refers to, or nil for an empty Operand.
func (self Operand) Value() Value {
    if self.Ins == nil {
        return nil
    } else {
        return *self.Ins.Usages()[self.Slot]
    }
}

// Match describes one occurrence of a pattern. All the matches of a root are
// found before any of them is applied, and are applied one after another.
// A Match holds instructions and operand slots only, never operand values,
// so applying one of them never invalidates the others.
type Match struct {
    Kind   MatchKind
    Root   Instr
    Parts  []Instr
    Old    Instr
    X      Operand
    Y      Operand
    Amount uint8
    T      Type
    Anchor Instr
    After  bool
}

// Pos resolves the insertion point of the replacement against the current
// layout of the anchor's block.
func (self *Match) Pos() Pos {
    if self.After {
        return After(self.Anchor)
    } else {
        return Before(self.Anchor)
    }
}

func (self *Match) String() string {
    return fmt.Sprintf("%s{root: %%%s, old: %%%s, x: %s, y: %s}", self.Kind, self.Root.Name(), self.Old.Name(), vref(self.X.Value()), vref(self.Y.Value()))
}

// Rule is the pattern specific half of a peephole pass. Match must not modify
// the IR, Build only creates the replacement without attaching it.
type Rule interface {
    Match(ins Instr, uses *UseIndex) []*Match
    Build(m *Match) Instr
}

// log2 returns n if v == 1 << n, ok is false if v is not a power of two.
func log2(v uint64) (n uint8, ok bool) {
    if bits.OnesCount64(v) != 1 {
        return 0, false
    } else {
        return uint8(bits.TrailingZeros64(v)), true
    }
}

/* mul.T x, $2^n (or mul.T $2^n, x), n > 0 */
func matchShift(ins Instr) *Match {
    var cc *IrConst
    var slot int

    /* must be a multiplication of a supported width */
    p, ok := ins.(*IrBinaryExpr)
    if !ok || p.Op != OpMul || !p.T.Valid() {
        return nil
    }

    /* exactly one of the operands must be a constant */
    xc, xk := p.X.(*IrConst)
    yc, yk := p.Y.(*IrConst)

    /* find out which one */
    switch {
        case xk && yk : return nil
        case yk       : slot, cc = 0, yc
        case xk       : slot, cc = 1, xc
        default       : return nil
    }

    /* the constant must be a power of two, and not one */
    amount, ok := log2(cc.Bits())
    if !ok || amount == 0 || cc.T != p.T {
        return nil
    }

    /* build the match */
    return &Match {
        Kind   : MatchShift,
        Root   : p,
        Parts  : []Instr { p },
        Old    : p,
        X      : Operand { p, slot },
        Amount : amount,
        T      : p.T,
        Anchor : p,
    }
}

/* t = xor.T a, $-1 ; r = or.T t, b */
func matchOrNot(ins Instr, uses *UseIndex) []*Match {
    var ret []*Match

    /* must be a bitwise complement */
    p, ok := ins.(*IrBinaryExpr)
    if !ok || p.Op != OpXor || !p.T.Valid() {
        return nil
    }

    /* the second operand must be the all-ones constant of the same width */
    if cc, ok := p.Y.(*IrConst); !ok || cc.T != p.T || !cc.IsAllOnes() {
        return nil
    }

    /* every Or consuming the complement as its first operand */
    for _, u := range uses.Users(p) {
        if or, ok := u.(*IrBinaryExpr); ok && or.Op == OpOr && or.X == Value(p) {
            ret = append(ret, &Match {
                Kind   : MatchOrNot,
                Root   : p,
                Parts  : []Instr { p, or },
                Old    : or,
                X      : Operand { p, 0 },
                Y      : Operand { or, 1 },
                T      : or.Type(),
                Anchor : or,
                After  : true,
            })
        }
    }

    /* all done */
    return ret
}
