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

type BasicBlock struct {
    Id   int
    Ins  []Instr
    Term IrTerminator
    fn   *Function
}

func (self *BasicBlock) Func() *Function {
    return self.fn
}

// IndexOf returns the position of ins within the block, or -1 if it is not there.
func (self *BasicBlock) IndexOf(ins Instr) int {
    for i, p := range self.Ins {
        if p == ins {
            return i
        }
    }
    return -1
}

func (self *BasicBlock) Successors() []*BasicBlock {
    if self.Term == nil {
        return nil
    } else {
        return self.Term.Successors()
    }
}

// Append attaches ins to the end of the block, right before the terminator.
func (self *BasicBlock) Append(ins Instr) {
    self.insertAt(len(self.Ins), ins)
}

// SetTerm replaces the terminator of the block.
func (self *BasicBlock) SetTerm(term IrTerminator) {
    if term.Block() != nil && term.Block() != self {
        panic("terminator already attached to bb_" + fmt.Sprint(term.Block().Id))
    }
    if self.Term != nil {
        self.Term.base().bb = nil
    }
    self.Term = term
    term.base().bb = self
}

func (self *BasicBlock) insertAt(i int, ins Instr) {
    if i < 0 || i > len(self.Ins) {
        panic(fmt.Sprintf("insertion point %d out of range for bb_%d", i, self.Id))
    }

    /* an instruction can only live in one place */
    if p := ins.base(); p.bb != nil {
        panic(fmt.Sprintf("instruction %%%s already attached to bb_%d", p.name, p.bb.Id))
    } else {
        p.bb = self
    }

    /* void instructions have no name */
    if ins.Type() != Void {
        self.fn.nameInstr(ins.base())
    }

    /* make room and put it there */
    self.Ins = append(self.Ins, nil)
    copy(self.Ins[i + 1:], self.Ins[i:])
    self.Ins[i] = ins
}

func (self *BasicBlock) remove(ins Instr) bool {
    if i := self.IndexOf(ins); i < 0 {
        return false
    } else {
        copy(self.Ins[i:], self.Ins[i + 1:])
        self.Ins[len(self.Ins) - 1] = nil
        self.Ins = self.Ins[:len(self.Ins) - 1]
        ins.base().bb = nil
        return true
    }
}

func (self *BasicBlock) String() string {
    buf := make([]string, 0, len(self.Ins) + 2)
    buf = append(buf, fmt.Sprintf("bb_%d:", self.Id))

    /* dump every instruction */
    for _, v := range self.Ins {
        buf = append(buf, "    " + v.String())
    }

    /* the terminator, if any */
    if self.Term == nil {
        buf = append(buf, "    <unterminated>")
    } else {
        buf = append(buf, "    " + self.Term.String())
    }

    /* join them together */
    return strings.Join(buf, "\n")
}
