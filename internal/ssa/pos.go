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

// Pos is an insertion point: a new instruction placed at Pos occupies index I
// of block B, pushing the instruction previously there one slot down.
// I == len(B.Ins) appends right before the terminator.
type Pos struct {
    B *BasicBlock
    I int
}

func pos(bb *BasicBlock, i int) Pos {
    return Pos { bb, i }
}

// Before returns the insertion point right before ins.
func Before(ins Instr) Pos {
    return pos(ins.Block(), mustIndex(ins))
}

// After returns the insertion point right after ins, which is the end of the
// block if ins is the last instruction.
func After(ins Instr) Pos {
    return pos(ins.Block(), mustIndex(ins) + 1)
}

func mustIndex(ins Instr) int {
    if bb := ins.Block(); bb == nil {
        panic(fmt.Sprintf("instruction %%%s is detached", ins.Name()))
    } else if i := bb.IndexOf(ins); i < 0 {
        panic(fmt.Sprintf("instruction %%%s is not in bb_%d", ins.Name(), bb.Id))
    } else {
        return i
    }
}

func (self Pos) IsEnd() bool {
    return self.I == len(self.B.Ins)
}

func (self Pos) String() string {
    if self.IsEnd() {
        return fmt.Sprintf("bb_%d.end", self.B.Id)
    } else {
        return fmt.Sprintf("bb_%d.ins[%d]", self.B.Id, self.I)
    }
}
