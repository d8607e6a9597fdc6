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
    `github.com/oleiade/lane`
)

// Worklist collects instructions made dead by rewrites. They are removed only
// when the worklist is drained, after the traversal that discovered them.
type Worklist struct {
    s *lane.Stack
    m map[Instr]struct{}
}

func NewWorklist() *Worklist {
    return &Worklist {
        s: lane.NewStack(),
        m: make(map[Instr]struct{}),
    }
}

func (self *Worklist) Len() int {
    return len(self.m)
}

func (self *Worklist) Has(ins Instr) bool {
    _, ok := self.m[ins]
    return ok
}

// Schedule adds ins to the worklist, returns false if it was already there.
func (self *Worklist) Schedule(ins Instr) bool {
    if _, ok := self.m[ins]; ok {
        return false
    } else {
        self.m[ins] = struct{}{}
        self.s.Push(ins)
        return true
    }
}

// Drain removes every scheduled instruction from its block, the most recently
// scheduled one first. The whole removal order is validated before anything
// is touched, so on error the function is left exactly as it was.
func (self *Worklist) Drain(fn *Function, uses *UseIndex) (int, error) {
    order := make([]Instr, 0, self.s.Size())
    removed := make(map[Instr]struct{}, self.s.Size())

    /* pop everything, which yields the reverse of discovery order */
    for !self.s.Empty() {
        order = append(order, self.s.Pop().(Instr))
    }

    /* the worklist is consumed either way */
    for k := range self.m {
        delete(self.m, k)
    }

    /* Phase 1: validate the removal order */
    for _, ins := range order {
        if _, ok := ins.(IrImpure); ok {
            return 0, einvariant(fn, ins, "instruction has side effects")
        }

        /* must still be attached to this function */
        if bb := ins.Block(); bb == nil || bb.fn != fn || bb.IndexOf(ins) < 0 {
            return 0, einvariant(fn, ins, "instruction is not part of the function")
        }

        /* every remaining user must have been removed before it */
        for _, u := range uses.Users(ins) {
            if p, ok := u.(Instr); !ok {
                return 0, einvariant(fn, ins, "instruction is still used by `%s`", u)
            } else if _, ok = removed[p]; !ok {
                return 0, einvariant(fn, ins, "instruction is still used by `%s`", u)
            }
        }

        /* mark as removed */
        removed[ins] = struct{}{}
    }

    /* Phase 2: commit the removal */
    for _, ins := range order {
        uses.remove(ins)
        ins.Block().remove(ins)
    }

    /* all done */
    return len(order), nil
}
