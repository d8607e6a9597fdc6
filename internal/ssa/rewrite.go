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

    `go.uber.org/zap`
)

type DriverState uint8

const (
    NotStarted DriverState = iota
    Visiting
    Draining
    Done
)

func (self DriverState) String() string {
    switch self {
        case NotStarted : return "NotStarted"
        case Visiting   : return "Visiting"
        case Draining   : return "Draining"
        case Done       : return "Done"
        default         : return fmt.Sprintf("DriverState(%d)", uint8(self))
    }
}

// Rewriter is the mutation API used by a single driver run over one function.
// It keeps the use index in sync with every change it makes.
type Rewriter struct {
    fn    *Function
    uses  *UseIndex
    work  *Worklist
    state DriverState
}

func newRewriter(fn *Function) *Rewriter {
    return &Rewriter {
        fn    : fn,
        uses  : BuildUseIndex(fn),
        work  : NewWorklist(),
        state : NotStarted,
    }
}

func (self *Rewriter) Uses() *UseIndex {
    return self.uses
}

// Insert attaches ins at the insertion point.
func (self *Rewriter) Insert(at Pos, ins Instr) {
    if at.B.fn != self.fn {
        panic("insertion point is not in function " + self.fn.Name)
    }
    at.B.insertAt(at.I, ins)
    self.uses.add(ins)
}

// Replace redirects every use of old to rep.
func (self *Rewriter) Replace(old Value, rep Value) int {
    return self.uses.ReplaceAllUses(old, rep)
}

func (self *Rewriter) Schedule(ins Instr) bool {
    if self.state != Visiting {
        panic("scheduling deletion while " + self.state.String())
    }
    return self.work.Schedule(ins)
}

// ScheduleDead schedules the participants of a rewrite that became dead, in
// the order they are given. A participant is dead when it is pure and all of
// its remaining users are dead participants themselves or already scheduled.
func (self *Rewriter) ScheduleDead(parts []Instr) (n int) {
    set := make(map[Instr]struct{}, len(parts))
    cand := make([]Instr, 0, len(parts))

    /* deduplicate the participants */
    for _, p := range parts {
        if _, ok := set[p]; !ok {
            set[p] = struct{}{}
            cand = append(cand, p)
        }
    }

    /* drop the live ones until nothing changes, a live user keeps its operands alive */
    for changed := true; changed; {
        changed = false
        for _, p := range cand {
            if _, ok := set[p]; ok && !self.dead(p, set) {
                delete(set, p)
                changed = true
            }
        }
    }

    /* schedule the survivors */
    for _, p := range cand {
        if _, ok := set[p]; ok && self.Schedule(p) {
            n++
        }
    }

    /* all done */
    return
}

func (self *Rewriter) dead(ins Instr, set map[Instr]struct{}) bool {
    if _, ok := ins.(IrImpure); ok {
        return false
    }

    /* check for every user */
    for _, u := range self.uses.Users(ins) {
        if p, ok := u.(Instr); !ok {
            return false
        } else if _, ok = set[p]; !ok && !self.work.Has(p) {
            return false
        }
    }

    /* nothing alive refers to it */
    return true
}

func (self *Rewriter) Drain() (int, error) {
    if self.state != Visiting {
        panic("draining while " + self.state.String())
    }
    self.state = Draining
    n, err := self.work.Drain(self.fn, self.uses)
    self.state = Done
    return n, err
}

type Result struct {
    Modified bool
    Rewrites int
    Removed  int
}

// Driver visits every instruction of a function exactly once, applying Rule
// to each of them, then removes whatever the rewrites left dead.
type Driver struct {
    Name   string
    Rule   Rule
    Logger *zap.Logger
}

func (self *Driver) log() *zap.Logger {
    if self.Logger == nil {
        return zap.NewNop()
    } else {
        return self.Logger
    }
}

func (self *Driver) Run(fn *Function) (ret Result, err error) {
    rw := newRewriter(fn)
    lg := self.log()
    rw.state = Visiting

    /* visit every instruction, new instructions are not visited */
    for _, bb := range fn.Blocks {
        for _, ins := range append([]Instr(nil), bb.Ins...) {
            var parts []Instr
            var matches []*Match

            /* already dead, nothing to rewrite */
            if rw.work.Has(ins) || ins.Block() == nil {
                continue
            }

            /* match the patterns */
            if matches = self.Rule.Match(ins, rw.uses); len(matches) == 0 {
                continue
            }

            /* build the replacement, and rewire all the users */
            for _, m := range matches {
                at := m.Pos()
                rep := self.Rule.Build(m)
                rw.Insert(at, rep)
                n := rw.Replace(m.Old, rep)
                parts = append(parts, m.Parts...)

                /* log the rewrite */
                lg.Debug("rewrite",
                    zap.String("pass", self.Name),
                    zap.String("func", fn.Name),
                    zap.Stringer("match", m),
                    zap.Stringer("at", at),
                    zap.Stringer("new", rep),
                    zap.Int("uses", n),
                )
            }

            /* the participants left with no users are removed later */
            ret.Rewrites += len(matches)
            rw.ScheduleDead(parts)
        }
    }

    /* the rewires alone already changed the function */
    ret.Modified = ret.Rewrites != 0

    /* remove the dead instructions */
    if ret.Removed, err = rw.Drain(); err != nil {
        lg.Error("dead instruction removal failed", zap.String("pass", self.Name), zap.String("func", fn.Name), zap.Error(err))
        return ret, err
    }

    /* all done */
    return ret, nil
}
