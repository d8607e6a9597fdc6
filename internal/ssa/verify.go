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
    `go.uber.org/multierr`
    `gonum.org/v1/gonum/graph/flow`
    `gonum.org/v1/gonum/graph/simple`
)

type _Verifier struct {
    fn    *Function
    err   error
    dom   flow.DominatorTree
    bbs   map[*BasicBlock]struct{}
    reach map[*BasicBlock]struct{}
    args  map[*IrParam]struct{}
}

// Verify checks that fn is well-formed: every block is terminated, every
// operand is defined before it is used and every definition dominates its
// uses. All violations are reported together in a *VerifyError.
func Verify(fn *Function) error {
    vf := &_Verifier {
        fn    : fn,
        bbs   : make(map[*BasicBlock]struct{}, len(fn.Blocks)),
        reach : make(map[*BasicBlock]struct{}, len(fn.Blocks)),
        args  : make(map[*IrParam]struct{}, len(fn.Params)),
    }

    /* a function without body is trivially valid */
    if len(fn.Blocks) == 0 {
        return nil
    }

    /* check the structure, then every node */
    if vf.structure() {
        vf.reachability()
        vf.dominators()
        vf.nodes()
    }

    /* combine all the errors */
    if vf.err == nil {
        return nil
    } else {
        return &VerifyError { Func: fn.Name, Err: vf.err }
    }
}

func (self *_Verifier) fail(node IrNode, reason string, args ...interface{}) {
    self.err = multierr.Append(self.err, einvariant(self.fn, node, reason, args...))
}

func (self *_Verifier) structure() bool {
    ok := true
    ids := make(map[int]struct{}, len(self.fn.Blocks))
    names := make(map[string]struct{})

    /* parameters share the namespace with instructions */
    for _, p := range self.fn.Params {
        self.args[p] = struct{}{}
        names[p.Name] = struct{}{}
    }

    /* check every block */
    for _, bb := range self.fn.Blocks {
        if _, dup := ids[bb.Id]; dup {
            ok = false
            self.fail(nil, "duplicated basic block bb_%d", bb.Id)
        }

        /* must belong to this function */
        if bb.fn != self.fn {
            ok = false
            self.fail(nil, "basic block bb_%d belongs to another function", bb.Id)
        }

        /* mark the block */
        ids[bb.Id] = struct{}{}
        self.bbs[bb] = struct{}{}

        /* instructions must know where they are, and be uniquely named */
        for _, v := range bb.Ins {
            if v.Block() != bb {
                self.fail(v, "instruction has a wrong parent block")
            }
            if v.Type() == Void {
                continue
            }
            if _, dup := names[v.Name()]; dup {
                self.fail(v, "name %%%s is defined more than once", v.Name())
            }
            names[v.Name()] = struct{}{}
        }
    }

    /* every block must be properly terminated */
    for _, bb := range self.fn.Blocks {
        if bb.Term == nil {
            ok = false
            self.fail(nil, "basic block bb_%d is not terminated", bb.Id)
            continue
        }

        /* all the successors must be in this function */
        for _, s := range bb.Term.Successors() {
            if _, in := self.bbs[s]; !in {
                ok = false
                self.fail(nil, "branch target of bb_%d is not in this function", bb.Id)
            }
        }
    }

    /* the CFG is usable only if everything above is fine */
    return ok
}

func (self *_Verifier) reachability() {
    q := lane.NewQueue()
    q.Enqueue(self.fn.Entry())
    self.reach[self.fn.Entry()] = struct{}{}

    /* breadth-first search from the entry */
    for !q.Empty() {
        for _, s := range q.Dequeue().(*BasicBlock).Successors() {
            if _, ok := self.reach[s]; !ok {
                self.reach[s] = struct{}{}
                q.Enqueue(s)
            }
        }
    }
}

func (self *_Verifier) dominators() {
    g := simple.NewDirectedGraph()

    /* add every block */
    for _, bb := range self.fn.Blocks {
        g.AddNode(simple.Node(bb.Id))
    }

    /* add every edge, simple graphs cannot hold self loops, which never
     * affect dominance anyway */
    for _, bb := range self.fn.Blocks {
        for _, s := range bb.Successors() {
            if s != bb {
                g.SetEdge(g.NewEdge(simple.Node(bb.Id), simple.Node(s.Id)))
            }
        }
    }

    /* build the dominator tree */
    self.dom = flow.Dominators(simple.Node(self.fn.Entry().Id), g)
}

func (self *_Verifier) dominates(a *BasicBlock, b *BasicBlock) bool {
    id := int64(a.Id)
    nb := len(self.fn.Blocks)

    /* walk up the dominator tree */
    for p := self.dom.DominatorOf(int64(b.Id)); p != nil && nb > 0; nb-- {
        if p.ID() == id {
            return true
        } else {
            p = self.dom.DominatorOf(p.ID())
        }
    }

    /* not found */
    return false
}

func (self *_Verifier) nodes() {
    for _, bb := range self.fn.Blocks {
        for i, v := range bb.Ins {
            self.types(v)
            self.operands(bb, i, v)
        }

        /* check the terminator */
        self.types(bb.Term)
        self.operands(bb, len(bb.Ins), bb.Term)
    }
}

func (self *_Verifier) operands(bb *BasicBlock, i int, node IrNode) {
    use, ok := node.(IrUsages)
    if !ok {
        return
    }

    /* uses in unreachable code are never executed */
    if _, ok = self.reach[bb]; !ok {
        return
    }

    /* check every operand */
    for _, r := range use.Usages() {
        switch v := (*r).(type) {
            default: {
                self.fail(node, "unknown operand kind %T", v)
            }

            /* missing operand */
            case nil: {
                self.fail(node, "operand is missing")
            }

            /* constants must have a valid integer type */
            case *IrConst: {
                if !v.T.Valid() {
                    self.fail(node, "constant %s has invalid type %s", v, v.T)
                }
            }

            /* parameters must belong to this function */
            case *IrParam: {
                if _, ok = self.args[v]; !ok {
                    self.fail(node, "%s is not a parameter of this function", v)
                }
            }

            /* instructions must be defined before, and dominate the use */
            case Instr: {
                self.definition(bb, i, node, v)
            }
        }
    }
}

func (self *_Verifier) definition(bb *BasicBlock, i int, node IrNode, v Instr) {
    def := v.Block()

    /* must not be removed */
    if def == nil {
        self.fail(node, "%%%s refers to a removed instruction", v.Name())
        return
    }

    /* must be in this function */
    if _, ok := self.bbs[def]; !ok {
        self.fail(node, "%%%s is not defined in this function", v.Name())
        return
    }

    /* void values cannot be used */
    if v.Type() == Void {
        self.fail(node, "%%%s has no value", v.Name())
        return
    }

    /* same block, the definition must come first */
    if def == bb {
        if j := bb.IndexOf(v); j < 0 || j >= i {
            self.fail(node, "%%%s is used before its definition", v.Name())
        }
        return
    }

    /* different block, the definition must dominate the use */
    if !self.dominates(def, bb) {
        self.fail(node, "definition of %%%s in bb_%d does not dominate its use in bb_%d", v.Name(), def.Id, bb.Id)
    }
}

func (self *_Verifier) types(node IrNode) {
    switch p := node.(type) {
        case *IrBinaryExpr: {
            if !p.T.Valid() {
                self.fail(p, "invalid operand type %s", p.T)
            } else if (p.X != nil && p.X.Type() != p.T) || (p.Y != nil && p.Y.Type() != p.T) {
                self.fail(p, "operand types mismatch")
            }
        }

        case *IrIntrinsic: {
            if p.Id != IntrinsicOrNot {
                self.fail(p, "unknown intrinsic %s", p.Id)
            } else if len(p.Args) != 2 {
                self.fail(p, "%s takes 2 arguments, got %d", p.Id, len(p.Args))
            } else if (p.Args[0] != nil && p.Args[0].Type() != p.T) || (p.Args[1] != nil && p.Args[1].Type() != p.T) {
                self.fail(p, "operand types mismatch")
            }
        }

        case *IrReturn: {
            if p.V == nil && self.fn.Ret != Void {
                self.fail(p, "missing return value of type %s", self.fn.Ret)
            } else if p.V != nil && p.V.Type() != self.fn.Ret {
                self.fail(p, "return value type mismatch, expected %s", self.fn.Ret)
            }
        }

        case *IrCondBranch: {
            if p.Cond != nil && p.Cond.Type() != I1 {
                self.fail(p, "branch condition must be i1")
            }
        }
    }
}
