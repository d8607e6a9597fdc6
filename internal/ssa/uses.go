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

// UseIndex maps every value to the nodes consuming it, with one entry per
// operand slot. It is a derived view of the function and owns nothing.
type UseIndex struct {
    m map[Value][]IrNode
}

func BuildUseIndex(fn *Function) *UseIndex {
    ret := &UseIndex { m: make(map[Value][]IrNode) }
    fn.ForEach(func(_ *BasicBlock, node IrNode) { ret.add(node) })
    return ret
}

func (self *UseIndex) add(node IrNode) {
    if use, ok := node.(IrUsages); ok {
        for _, r := range use.Usages() {
            if *r != nil {
                self.m[*r] = append(self.m[*r], node)
            }
        }
    }
}

func (self *UseIndex) remove(node IrNode) {
    if use, ok := node.(IrUsages); ok {
        for _, r := range use.Usages() {
            if *r != nil {
                self.drop(*r, node)
            }
        }
    }
}

func (self *UseIndex) drop(v Value, node IrNode) {
    refs := self.m[v]
    for i, p := range refs {
        if p == node {
            refs = append(refs[:i], refs[i + 1:]...)
            break
        }
    }

    /* remove the entry entirely if nothing refers to it */
    if len(refs) == 0 {
        delete(self.m, v)
    } else {
        self.m[v] = refs
    }
}

// Count returns the number of operand slots referring to v.
func (self *UseIndex) Count(v Value) int {
    return len(self.m[v])
}

// Users returns the distinct nodes referring to v, in first-use order.
func (self *UseIndex) Users(v Value) []IrNode {
    refs := self.m[v]
    ret := make([]IrNode, 0, len(refs))
    seen := make(map[IrNode]struct{}, len(refs))

    /* deduplicate the nodes */
    for _, p := range refs {
        if _, ok := seen[p]; !ok {
            seen[p] = struct{}{}
            ret = append(ret, p)
        }
    }

    /* all done */
    return ret
}

// ReplaceAllUses redirects every operand slot referring to old to refer to
// rep, keeping the index in sync. Returns the number of slots rewritten.
func (self *UseIndex) ReplaceAllUses(old Value, rep Value) (n int) {
    if old == rep {
        return 0
    }

    /* rewrite every slot of every user */
    for _, node := range self.Users(old) {
        for _, r := range node.(IrUsages).Usages() {
            if *r == old {
                n++
                *r = rep
                self.m[rep] = append(self.m[rep], node)
            }
        }
    }

    /* nothing refers to the old value anymore */
    delete(self.m, old)
    return
}
