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
    `strconv`
    `strings`
)

type Function struct {
    Name   string
    Ret    Type
    Params []*IrParam
    Blocks []*BasicBlock
    nins   int
}

func NewFunction(name string, ret Type) *Function {
    return &Function {
        Name : name,
        Ret  : ret,
    }
}

func (self *Function) AddParam(name string, t Type) *IrParam {
    if name == "" {
        name = self.newName()
    } else {
        self.reserve(name)
    }

    /* create the parameter */
    p := &IrParam {
        Name  : name,
        Index : len(self.Params),
        T     : t,
    }

    /* add to parameter list */
    self.Params = append(self.Params, p)
    return p
}

// NewBlock appends a new empty basic block to the function.
func (self *Function) NewBlock() *BasicBlock {
    id := 0
    for _, bb := range self.Blocks {
        if bb.Id >= id {
            id = bb.Id + 1
        }
    }
    return self.newBlockWithId(id)
}

func (self *Function) newBlockWithId(id int) *BasicBlock {
    bb := &BasicBlock { Id: id, fn: self }
    self.Blocks = append(self.Blocks, bb)
    return bb
}

// Entry returns the entry block, or nil for a function without a body.
func (self *Function) Entry() *BasicBlock {
    if len(self.Blocks) == 0 {
        return nil
    } else {
        return self.Blocks[0]
    }
}

// ForEach calls action for every instruction and terminator in block order.
func (self *Function) ForEach(action func(bb *BasicBlock, node IrNode)) {
    for _, bb := range self.Blocks {
        for _, v := range bb.Ins {
            action(bb, v)
        }
        if bb.Term != nil {
            action(bb, bb.Term)
        }
    }
}

func (self *Function) newName() string {
    self.nins++
    return strconv.Itoa(self.nins - 1)
}

func (self *Function) reserve(name string) {
    if n, err := strconv.Atoi(name); err == nil && n >= self.nins {
        self.nins = n + 1
    }
}

func (self *Function) nameInstr(p *irbase) {
    if p.name == "" {
        p.name = self.newName()
    } else {
        self.reserve(p.name)
    }
}

func (self *Function) String() string {
    args := make([]string, 0, len(self.Params))
    body := make([]string, 0, len(self.Blocks))

    /* dump the parameters */
    for _, p := range self.Params {
        args = append(args, fmt.Sprintf("%s %s", p, p.T))
    }

    /* dump every basic block */
    for _, bb := range self.Blocks {
        body = append(body, bb.String())
    }

    /* join them together */
    return fmt.Sprintf(
        "func %s(%s) %s {\n%s\n}",
        self.Name,
        strings.Join(args, ", "),
        self.Ret,
        strings.Join(body, "\n"),
    )
}

type Module struct {
    Funcs []*Function
}

func (self *Module) Add(fn *Function) {
    self.Funcs = append(self.Funcs, fn)
}

// Lookup finds the function by name, typically the designated entry point.
func (self *Module) Lookup(name string) *Function {
    for _, fn := range self.Funcs {
        if fn.Name == name {
            return fn
        }
    }
    return nil
}

func (self *Module) String() string {
    buf := make([]string, 0, len(self.Funcs))
    for _, fn := range self.Funcs { buf = append(buf, fn.String()) }
    return strings.Join(buf, "\n\n")
}
