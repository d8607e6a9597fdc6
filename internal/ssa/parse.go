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
    `strconv`
    `strings`
)

type _Line struct {
    no  int
    src string
}

type _Parser struct {
    mod   *Module
    fn    *Function
    lines []_Line
    pos   int
    bbs   map[int]*BasicBlock
    vals  map[string]Value
}

// Parse reads the textual form of a module, as printed by Module.String.
//
//     func main(%x i32, %y i32) i32 {
//     bb_0:
//         %0 = mul.i32 %x, $8
//         ret %0
//     }
//
// Values must be defined before they are used in the text, comments start
// with ';' and extend to the end of the line.
func Parse(src string) (*Module, error) {
    p := &_Parser { mod: new(Module) }
    p.split(src)

    /* parse every function */
    for p.pos < len(p.lines) {
        if err := p.function(); err != nil {
            return nil, err
        }
    }

    /* all done */
    return p.mod, nil
}

// ParseFunction parses a module that contains exactly one function.
func ParseFunction(src string) (*Function, error) {
    if m, err := Parse(src); err != nil {
        return nil, err
    } else if len(m.Funcs) != 1 {
        return nil, esyntax(0, src, "expected exactly 1 function, got %d", len(m.Funcs))
    } else {
        return m.Funcs[0], nil
    }
}

func (self *_Parser) split(src string) {
    for i, ln := range strings.Split(src, "\n") {
        if p := strings.IndexByte(ln, ';'); p >= 0 {
            ln = ln[:p]
        }
        if ln = strings.TrimSpace(ln); ln != "" {
            self.lines = append(self.lines, _Line { no: i + 1, src: ln })
        }
    }
}

func (self *_Parser) function() error {
    ln := self.lines[self.pos]
    self.pos++

    /* parse the header */
    if err := self.header(ln); err != nil {
        return err
    }

    /* find the end of function, and create all the blocks in order */
    end := -1
    for i := self.pos; i < len(self.lines) && end < 0; i++ {
        if src := self.lines[i].src; src == "}" {
            end = i
        } else if id, ok := label(src); ok {
            if _, dup := self.bbs[id]; dup {
                return esyntax(self.lines[i].no, src, "duplicated label bb_%d", id)
            } else {
                self.bbs[id] = self.fn.newBlockWithId(id)
            }
        }
    }

    /* the function must be closed */
    if end < 0 {
        return esyntax(ln.no, ln.src, "function %s is not closed", self.fn.Name)
    }

    /* parse the body */
    var bb *BasicBlock
    for ; self.pos < end; self.pos++ {
        ln = self.lines[self.pos]

        /* switch to a new block */
        if id, ok := label(ln.src); ok {
            if bb != nil && bb.Term == nil {
                return esyntax(ln.no, ln.src, "bb_%d is not terminated", bb.Id)
            } else {
                bb = self.bbs[id]
                continue
            }
        }

        /* instructions must be inside a block */
        if bb == nil {
            return esyntax(ln.no, ln.src, "instruction outside of basic block")
        } else if bb.Term != nil {
            return esyntax(ln.no, ln.src, "instruction after terminator of bb_%d", bb.Id)
        }

        /* parse the instruction */
        if err := self.instr(bb, ln); err != nil {
            return err
        }
    }

    /* the last block must be terminated as well */
    if bb != nil && bb.Term == nil {
        return esyntax(self.lines[end].no, "}", "bb_%d is not terminated", bb.Id)
    }

    /* skip the closing brace */
    self.pos = end + 1
    self.mod.Add(self.fn)
    return nil
}

func label(src string) (int, bool) {
    if !strings.HasPrefix(src, "bb_") || !strings.HasSuffix(src, ":") {
        return 0, false
    } else if id, err := strconv.Atoi(src[3:len(src) - 1]); err != nil || id < 0 {
        return 0, false
    } else {
        return id, true
    }
}

/* func NAME(%a T, %b T) T { */
func (self *_Parser) header(ln _Line) error {
    src := ln.src
    if !strings.HasPrefix(src, "func ") || !strings.HasSuffix(src, "{") {
        return esyntax(ln.no, src, "function header expected")
    }

    /* locate the parameter list */
    src = strings.TrimSpace(src[5:len(src) - 1])
    lp, rp := strings.IndexByte(src, '('), strings.LastIndexByte(src, ')')
    if lp <= 0 || rp < lp {
        return esyntax(ln.no, ln.src, "malformed function header")
    }

    /* name and return type */
    name := strings.TrimSpace(src[:lp])
    ret, ok := ParseType(strings.TrimSpace(src[rp + 1:]))
    if !ok || !validName(name) {
        return esyntax(ln.no, ln.src, "malformed function header")
    }

    /* create the function */
    self.fn = NewFunction(name, ret)
    self.bbs = make(map[int]*BasicBlock)
    self.vals = make(map[string]Value)

    /* duplicated function names are not allowed */
    if self.mod.Lookup(name) != nil {
        return esyntax(ln.no, ln.src, "function %s redefined", name)
    }

    /* parse every parameter */
    for _, arg := range splitList(src[lp + 1:rp]) {
        fv := strings.Fields(arg)
        if len(fv) != 2 || !strings.HasPrefix(fv[0], "%") || !validName(fv[0][1:]) {
            return esyntax(ln.no, ln.src, "malformed parameter `%s`", arg)
        }

        /* parameter type */
        t, ok := ParseType(fv[1])
        if !ok || !t.Valid() {
            return esyntax(ln.no, ln.src, "invalid parameter type `%s`", fv[1])
        }

        /* add to function */
        if _, dup := self.vals[fv[0][1:]]; dup {
            return esyntax(ln.no, ln.src, "parameter %s redefined", fv[0])
        } else {
            self.vals[fv[0][1:]] = self.fn.AddParam(fv[0][1:], t)
        }
    }

    /* all done */
    return nil
}

func (self *_Parser) instr(bb *BasicBlock, ln _Line) error {
    var name string
    var rhs = ln.src

    /* terminators */
    if op := firstField(rhs); op == "ret" || op == "br" {
        return self.term(bb, ln, op, strings.TrimSpace(rhs[len(op):]))
    }

    /* %name = ... */
    if p := strings.Index(rhs, "="); p >= 0 {
        name = strings.TrimSpace(rhs[:p])
        rhs = strings.TrimSpace(rhs[p + 1:])

        /* check the name */
        if !strings.HasPrefix(name, "%") || !validName(name[1:]) {
            return esyntax(ln.no, ln.src, "invalid value name `%s`", name)
        } else if _, dup := self.vals[name[1:]]; dup {
            return esyntax(ln.no, ln.src, "value %s redefined", name)
        } else {
            name = name[1:]
        }
    }

    /* OP.TYPE */
    opt := firstField(rhs)
    rest := strings.TrimSpace(rhs[len(opt):])
    dot := strings.IndexByte(opt, '.')
    if dot <= 0 {
        return esyntax(ln.no, ln.src, "malformed instruction")
    }

    /* parse the type */
    op := opt[:dot]
    t, ok := ParseType(opt[dot + 1:])
    if !ok {
        return esyntax(ln.no, ln.src, "invalid type `%s`", opt[dot + 1:])
    }

    /* only void calls have no name */
    if (name == "") != (op == "call" && t == Void) {
        return esyntax(ln.no, ln.src, "value name mismatch")
    }

    /* build the instruction */
    ins, err := self.build(ln, op, t, rest)
    if err != nil {
        return err
    }

    /* add to block */
    ins.base().name = name
    bb.Append(ins)

    /* register the value name */
    if name != "" {
        self.vals[name] = ins
    }

    /* all done */
    return nil
}

func (self *_Parser) build(ln _Line, op string, t Type, rest string) (Instr, error) {
    switch op {
        default: {
            if code, ok := lookupBinaryOp(op); !ok {
                return nil, esyntax(ln.no, ln.src, "unknown instruction `%s`", op)
            } else if !t.Valid() {
                return nil, esyntax(ln.no, ln.src, "invalid operand type %s", t)
            } else if args, err := self.operands(ln, splitList(rest), t); err != nil {
                return nil, err
            } else if len(args) != 2 {
                return nil, esyntax(ln.no, ln.src, "%s takes 2 operands, got %d", op, len(args))
            } else {
                return &IrBinaryExpr { Op: code, T: t, X: args[0], Y: args[1] }, nil
            }
        }

        /* function calls */
        case "call": {
            if fn, args, err := self.callee(ln, rest, I64); err != nil {
                return nil, err
            } else {
                return &IrCall { Fn: fn, T: t, Args: args }, nil
            }
        }

        /* intrinsics */
        case "intrinsic": {
            if fn, args, err := self.callee(ln, rest, t); err != nil {
                return nil, err
            } else if id, ok := lookupIntrinsic(fn); !ok {
                return nil, esyntax(ln.no, ln.src, "unknown intrinsic @%s", fn)
            } else {
                return &IrIntrinsic { Id: id, T: t, Args: args }, nil
            }
        }
    }
}

/* @name(args), constant arguments take type t */
func (self *_Parser) callee(ln _Line, src string, t Type) (string, []Value, error) {
    lp, rp := strings.IndexByte(src, '('), strings.LastIndexByte(src, ')')
    if !strings.HasPrefix(src, "@") || lp < 2 || rp != len(src) - 1 {
        return "", nil, esyntax(ln.no, ln.src, "malformed call")
    }

    /* check the function name */
    fn := src[1:lp]
    if !validName(fn) {
        return "", nil, esyntax(ln.no, ln.src, "invalid function name `%s`", fn)
    }

    /* parse the arguments */
    args, err := self.operands(ln, splitList(src[lp + 1:rp]), t)
    return fn, args, err
}

func (self *_Parser) term(bb *BasicBlock, ln _Line, op string, rest string) error {
    args := splitList(rest)

    /* ret [value] */
    if op == "ret" {
        if len(args) == 0 {
            bb.SetTerm(&IrReturn{})
            return nil
        } else if len(args) != 1 {
            return esyntax(ln.no, ln.src, "ret takes at most 1 operand")
        } else if v, err := self.operand(ln, args[0], self.fn.Ret); err != nil {
            return err
        } else {
            bb.SetTerm(&IrReturn { V: v })
            return nil
        }
    }

    /* br bb_N | br cond, bb_T, bb_F */
    switch len(args) {
        case 1: {
            if to, err := self.target(ln, args[0]); err != nil {
                return err
            } else {
                bb.SetTerm(&IrBranch { To: to })
                return nil
            }
        }

        case 3: {
            cond, err := self.operand(ln, args[0], I1)
            if err != nil {
                return err
            }

            /* both targets */
            t, err := self.target(ln, args[1])
            if err != nil {
                return err
            }
            f, err := self.target(ln, args[2])
            if err != nil {
                return err
            }

            /* build the terminator */
            bb.SetTerm(&IrCondBranch { Cond: cond, Then: t, Else: f })
            return nil
        }

        default: {
            return esyntax(ln.no, ln.src, "malformed branch")
        }
    }
}

func (self *_Parser) target(ln _Line, src string) (*BasicBlock, error) {
    if id, ok := label(src + ":"); !ok {
        return nil, esyntax(ln.no, ln.src, "invalid branch target `%s`", src)
    } else if bb, ok := self.bbs[id]; !ok {
        return nil, esyntax(ln.no, ln.src, "undefined label bb_%d", id)
    } else {
        return bb, nil
    }
}

func (self *_Parser) operands(ln _Line, src []string, t Type) ([]Value, error) {
    ret := make([]Value, 0, len(src))
    for _, s := range src {
        if v, err := self.operand(ln, s, t); err != nil {
            return nil, err
        } else {
            ret = append(ret, v)
        }
    }
    return ret, nil
}

/* %name or $int, constants take the type from the context */
func (self *_Parser) operand(ln _Line, src string, t Type) (Value, error) {
    switch {
        case strings.HasPrefix(src, "%"): {
            if v, ok := self.vals[src[1:]]; !ok {
                return nil, esyntax(ln.no, ln.src, "undefined value %s", src)
            } else {
                return v, nil
            }
        }

        case strings.HasPrefix(src, "$"): {
            if !t.Valid() {
                return nil, esyntax(ln.no, ln.src, "constant %s has no type", src)
            } else if v, err := strconv.ParseInt(src[1:], 0, 64); err != nil {
                return nil, esyntax(ln.no, ln.src, "invalid constant %s", src)
            } else {
                return Const(t, v), nil
            }
        }

        default: {
            return nil, esyntax(ln.no, ln.src, "invalid operand `%s`", src)
        }
    }
}

func firstField(src string) string {
    if p := strings.IndexAny(src, " \t"); p < 0 {
        return src
    } else {
        return src[:p]
    }
}

func splitList(src string) []string {
    var ret []string
    if src = strings.TrimSpace(src); src == "" {
        return nil
    }
    for _, s := range strings.Split(src, ",") {
        ret = append(ret, strings.TrimSpace(s))
    }
    return ret
}

func validName(s string) bool {
    if s == "" {
        return false
    }
    for _, c := range s {
        switch {
            case c >= 'a' && c <= 'z' : break
            case c >= 'A' && c <= 'Z' : break
            case c >= '0' && c <= '9' : break
            case c == '_' || c == '.' : break
            default                   : return false
        }
    }
    return true
}
