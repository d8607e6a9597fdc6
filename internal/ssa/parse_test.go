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
    `testing`

    `github.com/davecgh/go-spew/spew`
    `github.com/stretchr/testify/assert`
    `github.com/stretchr/testify/require`
)

func mustParse(t *testing.T, src string) *Function {
    fn, err := ParseFunction(src)
    require.NoError(t, err)
    require.NoError(t, Verify(fn))
    return fn
}

const testParseSrc = `func main(%a i32, %b i32, %c i1) i32 {
bb_0:
    %0 = xor.i32 %a, $-1
    %1 = or.i32 %0, %b
    call.void @trace(%1, $7)
    br %c, bb_1, bb_2
bb_1:
    %2 = mul.i32 $8, %1
    %3 = call.i32 @load(%2)
    ret %3
bb_2:
    %4 = intrinsic.i32 @orn(%a, $1)
    %5 = lt.i32 %4, %b
    br %5, bb_1, bb_3
bb_3:
    ret %4
}

func helper() void {
bb_0:
    ret
}`

func TestParse_RoundTrip(t *testing.T) {
    m, err := Parse(testParseSrc)
    require.NoError(t, err)
    require.Len(t, m.Funcs, 2)
    require.Equal(t, testParseSrc, m.String())
    for _, fn := range m.Funcs {
        require.NoError(t, Verify(fn))
    }
}

func TestParse_ConstantTypes(t *testing.T) {
    m, err := Parse(testParseSrc)
    require.NoError(t, err)
    fn := m.Lookup("main")
    xor := fn.Blocks[0].Ins[0].(*IrBinaryExpr)
    call := fn.Blocks[0].Ins[2].(*IrCall)
    orn := fn.Blocks[2].Ins[0].(*IrIntrinsic)
    assert.Equal(t, I32, xor.Y.Type())
    assert.True(t, xor.Y.(*IrConst).IsAllOnes())
    assert.Equal(t, I64, call.Args[1].Type())
    assert.Equal(t, I32, orn.Args[1].Type())
    assert.Equal(t, I1, fn.Blocks[2].Ins[1].Type())
}

func TestParse_ForwardBranches(t *testing.T) {
    fn := mustParse(t, `
        ; comments and blank lines are ignored
        func loop(%n i32) i32 {
        bb_3:
            br bb_7      ; forward
        bb_7:
            %0 = add.i32 %n, $1
            ret %0
        }
    `)
    require.Len(t, fn.Blocks, 2)
    assert.Equal(t, 3, fn.Entry().Id)
    assert.Same(t, fn.Blocks[1], fn.Entry().Term.(*IrBranch).To)
}

func TestParse_Names(t *testing.T) {
    fn := mustParse(t, `func main(%x i32) i32 {
bb_0:
    %7 = mul.i32 %x, $8
    %y = add.i32 %7, $1
    ret %y
}`)
    b := fn.Blocks[0]
    ins := &IrBinaryExpr { Op: OpAdd, T: I32, X: b.Ins[1], Y: Const(I32, 1) }
    b.Append(ins)
    assert.Equal(t, "8", ins.Name())
}

func TestParse_Errors(t *testing.T) {
    tests := []struct {
        name string
        line int
        src  string
    } {
        { "header"     , 1, "fn main() i32 {\n}" },
        { "unclosed"   , 1, "func main() i32 {\nbb_0:\n    ret $0" },
        { "param type" , 1, "func main(%x f32) i32 {\nbb_0:\n    ret $0\n}" },
        { "undefined"  , 3, "func main() i32 {\nbb_0:\n    %0 = add.i32 %x, $1\n    ret %0\n}" },
        { "redefined"  , 4, "func main(%x i32) i32 {\nbb_0:\n    %0 = add.i32 %x, $1\n    %0 = add.i32 %x, $2\n    ret %0\n}" },
        { "opcode"     , 3, "func main(%x i32) i32 {\nbb_0:\n    %0 = div.i32 %x, $1\n    ret %0\n}" },
        { "arity"      , 3, "func main(%x i32) i32 {\nbb_0:\n    %0 = add.i32 %x\n    ret %0\n}" },
        { "label"      , 3, "func main(%x i32) i32 {\nbb_0:\n    br bb_9\n}" },
        { "outside"    , 2, "func main(%x i32) i32 {\n    ret %x\n}" },
        { "after term" , 4, "func main(%x i32) i32 {\nbb_0:\n    ret %x\n    %0 = add.i32 %x, $1\n}" },
        { "no term"    , 4, "func main(%x i32) i32 {\nbb_0:\n    %0 = add.i32 %x, $1\nbb_1:\n    ret %0\n}" },
        { "void name"  , 3, "func main(%x i32) i32 {\nbb_0:\n    %0 = call.void @f(%x)\n    ret %x\n}" },
        { "intrinsic"  , 3, "func main(%x i32) i32 {\nbb_0:\n    %0 = intrinsic.i32 @andn(%x, %x)\n    ret %0\n}" },
        { "constant"   , 3, "func main(%x i32) i32 {\nbb_0:\n    %0 = add.i32 %x, $one\n    ret %0\n}" },
        { "duplicated" , 5, "func f() void {\nbb_0:\n    ret\n}\nfunc f() void {\nbb_0:\n    ret\n}" },
    }
    for _, tc := range tests {
        t.Run(tc.name, func(t *testing.T) {
            m, err := Parse(tc.src)
            require.Error(t, err, spew.Sdump(m))
            se, ok := err.(*SyntaxError)
            require.True(t, ok, "%T: %v", err, err)
            assert.Equal(t, tc.line, se.Line, se.Error())
        })
    }
}

func TestParseFunction_Count(t *testing.T) {
    _, err := ParseFunction(testParseSrc)
    require.Error(t, err)
    _, err = ParseFunction("")
    require.Error(t, err)
}
