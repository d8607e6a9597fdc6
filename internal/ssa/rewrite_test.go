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

    `github.com/stretchr/testify/assert`
    `github.com/stretchr/testify/require`
    `go.uber.org/zap`
    `go.uber.org/zap/zapcore`
    `go.uber.org/zap/zaptest/observer`

    `github.com/cloudwego/peephole/internal/opts`
)

func testOptions() *opts.Options {
    return &opts.Options {
        StrengthReduction : true,
        Fusion            : true,
        FusionEntry       : "main",
        MaxWorkers        : 1,
    }
}

func applyPass(t *testing.T, p Pass, src string) (*Function, Result) {
    fn := mustParse(t, src)
    res, err := p.Apply(fn, testOptions())
    require.NoError(t, err)
    require.NoError(t, Verify(fn), fn.String())
    return fn, res
}

func TestStrengthReduce_PowerOfTwo(t *testing.T) {
    fn, res := applyPass(t, new(StrengthReduce), `func main(%x i32) i32 {
bb_0:
    %0 = mul.i32 %x, $8
    ret %0
}`)
    require.True(t, res.Modified)
    assert.Equal(t, 1, res.Rewrites)
    assert.Equal(t, 1, res.Removed)
    assert.Equal(t, `func main(%x i32) i32 {
bb_0:
    %1 = shl.i32 %x, $3
    ret %1
}`, fn.String())
}

func TestStrengthReduce_NotPowerOfTwo(t *testing.T) {
    src := `func main(%x i32) i32 {
bb_0:
    %0 = mul.i32 %x, $6
    %1 = mul.i32 %0, $1
    %2 = mul.i32 %1, $0
    %3 = mul.i32 $2, $4
    %4 = add.i32 %2, %3
    ret %4
}`
    fn, res := applyPass(t, new(StrengthReduce), src)
    require.False(t, res.Modified)
    assert.Equal(t, src, fn.String())
}

func TestStrengthReduce_Chained(t *testing.T) {
    fn, res := applyPass(t, new(StrengthReduce), `func main(%x i32) i32 {
bb_0:
    %0 = mul.i32 $4, %x
    %1 = mul.i32 %0, $2
    ret %1
}`)
    require.True(t, res.Modified)
    assert.Equal(t, 2, res.Rewrites)
    assert.Equal(t, 2, res.Removed)
    assert.Equal(t, `func main(%x i32) i32 {
bb_0:
    %2 = shl.i32 %x, $2
    %3 = shl.i32 %2, $1
    ret %3
}`, fn.String())
}

func TestStrengthReduce_Narrow(t *testing.T) {
    fn, res := applyPass(t, new(StrengthReduce), `func main(%x i8) i8 {
bb_0:
    %0 = mul.i8 %x, $128
    ret %0
}`)
    require.True(t, res.Modified)
    assert.Equal(t, "%1 = shl.i8 %x, $7", fn.Entry().Ins[0].String())
}

func TestStrengthReduce_Disabled(t *testing.T) {
    fn := mustParse(t, "func main(%x i32) i32 {\nbb_0:\n    %0 = mul.i32 %x, $8\n    ret %0\n}")
    o := testOptions()
    o.StrengthReduction = false
    res, err := new(StrengthReduce).Apply(fn, o)
    require.NoError(t, err)
    require.False(t, res.Modified)
    require.Len(t, fn.Entry().Ins, 1)
}

func TestStrengthReduce_Idempotent(t *testing.T) {
    fn := mustParse(t, `func helper(%x i64, %y i64) i64 {
bb_0:
    %0 = mul.i64 %x, $1024
    %1 = mul.i64 %y, $3
    %2 = add.i64 %0, %1
    ret %2
}`)
    res, err := new(StrengthReduce).Apply(fn, testOptions())
    require.NoError(t, err)
    require.True(t, res.Modified)
    out := fn.String()
    res, err = new(StrengthReduce).Apply(fn, testOptions())
    require.NoError(t, err)
    require.False(t, res.Modified)
    require.Equal(t, out, fn.String())
}

func TestFusion_OrNot(t *testing.T) {
    fn, res := applyPass(t, new(Fusion), `func main(%a i32, %b i32) i32 {
bb_0:
    %0 = xor.i32 %a, $-1
    %1 = or.i32 %0, %b
    ret %1
}`)
    require.True(t, res.Modified)
    assert.Equal(t, 1, res.Rewrites)
    assert.Equal(t, 2, res.Removed)
    assert.Equal(t, `func main(%a i32, %b i32) i32 {
bb_0:
    %2 = intrinsic.i32 @orn(%a, %b)
    ret %2
}`, fn.String())
}

func TestFusion_OperandOrder(t *testing.T) {
    src := `func main(%a i32, %b i32) i32 {
bb_0:
    %0 = xor.i32 %a, $-1
    %1 = or.i32 %b, %0
    ret %1
}`
    fn, res := applyPass(t, new(Fusion), src)
    require.False(t, res.Modified)
    assert.Equal(t, src, fn.String())
}

func TestFusion_MultipleUsers(t *testing.T) {
    fn, res := applyPass(t, new(Fusion), `func main(%a i32, %b i32, %c i32) i32 {
bb_0:
    %0 = xor.i32 %a, $-1
    %1 = or.i32 %0, %b
    %2 = or.i32 %0, %c
    %3 = add.i32 %1, %2
    ret %3
}`)
    require.True(t, res.Modified)
    assert.Equal(t, 2, res.Rewrites)
    assert.Equal(t, 3, res.Removed)
    assert.Equal(t, `func main(%a i32, %b i32, %c i32) i32 {
bb_0:
    %4 = intrinsic.i32 @orn(%a, %b)
    %5 = intrinsic.i32 @orn(%a, %c)
    %3 = add.i32 %4, %5
    ret %3
}`, fn.String())
}

func TestFusion_ChainedUsers(t *testing.T) {
    fn, res := applyPass(t, new(Fusion), `func main(%a i32, %b i32) i32 {
bb_0:
    %0 = xor.i32 %a, $-1
    %1 = or.i32 %0, %b
    %2 = or.i32 %0, %1
    ret %2
}`)
    require.True(t, res.Modified)
    assert.Equal(t, 2, res.Rewrites)
    assert.Equal(t, 3, res.Removed)
    assert.Equal(t, `func main(%a i32, %b i32) i32 {
bb_0:
    %3 = intrinsic.i32 @orn(%a, %b)
    %4 = intrinsic.i32 @orn(%a, %3)
    ret %4
}`, fn.String())
}

func TestFusion_ComplementStillUsed(t *testing.T) {
    fn, res := applyPass(t, new(Fusion), `func main(%a i32, %b i32) i32 {
bb_0:
    %0 = xor.i32 %a, $-1
    %1 = or.i32 %0, %b
    %2 = add.i32 %1, %0
    ret %2
}`)
    require.True(t, res.Modified)
    assert.Equal(t, 1, res.Removed)
    assert.Equal(t, `func main(%a i32, %b i32) i32 {
bb_0:
    %0 = xor.i32 %a, $-1
    %3 = intrinsic.i32 @orn(%a, %b)
    %2 = add.i32 %3, %0
    ret %2
}`, fn.String())
}

func TestFusion_AcrossBlocks(t *testing.T) {
    fn, res := applyPass(t, new(Fusion), `func main(%a i32, %b i32, %c i1) i32 {
bb_0:
    %0 = xor.i32 %a, $-1
    br %c, bb_1, bb_2
bb_1:
    %1 = or.i32 %0, %b
    ret %1
bb_2:
    ret %a
}`)
    require.True(t, res.Modified)
    assert.Equal(t, `func main(%a i32, %b i32, %c i1) i32 {
bb_0:
    br %c, bb_1, bb_2
bb_1:
    %2 = intrinsic.i32 @orn(%a, %b)
    ret %2
bb_2:
    ret %a
}`, fn.String())
}

func TestFusion_Entry(t *testing.T) {
    src := `func helper(%a i32, %b i32) i32 {
bb_0:
    %0 = xor.i32 %a, $-1
    %1 = or.i32 %0, %b
    ret %1
}`

    /* only the entry function is fused by default */
    fn, res := applyPass(t, new(Fusion), src)
    require.False(t, res.Modified)
    require.Equal(t, src, fn.String())

    /* an empty entry allows every function */
    o := testOptions()
    o.FusionEntry = ""
    res, err := new(Fusion).Apply(fn, o)
    require.NoError(t, err)
    require.True(t, res.Modified)
    require.Len(t, fn.Entry().Ins, 1)
}

func TestDriver_Logging(t *testing.T) {
    core, logs := observer.New(zapcore.DebugLevel)
    fn := mustParse(t, "func main(%x i32) i32 {\nbb_0:\n    %0 = mul.i32 %x, $8\n    ret %0\n}")
    drv := &Driver { Name: "strength-reduction", Rule: StrengthReduce{}, Logger: zap.New(core) }
    res, err := drv.Run(fn)
    require.NoError(t, err)
    require.True(t, res.Modified)
    entries := logs.FilterMessage("rewrite").All()
    require.Len(t, entries, 1)
    fields := entries[0].ContextMap()
    assert.Equal(t, "strength-reduction", fields["pass"])
    assert.Equal(t, "main", fields["func"])
    assert.Equal(t, "%1 = shl.i32 %x, $3", fields["new"])
    assert.Equal(t, "bb_0.ins[0]", fields["at"])
}

func TestRewriter_States(t *testing.T) {
    fn := mustParse(t, "func main(%x i32) i32 {\nbb_0:\n    %0 = mul.i32 %x, $8\n    ret %0\n}")
    rw := newRewriter(fn)
    require.Equal(t, NotStarted, rw.state)
    require.Panics(t, func() { rw.Schedule(fn.Entry().Ins[0]) })
    require.Panics(t, func() { _, _ = rw.Drain() })
    rw.state = Visiting
    require.True(t, rw.Schedule(fn.Entry().Ins[0]))
    _, err := rw.Drain()
    require.Error(t, err)
    require.Equal(t, Done, rw.state)
    require.Panics(t, func() { rw.Schedule(fn.Entry().Ins[0]) })
}

func TestRewriter_InsertForeign(t *testing.T) {
    f1 := mustParse(t, "func f1() void {\nbb_0:\n    ret\n}")
    f2 := mustParse(t, "func f2() void {\nbb_0:\n    ret\n}")
    rw := newRewriter(f1)
    require.Panics(t, func() {
        rw.Insert(Pos { f2.Entry(), 0 }, &IrBinaryExpr { Op: OpAdd, T: I32, X: Const(I32, 1), Y: Const(I32, 2) })
    })
}

func TestRewriter_ScheduleDeadKeepsOperands(t *testing.T) {
    fn := mustParse(t, `func main(%x i32) i32 {
bb_0:
    %0 = add.i32 %x, $1
    %1 = add.i32 %0, $1
    %2 = call.i32 @f(%1)
    ret %2
}`)
    ins := fn.Entry().Ins
    rw := newRewriter(fn)
    rw.state = Visiting

    /* %1 is kept alive by the call, so %0 must survive as well */
    require.Equal(t, 0, rw.ScheduleDead([]Instr { ins[0], ins[1] }))
    require.Equal(t, 0, rw.work.Len())

    /* both go once the call is scheduled too */
    require.True(t, rw.Schedule(ins[2]))
    require.Equal(t, 2, rw.ScheduleDead([]Instr { ins[1], ins[0] }))
}
