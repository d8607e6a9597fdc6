/*
 * Copyright 2022 CloudWeGo Authors
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

package peephole

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cloudwego/peephole/debug"
)

func buildMulBy(name string, v int64) *Function {
	b := CreateBuilder(name, I32)
	x := b.Param("x", I32)
	b.Ret(b.Mul(x, b.Const(I32, v)))
	return b.Build()
}

func buildOrNot(name string, swap bool) *Function {
	b := CreateBuilder(name, I32)
	x := b.Param("a", I32)
	y := b.Param("b", I32)
	t := b.Not(x)
	if swap {
		b.Ret(b.Or(y, t))
	} else {
		b.Ret(b.Or(t, y))
	}
	return b.Build()
}

func TestRun_StrengthReduction(t *testing.T) {
	fn := buildMulBy("main", 8)
	modified, err := Run(fn, WithVerify(true))
	require.NoError(t, err)
	require.True(t, modified)
	require.Equal(t, "func main(%x i32) i32 {\nbb_0:\n    %1 = shl.i32 %x, $3\n    ret %1\n}", fn.String())

	/* not a power of two */
	fn = buildMulBy("main", 6)
	modified, err = Run(fn, WithVerify(true))
	require.NoError(t, err)
	require.False(t, modified)
	require.Equal(t, "func main(%x i32) i32 {\nbb_0:\n    %0 = mul.i32 %x, $6\n    ret %0\n}", fn.String())
}

func TestRun_Fusion(t *testing.T) {
	fn := buildOrNot("main", false)
	modified, err := Run(fn, WithVerify(true), WithFusionEntry("main"))
	require.NoError(t, err)
	require.True(t, modified)
	require.Equal(t, "func main(%a i32, %b i32) i32 {\nbb_0:\n    %2 = intrinsic.i32 @orn(%a, %b)\n    ret %2\n}", fn.String())

	/* complement as the second operand */
	fn = buildOrNot("main", true)
	old := fn.String()
	modified, err = Run(fn, WithVerify(true), WithFusionEntry("main"))
	require.NoError(t, err)
	require.False(t, modified)
	require.Equal(t, old, fn.String())
}

func TestRun_Options(t *testing.T) {
	fn := buildMulBy("main", 8)
	modified, err := Run(fn, WithStrengthReduction(false))
	require.NoError(t, err)
	require.False(t, modified)

	/* fusion restricted to another function */
	fn = buildOrNot("helper", false)
	modified, err = Run(fn, WithFusion(true), WithFusionEntry("main"))
	require.NoError(t, err)
	require.False(t, modified)
	modified, err = Run(fn, WithFusion(false), WithFusionEntry(""))
	require.NoError(t, err)
	require.False(t, modified)
	modified, err = Run(fn, WithFusion(true), WithFusionEntry(""))
	require.NoError(t, err)
	require.True(t, modified)
}

func TestRun_Malformed(t *testing.T) {
	b := CreateBuilder("main", I32)
	b.Mul(b.Param("x", I32), b.Const(I32, 8))
	_, err := Run(b.Build(), WithVerify(true))
	require.Error(t, err)
	ve, ok := err.(*VerifyError)
	require.True(t, ok)
	require.Len(t, ve.Errors(), 1)
}

func TestRun_Logger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	_, err := Run(buildMulBy("main", 16), WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.Equal(t, 1, logs.FilterMessage("rewrite").Len())
	require.Panics(t, func() { WithLogger(nil) })
}

func TestRunModule(t *testing.T) {
	m := new(Module)
	for i := 0; i < 64; i++ {
		switch i % 3 {
		case 0:
			m.Add(buildMulBy(fmt.Sprintf("mul_%d", i), 1<<(i%31+1)))
		case 1:
			m.Add(buildMulBy(fmt.Sprintf("odd_%d", i), 3))
		case 2:
			m.Add(buildOrNot(fmt.Sprintf("orn_%d", i), false))
		}
	}
	before := debug.GetStats()
	res, err := RunModule(m, WithMaxWorkers(4), WithFusionEntry(""), WithVerify(true))
	require.NoError(t, err)
	require.Len(t, res, 64)
	for _, fn := range m.Funcs {
		require.Equal(t, !strings.HasPrefix(fn.Name, "odd_"), res[fn.Name], fn.Name)
		require.NoError(t, Verify(fn))
	}
	after := debug.GetStats()
	assert.Equal(t, before.Funcs.Visited + 64, after.Funcs.Visited)
	assert.Equal(t, before.Rewrites.Shift + 22, after.Rewrites.Shift)
	assert.Equal(t, before.Rewrites.Fusion + 21, after.Rewrites.Fusion)
}

func TestRunModule_Errors(t *testing.T) {
	m := new(Module)
	m.Add(buildMulBy("good", 8))
	for _, name := range []string{"bad_1", "bad_2"} {
		b := CreateBuilder(name, I32)
		b.Mul(b.Param("x", I32), b.Const(I32, 8))
		m.Add(b.Build())
	}
	res, err := RunModule(m, WithVerify(true))
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 2)
	require.Equal(t, map[string]bool{"good": true, "bad_1": false, "bad_2": false}, res)
}

func TestRunModule_Parsed(t *testing.T) {
	m, err := Parse(`func main(%a i32, %b i32) i32 {
bb_0:
    %0 = xor.i32 %a, $-1
    %1 = or.i32 %0, %b
    %2 = call.i32 @helper(%1)
    ret %2
}

func helper(%x i32) i32 {
bb_0:
    %0 = xor.i32 %x, $-1
    %1 = or.i32 %0, %x
    ret %1
}`)
	require.NoError(t, err)
	res, err := RunModule(m)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"main": true, "helper": false}, res)
	assert.Contains(t, m.Lookup("main").String(), "@orn(%a, %b)")

	/* the helper is left untouched */
	freq := Frequency(m.Lookup("helper"))
	require.Len(t, freq, 3)
	assert.Equal(t, "or", freq[0].Op.String())
	assert.Equal(t, "xor", freq[1].Op.String())
	assert.Equal(t, "ret", freq[2].Op.String())
}

func TestEval(t *testing.T) {
	fn := buildMulBy("main", 1<<5)
	want, err := Eval(fn, []uint64{7}, nil)
	require.NoError(t, err)
	_, err = Run(fn)
	require.NoError(t, err)
	got, err := Eval(fn, []uint64{7}, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(224), want)
	require.Equal(t, want, got)
}

func TestLoadConfig(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "peephole.toml")
	require.NoError(t, os.WriteFile(fp, []byte("enable_strength_reduction = false\nfusion_entry = \"\"\n"), 0644))
	opt, err := LoadConfig(fp)
	require.NoError(t, err)

	/* strength reduction is disabled by the file */
	fn := buildMulBy("main", 8)
	modified, err := Run(fn, opt)
	require.NoError(t, err)
	require.False(t, modified)

	/* fusion is allowed everywhere */
	fn = buildOrNot("helper", false)
	modified, err = Run(fn, opt)
	require.NoError(t, err)
	require.True(t, modified)

	/* later options take precedence */
	fn = buildMulBy("main", 8)
	modified, err = Run(fn, opt, WithStrengthReduction(true))
	require.NoError(t, err)
	require.True(t, modified)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadConfig(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
	fp := filepath.Join(dir, "typo.toml")
	require.NoError(t, os.WriteFile(fp, []byte("enable_fussion = true\n"), 0644))
	_, err = LoadConfig(fp)
	require.Error(t, err)
}

func TestOptions_Invalid(t *testing.T) {
	require.Panics(t, func() { WithMaxWorkers(0) })
	require.NotPanics(t, func() { WithMaxWorkers(1) })
}

func TestSetFusionEntry(t *testing.T) {
	old := SetFusionEntry("helper")
	defer SetFusionEntry(old)
	fn := buildOrNot("helper", false)
	modified, err := Run(fn)
	require.NoError(t, err)
	require.True(t, modified)
}
