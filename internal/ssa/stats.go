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
    `sort`
    `sync/atomic`
)

var (
    FuncCount     uint64
    ModifiedCount uint64
    ShiftCount    uint64
    FusionCount   uint64
    RemovedCount  uint64
)

func addFuncCount() {
    atomic.AddUint64(&FuncCount, 1)
}

func addModifiedCount() {
    atomic.AddUint64(&ModifiedCount, 1)
}

func addPassCount(p Pass, res Result) {
    switch p.(type) {
        case *StrengthReduce : atomic.AddUint64(&ShiftCount, uint64(res.Rewrites))
        case *Fusion         : atomic.AddUint64(&FusionCount, uint64(res.Rewrites))
    }
    atomic.AddUint64(&RemovedCount, uint64(res.Removed))
}

type OpcodeCount struct {
    Op    Opcode `json:"op"`
    Count int    `json:"count"`
}

// Frequency counts the instructions of fn by opcode, terminators included.
// The most frequent opcodes come first.
func Frequency(fn *Function) []OpcodeCount {
    ret := make([]OpcodeCount, 0, 8)
    idx := make(map[Opcode]int)

    /* count every node */
    fn.ForEach(func(_ *BasicBlock, node IrNode) {
        if i, ok := idx[node.Opcode()]; ok {
            ret[i].Count++
        } else {
            idx[node.Opcode()] = len(ret)
            ret = append(ret, OpcodeCount { Op: node.Opcode(), Count: 1 })
        }
    })

    /* sort by frequency, then by opcode */
    sort.Slice(ret, func(i int, j int) bool {
        if ret[i].Count != ret[j].Count {
            return ret[i].Count > ret[j].Count
        } else {
            return ret[i].Op < ret[j].Op
        }
    })

    /* all done */
    return ret
}
