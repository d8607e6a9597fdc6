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

package debug

import (
	"sync/atomic"

	"github.com/cloudwego/peephole/internal/ssa"
)

// A Stats records statistics about the rewrite engine, accumulated over the
// lifetime of the process.
type Stats struct {
	Funcs    FuncStats    `json:"funcs"`
	Rewrites RewriteStats `json:"rewrites"`
}

// A FuncStats records how many functions went through the engine.
type FuncStats struct {
	Visited  int `json:"visited"`
	Modified int `json:"modified"`
}

// A RewriteStats records the rewrites performed by each pass, and the
// instructions they left dead.
type RewriteStats struct {
	Shift   int `json:"shift"`
	Fusion  int `json:"fusion"`
	Removed int `json:"removed"`
}

// GetStats returns statistics of the rewrite engine.
func GetStats() Stats {
	return Stats{
		Funcs: FuncStats{
			Visited:  int(atomic.LoadUint64(&ssa.FuncCount)),
			Modified: int(atomic.LoadUint64(&ssa.ModifiedCount)),
		},
		Rewrites: RewriteStats{
			Shift:   int(atomic.LoadUint64(&ssa.ShiftCount)),
			Fusion:  int(atomic.LoadUint64(&ssa.FusionCount)),
			Removed: int(atomic.LoadUint64(&ssa.RemovedCount)),
		},
	}
}
