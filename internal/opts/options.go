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

package opts

import (
	"go.uber.org/zap"
)

type Options struct {
	StrengthReduction bool
	Fusion            bool
	FusionEntry       string
	Verify            bool
	MaxWorkers        int
	Logger            *zap.Logger
}

// CanFuse reports whether the fusion pass may touch the named function.
func (self *Options) CanFuse(name string) bool {
	return self.Fusion && (self.FusionEntry == "" || self.FusionEntry == name)
}

func (self *Options) Log() *zap.Logger {
	if self.Logger == nil {
		return zap.NewNop()
	} else {
		return self.Logger
	}
}

func GetDefaultOptions() Options {
	return Options{
		StrengthReduction: StrengthReduction,
		Fusion:            Fusion,
		FusionEntry:       FusionEntry,
		Verify:            Verify,
		MaxWorkers:        MaxWorkers,
	}
}
