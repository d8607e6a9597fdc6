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
	"os"
	"runtime"
	"strconv"
)

const (
	_DefaultFusionEntry = "main" // fusion only rewrites the program entry by default
)

var (
	StrengthReduction = parseBoolOrDefault("PEEPHOLE_STRENGTH_REDUCTION", true)
	Fusion            = parseBoolOrDefault("PEEPHOLE_FUSION", true)
	FusionEntry       = stringOrDefault("PEEPHOLE_FUSION_ENTRY", _DefaultFusionEntry)
	Verify            = parseBoolOrDefault("PEEPHOLE_VERIFY", false)
	MaxWorkers        = parseOrDefault("PEEPHOLE_MAX_WORKERS", runtime.GOMAXPROCS(0), 1)
)

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("peephole: invalid value for " + key)
	} else if ret := int(val); ret < min {
		panic("peephole: value too small for " + key)
	} else {
		return ret
	}
}

func parseBoolOrDefault(key string, def bool) bool {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseBool(env); err != nil {
		panic("peephole: invalid value for " + key)
	} else {
		return val
	}
}

func stringOrDefault(key string, def string) string {
	if env, ok := os.LookupEnv(key); !ok {
		return def
	} else {
		return env
	}
}
