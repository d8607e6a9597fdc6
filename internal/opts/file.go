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
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// File is the TOML form of Options, absent keys leave the options untouched.
type File struct {
	EnableStrengthReduction *bool   `toml:"enable_strength_reduction"`
	EnableFusion            *bool   `toml:"enable_fusion"`
	FusionEntry             *string `toml:"fusion_entry"`
	Verify                  *bool   `toml:"verify"`
	MaxWorkers              *int    `toml:"max_workers"`
}

func ParseFile(data []byte) (*File, error) {
	ret := new(File)
	dec := toml.NewDecoder(bytes.NewReader(data))

	/* reject unknown keys, they are most likely typos */
	if err := dec.DisallowUnknownFields().Decode(ret); err != nil {
		return nil, err
	}

	/* check the worker count */
	if ret.MaxWorkers != nil && *ret.MaxWorkers < 1 {
		return nil, fmt.Errorf("max_workers must be positive, got %d", *ret.MaxWorkers)
	}

	/* all done */
	return ret, nil
}

func LoadFile(path string) (*File, error) {
	if data, err := os.ReadFile(path); err != nil {
		return nil, err
	} else if ret, err := ParseFile(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	} else {
		return ret, nil
	}
}

func (self *File) Apply(o *Options) {
	if self.EnableStrengthReduction != nil {
		o.StrengthReduction = *self.EnableStrengthReduction
	}
	if self.EnableFusion != nil {
		o.Fusion = *self.EnableFusion
	}
	if self.FusionEntry != nil {
		o.FusionEntry = *self.FusionEntry
	}
	if self.Verify != nil {
		o.Verify = *self.Verify
	}
	if self.MaxWorkers != nil {
		o.MaxWorkers = *self.MaxWorkers
	}
}
