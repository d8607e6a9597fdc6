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
    `math`
    `strconv`
    `strings`
)

// Type is the bit width of an integer value, or zero for void.
type Type uint8

const (
    Void Type = 0
    I1   Type = 1
    I8   Type = 8
    I16  Type = 16
    I32  Type = 32
    I64  Type = 64
)

func ParseType(s string) (Type, bool) {
    if s == "void" {
        return Void, true
    } else if !strings.HasPrefix(s, "i") {
        return Void, false
    } else if n, err := strconv.ParseUint(s[1:], 10, 8); err != nil || n < 1 || n > 64 {
        return Void, false
    } else {
        return Type(n), true
    }
}

func (self Type) Valid() bool {
    return self >= 1 && self <= 64
}

func (self Type) Bits() int {
    return int(self)
}

// Mask returns the all-bits-set value of the type.
func (self Type) Mask() uint64 {
    if self >= 64 {
        return math.MaxUint64
    } else {
        return (uint64(1) << self) - 1
    }
}

func (self Type) trunc(v uint64) uint64 {
    return v & self.Mask()
}

func (self Type) sext(v uint64) int64 {
    if !self.Valid() {
        return 0
    } else {
        return int64(v << (64 - self)) >> (64 - self)
    }
}

func (self Type) String() string {
    if self == Void {
        return "void"
    } else {
        return fmt.Sprintf("i%d", uint8(self))
    }
}
