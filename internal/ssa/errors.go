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

    `go.uber.org/multierr`
)

// InvariantError occures when a rewrite would leave the IR ill-formed, such as
// removing an instruction that is still in use. It is a bug in the engine.
type InvariantError struct {
    Func   string
    Node   string
    Reason string
}

func (self *InvariantError) Error() string {
    if self.Node == "" {
        return fmt.Sprintf("invariant violated in function %s: %s", self.Func, self.Reason)
    } else {
        return fmt.Sprintf("invariant violated in function %s at `%s`: %s", self.Func, self.Node, self.Reason)
    }
}

// VerifyError occures when a function is not well-formed. Err holds every
// violation found, use Errors to enumerate them.
type VerifyError struct {
    Func string
    Err  error
}

func (self *VerifyError) Error() string {
    return fmt.Sprintf("function %s is ill-formed: %v", self.Func, self.Err)
}

func (self *VerifyError) Unwrap() error {
    return self.Err
}

func (self *VerifyError) Errors() []error {
    return multierr.Errors(self.Err)
}

// SyntaxError occures when failed to parse the textual form of the IR.
type SyntaxError struct {
    Line   int
    Src    string
    Reason string
}

func (self *SyntaxError) Error() string {
    return fmt.Sprintf("syntax error at line %d: %s", self.Line, self.Reason)
}

func einvariant(fn *Function, node IrNode, reason string, args ...interface{}) *InvariantError {
    ret := &InvariantError {
        Func   : fn.Name,
        Reason : fmt.Sprintf(reason, args...),
    }

    /* the offending node is optional */
    if node != nil {
        ret.Node = node.String()
    }

    /* all done */
    return ret
}

func esyntax(line int, src string, reason string, args ...interface{}) *SyntaxError {
    return &SyntaxError {
        Line   : line,
        Src    : src,
        Reason : fmt.Sprintf(reason, args...),
    }
}
