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
    `html`
    `strings`

    `github.com/oleiade/lane`
)

type _Edge struct {
    A int
    B int
}

func dotrow(ss string) string {
    return fmt.Sprintf("<tr><td align=\"left\">%s</td></tr>\n", strings.ReplaceAll(html.EscapeString(ss), " ", "&nbsp;"))
}

func dotbb(bb *BasicBlock, pred []*BasicBlock) string {
    var w int
    var ins []string
    var term []string

    /* instructions */
    for _, v := range bb.Ins {
        ss := v.String()
        ins = append(ins, dotrow(ss))
        if len(ss) > w {
            w = len(ss)
        }
    }

    /* the terminator */
    ss := "<unterminated>"
    if bb.Term != nil {
        ss = bb.Term.String()
    }

    /* add the terminator row */
    term = append(term, dotrow(ss))
    if len(ss) > w {
        w = len(ss)
    }

    /* predecessors */
    var pv []string
    for _, p := range pred {
        pv = append(pv, fmt.Sprintf("bb_%d", p.Id))
    }

    /* block metadata */
    meta := fmt.Sprintf("# pred = {%s}", strings.Join(pv, ", "))
    if len(meta) > w {
        w = len(meta)
    }

    /* build the table */
    buf := []string {
        "<table border=\"1\" cellborder=\"0\" cellspacing=\"0\">\n",
        fmt.Sprintf("<tr><td width=\"%d\">bb_%d</td></tr>\n", w * 10 + 5, bb.Id),
        "<hr/>\n",
        dotrow(meta),
    }

    /* instructions, if any */
    if len(ins) != 0 {
        buf = append(buf, "<hr/>\n")
        buf = append(buf, ins...)
    }

    /* terminator is always there */
    buf = append(buf, "<hr/>\n")
    buf = append(buf, term...)
    buf = append(buf, "</table>")
    return strings.Join(buf, "")
}

func edgeLabel(bb *BasicBlock, i int) string {
    switch bb.Term.(type) {
        case *IrCondBranch : if i == 0 { return "true" } else { return "false" }
        default            : return "goto"
    }
}

// DotGraph renders the control flow graph of fn reachable from the entry
// block in Graphviz DOT format.
func DotGraph(fn *Function) string {
    q := lane.NewQueue()
    n := make(map[int]bool)
    e := make(map[_Edge]bool)
    p := make(map[*BasicBlock][]*BasicBlock)

    /* graph header */
    buf := []string {
        "digraph CFG {",
        `    graph [ fontname = "Fira Code" ]`,
        `    node [ fontname = "Fira Code" fontsize = "16" shape = "plaintext" ]`,
        `    edge [ fontname = "Fira Code" ]`,
        `    START [ shape = "circle" ]`,
    }

    /* empty function */
    if fn.Entry() == nil {
        return strings.Join(append(buf, "}"), "\n")
    }

    /* build the predecessor table */
    for _, bb := range fn.Blocks {
        for _, s := range bb.Successors() {
            p[s] = append(p[s], bb)
        }
    }

    /* breadth-first walk from the entry */
    buf = append(buf, fmt.Sprintf(`    START -> bb_%d`, fn.Entry().Id))
    for q.Enqueue(fn.Entry()); !q.Empty(); {
        bb := q.Dequeue().(*BasicBlock)

        /* multiple edges may lead to the same block */
        if n[bb.Id] {
            continue
        }

        /* add the node */
        n[bb.Id] = true
        buf = append(buf, fmt.Sprintf(`    bb_%d [ label = < %s > ]`, bb.Id, dotbb(bb, p[bb])))

        /* add all the edges */
        for i, s := range bb.Successors() {
            if !n[s.Id] {
                q.Enqueue(s)
            }
            if edge := (_Edge { bb.Id, s.Id }); !e[edge] {
                e[edge] = true
                buf = append(buf, fmt.Sprintf(`    bb_%d -> bb_%d [ label = "%s" ]`, bb.Id, s.Id, edgeLabel(bb, i)))
            }
        }
    }

    /* close the graph */
    buf = append(buf, "}")
    return strings.Join(buf, "\n")
}
