// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/lakehouse-tools/iceberg-prune"
	"github.com/lakehouse-tools/iceberg-prune/table"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

// manifestReport is the outcome for one manifest of a prune run.
type manifestReport struct {
	Path       string `json:"path"`
	SpecID     int32  `json:"spec-id"`
	MightMatch bool   `json:"might-match"`
	// Verified is set when --verify checked a skipped manifest against its
	// partition tuples. MatchingRows counts tuples the filter accepts.
	Verified     bool `json:"verified,omitempty"`
	MatchingRows int  `json:"matching-rows,omitempty"`

	summaries []iceberg.FieldSummary
}

func newReports(verdicts []table.Verdict) []manifestReport {
	out := make([]manifestReport, len(verdicts))
	for i, v := range verdicts {
		out[i] = manifestReport{
			Path:       v.Manifest.FilePath(),
			SpecID:     v.Manifest.PartitionSpecID(),
			MightMatch: v.MightMatch,
			summaries:  v.Manifest.Partitions(),
		}
	}

	return out
}

type specFilter struct {
	SpecID    int32  `json:"spec-id"`
	Filter    string `json:"filter"`
	Rewritten string `json:"rewritten"`
}

type Output interface {
	Manifests([]manifestReport)
	Filters([]specFilter)
	Text(string)
	Error(error)
}

type textOutput struct{}

func (textOutput) Manifests(reports []manifestReport) {
	data := pterm.TableData{{"Manifest", "Spec", "Verdict", "Verified"}}
	kept := 0
	for _, r := range reports {
		verdict := "skip"
		if r.MightMatch {
			verdict = "read"
			kept++
		}

		verified := ""
		if r.Verified {
			verified = "ok"
			if r.MatchingRows > 0 {
				verified = strconv.Itoa(r.MatchingRows) + " matching rows"
			}
		}

		data = append(data, []string{r.Path, strconv.Itoa(int(r.SpecID)), verdict, verified})
	}

	pterm.DefaultTable.
		WithBoxed(true).
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()

	tree := pterm.LeveledList{}
	for _, r := range reports {
		tree = append(tree, pterm.LeveledListItem{Level: 0, Text: r.Path})
		for i, s := range r.summaries {
			tree = append(tree, pterm.LeveledListItem{
				Level: 1, Text: fmt.Sprintf("%d: %s", i, s),
			})
		}
	}

	node := putils.TreeFromLeveledList(tree)
	node.Text = "Partition summaries"
	pterm.DefaultTree.WithRoot(node).Render()

	pterm.Printfln("%d manifests, %d kept, %d skipped", len(reports), kept, len(reports)-kept)
}

func (textOutput) Filters(filters []specFilter) {
	data := pterm.TableData{{"Spec", "Filter", "Rewritten"}}
	for _, f := range filters {
		data = append(data, []string{strconv.Itoa(int(f.SpecID)), f.Filter, f.Rewritten})
	}

	pterm.DefaultTable.
		WithHasHeader(true).
		WithHeaderRowSeparator("-").
		WithData(data).Render()
}

func (textOutput) Text(val string) {
	fmt.Println(val)
}

func (textOutput) Error(err error) {
	log.Fatal(err)
}

type jsonOutput struct{}

func (j jsonOutput) emit(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		j.Error(err)
	}

	fmt.Println(string(data))
}

func (j jsonOutput) Manifests(reports []manifestReport) { j.emit(reports) }
func (j jsonOutput) Filters(filters []specFilter)       { j.emit(filters) }

func (j jsonOutput) Text(val string) {
	j.emit(map[string]string{"text": val})
}

func (jsonOutput) Error(err error) {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	log.Fatal(string(data))
}
