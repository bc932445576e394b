package dataprocessing

import (
	"math"

	"dtxcli/pkg/contracts/domain"
)

// Policy selects the normalization strategy for the transformation index.
// Both policies are valid historical variants; the per-year policy is the
// default because it guarantees every year a visible leader.
type Policy string

const (
	// PolicyYearRelative scores each record against the maximum total
	// keyword frequency within its own year group.
	PolicyYearRelative Policy = "year-relative"
	// PolicyGlobalMinMax min-max normalizes a precomputed composite index
	// over the entire table, all years combined.
	PolicyGlobalMinMax Policy = "global-minmax"
)

// Valid reports whether p names a known policy.
func (p Policy) Valid() bool {
	return p == PolicyYearRelative || p == PolicyGlobalMinMax
}

// Calculator derives the bounded transformation index for every record of a
// consolidated table. It is a pure transform: the input table is never
// mutated and the returned table has identical shape.
type Calculator struct {
	policy Policy

	// forceZero controls the global min-max policy's pre-step that zeroes
	// the source index of records whose frequencies are all zero.
	forceZero bool
}

// NewCalculator creates a calculator for the given policy. An unknown policy
// falls back to the per-year default.
func NewCalculator(policy Policy) *Calculator {
	if !policy.Valid() {
		policy = PolicyYearRelative
	}
	return &Calculator{policy: policy, forceZero: true}
}

// Policy returns the active normalization policy.
func (c *Calculator) Policy() Policy { return c.policy }

// Calculate returns a copy of the table with TransformationIndex populated
// on every record. An empty input propagates as an empty output.
func (c *Calculator) Calculate(table *domain.ConsolidatedTable) *domain.ConsolidatedTable {
	if table.Empty() {
		return table.Clone()
	}
	out := table.Clone()
	switch c.policy {
	case PolicyGlobalMinMax:
		c.applyGlobalMinMax(out)
	default:
		c.applyYearRelative(out)
	}
	return out
}

// applyYearRelative implements the per-year share-of-maximum policy: within
// each period group the leader scores 100 and everyone else scores their
// share of the leader's total. Groups key on the full period (numeric year
// or sheet tag), so records from distinct tag-only sheets are normalized
// independently. A period where every company has zero total frequency
// scores 0 across the board, without touching the division.
func (c *Calculator) applyYearRelative(table *domain.ConsolidatedTable) {
	periodMax := make(map[domain.Period]int64)
	for i := range table.Records {
		r := &table.Records[i]
		if total := r.FrequencyTotal(); total > periodMax[r.Period()] {
			periodMax[r.Period()] = total
		}
	}

	for i := range table.Records {
		r := &table.Records[i]
		total := r.FrequencyTotal()
		max := periodMax[r.Period()]
		if total == 0 || max == 0 {
			// Zero-frequency records are forced to 0 regardless of the
			// formula, guarding floating-point edge cases.
			r.TransformationIndex = 0
			continue
		}
		r.TransformationIndex = clip(round2(float64(total) / float64(max) * 100))
	}
}

// applyGlobalMinMax implements the global min-max policy over the source
// composite index. Min and max are taken among nonzero entries only; if no
// nonzero entry exists every index is 0. Records without a source index fall
// back to their frequency total, so workbooks lacking the composite column
// still normalize meaningfully.
func (c *Calculator) applyGlobalMinMax(table *domain.ConsolidatedTable) {
	source := make([]float64, len(table.Records))
	for i := range table.Records {
		r := &table.Records[i]
		v := r.SourceIndex
		if !r.HasSourceIndex {
			v = float64(r.FrequencyTotal())
		}
		if c.forceZero && r.FrequencyTotal() == 0 {
			v = 0
		}
		source[i] = v
	}

	min, max, any := nonzeroBounds(source)
	if !any {
		for i := range table.Records {
			table.Records[i].TransformationIndex = 0
		}
		return
	}

	span := max - min
	for i := range table.Records {
		r := &table.Records[i]
		if source[i] == 0 {
			r.TransformationIndex = 0
			continue
		}
		if span == 0 {
			// Degenerate single-value group: every nonzero entry is the
			// observed maximum.
			r.TransformationIndex = 100
			continue
		}
		r.TransformationIndex = clip(round2((source[i] - min) / span * 100))
	}
}

func nonzeroBounds(values []float64) (min, max float64, any bool) {
	for _, v := range values {
		if v == 0 {
			continue
		}
		if !any {
			min, max, any = v, v, true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, any
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clip(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
