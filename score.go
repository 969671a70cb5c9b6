package mdo

import (
	"fmt"
	"math"
)

// ScoreRecord is the terminal result of one evaluation.
type ScoreRecord struct {
	Geometry         string  `json:"geometry"`
	EmptyMass        float64 `json:"empty_mass"` // kg
	MTOW             float64 `json:"mtow"`       // kg, zero if the takeoff could not be solved
	Payload          float64 `json:"payload"`    // kg, MTOW - EmptyMass
	Penalty          float64 `json:"penalty"`
	RawScore         float64 `json:"raw_score"`         // Payload - Penalty
	CompetitionScore float64 `json:"competition_score"` // PVOO
	Feasible         bool    `json:"feasible"`
}

func (r ScoreRecord) String() string {
	return fmt.Sprintf("%s: empty=%.3f kg MTOW=%.3f kg payload=%.3f kg penalty=%.2f raw=%.3f PVOO=%.3f feasible=%v", r.Geometry, r.EmptyMass, r.MTOW, r.Payload, r.Penalty, r.RawScore, r.CompetitionScore, r.Feasible)
}

// bandPenalty returns the penalty of a value outside of [min, max].
func (p Penalties) bandPenalty(value, min, max float64) float64 {
	switch {
	case value > max:
		return p.Base + p.Slope*(value-max)
	case value < min:
		return p.Base + p.Slope*(min-value)
	}
	return 0
}

// Total returns the sum of the trim angle and the CG position penalties.
func (p Penalties) Total(trimAlpha, cgFraction float64) float64 {
	return p.bandPenalty(trimAlpha, p.TrimAlphaMin, p.TrimAlphaMax) + p.bandPenalty(cgFraction, p.CGFractionMin, p.CGFractionMax)
}

// allowedPayload caps the payload so that the total mass stays within the competition limit.
func (sc ScoreConstants) allowedPayload(emptyMass, payload float64) float64 {
	return math.Max(0, math.Min(payload, sc.MaxWeight-emptyMass))
}

// pvoo is the flight score: FPV × FPR × PEE × (0.185N² − 0.775N + 1.81) × 1.15^−b.
func (sc ScoreConstants) pvoo(emptyMass, payload, span float64) float64 {
	ee := payload / emptyMass
	pee := sc.EfficiencyFactor * ee
	fpr := math.Min(1, 0.5+0.75*sc.ReportGrade/185)
	nh := float64(sc.HorizontalSurfaces)
	horizontal := 0.185*nh*nh - 0.775*nh + 1.81
	wingspan := math.Pow(1.15, -span)
	return sc.FlightPrediction * fpr * pee * horizontal * wingspan
}

// CompetitionScore returns the flight score of an aircraft carrying payload (kg). The payload
// is capped so that the total mass does not exceed MaxWeight.
func CompetitionScore(emptyMass, payload, span float64, sc ScoreConstants) (float64, error) {
	if !(emptyMass > 0) {
		return 0, invalidInput("empty mass %g kg", emptyMass)
	}
	return sc.pvoo(emptyMass, sc.allowedPayload(emptyMass, payload), span), nil
}

// GrandTotal adds the report, presentation and flight video grades to a flight score.
func (sc ScoreConstants) GrandTotal(pvoo float64) float64 {
	return pvoo + sc.Presentation + sc.FlightVideo + sc.ReportGrade
}

// ScoreRow is one line of a ScoreTable.
type ScoreRow struct {
	Payload float64 // kg
	PVOO    float64
	Total   float64
}

// ScoreTable is the flight score of an aircraft from the minimum to the allowed payload.
type ScoreTable []ScoreRow

// NewScoreTable returns the score in five steps from the minimum payload (or zero if the
// aircraft cannot carry it) up to the allowed payload.
func NewScoreTable(emptyMass, payload, span float64, sc ScoreConstants) (ScoreTable, error) {
	if !(emptyMass > 0) {
		return nil, invalidInput("empty mass %g kg", emptyMass)
	}
	allowed := sc.allowedPayload(emptyMass, payload)
	min := sc.MinPayload
	if min > allowed {
		min = 0
	}
	steps := 5
	if allowed <= min {
		steps = 0
	}
	table := make(ScoreTable, 0, steps+1)
	for i := 0; i <= steps; i++ {
		cp := min
		if steps > 0 {
			cp += (allowed - min) * float64(i) / float64(steps)
		}
		pvoo := sc.pvoo(emptyMass, cp, span)
		table = append(table, ScoreRow{Payload: cp, PVOO: pvoo, Total: sc.GrandTotal(pvoo)})
	}
	return table, nil
}
