package mdo

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// ExportRecord is one evaluated design of a sweep.
type ExportRecord struct {
	Run        string // identifier of the sweep
	Index      int
	Design     Design
	Evaluation Evaluation
}

var exportHeader = []string{
	"run", "index", "geometry", "wing_span", "wing_root_chord", "wing_taper", "tail_x",
	"empty_mass", "mtow", "payload", "penalty", "raw_score", "pvoo", "feasible",
	"trim_alpha", "static_margin", "stall_alpha", "cl_max",
	"wing_ar", "tail_ar", "vht", "vvt", "cg_fraction", "low_cg", "stall_margin", "violations", "failed",
}

// ToCSV returns the CSV row of this record.
func (r ExportRecord) ToCSV() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	ev := r.Evaluation
	rec := ev.Record
	sz := ev.Sizing
	failed := make([]string, 0, len(ev.Outcomes))
	for _, o := range ev.Failures() {
		failed = append(failed, o.Stage.String())
	}
	return []string{
		r.Run, strconv.Itoa(r.Index), rec.Geometry,
		f(r.Design.WingSpan), f(r.Design.WingRootChord), f(r.Design.WingTaper), f(r.Design.TailX),
		f(rec.EmptyMass), f(rec.MTOW), f(rec.Payload), f(rec.Penalty), f(rec.RawScore), f(rec.CompetitionScore),
		strconv.FormatBool(rec.Feasible),
		f(ev.Trim.Alpha), f(ev.Trim.StaticMargin), f(ev.Stall.Alpha), f(ev.Stall.CL),
		f(sz.WingAspectRatio), f(sz.TailAspectRatio), f(sz.TailVolume), f(sz.FinVolume), f(sz.CGFraction), f(sz.LowCG), f(sz.StallMargin),
		strings.Join(sz.Violations, ";"), strings.Join(failed, ";"),
	}
}

// ExportConfig configures the exporting of a sweep.
type ExportConfig struct {
	Filename  string
	OutputDir string
	AsCSV     bool
	Summary   bool // JSON file with the best design
	Timestamp bool
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV && !c.Summary
}

func (c ExportConfig) path(kind, ext string) string {
	name := c.Filename
	if c.Timestamp {
		t := time.Now()
		name = fmt.Sprintf("%s-%d-%02d-%02dT%02d.%02d.%02d", name, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	}
	return filepath.Join(c.OutputDir, fmt.Sprintf("%s-%s.%s", kind, name, ext))
}

// createCSVFile returns a file which requires a defer close statement!
func createCSVFile(conf ExportConfig, run string) (*os.File, error) {
	f, err := os.Create(conf.path("sweep", "csv"))
	if err != nil {
		return nil, err
	}
	// Header
	now := time.Now().UTC()
	if _, err := fmt.Fprintf(f, `# Creation date (UTC): %s (JD %.5f)
# Sweep run %s
#   Masses in kg, angles in degrees, static margin as a fraction of the MAC, low_cg in m.
#   violations lists the sizing bands the design is outside of.
`, now, julian.TimeToJD(now), run); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// ExportSummary summarizes a streamed sweep.
type ExportSummary struct {
	Run       string        `json:"run"`
	CreatedJD float64       `json:"created_jd"`
	Count     int           `json:"count"`
	Feasible  int           `json:"feasible"`
	Retained  int           `json:"retained"` // feasible and within all the sizing bands
	Best      *ScoreRecord  `json:"best,omitempty"`
	Design    *Design       `json:"design,omitempty"`
	Files     []string      `json:"-"`
	Duration  time.Duration `json:"duration"`
}

// StreamRecords writes the records of the channel until it is closed. The best design is the
// feasible one with the highest raw score among those without any sizing violation.
func StreamRecords(conf ExportConfig, records <-chan ExportRecord) (summary ExportSummary, err error) {
	start := time.Now()
	summary.CreatedJD = julian.TimeToJD(start.UTC())
	var f *os.File
	var w *csv.Writer
	defer func() {
		if w != nil {
			w.Flush()
			if ferr := w.Error(); ferr != nil && err == nil {
				err = ferr
			}
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		summary.Duration = time.Since(start)
		if conf.Summary && err == nil {
			// Let's write the summary.
			path := conf.path("summary", "json")
			marsh, merr := json.MarshalIndent(summary, "", "  ")
			if merr == nil {
				merr = os.WriteFile(path, marsh, 0o644)
			}
			if merr != nil {
				err = merr
				return
			}
			summary.Files = append(summary.Files, path)
		}
	}()

	for rec := range records {
		if summary.Count == 0 {
			summary.Run = rec.Run
			if conf.AsCSV {
				if f, err = createCSVFile(conf, rec.Run); err != nil {
					return summary, err
				}
				summary.Files = append(summary.Files, f.Name())
				w = csv.NewWriter(f)
				if err = w.Write(exportHeader); err != nil {
					return summary, err
				}
			}
		}
		summary.Count++
		score := rec.Evaluation.Record
		if score.Feasible {
			summary.Feasible++
		}
		if score.Feasible && len(rec.Evaluation.Sizing.Violations) == 0 {
			summary.Retained++
			if summary.Best == nil || score.RawScore > summary.Best.RawScore {
				design := rec.Design
				summary.Best, summary.Design = &score, &design
			}
		}
		if w != nil {
			if err = w.Write(rec.ToCSV()); err != nil {
				return summary, err
			}
		}
	}
	return summary, nil
}
