package mdo

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportRecords(n int) []ExportRecord {
	recs := make([]ExportRecord, n)
	for i := range recs {
		d := DefaultDesign()
		d.WingSpan = 2 + 0.1*float64(i)
		ev := Evaluation{
			Stall: StallState{Alpha: 14, CL: 1.5, Stalled: true, Valid: true},
			Trim:  TrimState{Alpha: 1.8, StaticMargin: 0.2, Valid: true},
			Record: ScoreRecord{
				Geometry:  "design",
				EmptyMass: 3,
				MTOW:      9 + float64(i),
				Payload:   6 + float64(i),
				RawScore:  6 + float64(i),
				Feasible:  i != 1,
			},
		}
		ev.Sizing = Sizing{WingAspectRatio: 6.7, TailAspectRatio: 4, TailVolume: 0.53, FinVolume: 0.027, CGFraction: 0.26, LowCG: 0.05, StallMargin: 12}
		if i == 2 {
			ev.Sizing.TailVolume = 0.9
			ev.Sizing.Violations = []string{"tail_volume"}
		}
		if i == 1 {
			ev.Record = ScoreRecord{Geometry: "design", EmptyMass: 3}
			ev.Outcomes = []StageOutcome{{Stage: StageMTOW, Err: ErrMissingInput}, {Stage: StageScore, Err: ErrMissingInput}}
		}
		recs[i] = ExportRecord{Run: "run", Index: i, Design: d, Evaluation: ev}
	}
	return recs
}

func stream(t *testing.T, conf ExportConfig, recs []ExportRecord) ExportSummary {
	t.Helper()
	ch := make(chan ExportRecord, len(recs))
	for _, r := range recs {
		ch <- r
	}
	close(ch)
	summary, err := StreamRecords(conf, ch)
	require.NoError(t, err)
	return summary
}

func TestStreamRecords(t *testing.T) {
	dir := t.TempDir()
	conf := ExportConfig{Filename: "test", OutputDir: dir, AsCSV: true, Summary: true}
	summary := stream(t, conf, exportRecords(3))

	assert.Equal(t, "run", summary.Run)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 2, summary.Feasible)
	// The heaviest lifter is outside of the tail volume band.
	assert.Equal(t, 1, summary.Retained)
	require.NotNil(t, summary.Best)
	assert.Equal(t, 6.0, summary.Best.Payload)
	require.NotNil(t, summary.Design)
	assert.InDelta(t, 2.0, summary.Design.WingSpan, 1e-12)
	assert.Greater(t, summary.CreatedJD, 2.46e6)
	require.Len(t, summary.Files, 2)

	f, err := os.Open(filepath.Join(dir, "sweep-test.csv"))
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.Comment = '#'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, "1", rows[2][1])
	assert.Equal(t, "false", rows[2][13])
	assert.Equal(t, "mtow;score", rows[2][len(exportHeader)-1])
	assert.Equal(t, "", rows[1][len(exportHeader)-1])
	assert.Equal(t, "tail_volume", rows[3][len(exportHeader)-2])
	assert.Equal(t, "0.530000", rows[1][20])

	raw, err := os.ReadFile(filepath.Join(dir, "summary-test.json"))
	require.NoError(t, err)
	var decoded ExportSummary
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 3, decoded.Count)
	assert.Equal(t, 6.0, decoded.Best.Payload)
	for _, key := range []string{`"empty_mass"`, `"raw_score"`, `"wing_span"`, `"created_jd"`} {
		assert.Contains(t, string(raw), key)
	}
	assert.NotContains(t, string(raw), `"EmptyMass"`)
}

func TestStreamRecordsEmpty(t *testing.T) {
	dir := t.TempDir()
	summary := stream(t, ExportConfig{Filename: "empty", OutputDir: dir, AsCSV: true}, nil)
	assert.Zero(t, summary.Count)
	assert.Nil(t, summary.Best)
	assert.Empty(t, summary.Files)
	_, err := os.Stat(filepath.Join(dir, "sweep-empty.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestStreamRecordsBadDir(t *testing.T) {
	ch := make(chan ExportRecord, 1)
	ch <- exportRecords(1)[0]
	close(ch)
	_, err := StreamRecords(ExportConfig{Filename: "x", OutputDir: filepath.Join(t.TempDir(), "missing"), AsCSV: true}, ch)
	assert.Error(t, err)
}

func TestExportConfigUseless(t *testing.T) {
	assert.True(t, ExportConfig{Filename: "x"}.IsUseless())
	assert.False(t, ExportConfig{AsCSV: true}.IsUseless())
	assert.False(t, ExportConfig{Summary: true}.IsUseless())
}
