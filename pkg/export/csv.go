// Package export writes trial data files and session manifests.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/trial"
)

// Columns is the data file header, in order.
var Columns = []string{
	"participant",
	"session",
	"block_number",
	"trial_number",
	"trial_in_block_num",
	"trial_type",
	"probability_type",
	"sequence_used",
	"stimulus_position_num",
	"rt_non_cumulative_s",
	"rt_cumulative_s",
	"correct_key_pressed",
	"response_key_pressed",
	"correct_response",
	"is_nogo",
	"is_practice",
	"epoch",
	"mind_wandering_rating_1",
	"mind_wandering_rating_2",
	"mind_wandering_rating_3",
	"mind_wandering_rating_4",
}

// CSVDialect specifies the CSV format variant.
type CSVDialect string

const (
	// DialectStandard uses RFC 4180 compliant CSV.
	DialectStandard CSVDialect = "standard"

	// DialectTSV uses tab-separated values instead of comma.
	DialectTSV CSVDialect = "tsv"
)

// CSVConfig specifies options for CSV export.
type CSVConfig struct {
	Dialect       CSVDialect
	IncludeHeader bool

	// Precision is the number of decimals for reaction times; -1 writes
	// the shortest exact representation.
	Precision int

	// NAString is written for missing reaction times. Empty by default,
	// as earlier data sets leave the field blank.
	NAString string
}

// DefaultCSVConfig returns the format existing analysis scripts expect.
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{
		Dialect:       DialectStandard,
		IncludeHeader: true,
		Precision:     -1,
		NAString:      "",
	}
}

// CSVWriter writes trial records to CSV format.
type CSVWriter struct {
	config      *CSVConfig
	writer      *csv.Writer
	headerDone  bool
	rowsWritten int
}

// NewCSVWriter creates a CSVWriter on w. If config is nil,
// DefaultCSVConfig() is used.
func NewCSVWriter(w io.Writer, config *CSVConfig) *CSVWriter {
	if config == nil {
		config = DefaultCSVConfig()
	}

	csvWriter := csv.NewWriter(w)
	if config.Dialect == DialectTSV {
		csvWriter.Comma = '\t'
	}

	return &CSVWriter{config: config, writer: csvWriter}
}

// WriteHeader writes the header row once.
func (cw *CSVWriter) WriteHeader() error {
	if cw.headerDone {
		return nil
	}
	if err := cw.writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	cw.headerDone = true
	return nil
}

// Write writes one record, preceded by the header on first use.
func (cw *CSVWriter) Write(r *trial.Record) error {
	if cw.config.IncludeHeader && !cw.headerDone {
		if err := cw.WriteHeader(); err != nil {
			return err
		}
	}

	if err := cw.writer.Write(cw.FormatRecord(r)); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	cw.rowsWritten++
	return nil
}

// WriteAll writes every record.
func (cw *CSVWriter) WriteAll(records []trial.Record) error {
	if cw.config.IncludeHeader {
		if err := cw.WriteHeader(); err != nil {
			return err
		}
	}
	for i := range records {
		if err := cw.Write(&records[i]); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CSVWriter) Flush() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// RowsWritten returns the number of data rows written.
func (cw *CSVWriter) RowsWritten() int {
	return cw.rowsWritten
}

// FormatRecord renders a record as a row matching Columns.
func (cw *CSVWriter) FormatRecord(r *trial.Record) []string {
	return []string{
		r.Participant,
		r.Session,
		strconv.Itoa(r.Block),
		strconv.Itoa(r.TrialNumber),
		strconv.Itoa(r.TrialInBlock),
		r.Type.String(),
		r.Class.String(),
		r.SequenceUsed,
		strconv.Itoa(int(r.Position)),
		cw.formatRT(r.RTNonCumulative),
		cw.formatRT(r.RTCumulative),
		r.CorrectKey,
		r.ResponseKey,
		formatBool(r.Correct),
		formatBool(r.NoGo),
		formatBool(r.Practice),
		strconv.Itoa(r.Epoch),
		r.MindWandering[0],
		r.MindWandering[1],
		r.MindWandering[2],
		r.MindWandering[3],
	}
}

func (cw *CSVWriter) formatRT(v *float64) string {
	if v == nil {
		return cw.config.NAString
	}
	return strconv.FormatFloat(*v, 'f', cw.config.Precision, 64)
}

// formatBool matches the True/False spelling of earlier data sets.
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// WriteFile replaces path with a CSV of all records. The data is written
// to a temporary file in the same directory and renamed into place, so a
// crash never leaves a truncated data file behind.
func WriteFile(path string, records []trial.Record, config *CSVConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return werrors.IOWrap(err, werrors.ErrIOPermissionDenied, dir, "failed to create data directory")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return werrors.IOWrap(err, werrors.ErrIOWriteFailed, path, "failed to create temporary data file")
	}
	defer os.Remove(tmp.Name())

	cw := NewCSVWriter(tmp, config)
	if err := cw.WriteAll(records); err != nil {
		tmp.Close()
		return werrors.IOWrap(err, werrors.ErrIOWriteFailed, path, "failed to write data")
	}
	if err := cw.Flush(); err != nil {
		tmp.Close()
		return werrors.IOWrap(err, werrors.ErrIOWriteFailed, path, "failed to write data")
	}
	if err := tmp.Close(); err != nil {
		return werrors.IOWrap(err, werrors.ErrIOWriteFailed, path, "failed to close data file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return werrors.IOWrap(err, werrors.ErrIOWriteFailed, path, "failed to replace data file")
	}
	return nil
}
