package analysis

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/sarchlab/cachesim/datarecording"
)

// An Exporter stores summaries somewhere.
type Exporter interface {
	Export(s Summary) error
	Flush() error
}

// ExportAll exports every summary and flushes the exporter.
func ExportAll(e Exporter, summaries []Summary) error {
	for _, s := range summaries {
		if err := e.Export(s); err != nil {
			return err
		}
	}

	return e.Flush()
}

// CSVExporter writes one row per summary. The header is written before the
// first row.
type CSVExporter struct {
	csvWriter     *csv.Writer
	headerWritten bool
}

// NewCSVExporter creates an exporter that writes to w.
func NewCSVExporter(w io.Writer) *CSVExporter {
	return &CSVExporter{csvWriter: csv.NewWriter(w)}
}

// Header returns the column names.
func Header() []string {
	header := []string{"trace", "associativity", "runs"}
	for _, m := range Metrics {
		header = append(header, m+"_mean", m+"_std")
	}

	return header
}

// Export writes the row of s.
func (e *CSVExporter) Export(s Summary) error {
	if !e.headerWritten {
		if err := e.csvWriter.Write(Header()); err != nil {
			return err
		}

		e.headerWritten = true
	}

	row := []string{
		s.Trace,
		strconv.Itoa(s.Associativity),
		strconv.Itoa(s.Runs),
	}

	for i := range Metrics {
		row = append(row,
			strconv.FormatFloat(s.Means[i], 'g', -1, 64),
			strconv.FormatFloat(s.StdDevs[i], 'g', -1, 64))
	}

	return e.csvWriter.Write(row)
}

// Flush flushes the CSV writer.
func (e *CSVExporter) Flush() error {
	e.csvWriter.Flush()
	return e.csvWriter.Error()
}

const summaryTable = "sweep_summary"

type summaryEntry struct {
	Trace         string
	Associativity int
	Runs          int
	Metric        string
	Mean          float64
	StdDev        float64
}

// RecorderExporter stores summaries through a data recorder, one row per
// metric.
type RecorderExporter struct {
	recorder datarecording.DataRecorder
}

// NewRecorderExporter creates an exporter that writes to recorder.
func NewRecorderExporter(
	recorder datarecording.DataRecorder,
) *RecorderExporter {
	recorder.CreateTable(summaryTable, summaryEntry{})

	return &RecorderExporter{recorder: recorder}
}

// Export buffers the rows of s.
func (e *RecorderExporter) Export(s Summary) error {
	for i, m := range Metrics {
		e.recorder.InsertData(summaryTable, summaryEntry{
			Trace:         s.Trace,
			Associativity: s.Associativity,
			Runs:          s.Runs,
			Metric:        m,
			Mean:          s.Means[i],
			StdDev:        s.StdDevs[i],
		})
	}

	return nil
}

// Flush writes the buffered rows.
func (e *RecorderExporter) Flush() error {
	e.recorder.Flush()
	return nil
}
