package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/mtlprog/plotina/internal/dashboard"
)

// CompositeRecord is one composite measure point.
type CompositeRecord struct {
	M              int32   `parquet:"m,snappy"`
	Date           string  `parquet:"date,snappy"`
	Value          float64 `parquet:"value,snappy"`
	Threshold      float64 `parquet:"threshold,snappy"`
	BelowThreshold bool    `parquet:"below_threshold,snappy"`
}

// SeriesRecord is one measurement of one indicator in long format.
type SeriesRecord struct {
	Code      string   `parquet:"code,snappy,dict"`
	Title     string   `parquet:"title,snappy,dict"`
	M         int32    `parquet:"m,snappy"`
	Date      string   `parquet:"date,snappy"`
	Value     float64  `parquet:"value,snappy"`
	Threshold float64  `parquet:"threshold,snappy"`
	Weight    *float64 `parquet:"weight,optional,snappy"`
	Impact    *float64 `parquet:"impact,optional,snappy"`
}

// CompositeRecords converts the composite series.
func CompositeRecords(state dashboard.State) []CompositeRecord {
	dates := measureDates(state.Indicators)
	out := make([]CompositeRecord, len(state.Composite))
	for i, p := range state.Composite {
		v := compositeFloat(p.Value)
		out[i] = CompositeRecord{
			M:              int32(p.M),
			Date:           dateAt(dates, i),
			Value:          v,
			Threshold:      state.Threshold,
			BelowThreshold: v < state.Threshold,
		}
	}
	return out
}

// SeriesRecords flattens every indicator series, COMP excluded.
func SeriesRecords(state dashboard.State) []SeriesRecord {
	var out []SeriesRecord
	for _, ind := range state.Indicators {
		if ind.IsComposite() {
			continue
		}
		for _, p := range ind.Data {
			out = append(out, SeriesRecord{
				Code:      ind.Code,
				Title:     ind.Title,
				M:         int32(p.M),
				Date:      p.Date,
				Value:     toFloat(p.Value),
				Threshold: ind.Threshold,
				Weight:    ind.Weight,
				Impact:    ind.ImpactPercentage,
			})
		}
	}
	return out
}

// WriteParquet writes records with a schema inferred from T.
func WriteParquet[T any](w io.Writer, records []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(records); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	return nil
}

// WriteParquetDir writes composite.parquet and series.parquet into dir.
func WriteParquetDir(dir string, state dashboard.State) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := writeParquetFile(filepath.Join(dir, "composite.parquet"), CompositeRecords(state)); err != nil {
		return err
	}
	return writeParquetFile(filepath.Join(dir, "series.parquet"), SeriesRecords(state))
}

func writeParquetFile[T any](path string, records []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteParquet(file, records); err != nil {
		_ = file.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return file.Close()
}
