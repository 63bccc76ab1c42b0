package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/ayusman/repcount/internal/store"
)

// Format is an export file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat converts a query value into a Format. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatParquet:
		return FormatParquet, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType returns the HTTP content type for f.
func (f Format) ContentType() string {
	if f == FormatParquet {
		return "application/vnd.apache.parquet"
	}
	return "text/csv"
}

// Write exports events in format f.
func (f Format) Write(w io.Writer, events []store.RepEvent) error {
	if f == FormatParquet {
		return WriteParquet(w, events)
	}
	return WriteCSV(w, events)
}

var csvHeader = []string{"session_id", "count", "label", "at_utc", "elapsed_s"}

// WriteCSV writes rep events with a header row. Elapsed time is measured from
// the first event.
func WriteCSV(w io.Writer, events []store.RepEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	var start time.Time
	if len(events) > 0 {
		start = events[0].At
	}
	for _, e := range events {
		record := []string{
			e.SessionID,
			strconv.Itoa(e.Count),
			e.Label,
			e.At.UTC().Format(time.RFC3339Nano),
			strconv.FormatFloat(e.At.Sub(start).Seconds(), 'f', 3, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type repParquetRow struct {
	SessionID string  `parquet:"name=session_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Count     int64   `parquet:"name=count, type=INT64"`
	Label     string  `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	AtUnixMs  int64   `parquet:"name=at_unix_ms, type=INT64"`
	ElapsedS  float64 `parquet:"name=elapsed_s, type=DOUBLE"`
}

// WriteParquet writes rep events as a SNAPPY-compressed parquet file.
func WriteParquet(w io.Writer, events []store.RepEvent) error {
	data, err := marshalParquet(events)
	if err != nil {
		return fmt.Errorf("failed to encode parquet: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func marshalParquet(events []store.RepEvent) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(repParquetRow), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	var start time.Time
	if len(events) > 0 {
		start = events[0].At
	}
	for _, e := range events {
		row := repParquetRow{
			SessionID: e.SessionID,
			Count:     int64(e.Count),
			Label:     e.Label,
			AtUnixMs:  e.At.UnixMilli(),
			ElapsedS:  e.At.Sub(start).Seconds(),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
