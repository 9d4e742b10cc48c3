package gesture

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/optimusecho/predictor/internal/idgen"
)

// MaxDatasetRows caps a single dataset upload.
const MaxDatasetRows = 10000

// ParseDataset parses an uploaded gesture dataset by filename extension.
// Supported formats are .json (an array of samples) and .csv with header
// gesture_type,confidence,x,y,z[,source]. Every row is validated; the first
// bad row aborts the upload.
func ParseDataset(filename string, r io.Reader) ([]*Sample, error) {
	switch {
	case strings.HasSuffix(filename, ".json"):
		return ParseJSON(r)
	case strings.HasSuffix(filename, ".csv"):
		return ParseCSV(r)
	default:
		return nil, fmt.Errorf("%w: only CSV and JSON files are supported", ErrInvalidSample)
	}
}

// ParseJSON decodes an array of samples, assigning IDs and timestamps where
// the upload omits them.
func ParseJSON(r io.Reader) ([]*Sample, error) {
	var samples []*Sample
	dec := json.NewDecoder(io.LimitReader(r, 32<<20))
	if err := dec.Decode(&samples); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidSample, err)
	}
	if len(samples) > MaxDatasetRows {
		return nil, fmt.Errorf("%w: dataset exceeds %d rows", ErrInvalidSample, MaxDatasetRows)
	}

	now := time.Now().UTC()
	for i, s := range samples {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if s.ID == "" {
			s.ID = idgen.WithPrefix("gst_")
		}
		if s.Timestamp.IsZero() {
			s.Timestamp = now.Add(time.Duration(i) * time.Millisecond)
		}
		if s.Source == "" {
			s.Source = "upload"
		}
	}
	return samples, nil
}

// ParseCSV decodes rows of gesture_type,confidence,x,y,z[,source].
func ParseCSV(r io.Reader) ([]*Sample, error) {
	reader := csv.NewReader(io.LimitReader(r, 32<<20))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing CSV header", ErrInvalidSample)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"gesture_type", "confidence", "x", "y"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%w: CSV header missing column %q", ErrInvalidSample, required)
		}
	}

	var samples []*Sample
	now := time.Now().UTC()
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidSample, row, err)
		}
		if row > MaxDatasetRows {
			return nil, fmt.Errorf("%w: dataset exceeds %d rows", ErrInvalidSample, MaxDatasetRows)
		}

		s := &Sample{
			ID:        idgen.WithPrefix("gst_"),
			Type:      Type(strings.TrimSpace(record[col["gesture_type"]])),
			Timestamp: now.Add(time.Duration(row) * time.Millisecond),
			Source:    "upload",
			Position:  &Position{},
		}
		if s.Confidence, err = parseField(record, col, "confidence", row); err != nil {
			return nil, err
		}
		if s.Position.X, err = parseField(record, col, "x", row); err != nil {
			return nil, err
		}
		if s.Position.Y, err = parseField(record, col, "y", row); err != nil {
			return nil, err
		}
		if zi, ok := col["z"]; ok && zi < len(record) {
			if s.Position.Z, err = parseField(record, col, "z", row); err != nil {
				return nil, err
			}
		}
		if si, ok := col["source"]; ok && si < len(record) && record[si] != "" {
			s.Source = strings.TrimSpace(record[si])
		}

		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseField(record []string, col map[string]int, name string, row int) (float64, error) {
	i := col[name]
	if i >= len(record) {
		return 0, fmt.Errorf("%w: row %d: missing %s", ErrInvalidSample, row, name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: row %d: bad %s value %q", ErrInvalidSample, row, name, record[i])
	}
	return v, nil
}
