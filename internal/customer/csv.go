package customer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
}

// LoadCSV reads a customer dataset from a CSV file.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Info().Str("path", path).Int("customers", len(records)).Msg("Loaded customer dataset")
	return records, nil
}

// ReadCSV parses a header-driven customer CSV. Column order is free; every
// column in Columns must be present. The first malformed value aborts the read.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{Column: ColMasterID, Reason: "empty dataset"}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, &ValidationError{Column: col, Reason: "missing required column"}
		}
	}

	var records []Record
	seen := make(map[string]int)
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		p := rowParser{row: row, fields: fields, index: index}
		rec := Record{
			MasterID:             p.str(ColMasterID),
			OrderChannel:         p.str(ColOrderChannel),
			LastOrderChannel:     p.str(ColLastOrderChannel),
			FirstOrderDate:       p.date(ColFirstOrderDate),
			LastOrderDate:        p.date(ColLastOrderDate),
			LastOrderDateOnline:  p.date(ColLastOrderDateOnline),
			LastOrderDateOffline: p.date(ColLastOrderDateOffline),
			OrderNumOnline:       p.number(ColOrderNumOnline),
			OrderNumOffline:      p.number(ColOrderNumOffline),
			ValueOffline:         p.number(ColValueOffline),
			ValueOnline:          p.number(ColValueOnline),
			Categories:           ParseCategories(p.str(ColCategories)),
		}
		if p.err != nil {
			return nil, p.err
		}
		if err := rec.Validate(row); err != nil {
			return nil, err
		}
		if first, dup := seen[rec.MasterID]; dup {
			return nil, &ValidationError{
				Row:    row,
				Column: ColMasterID,
				Value:  rec.MasterID,
				Reason: fmt.Sprintf("duplicate customer, first seen on row %d", first),
			}
		}
		seen[rec.MasterID] = row
		records = append(records, rec)
	}

	return records, nil
}

// rowParser keeps the first conversion error of a row so a record can be
// assembled in one expression.
type rowParser struct {
	row    int
	fields []string
	index  map[string]int
	err    error
}

func (p *rowParser) str(col string) string {
	i := p.index[col]
	if i >= len(p.fields) {
		if p.err == nil {
			p.err = &ValidationError{Row: p.row, Column: col, Reason: "missing field"}
		}
		return ""
	}
	return strings.TrimSpace(p.fields[i])
}

func (p *rowParser) number(col string) float64 {
	raw := p.str(col)
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.err = &ValidationError{Row: p.row, Column: col, Value: raw, Reason: "not a number"}
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		p.err = &ValidationError{Row: p.row, Column: col, Value: raw, Reason: "not a finite number"}
		return 0
	}
	return v
}

func (p *rowParser) date(col string) time.Time {
	raw := p.str(col)
	if p.err != nil {
		return time.Time{}
	}
	t, err := ParseDate(raw)
	if err != nil {
		p.err = &ValidationError{Row: p.row, Column: col, Value: raw, Reason: "not a timestamp"}
	}
	return t
}

// ParseDate accepts the date layouts found in exports of the dataset.
func ParseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// WriteCSV writes records in the layout ReadCSV accepts.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}

	number := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	date := func(t time.Time) string { return t.Format(time.DateOnly) }

	for _, r := range records {
		row := []string{
			r.MasterID,
			r.OrderChannel,
			r.LastOrderChannel,
			date(r.FirstOrderDate),
			date(r.LastOrderDate),
			date(r.LastOrderDateOnline),
			date(r.LastOrderDateOffline),
			number(r.OrderNumOnline),
			number(r.OrderNumOffline),
			number(r.ValueOffline),
			number(r.ValueOnline),
			r.Categories.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
