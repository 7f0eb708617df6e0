// Package feed decodes recorded telemetry feeds into ingestion records.
// A feed is a CSV file with a header row. Only kind and entity_id are
// required; any other column may be left out of the header, and an empty
// cell leaves that field unchanged.
package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/example/railctl/internal/models"
)

// Row is one line of a feed. Train and section columns share the file;
// a row only uses the columns of its kind.
type Row struct {
	Kind     string `csv:"kind"`
	EntityID string `csv:"entity_id"`

	Name            *string  `csv:"name,omitempty"`
	TrainKind       *string  `csv:"train_kind,omitempty"`
	CurrentLocation *string  `csv:"current_location,omitempty"`
	Destination     *string  `csv:"destination,omitempty"`
	Status          *string  `csv:"status,omitempty"`
	DelayMinutes    *int     `csv:"delay_minutes,omitempty"`
	SpeedKmh        *float64 `csv:"speed_kmh,omitempty"`
	Priority        *string  `csv:"priority,omitempty"`
	Lat             *float64 `csv:"lat,omitempty"`
	Lng             *float64 `csv:"lng,omitempty"`
	NextSignal      *string  `csv:"next_signal,omitempty"`
	Platform        *string  `csv:"platform,omitempty"`
	Route           *string  `csv:"route,omitempty"`
	Retire          string   `csv:"retire,omitempty"`

	CurrentTrains *int    `csv:"current_trains,omitempty"`
	TrainsEntered int     `csv:"trains_entered,omitempty"`
	TrainsLeft    int     `csv:"trains_left,omitempty"`
	Flag          *string `csv:"flag,omitempty"` // "none" clears a flag
}

// flagClear is the cell value that clears a section flag.
const flagClear = "none"

// RowError is a feed line that could not be turned into a record.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Decode reads every row of a feed. Rows that decode but cannot be mapped
// to a record are returned as RowErrors; a malformed file fails as a whole.
func Decode(r io.Reader) ([]models.UpdateRecord, []*RowError, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read feed header: %w", err)
	}
	if missing := missingColumns(dec.Header(), "kind", "entity_id"); len(missing) > 0 {
		return nil, nil, fmt.Errorf("feed header is missing %s", strings.Join(missing, ", "))
	}

	var records []models.UpdateRecord
	var rowErrs []*RowError
	line := 1
	for {
		var row Row
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode feed line %d: %w", line, err)
		}
		rec, err := row.Record()
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

// Record converts the row to a typed update record.
func (row Row) Record() (models.UpdateRecord, error) {
	kind := models.UpdateKind(strings.ToLower(strings.TrimSpace(row.Kind)))
	id := strings.TrimSpace(row.EntityID)
	if id == "" {
		return models.UpdateRecord{}, fmt.Errorf("entity_id is required")
	}

	switch kind {
	case models.UpdateTrain:
		delta, err := row.trainDelta()
		if err != nil {
			return models.UpdateRecord{}, err
		}
		return models.UpdateRecord{Kind: kind, EntityID: id, Train: delta}, nil
	case models.UpdateSection:
		return models.UpdateRecord{Kind: kind, EntityID: id, Section: row.sectionDelta()}, nil
	}
	return models.UpdateRecord{}, fmt.Errorf("unknown kind %q", row.Kind)
}

func (row Row) trainDelta() (*models.TrainDelta, error) {
	d := &models.TrainDelta{
		Name:            row.Name,
		CurrentLocation: row.CurrentLocation,
		Destination:     row.Destination,
		DelayMinutes:    row.DelayMinutes,
		SpeedKmh:        row.SpeedKmh,
		NextSignal:      row.NextSignal,
		Platform:        row.Platform,
		Route:           row.Route,
		Retire:          strings.TrimSpace(row.Retire),
	}
	if row.TrainKind != nil {
		k := models.TrainKind(*row.TrainKind)
		d.Kind = &k
	}
	if row.Status != nil {
		s := models.TrainStatus(*row.Status)
		d.Status = &s
	}
	if row.Priority != nil {
		p := models.Priority(*row.Priority)
		d.Priority = &p
	}

	switch {
	case row.Lat != nil && row.Lng != nil:
		d.Position = &models.Position{Lat: *row.Lat, Lng: *row.Lng}
	case row.Lat != nil || row.Lng != nil:
		return nil, fmt.Errorf("lat and lng must be given together")
	}
	return d, nil
}

func (row Row) sectionDelta() *models.SectionDelta {
	d := &models.SectionDelta{
		CurrentTrains: row.CurrentTrains,
		TrainsEntered: row.TrainsEntered,
		TrainsLeft:    row.TrainsLeft,
	}
	if row.Flag != nil {
		f := models.SectionFlag(*row.Flag)
		if strings.EqualFold(*row.Flag, flagClear) {
			f = models.FlagNone
		}
		d.Flag = &f
	}
	return d
}

// Encode writes rows as a feed with a full header.
func Encode(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(rows) == 0 {
		if err := enc.EncodeHeader(Row{}); err != nil {
			return fmt.Errorf("failed to write feed header: %w", err)
		}
	}
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to encode feed row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func missingColumns(header []string, required ...string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, r := range required {
		if !have[r] {
			missing = append(missing, r)
		}
	}
	return missing
}
