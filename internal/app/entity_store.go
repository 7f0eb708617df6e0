package app

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/railctl/internal/core/classify"
	"github.com/example/railctl/internal/core/kpi"
	"github.com/example/railctl/internal/core/section"
	"github.com/example/railctl/internal/core/train"
	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/models"
)

// archiveLimit bounds the retired-train archive; the oldest entries go first.
const archiveLimit = 1000

type trainEntry struct {
	mu    sync.Mutex
	train models.Train
}

type sectionEntry struct {
	mu      sync.Mutex
	section models.Section
}

// EntityStore owns the live Train, Section and external KPI state.
//
// Writers hold mu for reading while they look up and update a single entity
// under that entity's own lock, so writes to different entities run in
// parallel. Inserting or removing an entity, and taking a snapshot, hold mu
// for writing; a snapshot therefore never observes a half-applied update.
type EntityStore struct {
	mu       sync.RWMutex
	trains   map[string]*trainEntry
	sections map[string]*sectionEntry
	kpis     map[string]models.KPI
	archive  []models.ArchivedTrain
	bands    classify.Bands
	now      func() time.Time

	// Writers under a read lock bump version concurrently.
	versionMu sync.Mutex
	version   uint64

	cached *models.Snapshot
}

// NewEntityStore creates an empty store classifying sections with bands.
func NewEntityStore(bands classify.Bands) *EntityStore {
	return &EntityStore{
		trains:   make(map[string]*trainEntry),
		sections: make(map[string]*sectionEntry),
		kpis:     make(map[string]models.KPI),
		bands:    bands,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// bump records a committed change. Callers hold mu for reading or writing.
func (s *EntityStore) bump() {
	s.versionMu.Lock()
	s.version++
	s.versionMu.Unlock()
}

// Version returns the number of committed changes so far.
func (s *EntityStore) Version() uint64 {
	s.versionMu.Lock()
	defer s.versionMu.Unlock()
	return s.version
}

// ApplyTrainUpdate merges a delta into a train. The first delta for an unknown
// id creates the train; a delta carrying a retire reason removes it and
// returns a nil train. A rejected delta leaves the train unchanged.
func (s *EntityStore) ApplyTrainUpdate(ctx context.Context, trainID string, d models.TrainDelta) (*models.Train, error) {
	if trainID == "" {
		return nil, errs.Validation("train", "", "id is required")
	}
	if d.Retire != "" {
		return nil, s.retireTrain(trainID, d)
	}

	s.mu.RLock()
	e, ok := s.trains[trainID]
	if ok {
		t, err := s.updateTrain(e, d)
		s.mu.RUnlock()
		return t, err
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another producer may have created it while the lock was released.
	if e, ok := s.trains[trainID]; ok {
		return s.updateTrain(e, d)
	}
	next, result := train.Apply(nil, trainID, d, s.now())
	if !result.Allowed {
		return nil, result.Error()
	}
	s.trains[trainID] = &trainEntry{train: next}
	s.bump()
	return &next, nil
}

func (s *EntityStore) updateTrain(e *trainEntry, d models.TrainDelta) (*models.Train, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.train
	next, result := train.Apply(&prev, prev.ID, d, s.now())
	if !result.Allowed {
		return nil, result.Error()
	}
	e.train = next
	s.bump()
	return &next, nil
}

func (s *EntityStore) retireTrain(trainID string, d models.TrainDelta) error {
	if r := train.CanRetire(trainID, d.Retire); !r.Allowed {
		return r.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.trains[trainID]
	if !ok {
		return errs.NotFound("train", trainID)
	}
	now := s.now()
	// Fields sent with the retire delta become part of the archived state.
	last, result := train.Apply(&e.train, trainID, d, now)
	if !result.Allowed {
		return result.Error()
	}

	delete(s.trains, trainID)
	s.archive = append(s.archive, models.ArchivedTrain{Train: last, Reason: d.Retire, RetiredAt: now})
	if len(s.archive) > archiveLimit {
		s.archive = append([]models.ArchivedTrain(nil), s.archive[len(s.archive)-archiveLimit:]...)
	}
	s.bump()
	return nil
}

// ApplySectionUpdate merges an occupancy delta into a configured section.
// Utilization and status are re-derived from the result.
func (s *EntityStore) ApplySectionUpdate(ctx context.Context, sectionID string, d models.SectionDelta) (*models.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sections[sectionID]
	if !ok {
		return nil, errs.NotFound("section", sectionID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next, result := section.Apply(e.section, d, s.bands)
	if !result.Allowed {
		return nil, result.Error()
	}
	e.section = next
	s.bump()
	return &next, nil
}

// ConfigureSection adds a section to the topology, or changes the capacity,
// length and name of an existing one while keeping its occupancy and flag.
func (s *EntityStore) ConfigureSection(ctx context.Context, spec models.SectionSpec) (*models.Section, error) {
	if r := section.CanConfigure(spec); !r.Allowed {
		return nil, r.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var next models.Section
	if e, ok := s.sections[spec.ID]; ok {
		next = section.Reconfigure(e.section, spec, s.bands)
		e.section = next
	} else {
		next = section.New(spec, s.bands)
		s.sections[spec.ID] = &sectionEntry{section: next}
	}
	s.bump()
	return &next, nil
}

// SetBands re-classifies every section with new utilization bands.
func (s *EntityStore) SetBands(bands classify.Bands) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bands == bands {
		return
	}
	s.bands = bands
	for _, e := range s.sections {
		e.section = section.Derive(e.section, bands)
	}
	s.bump()
}

// InjectKPI stores an externally computed KPI, replacing the previous value
// of the same name.
func (s *EntityStore) InjectKPI(ctx context.Context, k models.KPI) (*models.KPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev *models.KPI
	if p, ok := s.kpis[strings.TrimSpace(k.Name)]; ok {
		prev = &p
	}
	next, err := kpi.PrepareExternal(k, prev)
	if err != nil {
		return nil, err
	}
	s.kpis[next.Name] = next
	s.bump()
	out := next.Clone()
	return &out, nil
}

// Archived returns the retired trains, oldest first.
func (s *EntityStore) Archived() []models.ArchivedTrain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ArchivedTrain(nil), s.archive...)
}

// Snapshot returns a deep copy of every entity, sorted by id. Without an
// intervening change it returns the same snapshot (id, version and capture
// time) as the previous call.
func (s *EntityStore) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.cached.Version == s.version {
		return s.cached.Clone()
	}

	snap := models.Snapshot{
		ID:       uuid.NewString(),
		Version:  s.version,
		TakenAt:  s.now(),
		Trains:   make([]models.Train, 0, len(s.trains)),
		Sections: make([]models.Section, 0, len(s.sections)),
		KPIs:     make([]models.KPI, 0, len(s.kpis)),
	}
	for _, e := range s.trains {
		snap.Trains = append(snap.Trains, e.train)
	}
	for _, e := range s.sections {
		snap.Sections = append(snap.Sections, e.section)
	}
	for _, k := range s.kpis {
		snap.KPIs = append(snap.KPIs, k.Clone())
	}
	sort.Slice(snap.Trains, func(i, j int) bool { return snap.Trains[i].ID < snap.Trains[j].ID })
	sort.Slice(snap.Sections, func(i, j int) bool { return snap.Sections[i].ID < snap.Sections[j].ID })
	sort.Slice(snap.KPIs, func(i, j int) bool { return snap.KPIs[i].Name < snap.KPIs[j].Name })

	s.cached = &snap
	return snap.Clone()
}
