package exporter

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"valuationcli/internal/benford"
	"valuationcli/pkg/contracts/domain"
)

// BenfordEntry is the stored profile of one symbol
type BenfordEntry struct {
	UpdateTime time.Time             `json:"update_time"`
	Data       domain.BenfordProfile `json:"data"`
}

// BenfordDocument is the document kept in stock-benford-law.json
type BenfordDocument struct {
	TheoreticalProbabilities [9]float64              `json:"benfordDigitProbs"`
	UpdateTime               time.Time               `json:"update_time"`
	Data                     map[string]BenfordEntry `json:"data"`
}

// BenfordStore keeps Benford profiles across runs so recently scored
// symbols are not recomputed. Safe for concurrent use.
type BenfordStore struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	doc BenfordDocument
}

// NewBenfordStore creates a store backed by stock-benford-law.json in the
// writer's directory.
func (w *ResultWriter) NewBenfordStore() *BenfordStore {
	return NewBenfordStore(w.JSONPath(BenfordFile), w.logger)
}

// NewBenfordStore creates an empty store backed by path
func NewBenfordStore(path string, logger *slog.Logger) *BenfordStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BenfordStore{
		path:   path,
		logger: logger,
		doc: BenfordDocument{
			TheoreticalProbabilities: benford.TheoreticalProbabilities(),
			Data:                     make(map[string]BenfordEntry),
		},
	}
}

// Load reads the previous document. A missing file leaves the store empty.
func (s *BenfordStore) Load() error {
	var doc BenfordDocument
	if err := ReadJSON(s.path, &doc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("no previous benford results", slog.String("file", s.path))
			return nil
		}
		return fmt.Errorf("load benford results: %w", err)
	}
	if doc.Data == nil {
		doc.Data = make(map[string]BenfordEntry)
	}
	doc.TheoreticalProbabilities = benford.TheoreticalProbabilities()

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	s.logger.Info("loaded benford results",
		slog.String("file", s.path),
		slog.Int("symbols", len(doc.Data)))
	return nil
}

// ShouldUpdate reports whether symbol has no profile or its profile is
// older than interval at now.
func (s *BenfordStore) ShouldUpdate(symbol string, now time.Time, interval time.Duration) bool {
	s.mu.RLock()
	entry, ok := s.doc.Data[symbol]
	s.mu.RUnlock()
	if !ok {
		return true
	}
	return now.Sub(entry.UpdateTime) >= interval
}

// Put stores the profile of symbol scored at now
func (s *BenfordStore) Put(symbol string, profile domain.BenfordProfile, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Data[symbol] = BenfordEntry{UpdateTime: now.UTC(), Data: profile}
}

// Get returns the stored entry of symbol
func (s *BenfordStore) Get(symbol string) (BenfordEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.doc.Data[symbol]
	return entry, ok
}

// Len returns the number of stored symbols
func (s *BenfordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.doc.Data)
}

// Save stamps the document with now and writes it
func (s *BenfordStore) Save(now time.Time) error {
	s.mu.Lock()
	s.doc.UpdateTime = now.UTC()
	err := WriteJSON(s.path, s.doc)
	n := len(s.doc.Data)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("save benford results: %w", err)
	}

	s.logger.Info("wrote benford results",
		slog.String("file", s.path),
		slog.Int("symbols", n))
	return nil
}
