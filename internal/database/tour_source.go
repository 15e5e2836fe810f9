package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"field-survey-router/internal/models"
)

// TourData represents the structure of the upstream export file
type TourData struct {
	Tours    []models.Trip          `json:"tours"`
	Surveys  []models.SurveyRecord  `json:"surveys"`
	Expenses []models.ExpenseRecord `json:"expenses"`
}

// JSONTourSource is a read-only TourSource over a JSON export of the
// dashboard backend. The file is re-read whenever its mtime changes.
type JSONTourSource struct {
	filePath string
	modTime  time.Time
	data     *TourData
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewJSONTourSource loads the export at filePath. A missing file yields an empty source.
func NewJSONTourSource(filePath string, logger *zap.Logger) (*JSONTourSource, error) {
	source := &JSONTourSource{
		filePath: filePath,
		data:     emptyTourData(),
		logger:   logger.Named("tour_source"),
	}
	source.logger.Info("using tour export file", zap.String("path", filePath))

	if err := source.refresh(); err != nil {
		return nil, err
	}
	return source, nil
}

// NewStaticTourSource serves fixed data without touching the filesystem
func NewStaticTourSource(data *TourData) *JSONTourSource {
	if data == nil {
		data = emptyTourData()
	}
	normalizeTourData(data)
	return &JSONTourSource{data: data, logger: zap.NewNop()}
}

func emptyTourData() *TourData {
	return &TourData{
		Tours:    []models.Trip{},
		Surveys:  []models.SurveyRecord{},
		Expenses: []models.ExpenseRecord{},
	}
}

func normalizeTourData(data *TourData) {
	if data.Tours == nil {
		data.Tours = []models.Trip{}
	}
	if data.Surveys == nil {
		data.Surveys = []models.SurveyRecord{}
	}
	if data.Expenses == nil {
		data.Expenses = []models.ExpenseRecord{}
	}
}

func (s *JSONTourSource) refresh() error {
	if s.filePath == "" {
		return nil
	}

	info, err := os.Stat(s.filePath)
	if os.IsNotExist(err) {
		s.mu.Lock()
		if !s.modTime.IsZero() {
			s.logger.Warn("tour export file disappeared", zap.String("path", s.filePath))
		}
		s.data = emptyTourData()
		s.modTime = time.Time{}
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat tour export: %w", err)
	}

	s.mu.RLock()
	unchanged := info.ModTime().Equal(s.modTime)
	s.mu.RUnlock()
	if unchanged {
		return nil
	}

	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read tour export: %w", err)
	}

	var data TourData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse tour export: %w", err)
	}
	normalizeTourData(&data)

	s.mu.Lock()
	s.data = &data
	s.modTime = info.ModTime()
	s.mu.Unlock()

	s.logger.Info("loaded tour export",
		zap.Int("tours", len(data.Tours)),
		zap.Int("surveys", len(data.Surveys)),
		zap.Int("expenses", len(data.Expenses)),
	)
	return nil
}

// ListTrips returns all trips, newest first
func (s *JSONTourSource) ListTrips(ctx context.Context) ([]models.Trip, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	trips := make([]models.Trip, len(s.data.Tours))
	copy(trips, s.data.Tours)
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].CreatedAt.After(trips[j].CreatedAt)
	})
	return trips, nil
}

func (s *JSONTourSource) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.data.Tours {
		if t.ID == id {
			trip := t
			return &trip, nil
		}
	}
	return nil, ErrNotFound
}

// ListSurveys returns the survey records of a trip in export order.
// An empty tripID returns every record.
func (s *JSONTourSource) ListSurveys(ctx context.Context, tripID string) ([]models.SurveyRecord, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.SurveyRecord
	for _, r := range s.data.Surveys {
		if tripID == "" || r.TourID == tripID {
			result = append(result, r)
		}
	}
	if result == nil {
		result = []models.SurveyRecord{}
	}
	return result, nil
}

func (s *JSONTourSource) ListExpenses(ctx context.Context, tripID string) ([]models.ExpenseRecord, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.ExpenseRecord
	for _, e := range s.data.Expenses {
		if tripID == "" || e.TourID == tripID {
			result = append(result, e)
		}
	}
	if result == nil {
		result = []models.ExpenseRecord{}
	}
	return result, nil
}
