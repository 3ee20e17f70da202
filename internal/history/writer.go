// Package history assembles and persists signal history rows, one per
// company per record date.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"propensity/internal/scoring"
	"propensity/internal/signals"
	"propensity/pkg/contracts/domain"
)

// ErrRowNotFound indicates no history row exists for the given key.
var ErrRowNotFound = errors.New("history: row not found")

// Writer is the persistence boundary for signal history. Upsert replaces the
// whole row for its (company, date) key: recomputing from the same raw
// observations always yields the same stored row, and a rerun never merges
// fields from a stale prior pass.
type Writer interface {
	Upsert(ctx context.Context, row domain.SignalHistoryRow) error
}

// Reader provides query access over written history.
type Reader interface {
	// Latest returns the most recent row per company.
	Latest(ctx context.Context) ([]domain.SignalHistoryRow, error)
	// Get returns the row for one company and date, or ErrRowNotFound.
	Get(ctx context.Context, companyID string, date time.Time) (domain.SignalHistoryRow, error)
}

// BuildRow assembles the full history row for one company/date from the
// extracted signal set and the aggregation result. Absent signals stay nil.
func BuildRow(companyID string, recordDate time.Time, set signals.Set, result scoring.Result, computedAt time.Time) (domain.SignalHistoryRow, error) {
	if companyID == "" {
		return domain.SignalHistoryRow{}, fmt.Errorf("history: empty company id")
	}
	if recordDate.IsZero() {
		return domain.SignalHistoryRow{}, fmt.Errorf("history: zero record date")
	}

	row := domain.SignalHistoryRow{
		CompanyID:       companyID,
		RecordDate:      truncateToDay(recordDate),
		PropensityScore: result.Score,
		ScoreTier:       result.Tier,
		ComputedAt:      computedAt.UTC(),
	}

	assign := func(dst **float64, sig signals.Signal) {
		if v, ok := set.Get(sig); ok {
			value := v
			*dst = &value
		}
	}
	assign(&row.Expansion, signals.SignalExpansion)
	assign(&row.Distress, signals.SignalDistress)
	assign(&row.JobVelocity, signals.SignalJobVelocity)
	assign(&row.Sentiment, signals.SignalSentiment)
	assign(&row.Turnover, signals.SignalTurnover)
	assign(&row.MarketTightness, signals.SignalMarketTightness)
	assign(&row.Macro, signals.SignalMacro)

	return row, nil
}

// MemoryStore is an in-process history store used by the batch runner and in
// tests. It enforces the one-row-per-company-per-day invariant by keying on
// (company_id, record_date).
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]domain.SignalHistoryRow
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]domain.SignalHistoryRow)}
}

// Upsert implements Writer. The stored row is replaced entirely.
func (s *MemoryStore) Upsert(ctx context.Context, row domain.SignalHistoryRow) error {
	if !row.IsValid() {
		return fmt.Errorf("history: invalid row for company %s", row.CompanyID)
	}

	row.RecordDate = truncateToDay(row.RecordDate)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.Key()] = row
	return nil
}

// Get implements Reader.
func (s *MemoryStore) Get(ctx context.Context, companyID string, date time.Time) (domain.SignalHistoryRow, error) {
	key := companyID + "|" + truncateToDay(date).Format("2006-01-02")

	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[key]
	if !ok {
		return domain.SignalHistoryRow{}, ErrRowNotFound
	}
	return row, nil
}

// Latest implements Reader.
func (s *MemoryStore) Latest(ctx context.Context) ([]domain.SignalHistoryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]domain.SignalHistoryRow)
	for _, row := range s.rows {
		if cur, ok := latest[row.CompanyID]; !ok || row.RecordDate.After(cur.RecordDate) {
			latest[row.CompanyID] = row
		}
	}

	out := make([]domain.SignalHistoryRow, 0, len(latest))
	for _, row := range latest {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PropensityScore != out[j].PropensityScore {
			return out[i].PropensityScore > out[j].PropensityScore
		}
		return out[i].CompanyID < out[j].CompanyID
	})
	return out, nil
}

// Len returns the number of stored rows.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
