package entity

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"propensity/pkg/contracts/domain"
)

// Default matching parameters. The threshold is deliberately conservative:
// a false negative costs one duplicate identity for a cycle, a false positive
// silently merges two companies.
const (
	DefaultMatchThreshold = 0.85
	DefaultTieEpsilon     = 0.02

	lockStripes = 64
)

// Mention is one free-text company reference extracted from a raw record.
type Mention struct {
	RawName  string
	Address  string
	City     string
	State    string
	ZipCode  string
	Industry string
}

// Outcome describes how a mention was resolved.
type Outcome string

const (
	OutcomeMatchedExact     Outcome = "matched_exact"
	OutcomeMatchedFuzzy     Outcome = "matched_fuzzy"
	OutcomeCreated          Outcome = "created"
	OutcomeCreatedAmbiguous Outcome = "created_ambiguous"
)

// Ambiguity records a tie between candidates that were both close enough to
// accept. The resolver never guesses between them; it creates a new identity
// and flags the mention for manual review.
type Ambiguity struct {
	CandidateIDs []string `json:"candidate_ids"`
	Similarity   float64  `json:"similarity"`
}

// Resolution is the result of resolving one mention.
type Resolution struct {
	Company    domain.Company `json:"company"`
	Outcome    Outcome        `json:"outcome"`
	Similarity float64        `json:"similarity,omitempty"` // best fuzzy score, when fuzzy matching ran
	Ambiguity  *Ambiguity     `json:"ambiguity,omitempty"`
}

// Resolver maps company mentions to canonical identities.
type Resolver struct {
	store      Store
	similarity Similarity
	threshold  float64
	tieEpsilon float64
	logger     *slog.Logger
	now        func() time.Time

	// Writes for the same (normalized_name, zip) key are serialized on a
	// stripe so unrelated companies still resolve in parallel. The store's
	// uniqueness constraint remains the final arbiter.
	locks [lockStripes]sync.Mutex
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSimilarity swaps the fuzzy-matching strategy.
func WithSimilarity(s Similarity) ResolverOption {
	return func(r *Resolver) { r.similarity = s }
}

// WithThreshold sets the minimum similarity to accept a fuzzy match.
func WithThreshold(t float64) ResolverOption {
	return func(r *Resolver) { r.threshold = t }
}

// WithTieEpsilon sets the window within which two candidates count as tied.
func WithTieEpsilon(e float64) ResolverOption {
	return func(r *Resolver) { r.tieEpsilon = e }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a resolver backed by the given identity store.
func NewResolver(store Store, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		store:      store,
		similarity: TokenSetSimilarity{},
		threshold:  DefaultMatchThreshold,
		tieEpsilon: DefaultTieEpsilon,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds or creates the canonical identity for a mention. At most one
// new identity is created per call. An ambiguous fuzzy match (two candidates
// within the tie epsilon above threshold) resolves to a new identity with the
// ambiguity recorded on the Resolution.
func (r *Resolver) Resolve(ctx context.Context, m Mention) (Resolution, error) {
	normalized := NormalizeName(m.RawName)
	if normalized == "" {
		return Resolution{}, fmt.Errorf("resolve: empty company name")
	}

	stripe := &r.locks[keyStripe(normalized, m.ZipCode)]
	stripe.Lock()
	defer stripe.Unlock()

	// Fast path: exact key match.
	if m.ZipCode != "" {
		if existing, err := r.store.FindExact(ctx, normalized, m.ZipCode); err == nil {
			enriched, err := r.enrich(ctx, existing, m)
			if err != nil {
				return Resolution{}, err
			}
			return Resolution{Company: enriched, Outcome: OutcomeMatchedExact}, nil
		} else if err != ErrNotFound {
			return Resolution{}, fmt.Errorf("exact lookup: %w", err)
		}
	}

	candidates, err := r.candidates(ctx, m)
	if err != nil {
		return Resolution{}, err
	}

	best, bestScore, runnerUp, secondScore := rankCandidates(r.similarity, normalized, candidates)

	if best != nil && bestScore >= r.threshold {
		ambiguous := runnerUp != nil && secondScore >= r.threshold && bestScore-secondScore <= r.tieEpsilon
		if ambiguous {
			// Tie: never pick arbitrarily among ambiguous candidates.
			r.logger.WarnContext(ctx, "ambiguous fuzzy match, creating new identity",
				"name", m.RawName,
				"normalized", normalized,
				"similarity", bestScore,
				"candidates", []string{best.ID, runnerUp.ID},
			)
			created, err := r.create(ctx, normalized, m)
			if err != nil {
				return Resolution{}, err
			}
			return Resolution{
				Company:    created,
				Outcome:    OutcomeCreatedAmbiguous,
				Similarity: bestScore,
				Ambiguity:  &Ambiguity{CandidateIDs: []string{best.ID, runnerUp.ID}, Similarity: bestScore},
			}, nil
		}

		enriched, err := r.enrich(ctx, *best, m)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Company: enriched, Outcome: OutcomeMatchedFuzzy, Similarity: bestScore}, nil
	}

	created, err := r.create(ctx, normalized, m)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Company: created, Outcome: OutcomeCreated, Similarity: bestScore}, nil
}

// candidates returns the identities fuzzy matching is allowed to consider:
// same zip when the mention has one, same city otherwise.
func (r *Resolver) candidates(ctx context.Context, m Mention) ([]domain.Company, error) {
	if m.ZipCode != "" {
		out, err := r.store.CandidatesByZip(ctx, m.ZipCode)
		if err != nil {
			return nil, fmt.Errorf("candidates by zip: %w", err)
		}
		return out, nil
	}
	if m.City != "" {
		out, err := r.store.CandidatesByCity(ctx, m.City)
		if err != nil {
			return nil, fmt.Errorf("candidates by city: %w", err)
		}
		return out, nil
	}
	return nil, nil
}

// rankCandidates scores every candidate and returns the two best, so the
// caller can detect ties. Candidates with distinct IDs only; equal scores
// keep first-seen order, which does not matter because ties are never chosen.
func rankCandidates(sim Similarity, normalized string, candidates []domain.Company) (best *domain.Company, bestScore float64, runnerUp *domain.Company, secondScore float64) {
	for i := range candidates {
		score := sim.Score(normalized, candidates[i].NormalizedName)
		switch {
		case best == nil || score > bestScore:
			if best != nil {
				runnerUp = best
				secondScore = bestScore
			}
			best = &candidates[i]
			bestScore = score
		case runnerUp == nil || score > secondScore:
			runnerUp = &candidates[i]
			secondScore = score
		}
	}
	return best, bestScore, runnerUp, secondScore
}

// create inserts a fresh identity for the mention. A duplicate-key conflict
// means another writer won the race; the stored row is authoritative, so the
// existing identity is fetched and returned instead of an error.
func (r *Resolver) create(ctx context.Context, normalized string, m Mention) (domain.Company, error) {
	now := r.now().UTC()
	c := domain.Company{
		ID:             uuid.New().String(),
		Name:           m.RawName,
		NormalizedName: normalized,
		Address:        m.Address,
		City:           m.City,
		State:          m.State,
		ZipCode:        m.ZipCode,
		Industry:       m.Industry,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := r.store.Insert(ctx, c)
	if err == ErrDuplicateIdentity {
		existing, ferr := r.store.FindExact(ctx, normalized, m.ZipCode)
		if ferr != nil {
			return domain.Company{}, fmt.Errorf("refetch after duplicate: %w", ferr)
		}
		return existing, nil
	}
	if err != nil {
		return domain.Company{}, fmt.Errorf("insert identity: %w", err)
	}

	r.logger.DebugContext(ctx, "created company identity",
		"id", c.ID, "normalized", normalized, "zip", m.ZipCode)
	return c, nil
}

// enrich fills descriptive fields from the mention. Non-empty incoming data
// wins; empty fields never clear stored values. NormalizedName and ZipCode
// are immutable once set.
func (r *Resolver) enrich(ctx context.Context, existing domain.Company, m Mention) (domain.Company, error) {
	changed := false
	apply := func(dst *string, src string) {
		if src != "" && *dst != src {
			*dst = src
			changed = true
		}
	}
	apply(&existing.Address, m.Address)
	apply(&existing.City, m.City)
	apply(&existing.State, m.State)
	apply(&existing.Industry, m.Industry)

	if !changed {
		return existing, nil
	}

	existing.UpdatedAt = r.now().UTC()
	if err := r.store.Update(ctx, existing); err != nil {
		return domain.Company{}, fmt.Errorf("enrich identity: %w", err)
	}
	return existing, nil
}

func keyStripe(normalized, zip string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(normalized))
	h.Write([]byte{'|'})
	h.Write([]byte(zip))
	return h.Sum32() % lockStripes
}
