package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

// DefaultSummaryTTL applies when NewSummaryService gets a zero TTL.
const DefaultSummaryTTL = 5 * time.Minute

// generationTTL outlives the longest configurable summary TTL, so a cached
// summary never survives the generation it was computed under.
const generationTTL = 48 * time.Hour

// SummaryQuery selects the window and optionally one account. Empty dates
// fall back to the current month.
type SummaryQuery struct {
	From      string
	To        string
	AccountID string
}

// SummaryService builds the dashboard summary of a window compared to the
// window of equal length right before it.
type SummaryService struct {
	store  *storage.Store
	cache  cache.Store
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time
}

func NewSummaryService(store *storage.Store, summaries cache.Store, ttl time.Duration, logger *log.Logger) *SummaryService {
	if summaries == nil {
		summaries = cache.Noop{}
	}
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &SummaryService{
		store:  store,
		cache:  summaries,
		ttl:    ttl,
		logger: logger.WithComponent(log.ComponentSummary),
		now:    time.Now,
	}
}

func summaryKeyPrefix(ownerID string) string {
	return "summary:" + ownerID + ":"
}

func summaryKey(ownerID, generation string, p core.Period, accountID string) string {
	return summaryKeyPrefix(ownerID) + generation + ":" + p.From.String() + ":" + p.To.String() + ":" + accountID
}

// generationKey sits outside summaryKeyPrefix so invalidation leaves it alone.
func generationKey(ownerID string) string {
	return "summary-gen:" + ownerID
}

// bumpGeneration moves the owner to a fresh generation. Summaries computed
// under an older one keep their keys and are never read again.
func bumpGeneration(ctx context.Context, store cache.Store, ownerID string) error {
	return store.Set(ctx, generationKey(ownerID), []byte(uuid.NewString()), generationTTL)
}

// generation returns the owner's current cache generation, starting a new one
// when none is stored. ok is false when the cache cannot be trusted.
func (s *SummaryService) generation(ctx context.Context, ownerID string) (string, bool) {
	data, found, err := s.cache.Get(ctx, generationKey(ownerID))
	if err != nil {
		s.logger.WarnContext(ctx, "Summary generation read failed", log.FieldOwnerID, ownerID, log.FieldError, err.Error())
		return "", false
	}
	if found && len(data) > 0 {
		return string(data), true
	}

	gen := uuid.NewString()
	if err := s.cache.Set(ctx, generationKey(ownerID), []byte(gen), generationTTL); err != nil {
		s.logger.WarnContext(ctx, "Summary generation write failed", log.FieldOwnerID, ownerID, log.FieldError, err.Error())
		return "", false
	}
	return gen, true
}

// Get returns the summary for q, serving it from cache when possible. The
// generation is read before any ledger query, so a mutation that commits while
// the summary is computed moves readers past whatever gets stored here.
func (s *SummaryService) Get(ctx context.Context, ownerID string, q SummaryQuery) (core.Summary, error) {
	p, err := core.ResolvePeriod(q.From, q.To, s.now())
	if err != nil {
		return core.Summary{}, err
	}
	if q.AccountID != "" {
		if _, err := s.store.GetAccount(ctx, ownerID, q.AccountID); err != nil {
			return core.Summary{}, err
		}
	}

	gen, cacheable := s.generation(ctx, ownerID)
	key := summaryKey(ownerID, gen, p, q.AccountID)
	if cacheable {
		if cached, ok := s.cached(ctx, key); ok {
			return cached, nil
		}
	}

	summary, err := s.compute(ctx, ownerID, p, q.AccountID)
	if err != nil {
		return core.Summary{}, err
	}
	if cacheable {
		s.remember(ctx, key, summary)
	}
	return summary, nil
}

// Warm recomputes the owner's current-month summary over all accounts and
// stores it in the cache.
func (s *SummaryService) Warm(ctx context.Context, ownerID string) error {
	p := core.MonthOf(s.now())
	gen, cacheable := s.generation(ctx, ownerID)
	if !cacheable {
		return nil
	}
	summary, err := s.compute(ctx, ownerID, p, "")
	if err != nil {
		return err
	}
	s.remember(ctx, summaryKey(ownerID, gen, p, ""), summary)
	s.logger.DebugContext(ctx, "Warmed summary cache",
		log.FieldOwnerID, ownerID,
		log.FieldFrom, p.From.String(),
		log.FieldTo, p.To.String())
	return nil
}

// Periods lists the month presets offered to the dashboard date picker.
func (s *SummaryService) Periods() []core.MonthPreset {
	return core.MonthPresets(s.now())
}

func (s *SummaryService) compute(ctx context.Context, ownerID string, p core.Period, accountID string) (core.Summary, error) {
	prev := p.Previous()
	in := core.SummaryInput{Period: p}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.Current, err = s.store.PeriodTotals(gctx, ownerID, p, accountID)
		return err
	})
	g.Go(func() (err error) {
		in.Previous, err = s.store.PeriodTotals(gctx, ownerID, prev, accountID)
		return err
	})
	g.Go(func() (err error) {
		in.Balance, err = s.store.TotalBalance(gctx, ownerID, p.To, accountID)
		return err
	})
	g.Go(func() (err error) {
		in.PreviousBalance, err = s.store.TotalBalance(gctx, ownerID, prev.To, accountID)
		return err
	})
	g.Go(func() (err error) {
		in.Categories, err = s.store.ExpenseCategories(gctx, ownerID, p, accountID)
		return err
	})
	g.Go(func() (err error) {
		in.Days, err = s.store.DailyTotals(gctx, ownerID, p, accountID)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Summary{}, err
	}

	return core.BuildSummary(in), nil
}

func (s *SummaryService) cached(ctx context.Context, key string) (core.Summary, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "Summary cache read failed", log.FieldError, err.Error())
		return core.Summary{}, false
	}
	if !ok {
		return core.Summary{}, false
	}

	var summary core.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		s.logger.WarnContext(ctx, "Discarding undecodable cached summary", log.FieldError, err.Error())
		return core.Summary{}, false
	}
	s.logger.DebugContext(ctx, "Summary served from cache", log.FieldCacheHit, true)
	return summary, true
}

func (s *SummaryService) remember(ctx context.Context, key string, summary core.Summary) {
	data, err := json.Marshal(summary)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to encode summary for cache", log.FieldError, err.Error())
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "Summary cache write failed", log.FieldError, err.Error())
	}
}
