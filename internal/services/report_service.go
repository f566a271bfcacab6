package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"finboard/internal/cache"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/report"
	"finboard/internal/store"
)

// allTimeKey is the cache slot of the all-time category breakdown.
const allTimeKey = "all-time"

// Report is the payload of the reports page for one period.
type Report struct {
	Period     string                 `json:"period"`
	Range      report.DateRange       `json:"range"`
	Totals     report.Totals          `json:"totals"`
	Balance    []report.BalancePoint  `json:"balance"`
	Monthly    []report.MonthBucket   `json:"monthly"`
	ByCategory []report.CategoryShare `json:"by_category"`
}

// ReportService computes reports from the owner's transactions and caches the
// result per owner and period. Concurrent requests for the same entry share
// one computation. Invalidate bumps the owner's generation, so a computation
// that started before a write never repopulates the cache.
type ReportService struct {
	store  store.TransactionStore
	cache  cache.Cache[any]
	group  singleflight.Group
	logger *applog.Logger
	today  func() core.Date

	mu          sync.Mutex
	generations map[string]uint64
}

func NewReportService(st store.TransactionStore, c cache.Cache[any], logger *applog.Logger) *ReportService {
	return &ReportService{
		store:       st,
		cache:       c,
		logger:      componentLogger(logger, applog.ComponentReport),
		today:       core.Today,
		generations: make(map[string]uint64),
	}
}

func (s *ReportService) WithToday(today func() core.Date) *ReportService {
	s.today = today
	return s
}

// Get returns the report for a period preset; unknown keys fall back to the
// default period.
func (s *ReportService) Get(ctx context.Context, owner, period string) (Report, error) {
	key, r := report.ResolvePeriod(period, s.today())
	// The range moves with the calendar, so it is part of the slot.
	slot := key + "@" + r.Start.String()
	v, err := s.load(ctx, owner, slot, func(txs []core.Transaction) any {
		return Report{
			Period:     key,
			Range:      r,
			Totals:     report.Sum(report.Filter(txs, r)),
			Balance:    report.RunningBalanceSeries(txs, r),
			Monthly:    report.MonthlyIncomeExpense(txs, r),
			ByCategory: report.ExpensesByCategory(report.Filter(txs, r)),
		}
	})
	if err != nil {
		return Report{}, err
	}
	return v.(Report), nil
}

// ExpensesByCategory is the breakdown over every transaction the owner has.
func (s *ReportService) ExpensesByCategory(ctx context.Context, owner string) ([]report.CategoryShare, error) {
	v, err := s.load(ctx, owner, allTimeKey, func(txs []core.Transaction) any {
		return report.ExpensesByCategory(txs)
	})
	if err != nil {
		return nil, err
	}
	return v.([]report.CategoryShare), nil
}

// Invalidate drops every cached report of owner.
func (s *ReportService) Invalidate(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[owner]++
	if s.cache != nil {
		s.cache.DeletePrefix(owner + "|")
	}
}

// storeIfCurrent caches v unless owner's data changed since generation gen was read.
// The check and the write happen under the lock Invalidate takes.
func (s *ReportService) storeIfCurrent(owner string, gen uint64, cacheKey string, v any) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[owner] == gen {
		s.cache.Set(cacheKey, v)
	}
}

func (s *ReportService) generation(owner string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[owner]
}

func (s *ReportService) load(ctx context.Context, owner, slot string, build func([]core.Transaction) any) (any, error) {
	cacheKey := owner + "|" + slot
	if s.cache != nil {
		if v, ok := s.cache.Get(cacheKey); ok {
			return v, nil
		}
	}

	gen := s.generation(owner)
	flightKey := cacheKey + "|" + strconv.FormatUint(gen, 10)
	v, err, shared := s.group.Do(flightKey, func() (any, error) {
		txs, err := s.store.ListTransactions(ctx, owner, store.TransactionFilter{})
		if err != nil {
			return nil, fmt.Errorf("load transactions for report: %w", err)
		}
		out := build(txs)
		s.storeIfCurrent(owner, gen, cacheKey, out)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "Report computed", applog.FieldPeriod, slot, "shared", shared)
	return v, nil
}
