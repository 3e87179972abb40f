package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

// DefaultFanOut bounds concurrent per-account queries.
const DefaultFanOut = 4

// ReconciliationService compares what the ledger says an account should hold
// with the balance the owner last observed.
type ReconciliationService struct {
	store  *storage.Store
	logger *log.Logger
	fanOut int
}

func NewReconciliationService(store *storage.Store, fanOut int, logger *log.Logger) *ReconciliationService {
	if fanOut < 1 {
		fanOut = DefaultFanOut
	}
	return &ReconciliationService{
		store:  store,
		logger: logger.WithComponent(log.ComponentReconciliation),
		fanOut: fanOut,
	}
}

// ExpectedBalance reconciles one account of the owner. When asOf is set only
// balance checks dated on or before it are considered.
func (s *ReconciliationService) ExpectedBalance(ctx context.Context, ownerID, accountID string, asOf *core.Date) (core.Reconciliation, error) {
	if _, err := s.store.GetAccount(ctx, ownerID, accountID); err != nil {
		return core.Reconciliation{}, err
	}
	return s.reconcile(ctx, ownerID, accountID, asOf)
}

func (s *ReconciliationService) reconcile(ctx context.Context, ownerID, accountID string, asOf *core.Date) (core.Reconciliation, error) {
	latest, err := s.store.LatestBalanceCheck(ctx, ownerID, accountID, asOf)
	if err != nil {
		return core.Reconciliation{}, err
	}

	var after *core.Date
	if latest != nil {
		after = &latest.Date
	}
	delta, err := s.store.SumTransactions(ctx, ownerID, accountID, after)
	if err != nil {
		return core.Reconciliation{}, err
	}

	r := core.Reconcile(accountID, latest, delta)
	s.logger.DebugContext(ctx, "Reconciled account",
		log.FieldOwnerID, ownerID,
		log.FieldAccountID, accountID,
		"expected", core.FormatAmount(r.ExpectedBalance),
		"balanced", r.Balanced)
	return r, nil
}

// AccountOverviews lists the owner's accounts with their running balance and
// reconciliation state. Accounts are reconciled concurrently.
func (s *ReconciliationService) AccountOverviews(ctx context.Context, ownerID string) ([]core.AccountOverview, error) {
	accounts, err := s.store.ListAccounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	totals, err := s.store.AccountTotals(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	overviews := make([]core.AccountOverview, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)
	for i, a := range accounts {
		g.Go(func() error {
			r, err := s.reconcile(gctx, ownerID, a.ID, nil)
			if err != nil {
				return err
			}
			overviews[i] = core.AccountOverview{
				Account:            a,
				Balance:            totals[a.ID],
				LastCheckedBalance: r.LastCheckedBalance,
				LastCheckedDate:    r.LastCheckedDate,
				ExpectedBalance:    r.ExpectedBalance,
				Balanced:           r.Balanced,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overviews, nil
}
