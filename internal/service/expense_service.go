package service

import (
	"context"
	"iter"

	"expense-records/internal/models"
	"expense-records/internal/storage"

	"github.com/rs/zerolog"
)

// Store is the persistence contract the service forwards to.
type Store interface {
	Create(ctx context.Context, e models.Expense) (models.Expense, error)
	FindAll(ctx context.Context) iter.Seq2[models.Expense, error]
	FindByID(ctx context.Context, id int64) (models.Expense, bool, error)
	Update(ctx context.Context, newValues models.Expense, match storage.Criteria) (int64, error)
	Delete(ctx context.Context, match storage.Criteria) (int64, error)
}

// ExpenseService is the entry point callers use for expenses. Build it once
// at startup and pass it to whoever needs it.
type ExpenseService struct {
	store Store
	log   zerolog.Logger
}

// NewExpenseService creates a new expense service.
func NewExpenseService(store Store, log zerolog.Logger) *ExpenseService {
	return &ExpenseService{store: store, log: log.With().Str("component", "expense_service").Logger()}
}

// Create stores a new expense.
func (s *ExpenseService) Create(ctx context.Context, e models.Expense) (models.Expense, error) {
	created, err := s.store.Create(ctx, e)
	s.log.Debug().Err(err).Int64("id", created.ID).Str("description", e.Description).Msg("create")
	return created, err
}

// FindAll returns a single-use sequence over all expenses.
func (s *ExpenseService) FindAll(ctx context.Context) iter.Seq2[models.Expense, error] {
	s.log.Debug().Msg("find all")
	return s.store.FindAll(ctx)
}

// List returns all expenses as a slice.
func (s *ExpenseService) List(ctx context.Context) ([]models.Expense, error) {
	expenses, err := storage.Collect(s.FindAll(ctx))
	s.log.Debug().Err(err).Int("count", len(expenses)).Msg("list")
	return expenses, err
}

// FindByID looks up one expense. ok is false when it does not exist.
func (s *ExpenseService) FindByID(ctx context.Context, id int64) (e models.Expense, ok bool, err error) {
	e, ok, err = s.store.FindByID(ctx, id)
	s.log.Debug().Err(err).Int64("id", id).Bool("found", ok).Msg("find by id")
	return e, ok, err
}

// Update applies newValues to the rows selected by match.
func (s *ExpenseService) Update(ctx context.Context, newValues models.Expense, match storage.Criteria) (int64, error) {
	n, err := s.store.Update(ctx, newValues, match)
	s.log.Debug().Err(err).Stringer("match", match).Int64("affected", n).Msg("update")
	return n, err
}

// Delete removes the rows selected by match.
func (s *ExpenseService) Delete(ctx context.Context, match storage.Criteria) (int64, error) {
	n, err := s.store.Delete(ctx, match)
	s.log.Debug().Err(err).Stringer("match", match).Int64("affected", n).Msg("delete")
	return n, err
}
