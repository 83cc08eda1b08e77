package storage

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"slices"
	"sync/atomic"

	"expense-records/internal/models"

	"github.com/shopspring/decimal"
)

const (
	tableName    = "expenses"
	fieldColumns = "description, amount, category, date"
)

var errSequenceConsumed = errors.New("expense sequence already consumed")

// Options describe the deployment a store talks to.
type Options struct {
	Dialect     Dialect
	Identity    Identity
	// RequireDate rejects expenses and natural keys without a date.
	RequireDate bool
}

// ExpenseStore maps expenses to rows of the expenses table. It holds no
// connection between calls and is safe for concurrent use.
type ExpenseStore struct {
	provider ConnectionProvider
	opts     Options
	resolver IdentityResolver

	insertQuery    string
	selectAllQuery string
	selectOneQuery string
	updateQuery    string
	deleteQuery    string
}

// NewExpenseStore returns a store that acquires connections from provider.
func NewExpenseStore(provider ConnectionProvider, opts Options) *ExpenseStore {
	s := &ExpenseStore{
		provider: provider,
		opts:     opts,
		resolver: NewIdentityResolver(opts.Dialect, opts.Identity, opts.RequireDate),
	}

	columns := fieldColumns
	if opts.Identity == IdentitySurrogate {
		columns = "id, " + fieldColumns
	}
	insert := "INSERT INTO " + tableName + " (" + fieldColumns + ") VALUES (?, ?, ?, ?)"
	if opts.Identity == IdentitySurrogate && opts.Dialect.Returning {
		insert += " RETURNING id"
	}
	s.insertQuery = opts.Dialect.Rebind(insert)
	s.selectAllQuery = "SELECT " + columns + " FROM " + tableName
	s.selectOneQuery = opts.Dialect.Rebind("SELECT " + columns + " FROM " + tableName + " WHERE id = ?")
	s.updateQuery = "UPDATE " + tableName + " SET description = ?, amount = ?, category = ?, date = ? WHERE "
	s.deleteQuery = "DELETE FROM " + tableName + " WHERE "
	return s
}

// Create inserts e and returns it with its generated id in surrogate
// deployments.
func (s *ExpenseStore) Create(ctx context.Context, e models.Expense) (models.Expense, error) {
	const op = "create expense"
	if err := e.Validate(s.opts.RequireDate); err != nil {
		return models.Expense{}, newError(op, ErrValidation, err)
	}

	conn, err := s.provider.Acquire(ctx)
	if err != nil {
		return models.Expense{}, newError(op, ErrStorage, err)
	}
	defer conn.Close()

	e.Amount = e.Amount.Round(models.AmountPlaces)
	args := fieldArgs(e)

	if s.opts.Identity == IdentityNaturalKey {
		if _, err := conn.ExecContext(ctx, s.insertQuery, args...); err != nil {
			return models.Expense{}, newError(op, ErrStorage, err)
		}
		e.ID = 0
		return e, nil
	}

	if s.opts.Dialect.Returning {
		var id int64
		err := conn.QueryRowContext(ctx, s.insertQuery, args...).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.Expense{}, newError(op, ErrIntegrity, err)
		case err != nil:
			return models.Expense{}, newError(op, ErrStorage, err)
		}
		e.ID = id
		return e, nil
	}

	result, err := conn.ExecContext(ctx, s.insertQuery, args...)
	if err != nil {
		return models.Expense{}, newError(op, ErrStorage, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.Expense{}, newError(op, ErrIntegrity, err)
	}
	if id <= 0 {
		return models.Expense{}, newError(op, ErrIntegrity, errors.New("store returned no id"))
	}
	e.ID = id
	return e, nil
}

// FindAll returns every row in store order. The sequence reads lazily over
// one connection, which is released when iteration ends. It can be ranged
// over once; call FindAll again to re-read.
func (s *ExpenseStore) FindAll(ctx context.Context) iter.Seq2[models.Expense, error] {
	const op = "find all expenses"
	var consumed atomic.Bool

	return func(yield func(models.Expense, error) bool) {
		if consumed.Swap(true) {
			yield(models.Expense{}, newError(op, ErrStorage, errSequenceConsumed))
			return
		}

		conn, err := s.provider.Acquire(ctx)
		if err != nil {
			yield(models.Expense{}, newError(op, ErrStorage, err))
			return
		}
		defer conn.Close()

		rows, err := conn.QueryContext(ctx, s.selectAllQuery)
		if err != nil {
			yield(models.Expense{}, newError(op, ErrStorage, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			e, err := s.scan(rows)
			if err != nil {
				yield(models.Expense{}, newError(op, ErrStorage, err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Expense{}, newError(op, ErrStorage, err))
		}
	}
}

// List materializes FindAll.
func (s *ExpenseStore) List(ctx context.Context) ([]models.Expense, error) {
	return Collect(s.FindAll(ctx))
}

// FindByID returns the expense with the given id. The boolean is false when
// no such row exists.
func (s *ExpenseStore) FindByID(ctx context.Context, id int64) (models.Expense, bool, error) {
	const op = "find expense"
	if _, err := s.resolver.Resolve(ByID(id)); err != nil {
		return models.Expense{}, false, newError(op, ErrInvalidCriteria, err)
	}

	conn, err := s.provider.Acquire(ctx)
	if err != nil {
		return models.Expense{}, false, newError(op, ErrStorage, err)
	}
	defer conn.Close()

	e, err := s.scan(conn.QueryRowContext(ctx, s.selectOneQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Expense{}, false, nil
	}
	if err != nil {
		return models.Expense{}, false, newError(op, ErrStorage, err)
	}
	return e, true, nil
}

// Update writes the fields of newValues to the rows selected by match and
// returns the number of rows changed. By id, zero rows is not an error. By
// natural key, anything other than exactly one match is rolled back and
// reported as a *MatchError.
func (s *ExpenseStore) Update(ctx context.Context, newValues models.Expense, match Criteria) (int64, error) {
	const op = "update expense"
	if err := newValues.Validate(s.opts.RequireDate); err != nil {
		return 0, newError(op, ErrValidation, err)
	}
	pred, err := s.resolver.Resolve(match)
	if err != nil {
		return 0, newError(op, ErrInvalidCriteria, err)
	}

	newValues.Amount = newValues.Amount.Round(models.AmountPlaces)
	query := s.opts.Dialect.Rebind(s.updateQuery + pred.Clause)
	args := append(fieldArgs(newValues), pred.Args...)
	return s.modify(ctx, op, query, args, match.IsNaturalKey())
}

// Delete removes the rows selected by match and returns how many were
// removed. The same single-match rule as Update applies to natural keys.
func (s *ExpenseStore) Delete(ctx context.Context, match Criteria) (int64, error) {
	const op = "delete expense"
	pred, err := s.resolver.Resolve(match)
	if err != nil {
		return 0, newError(op, ErrInvalidCriteria, err)
	}

	query := s.opts.Dialect.Rebind(s.deleteQuery + pred.Clause)
	return s.modify(ctx, op, query, pred.Args, match.IsNaturalKey())
}

func (s *ExpenseStore) modify(ctx context.Context, op, query string, args []any, single bool) (int64, error) {
	conn, err := s.provider.Acquire(ctx)
	if err != nil {
		return 0, newError(op, ErrStorage, err)
	}
	defer conn.Close()

	if !single {
		result, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, newError(op, ErrStorage, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, newError(op, ErrStorage, err)
		}
		return n, nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, newError(op, ErrStorage, err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, newError(op, ErrStorage, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, newError(op, ErrStorage, err)
	}
	if n != 1 {
		return 0, &MatchError{Op: op, Matched: n}
	}
	if err := tx.Commit(); err != nil {
		return 0, newError(op, ErrStorage, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *ExpenseStore) scan(row rowScanner) (models.Expense, error) {
	var (
		e        models.Expense
		amount   decimal.Decimal
		category sql.NullString
		date     sql.Null[models.Date]
	)
	dest := []any{&e.Description, &amount, &category, &date}
	if s.opts.Identity == IdentitySurrogate {
		dest = append([]any{&e.ID}, dest...)
	}
	if err := row.Scan(dest...); err != nil {
		return models.Expense{}, err
	}

	e.Amount = amount.Round(models.AmountPlaces)
	if category.Valid {
		e.Category = &category.String
	}
	if date.Valid {
		e.Date = &date.V
	}
	return e, nil
}

func fieldArgs(e models.Expense) []any {
	return []any{e.Description, amountArg(e.Amount), nullableString(e.Category), nullableDate(e.Date)}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[models.Expense, error]) ([]models.Expense, error) {
	var expenses []models.Expense
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return slices.Clip(expenses), nil
}
