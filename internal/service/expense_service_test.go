package service

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"expense-records/internal/models"
	"expense-records/internal/storage"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore is a mock implementation of the expense store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, e models.Expense) (models.Expense, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(models.Expense), args.Error(1)
}

func (m *MockStore) FindAll(ctx context.Context) iter.Seq2[models.Expense, error] {
	args := m.Called(ctx)
	return args.Get(0).(iter.Seq2[models.Expense, error])
}

func (m *MockStore) FindByID(ctx context.Context, id int64) (models.Expense, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Expense), args.Bool(1), args.Error(2)
}

func (m *MockStore) Update(ctx context.Context, newValues models.Expense, match storage.Criteria) (int64, error) {
	args := m.Called(ctx, newValues, match)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, match storage.Criteria) (int64, error) {
	args := m.Called(ctx, match)
	return args.Get(0).(int64), args.Error(1)
}

func seqOf(expenses []models.Expense, err error) iter.Seq2[models.Expense, error] {
	return func(yield func(models.Expense, error) bool) {
		for _, e := range expenses {
			if !yield(e, nil) {
				return
			}
		}
		if err != nil {
			yield(models.Expense{}, err)
		}
	}
}

func coffee() models.Expense {
	return models.Expense{
		Description: "Coffee",
		Amount:      decimal.RequireFromString("3.50"),
		Category:    models.StringPtr("Food"),
		Date:        models.DatePtr(models.NewDate(2024, time.January, 10)),
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Forwards result", func(t *testing.T) {
		repo := new(MockStore)
		svc := NewExpenseService(repo, zerolog.Nop())

		created := coffee()
		created.ID = 1
		repo.On("Create", ctx, coffee()).Return(created, nil).Once()

		got, err := svc.Create(ctx, coffee())

		assert.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
		repo.AssertExpectations(t)
	})

	t.Run("Forwards error unchanged", func(t *testing.T) {
		repo := new(MockStore)
		svc := NewExpenseService(repo, zerolog.Nop())

		storeErr := &storage.Error{Op: "create expense", Kind: storage.ErrValidation}
		repo.On("Create", ctx, mock.Anything).Return(models.Expense{}, storeErr).Once()

		_, err := svc.Create(ctx, models.Expense{})

		assert.Same(t, storeErr, err)
		assert.ErrorIs(t, err, storage.ErrValidation)
		repo.AssertExpectations(t)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("Collects sequence", func(t *testing.T) {
		repo := new(MockStore)
		svc := NewExpenseService(repo, zerolog.Nop())
		repo.On("FindAll", ctx).Return(seqOf([]models.Expense{coffee(), coffee()}, nil)).Once()

		got, err := svc.List(ctx)

		require.NoError(t, err)
		assert.Len(t, got, 2)
		repo.AssertExpectations(t)
	})

	t.Run("Stops on error", func(t *testing.T) {
		repo := new(MockStore)
		svc := NewExpenseService(repo, zerolog.Nop())
		failure := errors.New("connection reset")
		repo.On("FindAll", ctx).Return(seqOf([]models.Expense{coffee()}, failure)).Once()

		got, err := svc.List(ctx)

		assert.ErrorIs(t, err, failure)
		assert.Nil(t, got)
	})
}

func TestFindByID(t *testing.T) {
	ctx := context.Background()
	repo := new(MockStore)
	svc := NewExpenseService(repo, zerolog.Nop())
	repo.On("FindByID", ctx, int64(5)).Return(models.Expense{}, false, nil).Once()

	_, ok, err := svc.FindByID(ctx, 5)

	assert.NoError(t, err)
	assert.False(t, ok)
	repo.AssertExpectations(t)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := new(MockStore)
	svc := NewExpenseService(repo, zerolog.Nop())

	match := storage.ByNaturalKey(coffee())
	changed := coffee()
	changed.Amount = decimal.NewFromInt(4)

	repo.On("Update", ctx, changed, match).Return(int64(1), nil).Once()
	repo.On("Delete", ctx, storage.ByID(9)).Return(int64(0), nil).Once()

	n, err := svc.Update(ctx, changed, match)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = svc.Delete(ctx, storage.ByID(9))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	repo.AssertExpectations(t)
}

func TestLogsEachCall(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	repo := new(MockStore)
	svc := NewExpenseService(repo, zerolog.New(&buf).Level(zerolog.DebugLevel))

	repo.On("Delete", ctx, storage.ByID(3)).Return(int64(1), nil).Once()

	_, err := svc.Delete(ctx, storage.ByID(3))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"component":"expense_service"`)
	assert.Contains(t, buf.String(), `"match":"id=3"`)
	assert.Contains(t, buf.String(), `"affected":1`)
}
