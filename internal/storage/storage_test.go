package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fecmatch/fecmatch/internal/common"
	"github.com/fecmatch/fecmatch/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testTransaction(id, label, account, amount string) model.Transaction {
	txn := model.Transaction{
		ID:                 id,
		Label:              label,
		JournalCode:        "BQ",
		CounterpartAccount: account,
		Date:               time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:             decimal.RequireFromString(amount),
	}
	txn.Hash = txn.GenerateHash()
	return txn
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestSaveAndListTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	txns := []model.Transaction{
		testTransaction("1", "VIREMENT LOYER JANVIER", "613000", "-500"),
		testTransaction("2", "REMISE CHEQUE 42", "411000", "250.50"),
	}
	inserted, err := store.SaveTransactions(ctx, txns)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	got, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "VIREMENT LOYER JANVIER", got[0].Label)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("-500")))
	assert.True(t, got[1].Amount.Equal(decimal.RequireFromString("250.50")))

	count, err := store.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSaveTransactionsSkipsDuplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testTransaction("1", "VIREMENT LOYER JANVIER", "613000", "-500")
	inserted, err := store.SaveTransactions(ctx, []model.Transaction{first})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// Same line under a new ID: identical hash, so the re-import is a no-op.
	duplicate := first
	duplicate.ID = "99"
	inserted, err = store.SaveTransactions(ctx, []model.Transaction{duplicate})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	count, err := store.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListTransactionsByAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveTransactions(ctx, []model.Transaction{
		testTransaction("1", "VIREMENT LOYER JANVIER", "613000", "-500"),
		testTransaction("2", "REMISE CHEQUE 42", "411000", "250"),
	})
	require.NoError(t, err)

	got, err := store.ListTransactionsByAccount(ctx, "613000")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestRuleRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rule := &model.Rule{
		Name:               "613000 - VIREMENT LOYER",
		Keyword1:           "VIREMENT LOYER",
		JournalCode:        "BQ",
		DestinationAccount: "613000",
		IsActive:           true,
		Amount: &model.AmountCriterion{
			Operator: model.OpEqual,
			Value:    decimal.RequireFromString("-500"),
		},
	}
	require.NoError(t, store.SaveRule(ctx, rule))
	require.NotZero(t, rule.ID)

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "VIREMENT LOYER", got.Keyword1)
	assert.Equal(t, "BQ", got.JournalCode)
	assert.True(t, got.IsActive)
	require.NotNil(t, got.Amount)
	assert.Equal(t, model.OpEqual, got.Amount.Operator)
	assert.True(t, got.Amount.Value.Equal(decimal.RequireFromString("-500")))
}

func TestRuleBetweenCriterion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rule := &model.Rule{
		Name:               "606300 - CARBURANT",
		Keyword1:           "CARBURANT",
		DestinationAccount: "606300",
		IsActive:           true,
		Amount: &model.AmountCriterion{
			Operator: model.OpBetween,
			Low:      decimal.RequireFromString("-100"),
			High:     decimal.RequireFromString("-10"),
		},
	}
	require.NoError(t, store.SaveRule(ctx, rule))

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Amount)
	assert.Equal(t, model.OpBetween, got.Amount.Operator)
	assert.True(t, got.Amount.Low.Equal(decimal.RequireFromString("-100")))
	assert.True(t, got.Amount.High.Equal(decimal.RequireFromString("-10")))
}

func TestSaveRuleRejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveRule(context.Background(), &model.Rule{
		Name:     "no destination",
		Keyword1: "EDF",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidRule)
}

func TestListRulesActiveOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	active := &model.Rule{Name: "a", Keyword1: "EDF", DestinationAccount: "606100", IsActive: true}
	inactive := &model.Rule{Name: "b", Keyword1: "LOYER", DestinationAccount: "613000", IsActive: false}
	require.NoError(t, store.SaveRule(ctx, active))
	require.NoError(t, store.SaveRule(ctx, inactive))

	all, err := store.ListRules(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := store.ListRules(ctx, true)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, "EDF", onlyActive[0].Keyword1)
}

func TestSetRuleActive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rule := &model.Rule{Name: "a", Keyword1: "EDF", DestinationAccount: "606100", IsActive: true}
	require.NoError(t, store.SaveRule(ctx, rule))

	require.NoError(t, store.SetRuleActive(ctx, rule.ID, false))
	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	err = store.SetRuleActive(ctx, 9999, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteRule(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rule := &model.Rule{Name: "a", Keyword1: "EDF", DestinationAccount: "606100", IsActive: true}
	require.NoError(t, store.SaveRule(ctx, rule))
	require.NoError(t, store.DeleteRule(ctx, rule.ID))

	_, err := store.GetRule(ctx, rule.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveImportRecord(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveImport(context.Background(), ImportRecord{
		ID:         "batch-1",
		Filename:   "export.txt",
		TotalLines: 100,
		BankLines:  40,
		Separator:  ";",
	})
	require.NoError(t, err)
}
