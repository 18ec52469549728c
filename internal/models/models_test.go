package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		progress string
		want     BudgetStatus
	}{
		{"0", BudgetStatusOnTrack},
		{"49.99", BudgetStatusOnTrack},
		{"50", BudgetStatusWarning},
		{"74.99", BudgetStatusWarning},
		{"75", BudgetStatusCritical},
		{"99.99", BudgetStatusCritical},
		{"100", BudgetStatusExceeded},
		{"160", BudgetStatusExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.progress, func(t *testing.T) {
			if got := StatusFor(decimal.RequireFromString(tc.progress)); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestBudgetProgress(t *testing.T) {
	t.Run("zero_amount_is_on_track", func(t *testing.T) {
		b := &Budget{Amount: decimal.Zero, Spent: decimal.NewFromInt(40)}
		if !b.Progress().IsZero() {
			t.Errorf("expected zero progress, got %s", b.Progress())
		}
		if b.Status() != BudgetStatusOnTrack {
			t.Errorf("expected on_track, got %s", b.Status())
		}
	})

	t.Run("exceeded_has_negative_remaining", func(t *testing.T) {
		b := &Budget{Amount: decimal.NewFromInt(150), Spent: decimal.NewFromInt(160)}
		if b.Status() != BudgetStatusExceeded {
			t.Errorf("expected exceeded, got %s", b.Status())
		}
		if !b.Remaining().Equal(decimal.NewFromInt(-10)) {
			t.Errorf("expected remaining -10, got %s", b.Remaining())
		}
	})
}

func TestStringList(t *testing.T) {
	t.Run("dedupes_preserving_order", func(t *testing.T) {
		got := NewStringList([]string{"food", " rent ", "food", "", "travel"})
		want := []string{"food", "rent", "travel"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("index %d: expected %s, got %s", i, want[i], got[i])
			}
		}
	})

	t.Run("value_and_scan", func(t *testing.T) {
		v, err := StringList{"a", "b"}.Value()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var back StringList
		if err := back.Scan(v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(back) != 2 || back[0] != "a" || back[1] != "b" {
			t.Errorf("unexpected scan result %v", back)
		}
	})

	t.Run("nil_is_empty_array", func(t *testing.T) {
		var l StringList
		v, _ := l.Value()
		if v != "[]" {
			t.Errorf("expected [], got %v", v)
		}
		if err := l.Scan(nil); err != nil || len(l) != 0 {
			t.Errorf("expected empty list, got %v (%v)", l, err)
		}
	})
}

func TestAccountTypeClassification(t *testing.T) {
	for _, at := range AccountTypes {
		if at.IsAsset() == at.IsLiability() {
			t.Errorf("%s must be exactly one of asset or liability", at)
		}
	}
	if AccountType("investment").Valid() {
		t.Error("investment is not a supported account type")
	}
}

func TestTransactionTypeSides(t *testing.T) {
	if TransactionTypeIncome.NeedsSource() || !TransactionTypeIncome.NeedsDestination() {
		t.Error("income only credits a destination")
	}
	if !TransactionTypeExpense.NeedsSource() || TransactionTypeExpense.NeedsDestination() {
		t.Error("expense only debits a source")
	}
	if !TransactionTypeTransfer.NeedsSource() || !TransactionTypeTransfer.NeedsDestination() {
		t.Error("transfer needs both sides")
	}
}
