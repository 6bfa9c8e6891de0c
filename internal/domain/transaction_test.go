package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestInterpretAmount(t *testing.T) {
	tests := []struct {
		raw      string
		negate   bool
		expected string
	}{
		{"4.56", false, "4.56"},
		{"-4.56", false, "-4.56"},
		{"4.56", true, "-4.56"},
		{"-4.56", true, "4.56"},
		{"gandalf", false, "0"},
		{"gandalf", true, "0"},
	}

	for _, tt := range tests {
		got := InterpretAmount(tt.raw, tt.negate)
		want, _ := decimal.NewFromString(tt.expected)
		if !got.Equal(want) {
			t.Errorf("InterpretAmount(%q, %v) = %s; want %s", tt.raw, tt.negate, got, tt.expected)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"-49.00", "-49.00"},
		{"-15.32", "-15.32"},
		{"-6.02", "-6.02"},
		{"1500.0", "1500.0"},
		{"25", "25"},
		{"0.125", "0.125"},
	}

	for _, tt := range tests {
		d, err := decimal.NewFromString(tt.raw)
		if err != nil {
			t.Fatalf("decimal %q: %v", tt.raw, err)
		}
		if got := FormatAmount(d); got != tt.expected {
			t.Errorf("FormatAmount(%s) = %q; want %q", tt.raw, got, tt.expected)
		}
	}
}

func TestNewTransaction(t *testing.T) {
	row := map[string]string{
		"Date":     "2024-02-01",
		"Payee":    "ACE HARDWARE CO",
		"Category": "Home:Maintenance",
		"Memo":     "Nails",
		"Amount":   "-6.02",
		"Check#":   "123",
	}

	txn, err := NewTransaction(row, false, DateFormat, "test")
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}

	if txn.Date.String() != "2024-02-01" {
		t.Errorf("Date = %s; want 2024-02-01", txn.Date)
	}
	if txn.Payee != "ACE HARDWARE CO" || txn.OriginalPayee != "ACE HARDWARE CO" {
		t.Errorf("Payee = %q, OriginalPayee = %q", txn.Payee, txn.OriginalPayee)
	}
	if txn.Category == nil || *txn.Category != "Home:Maintenance" {
		t.Errorf("Category = %v; want Home:Maintenance", txn.Category)
	}
	if txn.Memo == nil || *txn.Memo != "Nails" {
		t.Errorf("Memo = %v; want Nails", txn.Memo)
	}
	if FormatAmount(txn.Amount) != "-6.02" {
		t.Errorf("Amount = %s; want -6.02", FormatAmount(txn.Amount))
	}
	if txn.Check == nil || *txn.Check != 123 {
		t.Errorf("Check = %v; want 123", txn.Check)
	}
}

func TestNewTransactionOptionalColumns(t *testing.T) {
	row := map[string]string{
		"Date":   "2024-01-01",
		"Payee":  "MOD PIZZA",
		"Amount": "-15.32",
	}

	txn, err := NewTransaction(row, false, DateFormat, "test")
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if txn.Category != nil || txn.Memo != nil || txn.Check != nil {
		t.Errorf("optional fields should be nil, got %v %v %v", txn.Category, txn.Memo, txn.Check)
	}
}

func TestNewTransactionNegate(t *testing.T) {
	row := map[string]string{
		"Date":   "2024-01-01",
		"Payee":  "MOD PIZZA",
		"Amount": "15.32",
	}
	txn, err := NewTransaction(row, true, DateFormat, "test")
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if FormatAmount(txn.Amount) != "-15.32" {
		t.Errorf("Amount = %s; want -15.32", FormatAmount(txn.Amount))
	}
}

func TestNewTransactionCustomDateFormat(t *testing.T) {
	row := map[string]string{
		"Date":   "09/14/2024",
		"Payee":  "Amazon.com",
		"Amount": "-29.99",
	}
	txn, err := NewTransaction(row, false, "%m/%d/%Y", "discover")
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if txn.Date.String() != "2024-09-14" {
		t.Errorf("Date = %s; want 2024-09-14", txn.Date)
	}
}

func TestNewTransactionMissingColumns(t *testing.T) {
	tests := []struct {
		name    string
		row     map[string]string
		wantErr string
	}{
		{
			name:    "missing date",
			row:     map[string]string{"Payee": "X", "Amount": "1"},
			wantErr: "no Date column",
		},
		{
			name:    "unparseable date",
			row:     map[string]string{"Date": "not a date", "Payee": "X", "Amount": "1"},
			wantErr: "cannot read",
		},
		{
			name:    "missing payee",
			row:     map[string]string{"Date": "2024-01-01", "Amount": "1"},
			wantErr: "no Payee column",
		},
		{
			name:    "missing amount",
			row:     map[string]string{"Date": "2024-01-01", "Payee": "X"},
			wantErr: "no Amount column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransaction(tt.row, false, DateFormat, "acct")
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !errors.Is(err, ErrInput) {
				t.Errorf("error should wrap ErrInput, got %v", err)
			}
		})
	}
}

func TestNewTransactionUnparseableAmountDefaultsToZero(t *testing.T) {
	row := map[string]string{
		"Date":   "2024-01-01",
		"Payee":  "PENDING HOLD",
		"Amount": "gandalf",
	}
	txn, err := NewTransaction(row, false, DateFormat, "test")
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if !txn.Amount.IsZero() {
		t.Errorf("Amount = %s; want 0", txn.Amount)
	}
}

func TestNewTransactionNonNumericCheck(t *testing.T) {
	row := map[string]string{
		"Date":   "2024-01-01",
		"Payee":  "X",
		"Amount": "1",
		"Check#": "ref-abc",
	}
	txn, err := NewTransaction(row, false, DateFormat, "test")
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if txn.Check != nil {
		t.Errorf("Check = %v; want nil for non-numeric text", txn.Check)
	}
}
