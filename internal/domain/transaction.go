// Package domain holds the canonical transaction record produced from any
// raw bank export row, independent of the source bank's CSV format.
package domain

import (
	"fmt"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/ncruces/go-strftime"
	"github.com/shopspring/decimal"
)

// Canonical column names. Mapping profiles rename bank-specific columns to
// these before a Transaction is constructed, and the serialized output uses
// them as its header.
const (
	ColumnDate     = "Date"
	ColumnPayee    = "Payee"
	ColumnCategory = "Category"
	ColumnMemo     = "Memo"
	ColumnAmount   = "Amount"
	ColumnCheck    = "Check#"
)

// DateFormat is the strftime format for all dates the tool emits or stores.
const DateFormat = "%Y-%m-%d"

// Transaction is the normalized form of one bank export row.
//
// Monetary values use exact decimal arithmetic; binary floating point is
// never used for money anywhere in this codebase.
type Transaction struct {
	Date     civil.Date
	Payee    string
	Category *string
	Memo     *string
	Amount   decimal.Decimal
	Check    *uint

	// OriginalPayee is the payee text exactly as it appeared in the source
	// row. It exists only for rule matching: immutable after construction
	// and never serialized to output.
	OriginalPayee string
}

// NewTransaction builds a Transaction from a remapped row. The row must
// already use canonical column names (see CsvMapping.Remap). Each missing
// required column is a distinct error naming the account so the user can
// tell which mapping profile is wrong.
func NewTransaction(row map[string]string, negate bool, dateFormat, account string) (*Transaction, error) {
	rawDate, ok := row[ColumnDate]
	if !ok {
		return nil, fmt.Errorf("%w: a row for account %q has no Date column", ErrInput, account)
	}
	parsed, err := strftime.Parse(dateFormat, rawDate)
	if err != nil {
		return nil, fmt.Errorf("%w: account %q: cannot read %q as a date in format %q: %v",
			ErrInput, account, rawDate, dateFormat, err)
	}

	payee, ok := row[ColumnPayee]
	if !ok {
		return nil, fmt.Errorf("%w: a row for account %q has no Payee column", ErrInput, account)
	}

	rawAmount, ok := row[ColumnAmount]
	if !ok {
		return nil, fmt.Errorf("%w: a row for account %q has no Amount column", ErrInput, account)
	}

	t := &Transaction{
		Date:          civil.DateOf(parsed),
		Payee:         payee,
		Amount:        InterpretAmount(rawAmount, negate),
		OriginalPayee: payee,
	}
	if category, ok := row[ColumnCategory]; ok {
		t.Category = &category
	}
	if memo, ok := row[ColumnMemo]; ok {
		t.Memo = &memo
	}
	if raw, ok := row[ColumnCheck]; ok {
		// A non-numeric check column (common for banks that reuse it for
		// reference text) is simply treated as no check number.
		if n, err := strconv.ParseUint(raw, 10, 32); err == nil {
			check := uint(n)
			t.Check = &check
		}
	}
	return t, nil
}

// InterpretAmount converts a dollar amount in string form to an exact
// decimal, defaulting to zero if it cannot be converted. Some banks export
// debits as positive numbers; negate re-interprets those.
func InterpretAmount(raw string, negate bool) decimal.Decimal {
	amt, err := decimal.NewFromString(raw)
	if err != nil {
		amt = decimal.Zero
	}
	if negate {
		return amt.Neg()
	}
	return amt
}

// FormatAmount renders an amount preserving the decimal scale it was parsed
// with, so a bank's "-49.00" round-trips as "-49.00" rather than "-49".
func FormatAmount(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
