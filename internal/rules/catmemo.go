package rules

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/SethMMorton/tidymoney/internal/domain"
)

// CategoryMemoRule decides whether a transaction should be given the
// category or memo name that owns it. Unlike payee rules these have no
// date windows; they discriminate on the (possibly already reclassified)
// payee, the category, the amount, or the original payee text.
type CategoryMemoRule struct {
	// Payee must equal the transaction's current payee exactly.
	Payee *string
	// Category must equal a category already carried by the transaction,
	// either from the source row or assigned by an earlier category rule.
	// A transaction without a category never matches a Category filter.
	Category *string
	// Amount bounds and exact amount, absolute-value semantics.
	Amount    *decimal.Decimal
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	// IncomeOK, when false, excludes strictly positive amounts.
	IncomeOK bool
	// OrigPayee matches against the payee as the bank wrote it.
	OrigPayee *Pattern
}

// UnmarshalYAML decodes a single rule mapping; bare-string shorthand is not
// valid here because a pattern alone says nothing about which field to
// discriminate on.
func (r *CategoryMemoRule) UnmarshalYAML(node *yaml.Node) error {
	r.IncomeOK = true

	return eachKey(node, "category/memo rule", func(key string, value *yaml.Node) error {
		var err error
		switch key {
		case "Payee":
			var s string
			if s, err = decodeString(value, "Payee"); err == nil {
				r.Payee = &s
			}
		case "Category":
			var s string
			if s, err = decodeString(value, "Category"); err == nil {
				r.Category = &s
			}
		case "Amount":
			r.Amount, err = decodeDecimal(value, "Amount")
		case "MinAmount":
			r.MinAmount, err = decodeDecimal(value, "MinAmount")
		case "MaxAmount":
			r.MaxAmount, err = decodeDecimal(value, "MaxAmount")
		case "IncomeOK":
			r.IncomeOK, err = decodeBool(value, "IncomeOK")
		case "OrigPayee":
			var p Pattern
			if p, err = decodePattern(value, "OrigPayee"); err == nil {
				r.OrigPayee = &p
			}
		default:
			return errUnknownField("category/memo rule", key, value)
		}
		return err
	})
}

// HasCriteria reports whether at least one discriminating field is set. A
// rule with none would match every transaction, which is never intended.
func (r *CategoryMemoRule) HasCriteria() bool {
	return r.Payee != nil ||
		r.Category != nil ||
		r.MinAmount != nil ||
		r.MaxAmount != nil ||
		r.Amount != nil ||
		r.OrigPayee != nil
}

// Matches reports whether the transaction satisfies every condition set on
// the rule.
func (r *CategoryMemoRule) Matches(t *domain.Transaction) bool {
	if r.Payee != nil && *r.Payee != t.Payee {
		return false
	}

	if r.OrigPayee != nil && !r.OrigPayee.MatchString(t.OriginalPayee) {
		return false
	}

	if r.Category != nil && (t.Category == nil || *t.Category != *r.Category) {
		return false
	}

	if !r.IncomeOK && t.Amount.IsPositive() {
		return false
	}

	amt := t.Amount.Abs()
	if r.MinAmount != nil && amt.LessThan(r.MinAmount.Abs()) {
		return false
	}
	if r.MaxAmount != nil && amt.GreaterThan(r.MaxAmount.Abs()) {
		return false
	}
	if r.Amount != nil && !r.Amount.Abs().Equal(amt) {
		return false
	}

	return true
}

// Validate rejects rules with no discriminators. kind is "category" or
// "memo"; name is the owning category or memo.
func (r *CategoryMemoRule) Validate(kind, name string) error {
	if !r.HasCriteria() {
		return fmt.Errorf("%w: the %s %q must implement a rule", domain.ErrConfig, kind, name)
	}
	return nil
}
