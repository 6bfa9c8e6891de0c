package rules

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/SethMMorton/tidymoney/internal/domain"
)

// PayeeRule decides whether a transaction should be renamed to the payee
// name that owns it. The transaction amount and date can be taken into
// account in addition to the pattern.
//
// All amount comparisons use absolute values so rules can be written
// without tracking the debit/credit sign convention of each bank.
type PayeeRule struct {
	// Pattern identifies the payee in the raw payee text.
	Pattern Pattern
	// MinAmount and MaxAmount bound the transaction amount, inclusive.
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	// Amount requires the transaction amount to match exactly.
	Amount *decimal.Decimal
	// Day-of-month window, 1-31, wraparound allowed.
	MinDateInMonth *int
	MaxDateInMonth *int
	// Day-of-year window, wraparound across December allowed.
	MinDateInYear *DayOfYear
	MaxDateInYear *DayOfYear
}

// UnmarshalYAML accepts either a bare string, shorthand for a pattern-only
// rule, or a mapping with the full field set. Unknown fields are rejected.
func (r *PayeeRule) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		p, err := NewPattern(node.Value)
		if err != nil {
			return err
		}
		*r = PayeeRule{Pattern: p}
		return nil
	}

	return eachKey(node, "payee rule", func(key string, value *yaml.Node) error {
		var err error
		switch key {
		case "Pattern":
			r.Pattern, err = decodePattern(value, "Pattern")
		case "MinAmount":
			r.MinAmount, err = decodeDecimal(value, "MinAmount")
		case "MaxAmount":
			r.MaxAmount, err = decodeDecimal(value, "MaxAmount")
		case "Amount":
			r.Amount, err = decodeDecimal(value, "Amount")
		case "MinDateInMonth":
			r.MinDateInMonth, err = decodeInt(value, "MinDateInMonth")
		case "MaxDateInMonth":
			r.MaxDateInMonth, err = decodeInt(value, "MaxDateInMonth")
		case "MinDateInYear":
			r.MinDateInYear, err = decodeDayOfYear(value, "MinDateInYear")
		case "MaxDateInYear":
			r.MaxDateInYear, err = decodeDayOfYear(value, "MaxDateInYear")
		default:
			return errUnknownField("payee rule", key, value)
		}
		return err
	})
}

// Matches reports whether the transaction satisfies every condition of the
// rule: amount bounds, exact amount, pattern against the original payee
// text, and the date windows.
func (r *PayeeRule) Matches(t *domain.Transaction) bool {
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

	// Matching is always against the payee as the bank wrote it, not
	// against a name an earlier rule may have assigned.
	if !r.Pattern.MatchString(t.OriginalPayee) {
		return false
	}

	return !OutsideRange(t.Date, r.MinDateInMonth, r.MaxDateInMonth, r.MinDateInYear, r.MaxDateInYear)
}

// Validate ensures the rule's date bounds are semantically possible. name
// is the owning payee, used in error messages.
func (r *PayeeRule) Validate(name string) error {
	if r.Pattern.IsZero() {
		return fmt.Errorf("%w: the payee %q has a rule without a Pattern", domain.ErrConfig, name)
	}
	return ValidateDateFilters("payee", name, r.MinDateInMonth, r.MaxDateInMonth, r.MinDateInYear, r.MaxDateInYear)
}

// Key returns the canonical value identity of the rule. Two rules with the
// same key are the same rule; the rule store uses this to detect the same
// rule accidentally defined under two different payee names.
func (r *PayeeRule) Key() string {
	fields := []string{
		r.Pattern.String(),
		decimalKey(r.MinAmount),
		decimalKey(r.MaxAmount),
		decimalKey(r.Amount),
		intKey(r.MinDateInMonth),
		intKey(r.MaxDateInMonth),
		dayOfYearKey(r.MinDateInYear),
		dayOfYearKey(r.MaxDateInYear),
	}
	return strings.Join(fields, "\x1f")
}

func decimalKey(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func intKey(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprint(*n)
}

func dayOfYearKey(d *DayOfYear) string {
	if d == nil {
		return ""
	}
	return d.String()
}
