package rules

import (
	"fmt"
	"slices"

	"github.com/ncruces/go-strftime"
	"gopkg.in/yaml.v3"

	"github.com/SethMMorton/tidymoney/internal/domain"
)

// CsvMapping is the per-account-type profile: which CSV header signature
// identifies the account, how to rename the bank's columns to canonical
// names, which date format the bank uses, and its amount sign convention.
type CsvMapping struct {
	// Label uniquely identifies the account; it names the output file and
	// the watermark entry.
	Label string
	// Identify is the exact, ordered header signature of this bank's CSV.
	Identify []string
	// Translate maps canonical column names to the bank's column names.
	Translate *ColumnMap
	// DateFormat is a strftime format string, default "%Y-%m-%d".
	DateFormat string
	// DebitIsPositive marks banks that export debits as positive numbers;
	// raw amounts are negated so debits end up negative.
	DebitIsPositive bool
}

// ColumnMap names the source column for each canonical output column.
type ColumnMap struct {
	Payee    *string
	Date     *string
	Amount   *string
	Category *string
	Memo     *string
	Check    *string
}

type columnPair struct {
	target string
	source *string
}

// pairs lists canonical targets with their configured sources, in output
// column order.
func (c *ColumnMap) pairs() []columnPair {
	return []columnPair{
		{domain.ColumnPayee, c.Payee},
		{domain.ColumnDate, c.Date},
		{domain.ColumnAmount, c.Amount},
		{domain.ColumnCategory, c.Category},
		{domain.ColumnMemo, c.Memo},
		{domain.ColumnCheck, c.Check},
	}
}

// UnmarshalYAML decodes a mapping profile, rejecting unknown fields.
func (m *CsvMapping) UnmarshalYAML(node *yaml.Node) error {
	m.DateFormat = domain.DateFormat

	return eachKey(node, "csv mapping", func(key string, value *yaml.Node) error {
		var err error
		switch key {
		case "label":
			m.Label, err = decodeString(value, "label")
		case "identify":
			if err = value.Decode(&m.Identify); err != nil {
				err = fmt.Errorf("%w: identify must be a list of column names (line %d)",
					domain.ErrConfig, value.Line)
			}
		case "translate":
			m.Translate = &ColumnMap{}
			err = m.Translate.unmarshal(value)
		case "date_fmt":
			m.DateFormat, err = decodeString(value, "date_fmt")
		case "debit_is_positive":
			m.DebitIsPositive, err = decodeBool(value, "debit_is_positive")
		default:
			return errUnknownField("csv mapping", key, value)
		}
		return err
	})
}

func (c *ColumnMap) unmarshal(node *yaml.Node) error {
	return eachKey(node, "translate", func(key string, value *yaml.Node) error {
		s, err := decodeString(value, key)
		if err != nil {
			return err
		}
		switch key {
		case domain.ColumnPayee:
			c.Payee = &s
		case domain.ColumnDate:
			c.Date = &s
		case domain.ColumnAmount:
			c.Amount = &s
		case domain.ColumnCategory:
			c.Category = &s
		case domain.ColumnMemo:
			c.Memo = &s
		case domain.ColumnCheck:
			c.Check = &s
		default:
			return errUnknownField("translate", key, value)
		}
		return nil
	})
}

// HeaderMatches reports whether the given CSV header row is exactly this
// account's signature. The comparison is order-sensitive and includes any
// leading whitespace the bank puts in its column names.
func (m *CsvMapping) HeaderMatches(headers []string) bool {
	return slices.Equal(m.Identify, headers)
}

// Remap renames the translated columns of a raw row to their canonical
// names. Columns without a translation pass through under their original
// names, which is how canonical-named source columns (e.g. a bank's own
// "Category") survive.
func (m *CsvMapping) Remap(row map[string]string) map[string]string {
	if m.Translate == nil {
		return row
	}
	for _, p := range m.Translate.pairs() {
		if p.source == nil {
			continue
		}
		if value, ok := row[*p.source]; ok {
			delete(row, *p.source)
			row[p.target] = value
		}
	}
	return row
}

// Validate ensures every translation source is a column this account
// actually has, and that the date format is usable.
func (m *CsvMapping) Validate() error {
	if m.Label == "" {
		return fmt.Errorf("%w: a csv mapping is missing its label", domain.ErrConfig)
	}
	if len(m.Identify) == 0 {
		return fmt.Errorf("%w: the account %q does not list any identify columns",
			domain.ErrConfig, m.Label)
	}
	if _, err := strftime.Layout(m.DateFormat); err != nil {
		return fmt.Errorf("%w: the account %q has an unusable date format %q: %v",
			domain.ErrConfig, m.Label, m.DateFormat, err)
	}
	if m.Translate != nil {
		for _, p := range m.Translate.pairs() {
			if p.source != nil && !slices.Contains(m.Identify, *p.source) {
				return fmt.Errorf("%w: the account %q lists %q for translation but it is not listed in identify",
					domain.ErrConfig, m.Label, *p.source)
			}
		}
	}
	return nil
}
