// Package rules implements the user-authored rule set: payee renaming
// rules, category and memo rules, per-account CSV mapping profiles, and the
// storage location, loaded once per run from a YAML document and immutable
// afterwards.
package rules

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SethMMorton/tidymoney/internal/domain"
	"github.com/SethMMorton/tidymoney/internal/storage"
)

// PayeeGroup is one named payee with its candidate rules, in the order they
// were written.
type PayeeGroup struct {
	Name  string
	Rules []PayeeRule
}

// CategoryMemoGroup is one named category or memo with its candidate rules.
type CategoryMemoGroup struct {
	Name  string
	Rules []CategoryMemoRule
}

// Mappings holds the per-format mapping profiles. CSV is currently the only
// input format.
type Mappings struct {
	CSV []CsvMapping
}

// Paths holds the filesystem locations the tool uses.
type Paths struct {
	// Storage is the directory where processed output and archived raw
	// files are kept. It must already exist.
	Storage string
}

// RuleFile is the aggregation of everything found in the rules file.
//
// The payee, category, and memo tables preserve declaration order, and
// classification uses the first rule that matches in that order. This is
// deliberate: with an unordered table, two overlapping rules would classify
// the same transaction differently from run to run.
type RuleFile struct {
	Payees     []PayeeGroup
	Categories []CategoryMemoGroup
	Memos      []CategoryMemoGroup
	Mappings   Mappings
	Paths      Paths
}

// Load parses and validates a rules document. The returned RuleFile is
// read-only for the rest of the run and safe to share across processors.
func Load(data []byte) (*RuleFile, error) {
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		if errors.Is(err, domain.ErrConfig) {
			return nil, err
		}
		// A raw yaml error means the document is not even well formed; the
		// yaml error text already carries line information.
		return nil, fmt.Errorf("%w: cannot parse the rules file: %v", domain.ErrConfig, err)
	}
	if err := rf.Validate(); err != nil {
		return nil, err
	}
	return &rf, nil
}

// LoadFile reads and parses the rules document at path.
func LoadFile(path string) (*RuleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	rf, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %q: %w", path, err)
	}
	return rf, nil
}

// UnmarshalYAML decodes the top-level document. Only the five known
// sections are accepted.
func (rf *RuleFile) UnmarshalYAML(node *yaml.Node) error {
	sawPayees := false
	sawMappings := false
	sawPaths := false

	err := eachKey(node, "rules file", func(key string, value *yaml.Node) error {
		switch key {
		case "payees":
			sawPayees = true
			return decodePayeeTable(value, &rf.Payees)
		case "categories":
			return decodeCategoryMemoTable(value, "category", &rf.Categories)
		case "memos":
			return decodeCategoryMemoTable(value, "memo", &rf.Memos)
		case "mappings":
			sawMappings = true
			return rf.Mappings.unmarshal(value)
		case "paths":
			sawPaths = true
			return rf.Paths.unmarshal(value)
		default:
			return errUnknownField("rules file", key, value)
		}
	})
	if err != nil {
		return err
	}

	if !sawPayees {
		return fmt.Errorf("%w: the rules file has no payees section", domain.ErrConfig)
	}
	if !sawMappings {
		return fmt.Errorf("%w: the rules file has no mappings section", domain.ErrConfig)
	}
	if !sawPaths {
		return fmt.Errorf("%w: the rules file has no paths section", domain.ErrConfig)
	}
	return nil
}

// decodePayeeTable reads the payees section. Each entry value may be a bare
// string (pattern-only shorthand), a single rule mapping, or a list mixing
// both forms; all three normalize to a rule list here so the polymorphism
// never reaches the matching logic.
func decodePayeeTable(node *yaml.Node, out *[]PayeeGroup) error {
	return eachKey(node, "payees", func(name string, value *yaml.Node) error {
		var group PayeeGroup
		group.Name = name

		switch value.Kind {
		case yaml.SequenceNode:
			for _, item := range value.Content {
				var rule PayeeRule
				if err := rule.UnmarshalYAML(item); err != nil {
					return err
				}
				group.Rules = append(group.Rules, rule)
			}
		default:
			var rule PayeeRule
			if err := rule.UnmarshalYAML(value); err != nil {
				return err
			}
			group.Rules = append(group.Rules, rule)
		}

		*out = append(*out, group)
		return nil
	})
}

func decodeCategoryMemoTable(node *yaml.Node, kind string, out *[]CategoryMemoGroup) error {
	return eachKey(node, kind+" table", func(name string, value *yaml.Node) error {
		var group CategoryMemoGroup
		group.Name = name

		switch value.Kind {
		case yaml.SequenceNode:
			for _, item := range value.Content {
				var rule CategoryMemoRule
				if err := rule.UnmarshalYAML(item); err != nil {
					return err
				}
				group.Rules = append(group.Rules, rule)
			}
		case yaml.MappingNode:
			var rule CategoryMemoRule
			if err := rule.UnmarshalYAML(value); err != nil {
				return err
			}
			group.Rules = append(group.Rules, rule)
		default:
			return fmt.Errorf("%w: the %s %q must be a rule mapping or a list of rule mappings (line %d)",
				domain.ErrConfig, kind, name, value.Line)
		}

		*out = append(*out, group)
		return nil
	})
}

func (m *Mappings) unmarshal(node *yaml.Node) error {
	return eachKey(node, "mappings", func(key string, value *yaml.Node) error {
		if key != "csv" {
			return errUnknownField("mappings", key, value)
		}
		if value.Kind != yaml.SequenceNode {
			return fmt.Errorf("%w: mappings.csv must be a list (line %d)", domain.ErrConfig, value.Line)
		}
		for _, item := range value.Content {
			var cm CsvMapping
			if err := cm.UnmarshalYAML(item); err != nil {
				return err
			}
			m.CSV = append(m.CSV, cm)
		}
		return nil
	})
}

func (p *Paths) unmarshal(node *yaml.Node) error {
	return eachKey(node, "paths", func(key string, value *yaml.Node) error {
		if key != "storage" {
			return errUnknownField("paths", key, value)
		}
		s, err := decodeString(value, "storage")
		if err != nil {
			return err
		}
		p.Storage = storage.ExpandHome(s)
		return nil
	})
}

// Validate ensures the storage path exists and is a directory.
func (p *Paths) Validate() error {
	if p.Storage == "" {
		return fmt.Errorf("%w: the paths section does not give a storage directory", domain.ErrConfig)
	}
	info, err := os.Stat(p.Storage)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: the storage path %q is not a directory", domain.ErrConfig, p.Storage)
	}
	return nil
}

// SelectMapping returns the first mapping, in file order, whose header
// signature matches. nil means no account recognizes this file format.
func (rf *RuleFile) SelectMapping(headers []string) *CsvMapping {
	for i := range rf.Mappings.CSV {
		if rf.Mappings.CSV[i].HeaderMatches(headers) {
			return &rf.Mappings.CSV[i]
		}
	}
	return nil
}

// UpdateTransaction runs the transaction through the three reclassification
// passes: payee, then category, then memo. The passes are independent, but
// within a pass the first matching rule in declaration order wins and the
// rest of the table is skipped. A category rule that filters on Category
// therefore only sees categories carried in from the source row or assigned
// by rules declared before it.
func (rf *RuleFile) UpdateTransaction(t *domain.Transaction) {
	rf.updatePayee(t)
	rf.updateCategory(t)
	rf.updateMemo(t)
}

func (rf *RuleFile) updatePayee(t *domain.Transaction) {
	for _, group := range rf.Payees {
		for i := range group.Rules {
			if group.Rules[i].Matches(t) {
				t.Payee = group.Name
				return
			}
		}
	}
}

func (rf *RuleFile) updateCategory(t *domain.Transaction) {
	for _, group := range rf.Categories {
		for i := range group.Rules {
			if group.Rules[i].Matches(t) {
				category := group.Name
				t.Category = &category
				return
			}
		}
	}
}

func (rf *RuleFile) updateMemo(t *domain.Transaction) {
	for _, group := range rf.Memos {
		for i := range group.Rules {
			if group.Rules[i].Matches(t) {
				memo := group.Name
				t.Memo = &memo
				return
			}
		}
	}
}

// Validate checks the rule set as a whole: the storage path, every mapping
// profile, duplicate payee rule definitions, and that every category and
// memo rule discriminates on something.
func (rf *RuleFile) Validate() error {
	if err := rf.Paths.Validate(); err != nil {
		return err
	}

	labels := make(map[string]bool, len(rf.Mappings.CSV))
	for i := range rf.Mappings.CSV {
		m := &rf.Mappings.CSV[i]
		if err := m.Validate(); err != nil {
			return err
		}
		if labels[m.Label] {
			return fmt.Errorf("%w: two csv mappings share the label %q", domain.ErrConfig, m.Label)
		}
		labels[m.Label] = true
	}

	// The same rule defined under two payee names is almost certainly a
	// configuration mistake: only one of the two names could ever win.
	seen := make(map[string]string)
	for _, group := range rf.Payees {
		for i := range group.Rules {
			key := group.Rules[i].Key()
			if other, ok := seen[key]; ok && other != group.Name {
				first, second := group.Name, other
				if other < group.Name {
					first, second = other, group.Name
				}
				return fmt.Errorf("%w: the payees %q and %q both implement identical rules",
					domain.ErrConfig, first, second)
			}
			seen[key] = group.Name
		}
	}

	for _, group := range rf.Payees {
		for i := range group.Rules {
			if err := group.Rules[i].Validate(group.Name); err != nil {
				return err
			}
		}
	}
	for _, group := range rf.Categories {
		for i := range group.Rules {
			if err := group.Rules[i].Validate("category", group.Name); err != nil {
				return err
			}
		}
	}
	for _, group := range rf.Memos {
		for i := range group.Rules {
			if err := group.Rules[i].Validate("memo", group.Name); err != nil {
				return err
			}
		}
	}
	return nil
}
