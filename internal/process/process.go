// Package process is the per-account transaction pipeline: it turns raw CSV
// rows into normalized transactions, runs them through the rule set, prunes
// out duplicates and noise, and serializes the survivors.
package process

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/SethMMorton/tidymoney/internal/domain"
	"github.com/SethMMorton/tidymoney/internal/rules"
	"github.com/SethMMorton/tidymoney/internal/timestamps"
)

// Processor accumulates the normalized transactions of one account.
type Processor struct {
	transactions []domain.Transaction
	mapping      *rules.CsvMapping
	rules        *rules.RuleFile
}

// New creates an empty processor for the given account mapping.
func New(mapping *rules.CsvMapping, rf *rules.RuleFile) *Processor {
	return &Processor{mapping: mapping, rules: rf}
}

// Label returns the account label this processor accumulates for.
func (p *Processor) Label() string {
	return p.mapping.Label
}

// Process normalizes one raw row and appends it to the batch: remap the
// bank's column names, build the transaction, then reclassify it.
func (p *Processor) Process(row map[string]string) error {
	t, err := domain.NewTransaction(
		p.mapping.Remap(row),
		p.mapping.DebitIsPositive,
		p.mapping.DateFormat,
		p.mapping.Label,
	)
	if err != nil {
		return err
	}

	p.rules.UpdateTransaction(t)
	p.transactions = append(p.transactions, *t)
	return nil
}

// Prune drops every transaction that falls outside [start, end] or has a
// zero amount. Zero amounts are pending or informational rows and are never
// worth keeping regardless of date. Pruning is destructive and idempotent.
func (p *Processor) Prune(start, end civil.Date) {
	kept := p.transactions[:0]
	for _, t := range p.transactions {
		if t.Amount.IsZero() {
			continue
		}
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		kept = append(kept, t)
	}
	p.transactions = kept
}

// Len returns the number of transactions currently in the batch.
func (p *Processor) Len() int {
	return len(p.transactions)
}

// CSV renders the batch as the canonical output document, one row per
// transaction under the fixed header.
func (p *Processor) CSV() (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	header := []string{
		domain.ColumnDate,
		domain.ColumnPayee,
		domain.ColumnCategory,
		domain.ColumnMemo,
		domain.ColumnAmount,
		domain.ColumnCheck,
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}

	for i := range p.transactions {
		t := &p.transactions[i]
		record := []string{
			t.Date.String(),
			t.Payee,
			stringOrEmpty(t.Category),
			stringOrEmpty(t.Memo),
			domain.FormatAmount(t.Amount),
			checkOrEmpty(t.Check),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.String(), nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func checkOrEmpty(n *uint) string {
	if n == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*n), 10)
}

// Files ingests a set of raw CSV downloads. Each file is routed to the
// account whose header signature it carries; files from the same account
// accumulate into one batch. The result maps account label to its batch.
func Files(paths []string, rf *rules.RuleFile) (map[string]*Processor, error) {
	processors := make(map[string]*Processor)

	for _, path := range paths {
		if err := ingestFile(path, rf, processors); err != nil {
			return nil, err
		}
	}

	return processors, nil
}

func ingestFile(path string, rf *rules.RuleFile, processors map[string]*Processor) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	// Header comparison is byte exact, so no whitespace trimming here: a
	// bank that pads its column names pads them in the identify list too.
	reader := csv.NewReader(f)
	headers, err := reader.Read()
	if err != nil {
		return fmt.Errorf("%w: cannot read the header of %q: %v", domain.ErrInput, path, err)
	}

	mapping := rf.SelectMapping(headers)
	if mapping == nil {
		return fmt.Errorf("%w: no rules are defined for the account corresponding to file %q",
			domain.ErrInput, path)
	}

	processor, ok := processors[mapping.Label]
	if !ok {
		processor = New(mapping, rf)
		processors[mapping.Label] = processor
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: cannot read a row of %q: %v", domain.ErrInput, path, err)
		}

		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		if err := processor.Process(row); err != nil {
			return err
		}
	}

	return nil
}

// ApplyWatermarks prunes every batch down to the transactions newer than
// the account's watermark and no later than today, then advances the
// watermark to today. Pruning runs first so a failure earlier in the run
// never advances a watermark past unprocessed transactions.
func ApplyWatermarks(today civil.Date, batches map[string]*Processor, stamps *timestamps.Keeper) {
	for label, batch := range batches {
		start := stamps.Get(label)
		batch.Prune(start, today)
		stamps.Advance(label, today)
	}
}
