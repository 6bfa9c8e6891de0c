// Package timestamps tracks the per-account watermark: the date of the most
// recent transaction ever processed for each account. Transactions at or
// before the watermark are duplicates of a previous run and get pruned.
package timestamps

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/SethMMorton/tidymoney/internal/domain"
	"github.com/SethMMorton/tidymoney/internal/storage"
)

// Epoch is the watermark assumed for an account that has never been seen.
// Any plausible bank transaction postdates it.
var Epoch = civil.Date{Year: 2000, Month: 1, Day: 1}

// entry is the wire form of one watermark record.
type entry struct {
	Account string `json:"account"`
	Date    string `json:"date"`
}

// Keeper holds the watermark for every known account.
type Keeper struct {
	dates map[string]civil.Date
}

// New returns a Keeper with no recorded accounts.
func New() *Keeper {
	return &Keeper{dates: make(map[string]civil.Date)}
}

// Load parses the serialized watermark file.
func Load(data []byte) (*Keeper, error) {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: cannot parse the timestamps file: %v", domain.ErrConfig, err)
	}

	k := New()
	for _, e := range entries {
		date, err := civil.ParseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: the timestamp for account %q is not a valid date: %q",
				domain.ErrConfig, e.Account, e.Date)
		}
		k.dates[e.Account] = date
	}
	return k, nil
}

// LoadFile reads the watermark file at path. A missing file is not an
// error; it just means no account has been processed yet.
func LoadFile(path string) (*Keeper, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read timestamps file: %w", err)
	}
	k, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load timestamps from %q: %w", path, err)
	}
	return k, nil
}

// Get returns the watermark for an account, or Epoch for an account that
// has never been recorded.
func (k *Keeper) Get(account string) civil.Date {
	if date, ok := k.dates[account]; ok {
		return date
	}
	return Epoch
}

// Advance moves the account's watermark forward to date. A date at or
// before the current watermark leaves it unchanged, so the watermark is
// strictly monotonic. An unknown account is created first, at Epoch.
func (k *Keeper) Advance(account string, date civil.Date) {
	current, ok := k.dates[account]
	if !ok {
		current = Epoch
		k.dates[account] = current
	}
	if date.After(current) {
		k.dates[account] = date
	}
}

// Accounts returns the recorded account names in sorted order.
func (k *Keeper) Accounts() []string {
	accounts := make([]string, 0, len(k.dates))
	for account := range k.dates {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts
}

// Serialize renders the watermarks as indented JSON, sorted by account so
// the file diffs cleanly between runs.
func (k *Keeper) Serialize() ([]byte, error) {
	entries := make([]entry, 0, len(k.dates))
	for _, account := range k.Accounts() {
		entries = append(entries, entry{Account: account, Date: k.dates[account].String()})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamps: %w", err)
	}
	return data, nil
}

// Save atomically writes the watermark file. It is the last step of a run;
// a failure anywhere earlier leaves the previous watermarks intact.
func (k *Keeper) Save(path string) error {
	data, err := k.Serialize()
	if err != nil {
		return err
	}
	return storage.WriteFileAtomic(path, data)
}
