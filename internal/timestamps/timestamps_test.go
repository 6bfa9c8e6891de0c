package timestamps

import (
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/civil"
)

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestTimestampTracking(t *testing.T) {
	given := `[
    {
        "account": "VISA",
        "date": "2023-03-15"
    },
    {
        "account": "PNC",
        "date": "2024-01-04"
    }
]`
	expected := `[
  {
    "account": "Credit Union",
    "date": "2024-10-23"
  },
  {
    "account": "PNC",
    "date": "2024-01-04"
  },
  {
    "account": "VISA",
    "date": "2024-05-07"
  }
]`

	stamps, err := Load([]byte(given))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	stamps.Advance("VISA", mustDate(t, "2024-02-29"))
	stamps.Advance("PNC", mustDate(t, "2023-07-03"))
	stamps.Advance("Credit Union", mustDate(t, "2024-10-23"))
	stamps.Advance("VISA", mustDate(t, "2024-05-07"))

	result, err := stamps.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if string(result) != expected {
		t.Errorf("Serialize() =\n%s\nwant\n%s", result, expected)
	}
}

func TestGetUnknownAccountReturnsEpoch(t *testing.T) {
	stamps := New()
	if got := stamps.Get("never seen"); got != Epoch {
		t.Errorf("Get() = %v; want %v", got, Epoch)
	}
}

func TestAdvanceIsMonotonic(t *testing.T) {
	stamps := New()
	stamps.Advance("acct", mustDate(t, "2024-05-07"))
	stamps.Advance("acct", mustDate(t, "2024-02-29"))
	if got := stamps.Get("acct"); got != mustDate(t, "2024-05-07") {
		t.Errorf("Get() = %v; want 2024-05-07", got)
	}

	// Advancing to the same date is a no-op, not a regression.
	stamps.Advance("acct", mustDate(t, "2024-05-07"))
	if got := stamps.Get("acct"); got != mustDate(t, "2024-05-07") {
		t.Errorf("Get() = %v; want 2024-05-07", got)
	}
}

func TestAccountsSorted(t *testing.T) {
	stamps := New()
	stamps.Advance("zeta", mustDate(t, "2024-01-01"))
	stamps.Advance("alpha", mustDate(t, "2024-01-01"))
	stamps.Advance("mid", mustDate(t, "2024-01-01"))

	accounts := stamps.Accounts()
	want := []string{"alpha", "mid", "zeta"}
	if len(accounts) != len(want) {
		t.Fatalf("Accounts() = %v; want %v", accounts, want)
	}
	for i := range want {
		if accounts[i] != want[i] {
			t.Errorf("Accounts()[%d] = %q; want %q", i, accounts[i], want[i])
		}
	}
}

func TestLoadRejectsBadDate(t *testing.T) {
	_, err := Load([]byte(`[{"account": "x", "date": "not a date"}]`))
	if err == nil {
		t.Fatal("expected an error for an unparseable date")
	}
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	stamps, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(stamps.Accounts()) != 0 {
		t.Errorf("a missing file should yield an empty keeper, got %v", stamps.Accounts())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timestamps.json")

	stamps := New()
	stamps.Advance("discover", mustDate(t, "2024-10-25"))
	if err := stamps.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := reloaded.Get("discover"); got != mustDate(t, "2024-10-25") {
		t.Errorf("Get() = %v; want 2024-10-25", got)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after an atomic save")
	}
}
