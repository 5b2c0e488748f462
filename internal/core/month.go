package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	documentExt     = ".json"
	transfersPrefix = "transfers_"
)

// Month is a calendar month. Its canonical text form is YYYY-MM.
type Month struct {
	Year  int
	Month time.Month
}

// Entry is one selectable month as listed by a source.
type Entry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM identifier.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label is the human readable form, e.g. "March 2024".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

func (m Month) Prev() Month { return NewMonth(m.Year, m.Month-1) }
func (m Month) Next() Month { return NewMonth(m.Year, m.Month+1) }

func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

func (m Month) Entry() Entry {
	return Entry{ID: m.String(), Label: m.Label()}
}

// YearToDate returns every month from January of m's year up to m.
func (m Month) YearToDate() []Month {
	out := make([]Month, 0, int(m.Month))
	for i := time.January; i <= m.Month; i++ {
		out = append(out, NewMonth(m.Year, i))
	}
	return out
}

// DocumentName is the name under which a month's portfolio document is stored.
func DocumentName(m Month) string {
	return m.String() + documentExt
}

// TransfersName is the name under which a month's transfer file is stored.
func TransfersName(m Month) string {
	return transfersPrefix + m.String() + documentExt
}

// ParseDocumentName returns the month a monthly document name refers to.
// Transfer file names and anything else are rejected.
func ParseDocumentName(name string) (Month, bool) {
	base := strings.TrimSuffix(name, documentExt)
	if base == name {
		return Month{}, false
	}
	m, err := ParseMonth(base)
	if err != nil {
		return Month{}, false
	}
	return m, true
}

// EntriesFromNames keeps the monthly document names, dedupes them and
// orders them chronologically.
func EntriesFromNames(names []string) []Entry {
	seen := map[Month]struct{}{}
	months := make([]Month, 0, len(names))
	for _, n := range names {
		m, ok := ParseDocumentName(n)
		if !ok {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	out := make([]Entry, len(months))
	for i, m := range months {
		out[i] = m.Entry()
	}
	return out
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	p, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = p
	return nil
}

// IsStoredName reports whether name is a monthly document or a transfer
// file name.
func IsStoredName(name string) bool {
	if _, ok := ParseDocumentName(name); ok {
		return true
	}
	rest, found := strings.CutPrefix(name, transfersPrefix)
	if !found {
		return false
	}
	_, ok := ParseDocumentName(rest)
	return ok
}
