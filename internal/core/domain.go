package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// The export document and the KV values carry amounts as plain JSON
	// numbers; quoted decimals would break round-trip compatibility with
	// previously exported data.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	CategoryFood           Category = "food"
	CategoryTransportation Category = "transportation"
	CategoryEntertainment  Category = "entertainment"
	CategoryShopping       Category = "shopping"
	CategoryBills          Category = "bills"
	CategoryHealthcare     Category = "healthcare"
	CategoryIncome         Category = "income"
	CategoryOther          Category = "other"
)

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type (
	TransactionType string

	// Category is a transaction category key. Imported data may carry
	// categories outside the known set; such values are preserved on the
	// record and fall back to CategoryOther for display lookups.
	Category string

	Theme string

	// Date is a calendar date with day granularity. The time-of-day part
	// is never meaningful; all grouping and filtering uses the calendar
	// day only.
	Date struct {
		time.Time
	}

	// Transaction is a single dated income or expense record. It is
	// immutable once created except for full replacement on edit.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Category    Category        `json:"category"`
		Date        Date            `json:"date"`
		Timestamp   int64           `json:"timestamp"`
	}

	// Budgets maps a category key to its monthly spending limit. Setting a
	// category again overwrites the prior limit; no history is kept, so
	// adherence calculations always see the current limit.
	Budgets map[string]decimal.Decimal

	// Settings is the small per-user configuration record. Its lifecycle
	// is independent from transactions and budgets.
	Settings struct {
		Currency      string `json:"currency"`
		DateFormat    string `json:"dateFormat"`
		Notifications bool   `json:"notifications"`
		AutoBackup    bool   `json:"autoBackup"`
	}
)

var (
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)}
}

// ParseDate parses a YYYY-MM-DD string in local time.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// AddDays returns the calendar date n days away, negative n going back.
func (d Date) AddDays(n int) Date {
	year, month, day := d.Date()
	return NewDate(year, int(month), day+n)
}

// Key returns the day grouping key (YYYY-MM-DD).
func (d Date) Key() string {
	return d.Format(dateLayout)
}

// MonthKey returns the calendar-month grouping key (YYYY-MM).
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// EpochMillis returns the date at local midnight as epoch milliseconds.
// This is the single canonical rule for deriving a transaction timestamp
// from its date.
func (d Date) EpochMillis() int64 {
	year, month, day := d.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local).UnixMilli()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// Known reports whether the category is one of the closed set.
func (c Category) Known() bool {
	switch c {
	case CategoryFood, CategoryTransportation, CategoryEntertainment,
		CategoryShopping, CategoryBills, CategoryHealthcare,
		CategoryIncome, CategoryOther:
		return true
	default:
		return false
	}
}

var categoryLabels = map[Category]string{
	CategoryFood:           "Food & Dining",
	CategoryTransportation: "Transportation",
	CategoryEntertainment:  "Entertainment",
	CategoryShopping:       "Shopping",
	CategoryBills:          "Bills & Utilities",
	CategoryHealthcare:     "Healthcare",
	CategoryIncome:         "Income",
	CategoryOther:          "Other",
}

var categoryColors = map[Category]string{
	CategoryFood:           "#ef4444",
	CategoryTransportation: "#3b82f6",
	CategoryEntertainment:  "#8b5cf6",
	CategoryShopping:       "#f59e0b",
	CategoryBills:          "#10b981",
	CategoryHealthcare:     "#ec4899",
	CategoryIncome:         "#10b981",
	CategoryOther:          "#6b7280",
}

// Label returns the human-readable category name, falling back to the
// "Other" label for unknown categories.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return categoryLabels[CategoryOther]
}

// Color returns the display color for the category, falling back to the
// "Other" color for unknown categories.
func (c Category) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[CategoryOther]
}

// Categories returns the closed category set in display order.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryTransportation,
		CategoryEntertainment,
		CategoryShopping,
		CategoryBills,
		CategoryHealthcare,
		CategoryIncome,
		CategoryOther,
	}
}

func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}

// NewTransaction constructs a transaction with a freshly generated id and
// a timestamp derived from the date at local midnight.
func NewTransaction(typ TransactionType, amount decimal.Decimal, description string, category Category, date Date) Transaction {
	return Transaction{
		ID:          uuid.NewString(),
		Type:        typ,
		Amount:      amount,
		Description: description,
		Category:    category,
		Date:        date,
		Timestamp:   date.EpochMillis(),
	}
}

// Validate checks the typed shape of the record: a valid type and a
// non-zero date. Amount range and description content are left to
// callers; the store boundary stays as permissive as the data it may be
// asked to import.
func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	return t.Date.Validate()
}

// NormalizeTimestamp returns the transaction with its timestamp rederived
// from the date when the stored value falls on a different calendar day.
// Documents written by other tools may carry UTC-midnight stamps.
func (t Transaction) NormalizeTimestamp() Transaction {
	y1, m1, d1 := time.UnixMilli(t.Timestamp).Date()
	y2, m2, d2 := t.Date.Date()
	if t.Timestamp == 0 || y1 != y2 || m1 != m2 || d1 != d2 {
		t.Timestamp = t.Date.EpochMillis()
	}
	return t
}

// DefaultSettings returns the settings applied before the user has saved
// any: USD, US date format, notifications on, auto-backup off.
func DefaultSettings() Settings {
	return Settings{
		Currency:      "USD",
		DateFormat:    "MM/DD/YYYY",
		Notifications: true,
		AutoBackup:    false,
	}
}
