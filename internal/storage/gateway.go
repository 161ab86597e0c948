package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"financeflow/internal/core"
)

// SchemaVersion is the logical version of the serialized dataset. It is
// written under KeyVersion and checked by Migrate at startup.
const SchemaVersion = "1.0"

// MaxBackups bounds the rolling backup history; the oldest snapshot is
// evicted first.
const MaxBackups = 5

var (
	// ErrInvalidImport rejects a document before any write happens: a
	// failed import never partially applies.
	ErrInvalidImport = errors.New("invalid import document")

	// ErrBackupNotFound reports a restore index outside the stored
	// backup sequence.
	ErrBackupNotFound = errors.New("backup not found")
)

// ExportDocument is the canonical portable format for full-dataset
// export, file transfer, and backup snapshots. Round-trip compatibility
// with this exact shape is part of the storage contract.
type ExportDocument struct {
	Transactions []core.Transaction `json:"transactions"`
	Budgets      core.Budgets       `json:"budgets"`
	Settings     core.Settings      `json:"settings"`
	ExportDate   string             `json:"exportDate"`
	Version      string             `json:"version"`
}

// Backup is one snapshot in the rolling history: the serialized export
// document plus when it was taken.
type Backup struct {
	Data      string `json:"data"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`
}

// StorageInfo reports how much of the backing store the primary keys use.
type StorageInfo struct {
	TotalSize          int64            `json:"totalSize"`
	ItemSizes          map[string]int64 `json:"itemSizes"`
	TotalSizeFormatted string           `json:"totalSizeFormatted"`
}

// Gateway owns the serialized representation of the dataset. It moves
// whole collections between the record store and the KV backing store;
// there are no partial writes within a key.
type Gateway struct {
	kv KV
}

func NewGateway(kv KV) *Gateway {
	return &Gateway{kv: kv}
}

func (g *Gateway) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := g.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// getJSON reads key into out. A missing key leaves out untouched and
// reports found=false, so callers supply the documented default.
func (g *Gateway) getJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := g.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (g *Gateway) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	return g.setJSON(ctx, KeyTransactions, txs)
}

func (g *Gateway) SaveBudgets(ctx context.Context, budgets core.Budgets) error {
	if budgets == nil {
		budgets = core.Budgets{}
	}
	return g.setJSON(ctx, KeyBudgets, budgets)
}

// SaveData writes both collections. Each key is serialized and written
// independently, so a failure on one never corrupts or skips the other;
// the joined error reports everything that went wrong.
func (g *Gateway) SaveData(ctx context.Context, txs []core.Transaction, budgets core.Budgets) error {
	txErr := g.SaveTransactions(ctx, txs)
	budgetErr := g.SaveBudgets(ctx, budgets)
	if txErr != nil || budgetErr != nil {
		slog.WarnContext(ctx, "Persistence write failed; in-memory data remains authoritative",
			"transactions_err", txErr, "budgets_err", budgetErr)
	}
	return errors.Join(txErr, budgetErr)
}

// LoadTransactions reads the stored collection; an absent key yields an
// empty collection, not an error.
func (g *Gateway) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs := []core.Transaction{}
	if _, err := g.getJSON(ctx, KeyTransactions, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// LoadBudgets reads the stored mapping; an absent key yields an empty
// mapping, not an error.
func (g *Gateway) LoadBudgets(ctx context.Context) (core.Budgets, error) {
	budgets := core.Budgets{}
	if _, err := g.getJSON(ctx, KeyBudgets, &budgets); err != nil {
		return nil, err
	}
	return budgets, nil
}

// Settings returns the stored settings, or the defaults when none were
// ever saved.
func (g *Gateway) Settings(ctx context.Context) (core.Settings, error) {
	settings := core.DefaultSettings()
	if _, err := g.getJSON(ctx, KeySettings, &settings); err != nil {
		return core.DefaultSettings(), err
	}
	return settings, nil
}

func (g *Gateway) SaveSettings(ctx context.Context, settings core.Settings) error {
	return g.setJSON(ctx, KeySettings, settings)
}

// Theme returns the stored theme, defaulting to light.
func (g *Gateway) Theme(ctx context.Context) (core.Theme, error) {
	theme := core.ThemeLight
	if _, err := g.getJSON(ctx, KeyTheme, &theme); err != nil {
		return core.ThemeLight, err
	}
	if !theme.IsValid() {
		return core.ThemeLight, nil
	}
	return theme, nil
}

func (g *Gateway) SaveTheme(ctx context.Context, theme core.Theme) error {
	return g.setJSON(ctx, KeyTheme, theme)
}

// ExportData assembles the portable export document from the current
// stored dataset.
func (g *Gateway) ExportData(ctx context.Context) (*ExportDocument, error) {
	txs, err := g.LoadTransactions(ctx)
	if err != nil {
		return nil, err
	}
	budgets, err := g.LoadBudgets(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := g.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return &ExportDocument{
		Transactions: txs,
		Budgets:      budgets,
		Settings:     settings,
		ExportDate:   time.Now().UTC().Format(time.RFC3339),
		Version:      SchemaVersion,
	}, nil
}

// ExportJSON serializes the export document for download or snapshot.
func (g *Gateway) ExportJSON(ctx context.Context) ([]byte, error) {
	doc, err := g.ExportData(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export document: %w", err)
	}
	return data, nil
}

// importDocument mirrors ExportDocument with pointer sections so that
// presence is detectable: import applies only the sections the document
// actually carries.
type importDocument struct {
	Transactions *[]core.Transaction `json:"transactions"`
	Budgets      *core.Budgets       `json:"budgets"`
	Settings     *core.Settings      `json:"settings"`
}

// ImportData validates and applies a portable document. Validation fails
// the whole import before any write: the document must be a structured
// object, every transaction entry must carry id, type, amount and date,
// and budgets (when present) must be a flat mapping. On success each
// present section is written independently; a document carrying only
// budgets replaces budgets and leaves transactions untouched.
func (g *Gateway) ImportData(ctx context.Context, data []byte) error {
	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	if doc.Transactions != nil {
		for i, t := range *doc.Transactions {
			if t.ID == "" || t.Type == "" || t.Amount.IsZero() || t.Date.IsZero() {
				return fmt.Errorf("%w: transaction %d missing required fields", ErrInvalidImport, i)
			}
		}
		// Normalize to the canonical local-midnight rule; documents
		// written by other tools may carry UTC-midnight stamps.
		for i, t := range *doc.Transactions {
			(*doc.Transactions)[i] = t.NormalizeTimestamp()
		}
	}

	if doc.Transactions != nil {
		if err := g.SaveTransactions(ctx, *doc.Transactions); err != nil {
			return err
		}
	}
	if doc.Budgets != nil {
		if err := g.SaveBudgets(ctx, *doc.Budgets); err != nil {
			return err
		}
	}
	if doc.Settings != nil {
		if err := g.SaveSettings(ctx, *doc.Settings); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "Imported data",
		"transactions", doc.Transactions != nil,
		"budgets", doc.Budgets != nil,
		"settings", doc.Settings != nil)
	return nil
}

// Backups returns the stored backup sequence, oldest first.
func (g *Gateway) Backups(ctx context.Context) ([]Backup, error) {
	backups := []Backup{}
	if _, err := g.getJSON(ctx, KeyBackups, &backups); err != nil {
		return nil, err
	}
	return backups, nil
}

// CreateBackup snapshots the full export document, appends it to the
// backup sequence, and truncates the sequence to the MaxBackups most
// recent entries.
func (g *Gateway) CreateBackup(ctx context.Context) error {
	data, err := g.ExportJSON(ctx)
	if err != nil {
		return err
	}
	backups, err := g.Backups(ctx)
	if err != nil {
		return err
	}
	backups = append(backups, Backup{
		Data:      string(data),
		Timestamp: time.Now().UnixMilli(),
		Version:   SchemaVersion,
	})
	if len(backups) > MaxBackups {
		backups = backups[len(backups)-MaxBackups:]
	}
	if err := g.setJSON(ctx, KeyBackups, backups); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Created backup", "backups", len(backups))
	return nil
}

// RestoreBackup applies the snapshot at the given index via ImportData.
// An out-of-range index fails without touching storage.
func (g *Gateway) RestoreBackup(ctx context.Context, index int) error {
	backups, err := g.Backups(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(backups) {
		return fmt.Errorf("%w: index %d of %d", ErrBackupNotFound, index, len(backups))
	}
	return g.ImportData(ctx, []byte(backups[index].Data))
}

// ClearAllData removes every key this gateway owns. Best effort: all
// deletes are attempted and the joined error reports any failures.
func (g *Gateway) ClearAllData(ctx context.Context) error {
	var errs []error
	for _, key := range allKeys() {
		if err := g.kv.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("clear all data: %w", errors.Join(errs...))
	}
	slog.InfoContext(ctx, "Cleared all stored data")
	return nil
}

// Migrate brings the stored dataset to the current schema version. It is
// idempotent when already current. Only one version exists today, so the
// step is a passthrough that stamps the version marker; future versions
// hook in here.
func (g *Gateway) Migrate(ctx context.Context) error {
	stored := SchemaVersion
	if _, err := g.getJSON(ctx, KeyVersion, &stored); err != nil {
		return err
	}
	if stored != SchemaVersion {
		slog.WarnContext(ctx, "Unknown dataset version; stamping current",
			"stored", stored, "current", SchemaVersion)
	}
	return g.setJSON(ctx, KeyVersion, SchemaVersion)
}

// Info reports per-key sizes of the primary keys in bytes.
func (g *Gateway) Info(ctx context.Context) (StorageInfo, error) {
	names := map[string]string{
		KeyTransactions: "transactions",
		KeyBudgets:      "budgets",
		KeySettings:     "settings",
		KeyTheme:        "theme",
	}
	info := StorageInfo{ItemSizes: make(map[string]int64)}
	for _, key := range primaryKeys() {
		raw, ok, err := g.kv.Get(ctx, key)
		if err != nil {
			return StorageInfo{}, fmt.Errorf("read %s: %w", key, err)
		}
		size := int64(0)
		if ok {
			size = int64(len(raw))
		}
		info.ItemSizes[names[key]] = size
		info.TotalSize += size
	}
	info.TotalSizeFormatted = formatBytes(info.TotalSize)
	return info, nil
}

func formatBytes(n int64) string {
	if n == 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + " " + units[i]
}
