// Package storage bridges the in-memory record store to a durable
// key-value backing store. The backing store is treated purely as an
// opaque string channel; all shape enforcement happens in the gateway on
// top of it.
package storage

import "context"

// Storage keys. The four primary keys hold the live dataset; backups and
// version are auxiliary.
const (
	KeyTransactions = "financeflow-transactions"
	KeyBudgets      = "financeflow-budgets"
	KeySettings     = "financeflow-settings"
	KeyTheme        = "financeflow-theme"
	KeyBackups      = "financeflow-backups"
	KeyVersion      = "financeflow-version"
)

// KV is the durable key-value backing store. Get reports presence
// explicitly so that "absent" and "empty string" stay distinguishable;
// Delete of an absent key is not an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

func primaryKeys() []string {
	return []string{KeyTransactions, KeyBudgets, KeySettings, KeyTheme}
}

func allKeys() []string {
	return append(primaryKeys(), KeyBackups, KeyVersion)
}
