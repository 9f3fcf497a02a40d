package store

import (
	"context"

	"github.com/roach88/invoiceforge/internal/kvstore"
)

// Schema version tracking: see the package documentation for the history.
const SchemaVersion = 3

// Table names.
const (
	TableSenders      = "senders"
	TableClients      = "clients"
	TableServiceItems = "serviceItems"
	TableInvoices     = "invoices"
	TableSettings     = "settings"
)

// Index names.
const (
	IndexIsDefault        = "isDefault"
	IndexEmail            = "email"
	IndexIsDraft          = "isDraft"
	IndexStatus           = "status"
	IndexCreatedAt        = "createdAt"
	IndexIsDraftCreatedAt = "isDraft,createdAt"
)

// migrations is ordered by version. Index additions need no step of their
// own; the upgrade creates every declared index.
var migrations = []kvstore.Migration{
	{
		Version:     3,
		Description: "clear invoices stored in the pre-v3 layout",
		Up: func(ctx context.Context, u *kvstore.Upgrade) error {
			return u.Clear(ctx, TableInvoices)
		},
	},
}

// Schema returns the database declaration as of version v. Versions above
// SchemaVersion are clamped. Tests open older versions to simulate existing
// databases.
func Schema(v int) kvstore.Schema {
	if v > SchemaVersion {
		v = SchemaVersion
	}

	clientIdx := []kvstore.IndexSchema{}
	invoiceIdx := []kvstore.IndexSchema{
		{Name: IndexIsDraft, Fields: []string{"isDraft"}},
		{Name: IndexStatus, Fields: []string{"status"}},
		{Name: IndexCreatedAt, Fields: []string{"createdAt"}},
	}
	if v >= 2 {
		clientIdx = append(clientIdx, kvstore.IndexSchema{Name: IndexEmail, Fields: []string{"email"}})
		invoiceIdx = append(invoiceIdx, kvstore.IndexSchema{Name: IndexIsDraftCreatedAt, Fields: []string{"isDraft", "createdAt"}})
	}

	var ms []kvstore.Migration
	for _, m := range migrations {
		if m.Version <= v {
			ms = append(ms, m)
		}
	}

	return kvstore.Schema{
		Version: v,
		Tables: []kvstore.TableSchema{
			{
				Name:          TableSenders,
				KeyPath:       "id",
				AutoIncrement: true,
				Indexes:       []kvstore.IndexSchema{{Name: IndexIsDefault, Fields: []string{"isDefault"}}},
			},
			{Name: TableClients, KeyPath: "id", AutoIncrement: true, Indexes: clientIdx},
			{Name: TableServiceItems, KeyPath: "id", AutoIncrement: true},
			{Name: TableInvoices, KeyPath: "id", AutoIncrement: true, Indexes: invoiceIdx},
			{Name: TableSettings, KeyPath: "id"},
		},
		Migrations: ms,
	}
}
