// Package store declares the invoiceforge database and opens it.
//
// The database holds five tables:
//   - senders: business profiles (auto id; index isDefault)
//   - clients: customers (auto id; index email)
//   - serviceItems: the reusable service catalog (auto id)
//   - invoices: the draft and every historical invoice (auto id; indexes
//     isDraft, status, createdAt and the composite isDraft,createdAt)
//   - settings: the singleton preferences row keyed "settings"
//
// # Schema History
//
//	1 - Initial tables and single-field indexes
//	2 - clients.email and invoices(isDraft, createdAt) indexes
//	3 - Invoice record layout changed; existing invoices are cleared
//
// The version 3 upgrade deletes every stored invoice, drafts included. This
// is a known, accepted data loss for databases created before version 3.
package store
