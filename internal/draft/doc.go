// Package draft owns the invoice being edited and its persistence.
//
// A Store keeps one invoice in memory and mirrors it to the invoices table as
// the draft row. Edits apply synchronously and schedule a debounced autosave.
//
// # Lifecycle
//
//	uninitialized -> loading -> ready
//
// New starts loading the stored draft in the background. Loading always ends
// in ready: when no draft row exists, or the database cannot be read, the
// store starts from defaults. A load that completes after edits were made
// does not replace them.
//
// # Single Draft
//
// At most one row has isDraft = true. The store does not rely on the database
// for this: every SaveDraft writes the draft and then deletes every other
// draft row.
//
// # History
//
// SaveInvoiceAndCreateNew moves the draft into history and starts a fresh
// draft. LoadInvoiceFromHistory copies a history row into the draft; the
// history row itself is never modified.
package draft
