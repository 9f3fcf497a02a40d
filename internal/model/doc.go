// Package model defines the invoice domain types shared by every store.
//
// Two shapes exist for an invoice:
//   - Invoice: the in-memory, editable form held by the draft store
//   - InvoiceRecord: the storage form written to the invoices table
//
// ToPersistable and FromRecord are the only conversions between them. The
// storage form never carries the sender logo (a volatile in-memory reference)
// and always stores instants in UTC with millisecond precision, so index
// lookups on date fields compare equal strings.
//
// Records read back from storage are decoded over defaults (DecodeInvoiceRecord)
// so that rows written by older versions, missing newer fields, still load.
package model
