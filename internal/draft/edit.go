package draft

import (
	"fmt"

	"github.com/roach88/invoiceforge/internal/model"
)

// Every edit applies immediately and schedules an autosave.

// Update applies fn to the draft. fn may change any field except the draft's
// key and draft flag, which are restored afterwards. Emptying the line items
// leaves one default item.
func (s *Store) Update(fn func(inv *model.Invoice)) {
	s.edit(func(inv *model.Invoice) error {
		id := inv.ID
		fn(inv)
		inv.ID = id
		inv.IsDraft = true
		if len(inv.LineItems) == 0 {
			inv.LineItems = []model.LineItem{s.blankLineItem()}
		}
		return nil
	})
}

// AddLineItem appends a default line item.
func (s *Store) AddLineItem() {
	s.AddLineItemFrom(s.blankLineItem())
}

// AddLineItemFrom appends item.
func (s *Store) AddLineItemFrom(item model.LineItem) {
	s.edit(func(inv *model.Invoice) error {
		inv.LineItems = append(inv.LineItems, item)
		return nil
	})
}

// RemoveLineItem removes the item at index. The last remaining item cannot
// be removed.
func (s *Store) RemoveLineItem(index int) error {
	return s.edit(func(inv *model.Invoice) error {
		if index < 0 || index >= len(inv.LineItems) {
			return fmt.Errorf("remove line item %d: %w", index, ErrLineItemIndex)
		}
		if len(inv.LineItems) <= 1 {
			return ErrLastLineItem
		}
		inv.LineItems = append(inv.LineItems[:index:index], inv.LineItems[index+1:]...)
		return nil
	})
}

// UpdateLineItem merges patch into the item at index.
func (s *Store) UpdateLineItem(index int, patch model.LineItemPatch) error {
	return s.edit(func(inv *model.Invoice) error {
		if index < 0 || index >= len(inv.LineItems) {
			return fmt.Errorf("update line item %d: %w", index, ErrLineItemIndex)
		}
		patch.Apply(&inv.LineItems[index])
		return nil
	})
}

// edit runs fn under the lock. A failed edit changes nothing and schedules
// nothing.
func (s *Store) edit(fn func(inv *model.Invoice) error) error {
	s.mu.Lock()
	next := s.invoice.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.invoice = next
	s.revision++
	s.mu.Unlock()

	s.autosave.Trigger()
	return nil
}
