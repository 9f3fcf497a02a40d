// Package catalog manages reusable service items.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/invoiceforge/internal/clock"
	"github.com/roach88/invoiceforge/internal/kvstore"
	"github.com/roach88/invoiceforge/internal/model"
)

// ErrNotFound indicates no service item has the requested id.
var ErrNotFound = errors.New("service item not found")

// Catalog is the service item list.
type Catalog struct {
	items  kvstore.Collection[model.ServiceItem]
	clock  clock.Clock
	logger *zap.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock sets the clock for timestamps.
func WithClock(c clock.Clock) Option {
	return func(cat *Catalog) {
		if c != nil {
			cat.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cat *Catalog) {
		if l != nil {
			cat.logger = l
		}
	}
}

// New returns a catalog over items.
func New(items kvstore.Collection[model.ServiceItem], opts ...Option) *Catalog {
	c := &Catalog{items: items, clock: clock.Real{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns every item ordered by category, then name.
func (c *Catalog) List(ctx context.Context) ([]model.ServiceItem, error) {
	items, err := c.items.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items, nil
}

// Get returns the item with the given id.
func (c *Catalog) Get(ctx context.Context, id int64) (model.ServiceItem, error) {
	item, ok, err := c.items.Get(ctx, id)
	if err != nil {
		return model.ServiceItem{}, fmt.Errorf("get service %d: %w", id, err)
	}
	if !ok {
		return model.ServiceItem{}, fmt.Errorf("service %d: %w", id, ErrNotFound)
	}
	return item, nil
}

// Save stores item, inserting it when it has no id.
func (c *Catalog) Save(ctx context.Context, item model.ServiceItem) (model.ServiceItem, error) {
	if item.DefaultUnit == "" {
		item.DefaultUnit = model.UnitHour
	}
	now := c.clock.Now()
	item.UpdatedAt = now

	var (
		saved model.ServiceItem
		err   error
	)
	if item.ID == 0 {
		item.CreatedAt = now
		saved, err = c.items.Add(ctx, item)
	} else {
		saved, err = c.items.Put(ctx, item)
	}
	if err != nil {
		c.logger.Error("failed to save service", zap.Int64("id", item.ID), zap.Error(err))
		return model.ServiceItem{}, fmt.Errorf("save service: %w", err)
	}
	return saved, nil
}

// Delete removes the item with the given id.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	if err := c.items.Delete(ctx, id); err != nil {
		c.logger.Error("failed to delete service", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("delete service %d: %w", id, err)
	}
	return nil
}

// LineItem turns a catalog entry into a line item of quantity one. The
// description is the item's description, or its name when that is empty.
func LineItem(item model.ServiceItem) model.LineItem {
	desc := item.Description
	if desc == "" {
		desc = item.Name
	}
	unit := item.DefaultUnit
	if unit == "" {
		unit = model.UnitHour
	}
	return model.LineItem{
		Description: desc,
		Quantity:    1,
		Unit:        unit,
		Rate:        item.DefaultRate,
		TaxRate:     item.TaxRate,
	}
}
