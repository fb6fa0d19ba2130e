package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"maillot-be/internal/logger"

	"go.uber.org/zap"
)

// Slot is the durable storage a Store writes its whole collection to.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
	Discard(ctx context.Context) error
}

// Store owns the cart lines of one client session. It is not safe for
// concurrent use; a session mutates its cart from a single goroutine.
type Store struct {
	slot  Slot
	items []Item
}

// Open loads the cart from slot. A corrupt payload yields an empty cart and
// the slot is discarded.
func Open(ctx context.Context, slot Slot) *Store {
	s := &Store{slot: slot}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "cart"),
		zap.String("method", "Open"),
	)

	raw, err := slot.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrSlotEmpty) {
			log.Warn("failed to read cart slot, starting empty", zap.Error(err))
		}
		return s
	}

	items, err := decode(raw)
	if err != nil {
		log.Warn("discarding corrupt cart slot", zap.Error(err))
		if dErr := slot.Discard(ctx); dErr != nil {
			log.Warn("failed to discard cart slot", zap.Error(dErr))
		}
		return s
	}

	s.items = items
	return s
}

func decode(raw []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedLoadCart, err)
	}
	seen := make(map[Key]bool, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %q has quantity %d", ErrFailedLoadCart, it.ProductID, it.Quantity)
		}
		if seen[it.Key()] {
			return nil, fmt.Errorf("%w: item %q appears twice", ErrFailedLoadCart, it.ProductID)
		}
		seen[it.Key()] = true
	}
	return items, nil
}

// Add merges item into the line with the same key, or appends it.
func (s *Store) Add(ctx context.Context, item Item) Outcome {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	var out Outcome
	if idx := s.indexOf(item.Key()); idx >= 0 {
		s.items[idx].Quantity += item.Quantity
		out = Outcome{Action: ActionUpdated, Message: fmt.Sprintf("Updated quantity for %s", item.Name)}
	} else {
		s.items = append(s.items, item)
		out = Outcome{Action: ActionAdded, Message: fmt.Sprintf("Added %s to cart", item.Name)}
	}

	s.persist(ctx)
	return out
}

// Remove deletes the matching line. Removing an absent key is a no-op.
func (s *Store) Remove(ctx context.Context, productID, size, color string) {
	idx := s.indexOf(Key{ProductID: productID, Size: size, Color: color})
	if idx < 0 {
		return
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persist(ctx)
}

// SetQuantity overwrites the quantity of a line. qty below 1 is ignored.
func (s *Store) SetQuantity(ctx context.Context, productID, size, color string, qty int) {
	if qty < 1 {
		return
	}
	idx := s.indexOf(Key{ProductID: productID, Size: size, Color: color})
	if idx < 0 {
		return
	}
	s.items[idx].Quantity = qty
	s.persist(ctx)
}

func (s *Store) Clear(ctx context.Context) {
	s.items = nil
	s.persist(ctx)
}

// Items returns a copy of the lines in cart order.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	return len(s.items)
}

// Count is the number of units across all lines.
func (s *Store) Count() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Total is Σ price × quantity over the current lines.
func (s *Store) Total() float64 {
	total := 0.0
	for _, it := range s.items {
		total += it.LineTotal()
	}
	return total
}

func (s *Store) indexOf(k Key) int {
	for i, it := range s.items {
		if it.Key() == k {
			return i
		}
	}
	return -1
}

// persist writes the full collection. Failures are logged, never returned:
// the in-memory cart stays usable.
func (s *Store) persist(ctx context.Context) {
	items := s.items
	if items == nil {
		items = []Item{}
	}

	payload, err := json.Marshal(items)
	if err == nil {
		err = s.slot.Save(ctx, payload)
	}
	if err != nil {
		logger.FromCtx(ctx).Warn("failed to persist cart",
			zap.String("layer", "cart"),
			zap.Int("item_count", len(items)),
			zap.Error(fmt.Errorf("%w: %v", ErrFailedSaveCart, err)),
		)
	}
}
