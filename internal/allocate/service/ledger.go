package service

import (
	"fmt"
	"sort"

	"github.com/tiendc/go-deepcopy"

	"dms-upload-service/internal/allocate/model"
)

// Batch is one stock lot. Available may be +Inf when the reference
// sheet leaves the stock cell blank.
type Batch struct {
	BatchID   string
	ProductID string
	Available float64
}

// Draw is one quantity taken from one batch during allocation.
type Draw struct {
	BatchID   string
	ProductID string
	Qty       float64
}

// Ledger holds per-product batch lists, each sorted by descending
// available stock so allocation drains the fullest batch first. Built
// once per run; exactly one writer per run, no locking.
type Ledger struct {
	products map[string][]*Batch
	names    []string // distinct product names in catalog order
}

func NewLedger(rows []model.CatalogRow) *Ledger {
	l := &Ledger{products: make(map[string][]*Batch)}
	for _, r := range rows {
		name := Normalize(r.ProductName)
		if name == "" {
			continue
		}
		if _, ok := l.products[name]; !ok {
			l.names = append(l.names, name)
		}
		l.products[name] = append(l.products[name], &Batch{
			BatchID:   r.BatchID,
			ProductID: r.ProductID,
			Available: r.AvailableStock,
		})
	}
	for _, bs := range l.products {
		sort.SliceStable(bs, func(i, j int) bool { return bs[i].Available > bs[j].Available })
	}
	return l
}

func (l *Ledger) Has(name string) bool {
	_, ok := l.products[name]
	return ok
}

// ProductNames returns distinct product names in catalog order.
func (l *Ledger) ProductNames() []string {
	return l.names
}

// TotalStock sums available stock over the product's batches; 0 for an
// unknown product.
func (l *Ledger) TotalStock(name string) float64 {
	total := 0.0
	for _, b := range l.products[name] {
		total += b.Available
	}
	return total
}

// Consume drains the product's batches in stored order until qty is
// satisfied or the batches run out. Returns the draws made and the
// unfulfilled remainder. Never takes a batch below zero, and never
// rolls back: a caller that ends up short keeps the stock drained.
func (l *Ledger) Consume(name string, qty float64) ([]Draw, float64) {
	return drain(l.products[name], qty)
}

// ConsumePool pools every batch of the given products, sorted by
// current descending stock, and drains greedily. This is the engine's
// multi-product allocation step (own product + approved variants and
// related products).
func (l *Ledger) ConsumePool(names []string, qty float64) ([]Draw, float64) {
	var pool []*Batch
	for _, n := range names {
		pool = append(pool, l.products[n]...)
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Available > pool[j].Available })
	return drain(pool, qty)
}

func drain(batches []*Batch, qty float64) ([]Draw, float64) {
	var draws []Draw
	remaining := qty
	for _, b := range batches {
		if remaining <= 0 {
			break
		}
		if b.Available <= 0 {
			continue
		}
		take := remaining
		if b.Available < take {
			take = b.Available
		}
		b.Available -= take
		remaining -= take
		draws = append(draws, Draw{BatchID: b.BatchID, ProductID: b.ProductID, Qty: take})
	}
	return draws, remaining
}

// Credit adds qty back to the product's currently largest batch. Not
// physically accurate, but the established return policy; kept as is.
func (l *Ledger) Credit(name string, qty float64) (*Batch, bool) {
	bs := l.products[name]
	if len(bs) == 0 {
		return nil, false
	}
	top := bs[0]
	for _, b := range bs[1:] {
		if b.Available > top.Available {
			top = b
		}
	}
	top.Available += qty
	return top, true
}

// Clone deep-copies the ledger for the question collector's private
// simulation.
func (l *Ledger) Clone() (*Ledger, error) {
	cp := &Ledger{names: append([]string(nil), l.names...)}
	if err := deepcopy.Copy(&cp.products, l.products); err != nil {
		return nil, fmt.Errorf("clone ledger: %w", err)
	}
	return cp, nil
}
