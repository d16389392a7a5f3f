package view

import (
	"io"
	"sync"

	"github.com/goliatone/go-formdraft/pkg/entity"
)

// CardState is the presentation state of a CustomerCard.
type CardState int

const (
	CardLoading CardState = iota
	CardNotFound
	CardCollapsed
	CardExpanded
)

func (s CardState) String() string {
	switch s {
	case CardLoading:
		return "loading"
	case CardNotFound:
		return "not_found"
	case CardCollapsed:
		return "collapsed"
	case CardExpanded:
		return "expanded"
	}
	return "unknown"
}

// CustomerCard shows a customer's contact details. It starts loading and
// collapsed; Toggle only has an effect once a customer is present.
type CustomerCard struct {
	mu       sync.Mutex
	loading  bool
	customer *entity.Customer
	expanded bool
}

// NewCustomerCard returns a card in the loading state.
func NewCustomerCard() *CustomerCard {
	return &CustomerCard{loading: true}
}

// Load finishes loading with customer, which may be nil when the lookup
// found nothing.
func (c *CustomerCard) Load(customer *entity.Customer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if customer == nil {
		c.customer = nil
		c.expanded = false
		return
	}
	cp := *customer
	c.customer = &cp
}

// SetLoading puts the card back into the loading state.
func (c *CustomerCard) SetLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = true
}

// Toggle flips the expanded flag and reports the new value.
func (c *CustomerCard) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading || c.customer == nil {
		return false
	}
	c.expanded = !c.expanded
	return c.expanded
}

// State reports the current presentation state.
func (c *CustomerCard) State() CardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

func (c *CustomerCard) state() CardState {
	switch {
	case c.loading:
		return CardLoading
	case c.customer == nil:
		return CardNotFound
	case c.expanded:
		return CardExpanded
	}
	return CardCollapsed
}

// Render draws the card with e.
func (c *CustomerCard) Render(e *Engine, out ...io.Writer) (string, error) {
	c.mu.Lock()
	state := c.state()
	data := map[string]any{
		"loading":  state == CardLoading,
		"expanded": state == CardExpanded,
		"marker":   "[+]",
		"customer": nil,
	}
	if state == CardExpanded {
		data["marker"] = "[-]"
	}
	if c.customer != nil && state != CardLoading {
		data["customer"] = map[string]any{
			"full_name": c.customer.FullName(),
			"email":     c.customer.Email,
			"phone":     c.customer.Phone,
			"address":   c.customer.Address,
		}
	}
	c.mu.Unlock()
	return e.Render("customer_card", data, out...)
}
