package store

import (
	"sync"

	"github.com/powerflowhq/powerflow/internal/billing"
)

// Entity names used in change events.
const (
	EntityCustomer = "customer"
	EntityMeter    = "meter"
	EntityReading  = "reading"
	EntityBill     = "bill"
)

// Actions used in change events.
const (
	ActionReplaceAll = "replace_all"
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
)

// Event describes one completed state transition.
type Event struct {
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     int64  `json:"id,omitempty"`
}

// Store holds the four resource collections in memory. The collections are
// replaced wholesale at bootstrap and patched one record at a time after
// successful mutations; the server response is always the ground truth for
// the patched record.
type Store struct {
	mu        sync.RWMutex
	customers []billing.Customer
	meters    []billing.Meter
	readings  []billing.Reading
	bills     []billing.Bill
	fallback  bool

	subMu       sync.Mutex
	subscribers []func(Event)
}

// Snapshot is a deep copy of the current state; mutating it never touches
// the store.
type Snapshot struct {
	Customers []billing.Customer `json:"customers"`
	Meters    []billing.Meter    `json:"meters"`
	Readings  []billing.Reading  `json:"readings"`
	Bills     []billing.Bill     `json:"bills"`
	Fallback  bool               `json:"fallback"`
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Subscribe registers a callback invoked after every completed transition.
// Callbacks run outside the store lock.
func (s *Store) Subscribe(fn func(Event)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	subs := make([]func(Event), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// ReplaceAll swaps in a complete dataset, as loaded by the bootstrap or a
// scheduled re-sync. fallback records whether the data is synthesized sample
// data; real and sample data are never mixed.
func (s *Store) ReplaceAll(customers []billing.Customer, meters []billing.Meter, readings []billing.Reading, bills []billing.Bill, fallback bool) {
	s.mu.Lock()
	s.customers = append([]billing.Customer(nil), customers...)
	s.meters = append([]billing.Meter(nil), meters...)
	s.readings = append([]billing.Reading(nil), readings...)
	s.bills = append([]billing.Bill(nil), bills...)
	s.fallback = fallback
	s.mu.Unlock()
	s.notify(Event{Entity: "all", Action: ActionReplaceAll})
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Customers: append([]billing.Customer(nil), s.customers...),
		Meters:    append([]billing.Meter(nil), s.meters...),
		Readings:  append([]billing.Reading(nil), s.readings...),
		Bills:     append([]billing.Bill(nil), s.bills...),
		Fallback:  s.fallback,
	}
}

// Fallback reports whether the current dataset is synthesized sample data.
func (s *Store) Fallback() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fallback
}

// Customers

func (s *Store) AppendCustomer(c billing.Customer) {
	s.mu.Lock()
	s.customers = append(s.customers, c)
	s.mu.Unlock()
	s.notify(Event{Entity: EntityCustomer, Action: ActionCreate, ID: c.CustomerID})
}

func (s *Store) ReplaceCustomer(c billing.Customer) bool {
	s.mu.Lock()
	replaced := false
	for i := range s.customers {
		if s.customers[i].CustomerID == c.CustomerID {
			s.customers[i] = c
			replaced = true
			break
		}
	}
	s.mu.Unlock()
	if replaced {
		s.notify(Event{Entity: EntityCustomer, Action: ActionUpdate, ID: c.CustomerID})
	}
	return replaced
}

func (s *Store) RemoveCustomer(id int64) bool {
	s.mu.Lock()
	removed := false
	for i := range s.customers {
		if s.customers[i].CustomerID == id {
			s.customers = append(s.customers[:i], s.customers[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify(Event{Entity: EntityCustomer, Action: ActionDelete, ID: id})
	}
	return removed
}

func (s *Store) GetCustomer(id int64) (billing.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.CustomerID == id {
			return c, true
		}
	}
	return billing.Customer{}, false
}

// Meters

func (s *Store) AppendMeter(m billing.Meter) {
	s.mu.Lock()
	s.meters = append(s.meters, m)
	s.mu.Unlock()
	s.notify(Event{Entity: EntityMeter, Action: ActionCreate, ID: m.MeterID})
}

func (s *Store) ReplaceMeter(m billing.Meter) bool {
	s.mu.Lock()
	replaced := false
	for i := range s.meters {
		if s.meters[i].MeterID == m.MeterID {
			s.meters[i] = m
			replaced = true
			break
		}
	}
	s.mu.Unlock()
	if replaced {
		s.notify(Event{Entity: EntityMeter, Action: ActionUpdate, ID: m.MeterID})
	}
	return replaced
}

func (s *Store) RemoveMeter(id int64) bool {
	s.mu.Lock()
	removed := false
	for i := range s.meters {
		if s.meters[i].MeterID == id {
			s.meters = append(s.meters[:i], s.meters[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify(Event{Entity: EntityMeter, Action: ActionDelete, ID: id})
	}
	return removed
}

// Readings

func (s *Store) AppendReading(r billing.Reading) {
	s.mu.Lock()
	s.readings = append(s.readings, r)
	s.mu.Unlock()
	s.notify(Event{Entity: EntityReading, Action: ActionCreate, ID: r.ReadingID})
}

func (s *Store) ReplaceReading(r billing.Reading) bool {
	s.mu.Lock()
	replaced := false
	for i := range s.readings {
		if s.readings[i].ReadingID == r.ReadingID {
			s.readings[i] = r
			replaced = true
			break
		}
	}
	s.mu.Unlock()
	if replaced {
		s.notify(Event{Entity: EntityReading, Action: ActionUpdate, ID: r.ReadingID})
	}
	return replaced
}

func (s *Store) RemoveReading(id int64) bool {
	s.mu.Lock()
	removed := false
	for i := range s.readings {
		if s.readings[i].ReadingID == id {
			s.readings = append(s.readings[:i], s.readings[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify(Event{Entity: EntityReading, Action: ActionDelete, ID: id})
	}
	return removed
}

func (s *Store) GetReading(id int64) (billing.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.readings {
		if r.ReadingID == id {
			return r, true
		}
	}
	return billing.Reading{}, false
}

// Bills

func (s *Store) AppendBill(b billing.Bill) {
	s.mu.Lock()
	s.bills = append(s.bills, b)
	s.mu.Unlock()
	s.notify(Event{Entity: EntityBill, Action: ActionCreate, ID: b.BillID})
}

func (s *Store) ReplaceBill(b billing.Bill) bool {
	s.mu.Lock()
	replaced := false
	for i := range s.bills {
		if s.bills[i].BillID == b.BillID {
			s.bills[i] = b
			replaced = true
			break
		}
	}
	s.mu.Unlock()
	if replaced {
		s.notify(Event{Entity: EntityBill, Action: ActionUpdate, ID: b.BillID})
	}
	return replaced
}

func (s *Store) RemoveBill(id int64) bool {
	s.mu.Lock()
	removed := false
	for i := range s.bills {
		if s.bills[i].BillID == id {
			s.bills = append(s.bills[:i], s.bills[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify(Event{Entity: EntityBill, Action: ActionDelete, ID: id})
	}
	return removed
}
