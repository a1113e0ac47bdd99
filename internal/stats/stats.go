// Package stats derives chart-ready aggregates from the in-memory
// collections. Every function is pure: it reads a snapshot and returns a
// fresh result, so the numbers can be recomputed on any request without
// stored intermediate state.
package stats

import (
	"time"

	"github.com/powerflowhq/powerflow/internal/billing"
	"github.com/powerflowhq/powerflow/internal/store"
)

// MonthlyRevenue buckets each bill's amount due by the calendar month of its
// billing date into a fixed Jan-Dec series. Bills whose billing date does
// not parse are skipped.
func MonthlyRevenue(bills []billing.Bill) [12]float64 {
	var out [12]float64
	for _, b := range bills {
		t, err := time.Parse(billing.DateLayout, b.BillingDate)
		if err != nil {
			continue
		}
		out[int(t.Month())-1] += b.AmountDue
	}
	return out
}

// ConsumptionByType sums billed units per owning customer's type. Bills
// whose customer is unknown, or whose customer has no recorded type, are
// left out rather than guessed.
func ConsumptionByType(bills []billing.Bill, customers []billing.Customer) map[billing.CustomerType]float64 {
	types := make(map[int64]billing.CustomerType, len(customers))
	for _, c := range customers {
		types[c.CustomerID] = c.Type
	}

	out := map[billing.CustomerType]float64{
		billing.Residential: 0,
		billing.Commercial:  0,
	}
	for _, b := range bills {
		switch types[b.CustomerID] {
		case billing.Residential:
			out[billing.Residential] += b.Units
		case billing.Commercial:
			out[billing.Commercial] += b.Units
		}
	}
	return out
}

// StatusCounts counts bills across exactly the three known statuses.
func StatusCounts(bills []billing.Bill) map[billing.BillStatus]int {
	out := map[billing.BillStatus]int{
		billing.BillPending: 0,
		billing.BillPaid:    0,
		billing.BillOverdue: 0,
	}
	for _, b := range bills {
		if _, known := out[b.Status]; known {
			out[b.Status]++
		}
	}
	return out
}

// Overview mirrors the dashboard's header cards.
type Overview struct {
	TotalCustomers int     `json:"total_customers"`
	ActiveMeters   int     `json:"active_meters"`
	TotalBilled    float64 `json:"total_billed"`
	PendingBills   int     `json:"pending_bills"`
}

// ComputeOverview derives the header-card numbers from a snapshot.
func ComputeOverview(snap store.Snapshot) Overview {
	o := Overview{TotalCustomers: len(snap.Customers)}
	for _, m := range snap.Meters {
		if m.Status == billing.MeterActive {
			o.ActiveMeters++
		}
	}
	for _, b := range snap.Bills {
		o.TotalBilled += b.AmountDue
		if b.Status == billing.BillPending {
			o.PendingBills++
		}
	}
	return o
}
