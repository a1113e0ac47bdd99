// Package sample synthesizes a demo dataset for the dashboard when the
// upstream API cannot be reached at bootstrap. The shape is deterministic
// (customers, one meter and one reading each, twelve months of bills per
// customer); the values are random. It is a stand-in, never a cache, and is
// only ever installed wholesale.
package sample

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/powerflowhq/powerflow/internal/billing"
)

// Dataset is one complete synthesized state.
type Dataset struct {
	Customers []billing.Customer `json:"customers"`
	Meters    []billing.Meter    `json:"meters"`
	Readings  []billing.Reading  `json:"readings"`
	Bills     []billing.Bill     `json:"bills"`
}

var seedCustomers = []struct {
	name    string
	address string
	phone   string
	ctype   billing.CustomerType
}{
	{"John Smith", "123 Main St, City", "555-0101", billing.Residential},
	{"Sarah Johnson", "456 Oak Ave, Town", "555-0102", billing.Commercial},
	{"Mike Brown", "789 Pine Rd, Village", "555-0103", billing.Residential},
	{"Lisa Chen", "12 Harbor Way, City", "555-0104", billing.Commercial},
	{"Tom Wilson", "34 Elm Ct, Town", "555-0105", billing.Residential},
}

const (
	residentialRate = 0.12
	commercialRate  = 0.15
)

// Generate builds a dataset anchored at now. A nil rng falls back to a
// time-seeded source.
func Generate(now time.Time, rng *rand.Rand) Dataset {
	if rng == nil {
		rng = rand.New(rand.NewSource(now.UnixNano()))
	}

	count := 4 + rng.Intn(2) // 4 or 5 customers
	var ds Dataset
	billID := int64(0)

	for i := 0; i < count; i++ {
		seed := seedCustomers[i]
		id := int64(i + 1)

		ds.Customers = append(ds.Customers, billing.NormalizeCustomer(map[string]any{
			"customer_id":   id,
			"customer_name": seed.name,
			"address":       seed.address,
			"phone":         seed.phone,
			"type":          string(seed.ctype),
		}))

		installed := now.AddDate(-1, -rng.Intn(12), 0)
		ds.Meters = append(ds.Meters, billing.NormalizeMeter(map[string]any{
			"meter_id":          id,
			"customer_id":       id,
			"meter_number":      fmt.Sprintf("MTR-%d-%03d", installed.Year(), id),
			"installation_date": installed.Format(billing.DateLayout),
			"status":            string(billing.MeterActive),
			"customer_name":     seed.name,
		}))

		rate := residentialRate
		if seed.ctype == billing.Commercial {
			rate = commercialRate
		}

		// Twelve months of bills, newest month first in age terms.
		var lastUnits float64
		for back := 0; back < 12; back++ {
			billID++
			month := now.AddDate(0, -back, 0)
			billingDate := time.Date(month.Year(), month.Month(), 5, 0, 0, 0, 0, time.UTC)
			units := float64(150 + rng.Intn(500))
			if back == 0 {
				lastUnits = units
			}

			ds.Bills = append(ds.Bills, billing.NormalizeBill(map[string]any{
				"bill_id":      billID,
				"customer_id":  id,
				"billing_date": billingDate.Format(billing.DateLayout),
				"units":        units,
				"amount_due":   units * rate,
				"status":       string(statusFor(back, rng)),
			}))
		}

		// One current reading per meter, matching the newest bill's units.
		ds.Readings = append(ds.Readings, billing.NormalizeReading(map[string]any{
			"reading_id":     id,
			"meter_id":       id,
			"reading_date":   now.Format(billing.DateLayout),
			"units_consumed": lastUnits,
		}))
	}

	return ds
}

// statusFor skews the payment-status distribution by bill age: the two most
// recent months lean Pending, the mid range is mixed, and anything older is
// almost always Paid.
func statusFor(monthsBack int, rng *rand.Rand) billing.BillStatus {
	roll := rng.Float64()
	switch {
	case monthsBack < 2:
		if roll < 0.7 {
			return billing.BillPending
		}
		if roll < 0.9 {
			return billing.BillPaid
		}
		return billing.BillOverdue
	case monthsBack < 5:
		if roll < 0.4 {
			return billing.BillPaid
		}
		if roll < 0.75 {
			return billing.BillPending
		}
		return billing.BillOverdue
	default:
		if roll < 0.95 {
			return billing.BillPaid
		}
		return billing.BillOverdue
	}
}
