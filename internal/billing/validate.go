package billing

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError reports the client-side checks that failed for a draft
// record, one message per field, before any network call is made.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Fields, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Fields = append(e.Fields, fmt.Sprintf(format, args...))
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// CustomerInput is a customer draft as entered in the dashboard.
type CustomerInput struct {
	CustomerName string       `json:"customer_name"`
	Address      string       `json:"address"`
	Phone        string       `json:"phone"`
	Type         CustomerType `json:"type"`
}

func (in CustomerInput) Validate() error {
	var e ValidationError
	if strings.TrimSpace(in.CustomerName) == "" {
		e.add("customer_name is required")
	}
	if strings.TrimSpace(in.Address) == "" {
		e.add("address is required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		e.add("phone is required")
	}
	if in.Type != Residential && in.Type != Commercial {
		e.add("type must be %q or %q", Residential, Commercial)
	}
	return e.orNil()
}

// MeterInput is a meter draft.
type MeterInput struct {
	CustomerID       int64       `json:"customer_id"`
	MeterNumber      string      `json:"meter_number"`
	InstallationDate string      `json:"installation_date"`
	Status           MeterStatus `json:"status"`
}

func (in MeterInput) Validate() error {
	var e ValidationError
	if in.CustomerID <= 0 {
		e.add("customer_id is required")
	}
	if strings.TrimSpace(in.MeterNumber) == "" {
		e.add("meter_number is required")
	}
	if in.InstallationDate != "" {
		if _, err := time.Parse(DateLayout, in.InstallationDate); err != nil {
			e.add("installation_date must be YYYY-MM-DD")
		}
	}
	if in.Status != "" && in.Status != MeterActive && in.Status != MeterInactive {
		e.add("status must be %q or %q", MeterActive, MeterInactive)
	}
	return e.orNil()
}

// ReadingInput is a reading draft.
type ReadingInput struct {
	MeterID       int64   `json:"meter_id"`
	ReadingDate   string  `json:"reading_date"`
	UnitsConsumed float64 `json:"units_consumed"`
}

func (in ReadingInput) Validate() error {
	var e ValidationError
	if in.MeterID <= 0 {
		e.add("meter_id is required")
	}
	if _, err := time.Parse(DateLayout, in.ReadingDate); err != nil {
		e.add("reading_date must be YYYY-MM-DD")
	}
	if in.UnitsConsumed < 0 {
		e.add("units_consumed must be >= 0")
	}
	return e.orNil()
}

// BillInput is a bill draft. Units are not entered directly: they are copied
// from the referenced reading, and the amount due is computed from them with
// the supplied rate before submission.
type BillInput struct {
	CustomerID  int64      `json:"customer_id"`
	ReadingID   int64      `json:"reading_id"`
	BillingDate string     `json:"billing_date"`
	DueDate     string     `json:"due_date"`
	Rate        float64    `json:"rate"`
	Status      BillStatus `json:"status"`
}

func (in BillInput) Validate() error {
	var e ValidationError
	if in.CustomerID <= 0 {
		e.add("customer_id is required")
	}
	if in.ReadingID <= 0 {
		e.add("reading_id is required")
	}
	if in.Rate <= 0 {
		e.add("rate must be > 0")
	}
	if in.BillingDate != "" {
		if _, err := time.Parse(DateLayout, in.BillingDate); err != nil {
			e.add("billing_date must be YYYY-MM-DD")
		}
	}
	if in.DueDate != "" {
		if _, err := time.Parse(DateLayout, in.DueDate); err != nil {
			e.add("due_date must be YYYY-MM-DD")
		}
	}
	if in.Status != "" && in.Status != BillPending && in.Status != BillPaid && in.Status != BillOverdue {
		e.add("status must be one of %q, %q, %q", BillPending, BillPaid, BillOverdue)
	}
	return e.orNil()
}

// DefaultDueDate is the form default for new bills: the 15th of the month
// that now falls in.
func DefaultDueDate(now time.Time) string {
	return time.Date(now.Year(), now.Month(), 15, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}
