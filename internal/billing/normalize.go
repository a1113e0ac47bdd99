package billing

import (
	"fmt"
	"strconv"
	"time"
)

// The upstream API's field names changed over its lifetime (numeric id ->
// bill_id, billDate -> billing_date, amount -> amount_due, camelCase keys in
// the first schema generation). Every inbound record is funneled through one
// of the Normalize functions so nothing past this boundary ever branches on
// a field-name variant. The snake_case <entity>_id field is authoritative;
// bare "id" is accepted only here, as a deprecated alias.

// NormalizeCustomer maps a raw customer object into the canonical shape.
func NormalizeCustomer(raw map[string]any) Customer {
	return Customer{
		CustomerID:   pickInt(raw, "customer_id", "customerId", "id"),
		CustomerName: pickString(raw, "customer_name", "customerName", "name"),
		Address:      pickString(raw, "address"),
		Phone:        pickString(raw, "phone"),
		Type:         CustomerType(pickString(raw, "type")),
	}
}

// NormalizeMeter maps a raw meter object into the canonical shape.
func NormalizeMeter(raw map[string]any) Meter {
	return Meter{
		MeterID:          pickInt(raw, "meter_id", "meterId", "id"),
		CustomerID:       pickInt(raw, "customer_id", "customerId"),
		MeterNumber:      pickString(raw, "meter_number", "meterNumber"),
		InstallationDate: pickString(raw, "installation_date", "installDate"),
		Status:           MeterStatus(pickString(raw, "status")),
		CustomerName:     pickString(raw, "customer_name", "customerName"),
	}
}

// NormalizeReading maps a raw reading object into the canonical shape.
func NormalizeReading(raw map[string]any) Reading {
	return Reading{
		ReadingID:     pickInt(raw, "reading_id", "readingId", "id"),
		MeterID:       pickInt(raw, "meter_id", "meterId"),
		ReadingDate:   pickString(raw, "reading_date", "readingDate", "date"),
		UnitsConsumed: pickFloat(raw, "units_consumed", "unitsConsumed", "consumed"),
	}
}

// NormalizeBill maps a raw bill object into the canonical shape, defaulting
// status to Pending and the due date to the 15th of the billing month when
// absent. Normalizing an already-canonical record is a no-op.
func NormalizeBill(raw map[string]any) Bill {
	b := Bill{
		BillID:      pickInt(raw, "bill_id", "billId", "id"),
		CustomerID:  pickInt(raw, "customer_id", "customerId"),
		BillingDate: pickString(raw, "billing_date", "billDate"),
		DueDate:     pickString(raw, "due_date", "dueDate"),
		Units:       pickFloat(raw, "units", "units_consumed"),
		AmountDue:   pickFloat(raw, "amount_due", "amount"),
		Status:      BillStatus(pickString(raw, "status")),
	}
	if id, ok := lookupInt(raw, "reading_id", "readingId"); ok {
		b.ReadingID = &id
	}
	if b.Status == "" {
		b.Status = BillPending
	}
	if b.DueDate == "" {
		b.DueDate = defaultDueDate(b.BillingDate)
	}
	return b
}

// defaultDueDate returns the 15th of the billing month, or empty when the
// billing date itself does not parse.
func defaultDueDate(billingDate string) string {
	t, err := time.Parse(DateLayout, billingDate)
	if err != nil {
		return ""
	}
	return time.Date(t.Year(), t.Month(), 15, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

func pickString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			return s
		default:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

func pickInt(raw map[string]any, keys ...string) int64 {
	v, _ := lookupInt(raw, keys...)
	return v
}

func lookupInt(raw map[string]any, keys ...string) (int64, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n), true
		case int64:
			return n, true
		case int:
			return int64(n), true
		case string:
			if parsed, err := strconv.ParseInt(n, 10, 64); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

func pickFloat(raw map[string]any, keys ...string) float64 {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		case int:
			return float64(n)
		case string:
			if parsed, err := strconv.ParseFloat(n, 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}
