package billing

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeBill_LegacyFieldNames(t *testing.T) {
	raw := map[string]any{
		"id":       float64(12),
		"billDate": "2024-03-05",
		"dueDate":  "2024-03-20",
		"amount":   36.0,
		"units":    300.0,
		"customerId": float64(1),
		"status":   "Paid",
	}

	b := NormalizeBill(raw)
	if b.BillID != 12 {
		t.Errorf("BillID = %d, want 12", b.BillID)
	}
	if b.CustomerID != 1 {
		t.Errorf("CustomerID = %d, want 1", b.CustomerID)
	}
	if b.BillingDate != "2024-03-05" {
		t.Errorf("BillingDate = %q", b.BillingDate)
	}
	if b.DueDate != "2024-03-20" {
		t.Errorf("DueDate = %q", b.DueDate)
	}
	if b.AmountDue != 36.0 {
		t.Errorf("AmountDue = %v, want 36", b.AmountDue)
	}
	if b.Status != BillPaid {
		t.Errorf("Status = %q, want Paid", b.Status)
	}
	if b.ReadingID != nil {
		t.Errorf("ReadingID = %v, want nil", *b.ReadingID)
	}
}

func TestNormalizeBill_CanonicalPrecedence(t *testing.T) {
	// When both generations of a field are present, the canonical name wins.
	raw := map[string]any{
		"bill_id":      float64(7),
		"id":           float64(99),
		"billing_date": "2024-06-01",
		"billDate":     "2020-01-01",
		"amount_due":   50.0,
		"amount":       1.0,
	}
	b := NormalizeBill(raw)
	if b.BillID != 7 {
		t.Errorf("BillID = %d, want canonical 7", b.BillID)
	}
	if b.BillingDate != "2024-06-01" {
		t.Errorf("BillingDate = %q, want canonical date", b.BillingDate)
	}
	if b.AmountDue != 50.0 {
		t.Errorf("AmountDue = %v, want canonical 50", b.AmountDue)
	}
}

func TestNormalizeBill_Defaults(t *testing.T) {
	b := NormalizeBill(map[string]any{
		"bill_id":      float64(3),
		"customer_id":  float64(2),
		"billing_date": "2024-07-03",
		"amount_due":   12.5,
	})
	if b.Status != BillPending {
		t.Errorf("Status = %q, want default Pending", b.Status)
	}
	if b.DueDate != "2024-07-15" {
		t.Errorf("DueDate = %q, want 15th of billing month", b.DueDate)
	}

	// Unparseable billing date: no due date is invented.
	b = NormalizeBill(map[string]any{"bill_id": float64(4), "billing_date": "bad"})
	if b.DueDate != "" {
		t.Errorf("DueDate = %q, want empty for unparseable billing date", b.DueDate)
	}
}

func TestNormalizeBill_Idempotent(t *testing.T) {
	rid := int64(5)
	first := Bill{
		BillID:      9,
		CustomerID:  2,
		BillingDate: "2024-02-10",
		DueDate:     "2024-02-15",
		ReadingID:   &rid,
		Units:       120,
		AmountDue:   14.4,
		Status:      BillOverdue,
	}

	data, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	second := NormalizeBill(raw)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalization not idempotent:\n first=%+v\nsecond=%+v", first, second)
	}
}

func TestNormalizeCustomer_Aliases(t *testing.T) {
	c := NormalizeCustomer(map[string]any{
		"id":    float64(4),
		"name":  "Sarah Johnson",
		"phone": "555-0102",
		"type":  "Commercial",
	})
	if c.CustomerID != 4 || c.CustomerName != "Sarah Johnson" || c.Type != Commercial {
		t.Errorf("unexpected customer: %+v", c)
	}

	// Upstream customer responses omit type entirely.
	c = NormalizeCustomer(map[string]any{"customer_id": float64(1), "customer_name": "Ann"})
	if c.Type != "" {
		t.Errorf("Type = %q, want empty when upstream omits it", c.Type)
	}
}

func TestNormalizeMeter_Aliases(t *testing.T) {
	m := NormalizeMeter(map[string]any{
		"id":          float64(2),
		"customerId":  float64(7),
		"meterNumber": "MTR-2024-002",
		"installDate": "2024-02-20",
		"status":      "Active",
	})
	want := Meter{MeterID: 2, CustomerID: 7, MeterNumber: "MTR-2024-002", InstallationDate: "2024-02-20", Status: MeterActive}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("meter = %+v, want %+v", m, want)
	}
}

func TestNormalizeReading_Aliases(t *testing.T) {
	r := NormalizeReading(map[string]any{
		"id":       float64(3),
		"meterId":  float64(1),
		"date":     "2024-10-01",
		"consumed": 300.0,
	})
	want := Reading{ReadingID: 3, MeterID: 1, ReadingDate: "2024-10-01", UnitsConsumed: 300}
	if !reflect.DeepEqual(r, want) {
		t.Errorf("reading = %+v, want %+v", r, want)
	}
}

func TestNormalize_StringNumbers(t *testing.T) {
	// Some historical payloads carried numeric fields as strings.
	r := NormalizeReading(map[string]any{
		"reading_id":     "11",
		"meter_id":       "2",
		"reading_date":   "2024-09-01",
		"units_consumed": "420.5",
	})
	if r.ReadingID != 11 || r.MeterID != 2 || r.UnitsConsumed != 420.5 {
		t.Errorf("unexpected reading: %+v", r)
	}
}
