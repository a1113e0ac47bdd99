package billing

import (
	"strings"
	"testing"
	"time"
)

func TestCustomerInputValidate(t *testing.T) {
	ok := CustomerInput{CustomerName: "Ann", Address: "1 A St", Phone: "555", Type: Residential}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	bad := CustomerInput{CustomerName: "  ", Address: "", Phone: "555", Type: "Industrial"}
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"customer_name", "address", "type"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing field %q", msg, want)
		}
	}
	if strings.Contains(msg, "phone") {
		t.Errorf("error %q should not flag phone", msg)
	}
}

func TestReadingInputValidate_NegativeUnits(t *testing.T) {
	in := ReadingInput{MeterID: 1, ReadingDate: "2024-10-01", UnitsConsumed: -5}
	if err := in.Validate(); err == nil {
		t.Fatal("expected rejection of negative units")
	}
	in.UnitsConsumed = 0
	if err := in.Validate(); err != nil {
		t.Fatalf("zero units should be allowed: %v", err)
	}
}

func TestBillInputValidate(t *testing.T) {
	in := BillInput{CustomerID: 1, ReadingID: 2, Rate: 0.12}
	if err := in.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	in.Rate = 0
	in.ReadingID = 0
	err := in.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "rate") || !strings.Contains(err.Error(), "reading_id") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDefaultDueDate(t *testing.T) {
	now := time.Date(2024, time.October, 3, 9, 30, 0, 0, time.UTC)
	if got := DefaultDueDate(now); got != "2024-10-15" {
		t.Errorf("DefaultDueDate = %q, want 2024-10-15", got)
	}
}
