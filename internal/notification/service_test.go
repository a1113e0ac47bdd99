package notification

import (
	"strings"
	"testing"

	"github.com/powerflowhq/powerflow/internal/billing"
	"github.com/powerflowhq/powerflow/internal/store"
)

func TestBuildOverdueDigest(t *testing.T) {
	snap := store.Snapshot{
		Customers: []billing.Customer{
			{CustomerID: 1, CustomerName: "Ann"},
			{CustomerID: 2, CustomerName: "Bob"},
		},
		Bills: []billing.Bill{
			{BillID: 10, CustomerID: 1, DueDate: "2024-09-15", AmountDue: 12.5, Status: billing.BillOverdue},
			{BillID: 11, CustomerID: 2, DueDate: "2024-08-15", AmountDue: 80, Status: billing.BillOverdue},
			{BillID: 12, CustomerID: 1, DueDate: "2024-10-15", AmountDue: 999, Status: billing.BillPaid},
		},
	}

	subject, body, count := BuildOverdueDigest(snap)
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if subject != "PowerFlow: 2 overdue bills ($92.50)" {
		t.Errorf("subject = %q", subject)
	}
	// Largest amount first.
	if strings.Index(body, "Bob") > strings.Index(body, "Ann") {
		t.Error("digest not sorted by amount descending")
	}
	if strings.Contains(body, "#12") {
		t.Error("paid bill leaked into overdue digest")
	}
}

func TestBuildOverdueDigest_NoOverdue(t *testing.T) {
	snap := store.Snapshot{
		Bills: []billing.Bill{{BillID: 1, Status: billing.BillPaid}},
	}
	if _, _, count := BuildOverdueDigest(snap); count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestBuildOverdueDigest_UnknownCustomerNamed(t *testing.T) {
	snap := store.Snapshot{
		Bills: []billing.Bill{
			{BillID: 3, CustomerID: 42, DueDate: "2024-09-01", AmountDue: 5, Status: billing.BillOverdue},
		},
	}
	_, body, count := BuildOverdueDigest(snap)
	if count != 1 {
		t.Fatalf("count = %d", count)
	}
	if !strings.Contains(body, "customer #42") {
		t.Errorf("missing placeholder name: %s", body)
	}
}
