package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/powerflowhq/powerflow/internal/billing"
	"github.com/powerflowhq/powerflow/internal/store"
	"github.com/powerflowhq/powerflow/internal/upstream"
)

var errNotWired = errors.New("fake: endpoint not wired")

// fakeClient implements Client with per-call hooks; anything not wired fails
// the operation.
type fakeClient struct {
	listCustomers  func(context.Context) ([]billing.Customer, error)
	listMeters     func(context.Context) ([]billing.Meter, error)
	listReadings   func(context.Context) ([]billing.Reading, error)
	listBills      func(context.Context) ([]billing.Bill, error)
	createCustomer func(context.Context, billing.CustomerInput) (billing.Customer, error)
	deleteMeter    func(context.Context, int64) error
	createBill     func(context.Context, upstream.BillPayload) (billing.Bill, error)
}

func (f *fakeClient) ListCustomers(ctx context.Context) ([]billing.Customer, error) {
	if f.listCustomers == nil {
		return nil, errNotWired
	}
	return f.listCustomers(ctx)
}

func (f *fakeClient) ListMeters(ctx context.Context) ([]billing.Meter, error) {
	if f.listMeters == nil {
		return nil, errNotWired
	}
	return f.listMeters(ctx)
}

func (f *fakeClient) ListReadings(ctx context.Context) ([]billing.Reading, error) {
	if f.listReadings == nil {
		return nil, errNotWired
	}
	return f.listReadings(ctx)
}

func (f *fakeClient) ListBills(ctx context.Context) ([]billing.Bill, error) {
	if f.listBills == nil {
		return nil, errNotWired
	}
	return f.listBills(ctx)
}

func (f *fakeClient) CreateCustomer(ctx context.Context, in billing.CustomerInput) (billing.Customer, error) {
	if f.createCustomer == nil {
		return billing.Customer{}, errNotWired
	}
	return f.createCustomer(ctx, in)
}

func (f *fakeClient) UpdateCustomer(context.Context, int64, billing.CustomerInput) (billing.Customer, error) {
	return billing.Customer{}, errNotWired
}
func (f *fakeClient) DeleteCustomer(context.Context, int64) error { return errNotWired }

func (f *fakeClient) CreateMeter(context.Context, billing.MeterInput) (billing.Meter, error) {
	return billing.Meter{}, errNotWired
}
func (f *fakeClient) UpdateMeter(context.Context, int64, billing.MeterInput) (billing.Meter, error) {
	return billing.Meter{}, errNotWired
}

func (f *fakeClient) DeleteMeter(ctx context.Context, id int64) error {
	if f.deleteMeter == nil {
		return errNotWired
	}
	return f.deleteMeter(ctx, id)
}

func (f *fakeClient) CreateReading(context.Context, billing.ReadingInput) (billing.Reading, error) {
	return billing.Reading{}, errNotWired
}
func (f *fakeClient) UpdateReading(context.Context, int64, billing.ReadingInput) (billing.Reading, error) {
	return billing.Reading{}, errNotWired
}
func (f *fakeClient) DeleteReading(context.Context, int64) error { return errNotWired }

func (f *fakeClient) CreateBill(ctx context.Context, p upstream.BillPayload) (billing.Bill, error) {
	if f.createBill == nil {
		return billing.Bill{}, errNotWired
	}
	return f.createBill(ctx, p)
}
func (f *fakeClient) UpdateBill(context.Context, int64, upstream.BillPayload) (billing.Bill, error) {
	return billing.Bill{}, errNotWired
}
func (f *fakeClient) DeleteBill(context.Context, int64) error { return errNotWired }

func newService(client Client) *Service {
	return NewService(client, store.New(), zap.NewNop(), nil)
}

func TestCreateCustomer_AppendsCanonicalRecord(t *testing.T) {
	var calls int
	svc := newService(&fakeClient{
		createCustomer: func(_ context.Context, in billing.CustomerInput) (billing.Customer, error) {
			calls++
			// Server assigns the id and does not echo the type.
			return billing.Customer{CustomerID: 7, CustomerName: in.CustomerName, Address: in.Address, Phone: in.Phone}, nil
		},
	})

	c, err := svc.CreateCustomer(context.Background(), billing.CustomerInput{
		CustomerName: "Ann", Address: "1 A St", Phone: "555", Type: billing.Residential,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly one POST, got %d", calls)
	}
	if c.Type != billing.Residential {
		t.Errorf("type = %q, want draft type merged in", c.Type)
	}

	snap := svc.Store().Snapshot()
	if len(snap.Customers) != 1 {
		t.Fatalf("customers = %d, want 1", len(snap.Customers))
	}
	if snap.Customers[0].CustomerID != 7 {
		t.Errorf("stored id = %d, want server-assigned 7", snap.Customers[0].CustomerID)
	}
}

func TestCreateCustomer_InvalidInputNeverReachesUpstream(t *testing.T) {
	var calls int
	svc := newService(&fakeClient{
		createCustomer: func(context.Context, billing.CustomerInput) (billing.Customer, error) {
			calls++
			return billing.Customer{}, nil
		},
	})

	_, err := svc.CreateCustomer(context.Background(), billing.CustomerInput{})
	var vErr *billing.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if calls != 0 {
		t.Errorf("upstream called %d times for invalid input", calls)
	}
	if len(svc.Store().Snapshot().Customers) != 0 {
		t.Error("store changed on validation failure")
	}
}

func TestDeleteMeter_ReferentialRejectionLeavesStateUnchanged(t *testing.T) {
	svc := newService(&fakeClient{
		deleteMeter: func(context.Context, int64) error {
			return &upstream.APIError{StatusCode: 400, Message: "meter has readings"}
		},
	})
	svc.Store().AppendMeter(billing.Meter{MeterID: 3, CustomerID: 1, MeterNumber: "MTR-3"})

	err := svc.DeleteMeter(context.Background(), 3)
	var apiErr *upstream.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "meter has readings" {
		t.Errorf("message = %q, want server message verbatim", apiErr.Message)
	}
	snap := svc.Store().Snapshot()
	if len(snap.Meters) != 1 || snap.Meters[0].MeterID != 3 {
		t.Errorf("meter collection changed: %+v", snap.Meters)
	}
}

func TestBootstrap_Success(t *testing.T) {
	svc := newService(&fakeClient{
		listCustomers: func(context.Context) ([]billing.Customer, error) {
			return []billing.Customer{{CustomerID: 1, CustomerName: "Ann"}}, nil
		},
		listMeters:   func(context.Context) ([]billing.Meter, error) { return []billing.Meter{{MeterID: 1}}, nil },
		listReadings: func(context.Context) ([]billing.Reading, error) { return []billing.Reading{{ReadingID: 1}}, nil },
		listBills:    func(context.Context) ([]billing.Bill, error) { return []billing.Bill{{BillID: 1}}, nil },
	})

	svc.Bootstrap(context.Background())

	snap := svc.Store().Snapshot()
	if snap.Fallback {
		t.Error("fallback flag set after successful bootstrap")
	}
	if len(snap.Customers) != 1 || snap.Customers[0].CustomerName != "Ann" {
		t.Errorf("unexpected customers: %+v", snap.Customers)
	}
}

func TestBootstrap_PartialFailureFallsBackWholesale(t *testing.T) {
	svc := newService(&fakeClient{
		listCustomers: func(context.Context) ([]billing.Customer, error) {
			return []billing.Customer{{CustomerID: 999, CustomerName: "Real Customer"}}, nil
		},
		listMeters:   func(context.Context) ([]billing.Meter, error) { return nil, nil },
		listReadings: func(context.Context) ([]billing.Reading, error) { return nil, nil },
		listBills:    func(context.Context) ([]billing.Bill, error) { return nil, errors.New("connection refused") },
	})

	svc.Bootstrap(context.Background())

	snap := svc.Store().Snapshot()
	if !snap.Fallback {
		t.Fatal("expected fallback flag after failed bootstrap")
	}
	// The successfully fetched customers must not leak into the sample set.
	for _, c := range snap.Customers {
		if c.CustomerID == 999 {
			t.Error("real data mixed into sample dataset")
		}
	}
	if len(snap.Customers) < 4 || len(snap.Bills) != 12*len(snap.Customers) {
		t.Errorf("sample shape unexpected: %d customers, %d bills", len(snap.Customers), len(snap.Bills))
	}
}

func TestResync_FailureKeepsCurrentState(t *testing.T) {
	svc := newService(&fakeClient{
		listCustomers: func(context.Context) ([]billing.Customer, error) { return nil, errors.New("boom") },
		listMeters:    func(context.Context) ([]billing.Meter, error) { return nil, nil },
		listReadings:  func(context.Context) ([]billing.Reading, error) { return nil, nil },
		listBills:     func(context.Context) ([]billing.Bill, error) { return nil, nil },
	})
	svc.Store().ReplaceAll([]billing.Customer{{CustomerID: 1}}, nil, nil, nil, false)

	if err := svc.Resync(context.Background()); err == nil {
		t.Fatal("expected resync error")
	}
	snap := svc.Store().Snapshot()
	if len(snap.Customers) != 1 || snap.Fallback {
		t.Errorf("state disturbed by failed resync: %+v", snap)
	}
}

func TestCreateBill_SourcesUnitsFromReading(t *testing.T) {
	var sent upstream.BillPayload
	svc := newService(&fakeClient{
		createBill: func(_ context.Context, p upstream.BillPayload) (billing.Bill, error) {
			sent = p
			// The server echoes the canonical bill without a units field.
			return billing.Bill{BillID: 21, CustomerID: p.CustomerID, BillingDate: p.BillingDate,
				DueDate: p.DueDate, ReadingID: p.ReadingID, AmountDue: p.AmountDue, Status: p.Status}, nil
		},
	})
	svc.now = func() time.Time { return time.Date(2024, time.October, 3, 0, 0, 0, 0, time.UTC) }
	svc.Store().AppendReading(billing.Reading{ReadingID: 5, MeterID: 1, ReadingDate: "2024-10-01", UnitsConsumed: 300})

	b, err := svc.CreateBill(context.Background(), billing.BillInput{
		CustomerID: 1, ReadingID: 5, Rate: 0.12,
	})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if sent.Units != 300 {
		t.Errorf("units = %v, want sourced from reading", sent.Units)
	}
	if sent.AmountDue != 36 {
		t.Errorf("amount_due = %v, want 300 * 0.12", sent.AmountDue)
	}
	if sent.BillingDate != "2024-10-01" {
		t.Errorf("billing_date = %q, want reading date default", sent.BillingDate)
	}
	if sent.DueDate != "2024-10-15" {
		t.Errorf("due_date = %q, want 15th of current month", sent.DueDate)
	}
	if sent.Status != billing.BillPending {
		t.Errorf("status = %q, want Pending default", sent.Status)
	}
	if b.Units != 300 {
		t.Errorf("stored units = %v, want merged from submission", b.Units)
	}
	if got := len(svc.Store().Snapshot().Bills); got != 1 {
		t.Errorf("bills = %d, want 1", got)
	}
}

func TestCreateBill_UnknownReadingRejectedLocally(t *testing.T) {
	var calls int
	svc := newService(&fakeClient{
		createBill: func(context.Context, upstream.BillPayload) (billing.Bill, error) {
			calls++
			return billing.Bill{}, nil
		},
	})

	_, err := svc.CreateBill(context.Background(), billing.BillInput{CustomerID: 1, ReadingID: 42, Rate: 0.12})
	if err == nil {
		t.Fatal("expected error for unknown reading")
	}
	if calls != 0 {
		t.Error("upstream must not be called when the reading is unknown")
	}
}
