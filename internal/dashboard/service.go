// Package dashboard coordinates the bootstrap load, the fallback to sample
// data, and the CRUD operations against the billing API, reconciling the
// in-memory collections with the canonical server responses.
package dashboard

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/powerflowhq/powerflow/internal/billing"
	"github.com/powerflowhq/powerflow/internal/metrics"
	"github.com/powerflowhq/powerflow/internal/sample"
	"github.com/powerflowhq/powerflow/internal/store"
	"github.com/powerflowhq/powerflow/internal/upstream"
)

// Client is the slice of the upstream API the service depends on.
type Client interface {
	ListCustomers(ctx context.Context) ([]billing.Customer, error)
	CreateCustomer(ctx context.Context, in billing.CustomerInput) (billing.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, in billing.CustomerInput) (billing.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error

	ListMeters(ctx context.Context) ([]billing.Meter, error)
	CreateMeter(ctx context.Context, in billing.MeterInput) (billing.Meter, error)
	UpdateMeter(ctx context.Context, id int64, in billing.MeterInput) (billing.Meter, error)
	DeleteMeter(ctx context.Context, id int64) error

	ListReadings(ctx context.Context) ([]billing.Reading, error)
	CreateReading(ctx context.Context, in billing.ReadingInput) (billing.Reading, error)
	UpdateReading(ctx context.Context, id int64, in billing.ReadingInput) (billing.Reading, error)
	DeleteReading(ctx context.Context, id int64) error

	ListBills(ctx context.Context) ([]billing.Bill, error)
	CreateBill(ctx context.Context, p upstream.BillPayload) (billing.Bill, error)
	UpdateBill(ctx context.Context, id int64, p upstream.BillPayload) (billing.Bill, error)
	DeleteBill(ctx context.Context, id int64) error
}

// Alerter receives operational alerts; nil disables alerting.
type Alerter interface {
	Alert(ctx context.Context, title, message string)
}

// Service owns the application state transitions.
type Service struct {
	client  Client
	store   *store.Store
	logger  *zap.Logger
	alerter Alerter
	now     func() time.Time
}

// NewService wires the dashboard service. alerter may be nil.
func NewService(client Client, st *store.Store, logger *zap.Logger, alerter Alerter) *Service {
	return &Service{
		client:  client,
		store:   st,
		logger:  logger,
		alerter: alerter,
		now:     time.Now,
	}
}

// Store exposes the state container for read paths.
func (s *Service) Store() *store.Store { return s.store }

// Bootstrap issues the four list requests concurrently and waits for all of
// them. On full success the collections are installed verbatim; on any
// failure everything fetched this cycle is abandoned and a synthesized
// sample dataset is installed instead, all-or-nothing.
func (s *Service) Bootstrap(ctx context.Context) {
	customers, meters, readings, bills, err := s.fetchAll(ctx)
	if err != nil {
		s.logger.Warn("bootstrap load failed, falling back to sample data", zap.Error(err))
		metrics.BootstrapFallbacksTotal.Inc()
		if s.alerter != nil {
			s.alerter.Alert(ctx, "PowerFlow bootstrap failed",
				"billing API unreachable at startup; dashboard is serving sample data: "+err.Error())
		}
		ds := sample.Generate(s.now(), rand.New(rand.NewSource(s.now().UnixNano())))
		s.store.ReplaceAll(ds.Customers, ds.Meters, ds.Readings, ds.Bills, true)
		return
	}
	s.store.ReplaceAll(customers, meters, readings, bills, false)
	s.logger.Info("bootstrap load complete",
		zap.Int("customers", len(customers)),
		zap.Int("meters", len(meters)),
		zap.Int("readings", len(readings)),
		zap.Int("bills", len(bills)))
}

// Resync repeats the wholesale load. Unlike Bootstrap it never installs
// sample data: a failed re-sync keeps the current collections and returns
// the error.
func (s *Service) Resync(ctx context.Context) error {
	customers, meters, readings, bills, err := s.fetchAll(ctx)
	if err != nil {
		return err
	}
	s.store.ReplaceAll(customers, meters, readings, bills, false)
	return nil
}

func (s *Service) fetchAll(ctx context.Context) ([]billing.Customer, []billing.Meter, []billing.Reading, []billing.Bill, error) {
	var (
		wg        sync.WaitGroup
		customers []billing.Customer
		meters    []billing.Meter
		readings  []billing.Reading
		bills     []billing.Bill
		errs      [4]error
	)

	wg.Add(4)
	go func() { defer wg.Done(); customers, errs[0] = s.client.ListCustomers(ctx) }()
	go func() { defer wg.Done(); meters, errs[1] = s.client.ListMeters(ctx) }()
	go func() { defer wg.Done(); readings, errs[2] = s.client.ListReadings(ctx) }()
	go func() { defer wg.Done(); bills, errs[3] = s.client.ListBills(ctx) }()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return customers, meters, readings, bills, nil
}

// Customers

func (s *Service) CreateCustomer(ctx context.Context, in billing.CustomerInput) (billing.Customer, error) {
	if err := in.Validate(); err != nil {
		return billing.Customer{}, err
	}
	c, err := s.client.CreateCustomer(ctx, in)
	if err != nil {
		return billing.Customer{}, err
	}
	// The customer endpoints do not echo the type field; keep the draft's.
	if c.Type == "" {
		c.Type = in.Type
	}
	s.store.AppendCustomer(c)
	return c, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, in billing.CustomerInput) (billing.Customer, error) {
	if err := in.Validate(); err != nil {
		return billing.Customer{}, err
	}
	c, err := s.client.UpdateCustomer(ctx, id, in)
	if err != nil {
		return billing.Customer{}, err
	}
	if c.Type == "" {
		c.Type = in.Type
	}
	s.store.ReplaceCustomer(c)
	return c, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	if err := s.client.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.store.RemoveCustomer(id)
	return nil
}

// Meters

func (s *Service) CreateMeter(ctx context.Context, in billing.MeterInput) (billing.Meter, error) {
	if err := in.Validate(); err != nil {
		return billing.Meter{}, err
	}
	m, err := s.client.CreateMeter(ctx, in)
	if err != nil {
		return billing.Meter{}, err
	}
	s.store.AppendMeter(m)
	return m, nil
}

func (s *Service) UpdateMeter(ctx context.Context, id int64, in billing.MeterInput) (billing.Meter, error) {
	if err := in.Validate(); err != nil {
		return billing.Meter{}, err
	}
	m, err := s.client.UpdateMeter(ctx, id, in)
	if err != nil {
		return billing.Meter{}, err
	}
	s.store.ReplaceMeter(m)
	return m, nil
}

func (s *Service) DeleteMeter(ctx context.Context, id int64) error {
	if err := s.client.DeleteMeter(ctx, id); err != nil {
		return err
	}
	s.store.RemoveMeter(id)
	return nil
}

// Readings

func (s *Service) CreateReading(ctx context.Context, in billing.ReadingInput) (billing.Reading, error) {
	if err := in.Validate(); err != nil {
		return billing.Reading{}, err
	}
	r, err := s.client.CreateReading(ctx, in)
	if err != nil {
		return billing.Reading{}, err
	}
	s.store.AppendReading(r)
	return r, nil
}

func (s *Service) UpdateReading(ctx context.Context, id int64, in billing.ReadingInput) (billing.Reading, error) {
	if err := in.Validate(); err != nil {
		return billing.Reading{}, err
	}
	r, err := s.client.UpdateReading(ctx, id, in)
	if err != nil {
		return billing.Reading{}, err
	}
	s.store.ReplaceReading(r)
	return r, nil
}

func (s *Service) DeleteReading(ctx context.Context, id int64) error {
	if err := s.client.DeleteReading(ctx, id); err != nil {
		return err
	}
	s.store.RemoveReading(id)
	return nil
}

// Bills

// CreateBill composes the bill from its referenced reading: units come from
// the reading, the billing date defaults to the reading date, the due date
// defaults to the 15th of the current month, and the amount due is units
// times the supplied rate.
func (s *Service) CreateBill(ctx context.Context, in billing.BillInput) (billing.Bill, error) {
	payload, err := s.composeBill(in)
	if err != nil {
		return billing.Bill{}, err
	}
	b, err := s.client.CreateBill(ctx, payload)
	if err != nil {
		return billing.Bill{}, err
	}
	// The bill endpoints do not echo units; keep the submitted quantity.
	if b.Units == 0 {
		b.Units = payload.Units
	}
	s.store.AppendBill(b)
	return b, nil
}

func (s *Service) UpdateBill(ctx context.Context, id int64, in billing.BillInput) (billing.Bill, error) {
	payload, err := s.composeBill(in)
	if err != nil {
		return billing.Bill{}, err
	}
	b, err := s.client.UpdateBill(ctx, id, payload)
	if err != nil {
		return billing.Bill{}, err
	}
	if b.Units == 0 {
		b.Units = payload.Units
	}
	s.store.ReplaceBill(b)
	return b, nil
}

func (s *Service) DeleteBill(ctx context.Context, id int64) error {
	if err := s.client.DeleteBill(ctx, id); err != nil {
		return err
	}
	s.store.RemoveBill(id)
	return nil
}

func (s *Service) composeBill(in billing.BillInput) (upstream.BillPayload, error) {
	if err := in.Validate(); err != nil {
		return upstream.BillPayload{}, err
	}
	reading, ok := s.store.GetReading(in.ReadingID)
	if !ok {
		return upstream.BillPayload{}, &billing.ValidationError{Fields: []string{"reading_id does not match a loaded reading"}}
	}

	billingDate := in.BillingDate
	if billingDate == "" {
		billingDate = reading.ReadingDate
	}
	dueDate := in.DueDate
	if dueDate == "" {
		dueDate = billing.DefaultDueDate(s.now())
	}
	status := in.Status
	if status == "" {
		status = billing.BillPending
	}

	readingID := in.ReadingID
	return upstream.BillPayload{
		CustomerID:  in.CustomerID,
		BillingDate: billingDate,
		DueDate:     dueDate,
		ReadingID:   &readingID,
		Units:       reading.UnitsConsumed,
		AmountDue:   reading.UnitsConsumed * in.Rate,
		Status:      status,
	}, nil
}
