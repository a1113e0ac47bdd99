package billing

// CustomerType classifies a customer for tariff and reporting purposes.
type CustomerType string

const (
	Residential CustomerType = "Residential"
	Commercial  CustomerType = "Commercial"
)

// MeterStatus is the operational state of an installed meter.
type MeterStatus string

const (
	MeterActive   MeterStatus = "Active"
	MeterInactive MeterStatus = "Inactive"
)

// BillStatus is the payment state of a bill.
type BillStatus string

const (
	BillPending BillStatus = "Pending"
	BillPaid    BillStatus = "Paid"
	BillOverdue BillStatus = "Overdue"
)

// Customer is the canonical in-memory shape of a customer record. The
// upstream API does not return the type field on every endpoint, so it may
// be empty after normalization; callers merge it from their draft.
type Customer struct {
	CustomerID   int64        `json:"customer_id"`
	CustomerName string       `json:"customer_name"`
	Address      string       `json:"address"`
	Phone        string       `json:"phone"`
	Type         CustomerType `json:"type,omitempty"`
}

// Meter belongs to exactly one customer. CustomerName is denormalized by the
// upstream API on meter responses and kept for display.
type Meter struct {
	MeterID          int64       `json:"meter_id"`
	CustomerID       int64       `json:"customer_id"`
	MeterNumber      string      `json:"meter_number"`
	InstallationDate string      `json:"installation_date,omitempty"`
	Status           MeterStatus `json:"status"`
	CustomerName     string      `json:"customer_name,omitempty"`
}

// Reading records consumed units for one meter on one date.
type Reading struct {
	ReadingID     int64   `json:"reading_id"`
	MeterID       int64   `json:"meter_id"`
	ReadingDate   string  `json:"reading_date"`
	UnitsConsumed float64 `json:"units_consumed"`
}

// Bill is the canonical in-memory bill shape after normalization. ReadingID
// is optional; older bills predate the reading link.
type Bill struct {
	BillID      int64      `json:"bill_id"`
	CustomerID  int64      `json:"customer_id"`
	BillingDate string     `json:"billing_date"`
	DueDate     string     `json:"due_date,omitempty"`
	ReadingID   *int64     `json:"reading_id,omitempty"`
	Units       float64    `json:"units"`
	AmountDue   float64    `json:"amount_due"`
	Status      BillStatus `json:"status"`
}

// DateLayout is the wire format for all date fields.
const DateLayout = "2006-01-02"
