// Package schedule defines the shipment schedule entity tracked from order
// placement to arrival, along with its trade-finance metadata.
package schedule

import "time"

// MaxRepeatSlots bounds the clearance and declaration collections.
const MaxRepeatSlots = 10

// ProductRef identifies a catalog product.
type ProductRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// Clearance is one customs-clearance event attached to a schedule.
type Clearance struct {
	Date     *time.Time `json:"date,omitempty"`
	Quantity float64    `json:"quantity"`
	Rate     float64    `json:"rate"`
}

// Declaration is one import declaration attached to a schedule.
type Declaration struct {
	Date   *time.Time `json:"date,omitempty"`
	Number string     `json:"number,omitempty"`
}

// Schedule is one tracked shipment line item.
type Schedule struct {
	ID int64 `json:"id,omitempty"`

	// Identifiers
	CKCode        string `json:"ck_code"`
	GlobalCode    string `json:"global_code,omitempty"`
	SecondaryCode string `json:"secondary_code,omitempty"`

	// Product
	Product ProductRef `json:"product"`

	// Descriptive
	Supplier      string `json:"supplier,omitempty"`
	Origin        string `json:"origin,omitempty"`
	Size          string `json:"size,omitempty"`
	Packing       string `json:"packing,omitempty"`
	SecondaryUnit string `json:"secondary_unit,omitempty"`

	// Quantities
	Quantity  float64 `json:"quantity"`
	OpenQty   float64 `json:"open_qty"`
	DocQty    float64 `json:"doc_qty"`
	BoxQty    float64 `json:"box_qty"`
	ActualQty float64 `json:"actual_qty"`

	// Money
	UnitPrice     float64 `json:"unit_price"`
	OpenAmount    float64 `json:"open_amount"`
	DocAmount     float64 `json:"doc_amount"`
	PaymentAmount float64 `json:"payment_amount"`
	ExchangeRate  float64 `json:"exchange_rate"`
	PaymentRate   float64 `json:"payment_rate"`

	// Dates
	ETD                  *time.Time `json:"etd,omitempty"`
	ETA                  *time.Time `json:"eta,omitempty"`
	ArrivalDate          *time.Time `json:"arrival_date,omitempty"`
	BrokerHandoffDate    *time.Time `json:"broker_handoff_date,omitempty"`
	LCOpenDate           *time.Time `json:"lc_open_date,omitempty"`
	MaturityDate         *time.Time `json:"maturity_date,omitempty"`
	ExtendedMaturityDate *time.Time `json:"extended_maturity_date,omitempty"`
	DocAcceptanceDate    *time.Time `json:"doc_acceptance_date,omitempty"`
	PaymentDate          *time.Time `json:"payment_date,omitempty"`

	// Trade finance and logistics text
	LCNumber       string `json:"lc_number,omitempty"`
	InvoiceNumber  string `json:"invoice_number,omitempty"`
	BLNumber       string `json:"bl_number,omitempty"`
	LGNumber       string `json:"lg_number,omitempty"`
	Insurance      string `json:"insurance,omitempty"`
	Bank           string `json:"bank,omitempty"`
	TTFlag         string `json:"tt_flag,omitempty"`
	UsanceFlag     string `json:"usance_flag,omitempty"`
	AtSightFlag    string `json:"at_sight_flag,omitempty"`
	Agency         string `json:"agency,omitempty"`
	AgencyContract string `json:"agency_contract,omitempty"`
	Warehouse      string `json:"warehouse,omitempty"`
	Destination    string `json:"destination,omitempty"`
	Note           string `json:"note,omitempty"`

	Status Status `json:"status"`

	Clearances   []Clearance   `json:"clearances,omitempty"`
	Declarations []Declaration `json:"declarations,omitempty"`

	// SourceRow is the diagnostic row number the record was extracted from.
	// Zero for manually entered schedules.
	SourceRow int `json:"source_row,omitempty"`
	// UploadID names the bulk upload that created the schedule, if any.
	UploadID string `json:"upload_id,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// New returns a pending schedule for the given product.
func New(product ProductRef) *Schedule {
	return &Schedule{Product: product, Status: StatusPending}
}

// Validate checks invariants that hold for every stored schedule.
func (s *Schedule) Validate() error {
	if s.Product.ID == 0 {
		return ErrMissingProduct
	}
	if !s.Status.Valid() {
		return ErrInvalidStatus
	}
	for _, q := range []float64{s.Quantity, s.OpenQty, s.DocQty, s.BoxQty, s.ActualQty} {
		if q < 0 {
			return ErrNegativeQuantity
		}
	}
	if len(s.Clearances) > MaxRepeatSlots || len(s.Declarations) > MaxRepeatSlots {
		return ErrTooManySlots
	}
	return nil
}
