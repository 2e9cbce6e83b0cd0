package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model for all entities. IDs are assigned in BeforeCreate instead of a
// database default so the same models run on the sqlite test driver.
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Item represents a stocked product
type Item struct {
	BaseModel
	Name              string  `gorm:"not null;index" json:"name"`
	Category          string  `gorm:"index" json:"category"`
	Quantity          int     `gorm:"not null;default:0" json:"quantity"` // never negative
	UnitPrice         float64 `gorm:"not null" json:"unit_price"`
	CostPrice         float64 `json:"cost_price"`
	LowStockThreshold int     `gorm:"default:10" json:"low_stock_threshold"`
	Barcode           string  `gorm:"uniqueIndex:idx_items_barcode,where:barcode <> ''" json:"barcode"`
	Description       string  `gorm:"type:text" json:"description"`
	ImageURL          string  `json:"image_url"`
}

// Sale represents a completed customer transaction
type Sale struct {
	BaseModel
	TotalAmount   float64    `gorm:"not null" json:"total_amount"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	PaymentMethod string     `gorm:"default:'cash'" json:"payment_method"` // cash, card, upi, other
	BillPDFURL    string     `json:"bill_pdf_url"`                         // filled after the sale commits
	Items         []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
}

// SaleItem represents one line of a sale. UnitPrice is a snapshot of the
// item's price at sale time and is independent of later price changes.
type SaleItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SaleID     uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	ItemID     uuid.UUID `gorm:"type:uuid;not null" json:"item_id"`
	Item       Item      `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	UnitPrice  float64   `gorm:"not null" json:"unit_price"`
	TotalPrice float64   `gorm:"not null" json:"total_price"` // quantity * unit_price
}

func (s *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// PurchaseBill records a vendor purchase, usually derived from an uploaded
// bill image via the extraction service
type PurchaseBill struct {
	BaseModel
	VendorName    string         `json:"vendor_name"`
	BillNumber    string         `json:"bill_number"`
	TotalAmount   float64        `json:"total_amount"`
	BillImageURL  string         `json:"bill_image_url"`
	ProcessedData string         `gorm:"type:jsonb" json:"processed_data"` // raw extraction payload
	Status        string         `gorm:"default:'processed'" json:"status"`
	Items         []PurchaseItem `gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// PurchaseItem is an audit line per extracted bill item
type PurchaseItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BillID     uuid.UUID `gorm:"type:uuid;not null;index" json:"bill_id"`
	ItemID     uuid.UUID `gorm:"type:uuid;not null" json:"item_id"`
	Item       Item      `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	UnitPrice  float64   `gorm:"not null" json:"unit_price"`
	TotalPrice float64   `gorm:"not null" json:"total_price"`
}

func (p *PurchaseItem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Item{},
		&Sale{},
		&SaleItem{},
		&PurchaseBill{},
		&PurchaseItem{},
	)
}
