package sales

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopledger/shopledger-backend/pkg/apperrors"
	"github.com/shopledger/shopledger-backend/pkg/database"
	"gorm.io/gorm"
)

type SaleItemRequest struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

type CreateSaleRequest struct {
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	CustomerName  string            `json:"customer_name"`
	CustomerPhone string            `json:"customer_phone"`
	PaymentMethod string            `json:"payment_method" binding:"omitempty,oneof=cash card upi other"`
}

// Service runs the sale workflow against an injected store handle
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateSale validates the basket against live stock, snapshots prices and
// persists the sale, its line items and the stock decrements in one
// transaction. Any failure rolls the whole sale back.
func (s *Service) CreateSale(req *CreateSaleRequest) (*database.Sale, error) {
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	var sale database.Sale
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var totalAmount float64
		saleItems := make([]database.SaleItem, 0, len(req.Items))
		names := make(map[uuid.UUID]string, len(req.Items))

		for _, line := range req.Items {
			var item database.Item
			if err := tx.First(&item, "id = ?", line.ItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.Newf(apperrors.CodeNotFound, "Item with ID %s not found", line.ItemID)
				}
				return err
			}

			if item.Quantity < line.Quantity {
				return apperrors.InsufficientStock(item.Name, item.Quantity, line.Quantity)
			}

			// Price comes from the item row, never from the client
			lineTotal := item.UnitPrice * float64(line.Quantity)
			totalAmount += lineTotal
			names[item.ID] = item.Name

			saleItems = append(saleItems, database.SaleItem{
				ItemID:     item.ID,
				Quantity:   line.Quantity,
				UnitPrice:  item.UnitPrice,
				TotalPrice: lineTotal,
			})
		}

		sale = database.Sale{
			TotalAmount:   totalAmount,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			PaymentMethod: paymentMethod,
			Items:         saleItems,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		// Conditional decrement: the quantity guard in the WHERE clause keeps
		// two concurrent sales from both taking the last unit.
		for _, line := range req.Items {
			result := tx.Model(&database.Item{}).
				Where("id = ? AND quantity >= ?", line.ItemID, line.Quantity).
				Update("quantity", gorm.Expr("quantity - ?", line.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				var current database.Item
				tx.First(&current, "id = ?", line.ItemID)
				name := names[line.ItemID]
				if name == "" {
					name = current.Name
				}
				return apperrors.InsufficientStock(name, current.Quantity, line.Quantity)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &sale, nil
}

// DeleteSale reverses a sale: stock is restored for every line item, then
// the sale and its items are removed, all in one transaction.
func (s *Service) DeleteSale(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var sale database.Sale
		if err := tx.First(&sale, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "Sale not found")
			}
			return err
		}

		var lines []database.SaleItem
		if err := tx.Where("sale_id = ?", id).Find(&lines).Error; err != nil {
			return err
		}

		for _, line := range lines {
			if err := tx.Model(&database.Item{}).
				Where("id = ?", line.ItemID).
				Update("quantity", gorm.Expr("quantity + ?", line.Quantity)).Error; err != nil {
				return err
			}
		}

		// Explicit delete so reversal does not depend on the driver
		// enforcing the schema-level cascade.
		if err := tx.Where("sale_id = ?", id).Delete(&database.SaleItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sale).Error
	})
}

// GetSale loads a sale with its line items and item details
func (s *Service) GetSale(id uuid.UUID) (*database.Sale, error) {
	var sale database.Sale
	if err := s.db.Preload("Items").Preload("Items.Item").First(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "Sale not found")
		}
		return nil, err
	}
	return &sale, nil
}
