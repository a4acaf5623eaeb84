package database

import (
	"log"

	"storepay/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.Store{},
		&model.Vendor{},
		&model.BankAccount{},
		&model.CreditCard{},
		&model.Product{},
		&model.PurchaseOrderItem{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Payment{},
		&model.PaymentSplit{},
		&model.CrossStorePayment{},
		&model.StoreAllocation{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
