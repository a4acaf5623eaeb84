package service

import (
	"context"
	"fmt"

	"storepay/internal/model"

	"gorm.io/gorm"
)

// --- DTOs ---

type StoreBalance struct {
	StoreID   string `json:"store_id"`
	StoreName string `json:"store_name"`

	// Cross-store position
	PaidOnBehalf   string `json:"paid_on_behalf"`  // Σ allocations this store fronted for others
	OwedToOthers   string `json:"owed_to_others"`  // Σ pending allocations targeting this store
	ReimbursedIn   string `json:"reimbursed_in"`   // Σ completed allocations fronted by this store
	PendingInbound string `json:"pending_inbound"` // Σ pending allocations fronted by this store

	// Invoice position
	UnpaidInvoices int64  `json:"unpaid_invoices"`
	UnpaidTotal    string `json:"unpaid_total"`
	ThirdPartyOwed string `json:"third_party_owed"` // unreimbursed third-party fronted amounts
}

type VendorBalance struct {
	VendorID       string `json:"vendor_id"`
	VendorName     string `json:"vendor_name"`
	UnpaidInvoices int64  `json:"unpaid_invoices"`
	UnpaidTotal    string `json:"unpaid_total"`
	PaidTotal      string `json:"paid_total"`
}

type DashboardSummary struct {
	Stores  []StoreBalance  `json:"stores"`
	Vendors []VendorBalance `json:"vendors"`
}

// --- Interface ---

// DashboardService is the read side: per-store and per-vendor aggregates
// computed straight from the ledger tables, never cached or denormalized.
type DashboardService interface {
	GetSummary(ctx context.Context) (DashboardSummary, error)
}

type dashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) DashboardService {
	return &dashboardService{db: db}
}

// --- Implementation ---

func (s *dashboardService) GetSummary(ctx context.Context) (DashboardSummary, error) {
	stores, err := s.storeBalances(ctx)
	if err != nil {
		return DashboardSummary{}, err
	}
	vendors, err := s.vendorBalances(ctx)
	if err != nil {
		return DashboardSummary{}, err
	}
	return DashboardSummary{Stores: stores, Vendors: vendors}, nil
}

func (s *dashboardService) storeBalances(ctx context.Context) ([]StoreBalance, error) {
	query := `
		SELECT
			st.id AS store_id,
			st.name AS store_name,
			COALESCE(out_alloc.paid_on_behalf, 0) AS paid_on_behalf,
			COALESCE(out_alloc.reimbursed_in, 0) AS reimbursed_in,
			COALESCE(out_alloc.pending_inbound, 0) AS pending_inbound,
			COALESCE(in_alloc.owed_to_others, 0) AS owed_to_others,
			COALESCE(inv.unpaid_invoices, 0) AS unpaid_invoices,
			COALESCE(inv.unpaid_total, 0) AS unpaid_total,
			COALESCE(inv.third_party_owed, 0) AS third_party_owed
		FROM stores st
		LEFT JOIN (
			SELECT csp.source_store_id,
				SUM(sa.allocated_amount) AS paid_on_behalf,
				SUM(CASE WHEN sa.reimbursement_status = $1 THEN sa.reimbursed_amount ELSE 0 END) AS reimbursed_in,
				SUM(CASE WHEN sa.reimbursement_status = $2 THEN sa.allocated_amount ELSE 0 END) AS pending_inbound
			FROM store_allocations sa
			JOIN cross_store_payments csp ON csp.id = sa.cross_store_payment_id
			GROUP BY csp.source_store_id
		) out_alloc ON out_alloc.source_store_id = st.id
		LEFT JOIN (
			SELECT sa.target_store_id,
				SUM(CASE WHEN sa.reimbursement_status = $2 THEN sa.allocated_amount ELSE 0 END) AS owed_to_others
			FROM store_allocations sa
			GROUP BY sa.target_store_id
		) in_alloc ON in_alloc.target_store_id = st.id
		LEFT JOIN (
			SELECT i.store_id,
				COUNT(*) FILTER (WHERE i.payment_id IS NULL) AS unpaid_invoices,
				COALESCE(SUM(CASE WHEN i.payment_id IS NULL THEN i.amount ELSE 0 END), 0) AS unpaid_total,
				COALESCE(SUM(CASE WHEN i.is_reimbursable AND i.reimbursement_status = $2 THEN i.amount ELSE 0 END), 0) AS third_party_owed
			FROM invoices i
			WHERE i.deleted_at IS NULL
			GROUP BY i.store_id
		) inv ON inv.store_id = st.id
		ORDER BY st.name
	`

	type rawResult struct {
		StoreID        string  `gorm:"column:store_id"`
		StoreName      string  `gorm:"column:store_name"`
		PaidOnBehalf   float64 `gorm:"column:paid_on_behalf"`
		ReimbursedIn   float64 `gorm:"column:reimbursed_in"`
		PendingInbound float64 `gorm:"column:pending_inbound"`
		OwedToOthers   float64 `gorm:"column:owed_to_others"`
		UnpaidInvoices int64   `gorm:"column:unpaid_invoices"`
		UnpaidTotal    float64 `gorm:"column:unpaid_total"`
		ThirdPartyOwed float64 `gorm:"column:third_party_owed"`
	}

	var rows []rawResult
	if err := s.db.WithContext(ctx).Raw(query,
		model.AllocationCompleted,
		model.AllocationPending,
	).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query store balances: %w", err)
	}

	result := make([]StoreBalance, 0, len(rows))
	for _, r := range rows {
		result = append(result, StoreBalance{
			StoreID:        r.StoreID,
			StoreName:      r.StoreName,
			PaidOnBehalf:   fmt.Sprintf("%.2f", r.PaidOnBehalf),
			OwedToOthers:   fmt.Sprintf("%.2f", r.OwedToOthers),
			ReimbursedIn:   fmt.Sprintf("%.2f", r.ReimbursedIn),
			PendingInbound: fmt.Sprintf("%.2f", r.PendingInbound),
			UnpaidInvoices: r.UnpaidInvoices,
			UnpaidTotal:    fmt.Sprintf("%.2f", r.UnpaidTotal),
			ThirdPartyOwed: fmt.Sprintf("%.2f", r.ThirdPartyOwed),
		})
	}
	return result, nil
}

func (s *dashboardService) vendorBalances(ctx context.Context) ([]VendorBalance, error) {
	query := `
		SELECT
			v.id AS vendor_id,
			v.name AS vendor_name,
			COUNT(*) FILTER (WHERE i.payment_id IS NULL) AS unpaid_invoices,
			COALESCE(SUM(CASE WHEN i.payment_id IS NULL THEN i.amount ELSE 0 END), 0) AS unpaid_total,
			COALESCE(SUM(CASE WHEN i.payment_id IS NOT NULL THEN i.amount ELSE 0 END), 0) AS paid_total
		FROM vendors v
		JOIN invoices i ON i.vendor_id = v.id AND i.deleted_at IS NULL
		GROUP BY v.id, v.name
		ORDER BY v.name
	`

	type rawResult struct {
		VendorID       string  `gorm:"column:vendor_id"`
		VendorName     string  `gorm:"column:vendor_name"`
		UnpaidInvoices int64   `gorm:"column:unpaid_invoices"`
		UnpaidTotal    float64 `gorm:"column:unpaid_total"`
		PaidTotal      float64 `gorm:"column:paid_total"`
	}

	var rows []rawResult
	if err := s.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query vendor balances: %w", err)
	}

	result := make([]VendorBalance, 0, len(rows))
	for _, r := range rows {
		result = append(result, VendorBalance{
			VendorID:       r.VendorID,
			VendorName:     r.VendorName,
			UnpaidInvoices: r.UnpaidInvoices,
			UnpaidTotal:    fmt.Sprintf("%.2f", r.UnpaidTotal),
			PaidTotal:      fmt.Sprintf("%.2f", r.PaidTotal),
		})
	}
	return result, nil
}
