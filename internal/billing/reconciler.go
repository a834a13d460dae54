package billing

import (
	"errors"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/restoman/internal/models"
)

// Reconciler folds delivered orders into the owning customer's open
// bill: it appends the order's line items to the customer's UNPAID bill,
// creating one if none exists, then marks the order billed so the same
// order is never billed twice.
//
// In the default mode the find-bill / write-bill / mark-order sequence
// is not transactional; two concurrent deliveries for one customer can
// race. With strict enabled the sequence runs inside a transaction that
// re-reads the order and locks the owning user's row, so concurrent
// reconciliations for one order or one customer serialize.
type Reconciler struct {
	db     *gorm.DB
	strict bool
}

// NewReconciler constructs a Reconciler. strict selects the
// transactional variant.
func NewReconciler(db *gorm.DB, strict bool) *Reconciler {
	return &Reconciler{db: db, strict: strict}
}

// Reconcile bills the given order if it has just been delivered and was
// not billed before. Orders in any other status, and orders already
// billed, are left untouched. A missing owning user is logged and
// skipped, not treated as a hard failure.
func (r *Reconciler) Reconcile(order *models.Order) error {
	if order.IsBilled || order.Status != models.OrderStatusDelivered {
		return nil
	}

	if r.strict {
		return r.db.Transaction(func(tx *gorm.DB) error {
			return r.reconcile(tx, order, true)
		})
	}

	return r.reconcile(r.db, order, false)
}

func (r *Reconciler) reconcile(tx *gorm.DB, order *models.Order, lock bool) error {
	// sqlite has no row locks; its transactions serialize writers on
	// the database lock already, so the clause is postgres-only.
	query := tx
	if lock && tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	if lock {
		// The caller's copy can be stale. Re-read the billed flag
		// under the transaction before touching any bill, otherwise a
		// concurrent reconciliation of the same order gets through the
		// entry guard twice.
		var current models.Order
		if err := query.Select("is_billed").First(&current, "id = ?", order.ID).Error; err != nil {
			return err
		}
		if current.IsBilled {
			order.IsBilled = true
			return nil
		}
	}

	// With lock set, the user row is the serialization point: holding
	// it keeps two reconciliations for one customer from both missing
	// the open bill and creating it twice.
	var user models.User
	if err := query.First(&user, "id = ?", order.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Billing] user %s not found for order %s, skipping billing", order.UserID, order.ID)
			return nil
		}
		return err
	}

	items := mapItems(order.Items)

	var bill models.Bill
	err := query.
		Where("customer_id = ? AND status = ?", user.ID, models.BillStatusUnpaid).
		First(&bill).Error

	switch {
	case err == nil:
		if err := r.appendToBill(tx, &bill, items); err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		bill = models.Bill{
			CustomerID:   user.ID,
			CustomerName: user.Name,
			Items:        items,
			TotalAmount:  order.TotalAmount,
			Status:       models.BillStatusUnpaid,
		}
		if err := tx.Create(&bill).Error; err != nil {
			return err
		}
	default:
		return err
	}

	// Separate keyed write: a crash between the bill write and this
	// update is the one known non-atomic gap of the default mode.
	if err := tx.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("is_billed", true).Error; err != nil {
		return err
	}
	order.IsBilled = true

	return nil
}

// appendToBill adds the mapped items to an existing unpaid bill and
// recomputes the total from the full item list. The total is never
// carried forward incrementally, which keeps it drift-free across many
// reconciliations.
func (r *Reconciler) appendToBill(tx *gorm.DB, bill *models.Bill, items []models.BillItem) error {
	if len(items) > 0 {
		for i := range items {
			items[i].BillID = bill.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
	}

	var all []models.BillItem
	if err := tx.Where("bill_id = ?", bill.ID).Find(&all).Error; err != nil {
		return err
	}

	bill.Items = all
	bill.TotalAmount = SumItems(all)

	return tx.Model(bill).Update("total_amount", bill.TotalAmount).Error
}

// mapItems converts order line snapshots into bill charge lines.
// Repeated products stay distinct entries.
func mapItems(items []models.OrderItem) []models.BillItem {
	mapped := make([]models.BillItem, 0, len(items))
	for _, item := range items {
		mapped = append(mapped, models.BillItem{
			ProductID: item.MenuItemID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	return mapped
}

// SumItems returns the sum of price times quantity over the items.
func SumItems(items []models.BillItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
