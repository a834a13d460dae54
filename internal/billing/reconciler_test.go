package billing

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/restoman/internal/database"
	"github.com/example/restoman/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func makeUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()

	user := &models.User{
		Name:       name,
		Email:      email,
		Mobile:     "9876543210",
		IsVerified: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func makeDeliveredOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, items []models.OrderItem, total float64) *models.Order {
	t.Helper()

	order := &models.Order{
		UserID:      userID,
		OrderNumber: fmt.Sprintf("#%d", time.Now().UnixNano()),
		Status:      models.OrderStatusDelivered,
		TotalAmount: total,
		PlacedAt:    time.Now(),
		Items:       items,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func loadBills(t *testing.T, db *gorm.DB, customerID uuid.UUID) []models.Bill {
	t.Helper()

	var bills []models.Bill
	require.NoError(t, db.Preload("Items").Where("customer_id = ?", customerID).Find(&bills).Error)
	return bills
}

func TestReconcileCreatesNewBill(t *testing.T) {
	db := newTestDB(t)
	user := makeUser(t, db, "Asha", "asha@example.com")
	order := makeDeliveredOrder(t, db, user.ID, []models.OrderItem{
		{MenuItemID: 1, Name: "Paneer Tikka", Price: 100, Quantity: 1},
		{MenuItemID: 2, Name: "Naan", Price: 25, Quantity: 2},
	}, 150)

	r := NewReconciler(db, false)
	require.NoError(t, r.Reconcile(order))

	bills := loadBills(t, db, user.ID)
	require.Len(t, bills, 1)
	assert.Equal(t, models.BillStatusUnpaid, bills[0].Status)
	assert.Equal(t, "Asha", bills[0].CustomerName)
	assert.Equal(t, 150.0, bills[0].TotalAmount)
	require.Len(t, bills[0].Items, 2)
	assert.Equal(t, 1, bills[0].Items[0].ProductID)
	assert.Equal(t, "Paneer Tikka", bills[0].Items[0].Name)

	var persisted models.Order
	require.NoError(t, db.First(&persisted, "id = ?", order.ID).Error)
	assert.True(t, persisted.IsBilled)
}

func TestReconcileIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := makeUser(t, db, "Asha", "asha@example.com")
	order := makeDeliveredOrder(t, db, user.ID, []models.OrderItem{
		{MenuItemID: 1, Name: "Thali", Price: 250, Quantity: 2},
	}, 500)

	r := NewReconciler(db, false)
	require.NoError(t, r.Reconcile(order))

	// Second delivery of the same order: the billed flag stops re-entry.
	var reloaded models.Order
	require.NoError(t, db.Preload("Items").First(&reloaded, "id = ?", order.ID).Error)
	require.NoError(t, r.Reconcile(&reloaded))

	bills := loadBills(t, db, user.ID)
	require.Len(t, bills, 1)
	assert.Equal(t, 500.0, bills[0].TotalAmount)
	assert.Len(t, bills[0].Items, 1)
}

func TestReconcileAppendsToOpenBill(t *testing.T) {
	db := newTestDB(t)
	user := makeUser(t, db, "Ravi", "ravi@example.com")

	r := NewReconciler(db, false)

	first := makeDeliveredOrder(t, db, user.ID, []models.OrderItem{
		{MenuItemID: 3, Name: "Biryani", Price: 300, Quantity: 1},
	}, 300)
	require.NoError(t, r.Reconcile(first))

	second := makeDeliveredOrder(t, db, user.ID, []models.OrderItem{
		{MenuItemID: 4, Name: "Lassi", Price: 100, Quantity: 2},
	}, 200)
	require.NoError(t, r.Reconcile(second))

	bills := loadBills(t, db, user.ID)
	require.Len(t, bills, 1)
	assert.Equal(t, 500.0, bills[0].TotalAmount)
	require.Len(t, bills[0].Items, 2)
	assert.Equal(t, bills[0].TotalAmount, SumItems(bills[0].Items))
}

func TestReconcileAfterPaymentOpensFreshBill(t *testing.T) {
	db := newTestDB(t)
	user := makeUser(t, db, "Ravi", "ravi@example.com")

	r := NewReconciler(db, false)

	first := makeDeliveredOrder(t, db, user.ID, []models.OrderItem{
		{MenuItemID: 3, Name: "Biryani", Price: 300, Quantity: 1},
	}, 300)
	require.NoError(t, r.Reconcile(first))

	require.NoError(t, db.Model(&models.Bill{}).
		Where("customer_id = ?", user.ID).
		Update("status", models.BillStatusPaid).Error)

	second := makeDeliveredOrder(t, db, user.ID, []models.OrderItem{
		{MenuItemID: 4, Name: "Lassi", Price: 100, Quantity: 2},
	}, 200)
	require.NoError(t, r.Reconcile(second))

	bills := loadBills(t, db, user.ID)
	require.Len(t, bills, 2)

	byStatus := map[string]models.Bill{}
	for _, b := range bills {
		byStatus[b.Status] = b
	}
	assert.Equal(t, 300.0, byStatus[models.BillStatusPaid].TotalAmount)
	assert.Equal(t, 200.0, byStatus[models.BillStatusUnpaid].TotalAmount)
}

func TestReconcileKeepsRepeatedProductsDistinct(t *testing.T) {
	db := newTestDB(t)
	user := makeUser(t, db, "Mina", "mina@example.com")

	r := NewReconciler(db, false)

	for i := 0; i < 2; i++ {
		order := makeDeliveredOrder(t, db, user.ID, []models.OrderItem{
			{MenuItemID: 7, Name: "Dosa", Price: 80, Quantity: 1},
		}, 80)
		require.NoError(t, r.Reconcile(order))
	}

	bills := loadBills(t, db, user.ID)
	require.Len(t, bills, 1)
	require.Len(t, bills[0].Items, 2)
	assert.Equal(t, 160.0, bills[0].TotalAmount)
	assert.Equal(t, bills[0].TotalAmount, SumItems(bills[0].Items))
}

func TestReconcileSkipsNonDeliveredAndBilled(t *testing.T) {
	db := newTestDB(t)
	user := makeUser(t, db, "Mina", "mina@example.com")

	r := NewReconciler(db, false)

	pending := makeDeliveredOrder(t, db, user.ID, nil, 100)
	pending.Status = models.OrderStatusPreparing
	require.NoError(t, r.Reconcile(pending))
	assert.Empty(t, loadBills(t, db, user.ID))

	billed := makeDeliveredOrder(t, db, user.ID, nil, 100)
	billed.IsBilled = true
	require.NoError(t, r.Reconcile(billed))
	assert.Empty(t, loadBills(t, db, user.ID))
}

func TestReconcileSkipsWhenUserMissing(t *testing.T) {
	db := newTestDB(t)

	orphanID := uuid.New()
	order := makeDeliveredOrder(t, db, orphanID, []models.OrderItem{
		{MenuItemID: 1, Name: "Naan", Price: 25, Quantity: 1},
	}, 25)

	r := NewReconciler(db, false)
	require.NoError(t, r.Reconcile(order))

	assert.Empty(t, loadBills(t, db, orphanID))

	var persisted models.Order
	require.NoError(t, db.First(&persisted, "id = ?", order.ID).Error)
	assert.False(t, persisted.IsBilled)
}

func TestStrictReconcileMatchesDefaultBehavior(t *testing.T) {
	db := newTestDB(t)
	user := makeUser(t, db, "Asha", "asha@example.com")

	r := NewReconciler(db, true)

	first := makeDeliveredOrder(t, db, user.ID, []models.OrderItem{
		{MenuItemID: 1, Name: "Thali", Price: 250, Quantity: 1},
	}, 250)
	require.NoError(t, r.Reconcile(first))

	second := makeDeliveredOrder(t, db, user.ID, []models.OrderItem{
		{MenuItemID: 2, Name: "Chai", Price: 20, Quantity: 5},
	}, 100)
	require.NoError(t, r.Reconcile(second))

	bills := loadBills(t, db, user.ID)
	require.Len(t, bills, 1)
	assert.Equal(t, 350.0, bills[0].TotalAmount)
	assert.Equal(t, bills[0].TotalAmount, SumItems(bills[0].Items))
}

func TestStrictReconcileRechecksBilledFlag(t *testing.T) {
	db := newTestDB(t)
	user := makeUser(t, db, "Asha", "asha@example.com")
	order := makeDeliveredOrder(t, db, user.ID, []models.OrderItem{
		{MenuItemID: 1, Name: "Thali", Price: 250, Quantity: 2},
	}, 500)

	// Two handlers holding their own copy of the order, both read
	// before either reconciliation ran. The entry guard on the copy
	// passes for both; only the in-transaction re-read can stop the
	// second one.
	var copyA, copyB models.Order
	require.NoError(t, db.Preload("Items").First(&copyA, "id = ?", order.ID).Error)
	require.NoError(t, db.Preload("Items").First(&copyB, "id = ?", order.ID).Error)

	r := NewReconciler(db, true)
	require.NoError(t, r.Reconcile(&copyA))
	require.NoError(t, r.Reconcile(&copyB))

	bills := loadBills(t, db, user.ID)
	require.Len(t, bills, 1)
	assert.Equal(t, 500.0, bills[0].TotalAmount)
	assert.Len(t, bills[0].Items, 1)
	assert.True(t, copyB.IsBilled)
}

func TestSumItems(t *testing.T) {
	items := []models.BillItem{
		{Price: 100, Quantity: 2},
		{Price: 25.5, Quantity: 4},
	}
	assert.Equal(t, 302.0, SumItems(items))
	assert.Zero(t, SumItems(nil))
}
