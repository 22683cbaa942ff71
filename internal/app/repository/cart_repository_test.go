package repository

import (
	"testing"
	"time"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartTest(t *testing.T) (*gorm.DB, CartRepository, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	repo := NewCartRepository(testDB)

	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "hash",
		Username:     "testuser",
	}
	testDB.Create(user)

	product := &model.Product{
		UserID:   user.ID,
		Name:     "Test Product",
		Price:    99.99,
		Stock:    10,
		Category: "Electronics",
	}
	testDB.Create(product)

	return testDB, repo, user, product
}

func TestCartRepository_FindOrCreateByUserID(t *testing.T) {
	testDB, repo, user, _ := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)
	assert.NotZero(t, cart.ID)
	assert.Equal(t, user.ID, cart.UserID)
	assert.Empty(t, cart.Items)

	// Second call returns the same cart row
	again, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestCartRepository_FindOrCreateByUserID_LostFirstInsert(t *testing.T) {
	testDB, repo, user, _ := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	// Simulate a concurrent first request sneaking its insert in between
	// this call's missed lookup and its own insert. The unique index on
	// user_id rejects the second insert; the caller must still get the
	// surviving cart, not a 500.
	err := testDB.Callback().Create().Before("gorm:begin_transaction").
		Register("cart_test:concurrent_insert", func(tx *gorm.DB) {
			if _, ok := tx.Statement.Model.(*model.Cart); !ok {
				return
			}
			tx.Session(&gorm.Session{NewDB: true}).
				Exec("INSERT INTO carts (user_id, is_active, created_at, updated_at) VALUES (?, ?, ?, ?)",
					user.ID, true, time.Now(), time.Now())
		})
	require.NoError(t, err)
	defer testDB.Callback().Create().Remove("cart_test:concurrent_insert")

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)
	assert.NotZero(t, cart.ID)
	assert.Equal(t, user.ID, cart.UserID)

	var count int64
	testDB.Model(&model.Cart{}).Where("user_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCartRepository_CreateItem(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)

	item := &model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  2,
	}

	err = repo.CreateItem(item)
	assert.NoError(t, err)
	assert.NotZero(t, item.ID)
}

func TestCartRepository_CreateItem_DuplicateProduct(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)

	item1 := &model.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1}
	require.NoError(t, repo.CreateItem(item1))

	item2 := &model.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 3}
	err = repo.CreateItem(item2)
	assert.Error(t, err)
}

func TestCartRepository_FindByUserID_PreloadsItems(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)

	item := &model.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 2}
	require.NoError(t, repo.CreateItem(item))

	found, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, product.ID, found.Items[0].ProductID)
	assert.Equal(t, "Test Product", found.Items[0].Product.Name)
}

func TestCartRepository_FindItemByCartAndProduct(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)

	item := &model.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 2}
	require.NoError(t, repo.CreateItem(item))

	found, err := repo.FindItemByCartAndProduct(cart.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	_, err = repo.FindItemByCartAndProduct(cart.ID, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_UpdateItem(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)

	item := &model.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1}
	require.NoError(t, repo.CreateItem(item))

	item.Quantity = 5
	require.NoError(t, repo.UpdateItem(item))

	found, err := repo.FindItemByCartAndProduct(cart.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, found.Quantity)
}

func TestCartRepository_DeleteItem(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)

	item := &model.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 2}
	require.NoError(t, repo.CreateItem(item))

	require.NoError(t, repo.DeleteItem(item.ID))

	_, err = repo.FindItemByCartAndProduct(cart.ID, product.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Deleting frees the (cart, product) slot for re-adding
	again := &model.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1}
	assert.NoError(t, repo.CreateItem(again))
}

func TestCartRepository_DeleteItemsByCartID(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)

	second := &model.Product{UserID: user.ID, Name: "Other", Price: 10, Stock: 3}
	testDB.Create(second)

	require.NoError(t, repo.CreateItem(&model.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1}))
	require.NoError(t, repo.CreateItem(&model.CartItem{CartID: cart.ID, ProductID: second.ID, Quantity: 2}))

	require.NoError(t, repo.DeleteItemsByCartID(cart.ID))

	found, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Items)
}

func TestCartRepository_DeleteItemsOlderThan(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)

	item := &model.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1}
	require.NoError(t, repo.CreateItem(item))

	// Cutoff in the past leaves the fresh item alone
	count, err := repo.DeleteItemsOlderThan(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)

	// Cutoff in the future sweeps it
	count, err = repo.DeleteItemsOlderThan(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
