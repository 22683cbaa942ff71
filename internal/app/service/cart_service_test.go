package service

import (
	"testing"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (CartService, *gorm.DB, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartService := NewCartService(cartRepo, productRepo)

	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "hash",
		Username:     "testuser",
	}
	testDB.Create(user)

	product := &model.Product{
		UserID:   user.ID,
		Name:     "Test Product",
		Price:    50.00,
		Stock:    5,
		Category: "Electronics",
	}
	testDB.Create(product)

	return cartService, testDB, user, product
}

func TestCartService_GetCart_CreatesEmptyCart(t *testing.T) {
	cartService, _, user, _ := setupCartServiceTest(t)

	cart, err := cartService.GetCart(user.ID)
	require.NoError(t, err)
	assert.NotZero(t, cart.ID)
	assert.Equal(t, user.ID, cart.UserID)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.TotalPrice())
}

func TestCartService_AddItem_Success(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 100.00, cart.TotalPrice())
	assert.Equal(t, 2, cart.TotalItems())
}

func TestCartService_AddItem_MergesExistingLine(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	_, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)

	cart, err := cartService.AddItem(user.ID, product.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestCartService_AddItem_ProductNotFound(t *testing.T) {
	cartService, _, user, _ := setupCartServiceTest(t)

	_, err := cartService.AddItem(user.ID, 9999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_AddItem_InvalidQuantity(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	_, err := cartService.AddItem(user.ID, product.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = cartService.AddItem(user.ID, product.ID, -3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartService_AddItem_InsufficientStock(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	_, err := cartService.AddItem(user.ID, product.ID, 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Merging lines also respects stock
	_, err = cartService.AddItem(user.ID, product.ID, 3)
	require.NoError(t, err)
	_, err = cartService.AddItem(user.ID, product.ID, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCartService_UpdateItemQuantity_Success(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	_, err := cartService.AddItem(user.ID, product.ID, 1)
	require.NoError(t, err)

	cart, err := cartService.UpdateItemQuantity(user.ID, product.ID, 4)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, 200.00, cart.TotalPrice())
}

func TestCartService_UpdateItemQuantity_NotInCart(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	_, err := cartService.UpdateItemQuantity(user.ID, product.ID, 2)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_UpdateItemQuantity_InsufficientStock(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	_, err := cartService.AddItem(user.ID, product.ID, 1)
	require.NoError(t, err)

	_, err = cartService.UpdateItemQuantity(user.ID, product.ID, 99)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCartService_RemoveItem_Success(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	_, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)

	cart, err := cartService.RemoveItem(user.ID, product.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// A removed product can be added again
	cart, err = cartService.AddItem(user.ID, product.ID, 1)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestCartService_RemoveItem_NotInCart(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	_, err := cartService.RemoveItem(user.ID, product.ID)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_ClearCart(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	second := &model.Product{UserID: user.ID, Name: "Other", Price: 10, Stock: 9}
	testDB.Create(second)

	_, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)
	_, err = cartService.AddItem(user.ID, second.ID, 1)
	require.NoError(t, err)

	require.NoError(t, cartService.ClearCart(user.ID))

	cart, err := cartService.GetCart(user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartService_LineTotalsFollowLivePrice(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	_, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)

	// Price changes are reflected in the cart until checkout freezes them
	product.Price = 80.00
	require.NoError(t, testDB.Save(product).Error)

	cart, err := cartService.GetCart(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 160.00, cart.TotalPrice())
}
