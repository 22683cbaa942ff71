package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/electroegy/electroegy-backend/config"
	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/internal/app/service"
	"github.com/electroegy/electroegy-backend/internal/db"
	apperrors "github.com/electroegy/electroegy-backend/internal/errors"
	"github.com/electroegy/electroegy-backend/pkg/mail"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOrderControllerTest(t *testing.T) (*OrderController, *gin.Engine, *gorm.DB, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	orderRepo := repository.NewOrderRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	mailer := mail.NewSender(config.SMTPConfig{})
	orderService := service.NewOrderService(orderRepo, userRepo, mailer, testDB)
	orderController := NewOrderController(orderService)

	user := &model.User{
		Email:        "buyer@example.com",
		PasswordHash: "hash",
		Username:     "buyer",
	}
	testDB.Create(user)

	product := &model.Product{
		UserID:   user.ID,
		Name:     "USB-C Cable",
		Category: "Accessories",
		Price:    9.99,
		Stock:    50,
	}
	testDB.Create(product)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return orderController, router, testDB, user, product
}

func fillCart(t *testing.T, testDB *gorm.DB, userID, productID uint, quantity int) {
	t.Helper()
	cartRepo := repository.NewCartRepository(testDB)
	cart, err := cartRepo.FindOrCreateByUserID(userID)
	require.NoError(t, err)
	require.NoError(t, cartRepo.CreateItem(&model.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	}))
}

func checkoutRequest() CheckoutRequest {
	return CheckoutRequest{
		ShippingAddress: "1 Test Street",
		City:            "Cairo",
		Country:         "Egypt",
		ZipCode:         "11511",
		PhoneNo:         "+201000000000",
		PaymentMethod:   "COD",
	}
}

func TestOrderController_Checkout_Success(t *testing.T) {
	controller, router, testDB, user, product := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID, product.ID, 3)

	router.POST("/orders", func(c *gin.Context) {
		setUserInContext(c, user.ID, false)
		controller.Checkout(c)
	})

	jsonBody, _ := json.Marshal(checkoutRequest())
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	order, ok := response["order"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(model.OrderStatusPending), order["status"])
	assert.Equal(t, string(model.PaymentStatusUnpaid), order["payment_status"])
	assert.InDelta(t, 29.97, order["total_amount"], 0.001)
	assert.NotEmpty(t, order["order_number"])
}

func TestOrderController_Checkout_EmptyCart(t *testing.T) {
	controller, router, _, user, _ := setupOrderControllerTest(t)

	router.POST("/orders", func(c *gin.Context) {
		setUserInContext(c, user.ID, false)
		controller.Checkout(c)
	})

	jsonBody, _ := json.Marshal(checkoutRequest())
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, apperrors.CartEmpty, response["error"])
}

func TestOrderController_Checkout_MissingShipping(t *testing.T) {
	controller, router, testDB, user, product := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID, product.ID, 1)

	router.POST("/orders", func(c *gin.Context) {
		setUserInContext(c, user.ID, false)
		controller.Checkout(c)
	})

	jsonBody, _ := json.Marshal(map[string]interface{}{
		"city": "Cairo",
	})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, apperrors.ValidationInvalidInput, response["error"])
}

func TestOrderController_GetOrders_OwnerScoped(t *testing.T) {
	controller, router, testDB, user, product := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID, product.ID, 1)

	other := &model.User{
		Email:        "other@example.com",
		PasswordHash: "hash",
		Username:     "other",
	}
	testDB.Create(other)

	orderRepo := repository.NewOrderRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	mailer := mail.NewSender(config.SMTPConfig{})
	orderService := service.NewOrderService(orderRepo, userRepo, mailer, testDB)
	_, err := orderService.Checkout(user.ID, service.CheckoutInput{
		ShippingAddress: "1 Test Street",
		City:            "Cairo",
		Country:         "Egypt",
		ZipCode:         "11511",
		PhoneNo:         "+201000000000",
	})
	require.NoError(t, err)

	router.GET("/orders", func(c *gin.Context) {
		setUserInContext(c, other.ID, false)
		controller.GetOrders(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(0), response["count"])
}

func TestOrderController_GetOrder_ForbiddenForOtherUser(t *testing.T) {
	controller, router, testDB, user, product := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID, product.ID, 1)

	orderRepo := repository.NewOrderRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	mailer := mail.NewSender(config.SMTPConfig{})
	orderService := service.NewOrderService(orderRepo, userRepo, mailer, testDB)
	order, err := orderService.Checkout(user.ID, service.CheckoutInput{
		ShippingAddress: "1 Test Street",
		City:            "Cairo",
		Country:         "Egypt",
		ZipCode:         "11511",
		PhoneNo:         "+201000000000",
	})
	require.NoError(t, err)

	other := &model.User{
		Email:        "intruder@example.com",
		PasswordHash: "hash",
		Username:     "intruder",
	}
	testDB.Create(other)

	router.GET("/orders/:id", func(c *gin.Context) {
		setUserInContext(c, other.ID, false)
		controller.GetOrder(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/orders/"+itoa(order.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrderController_UpdateStatus_Staff(t *testing.T) {
	controller, router, testDB, user, product := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID, product.ID, 1)

	staff := &model.User{
		Email:        "admin@example.com",
		PasswordHash: "hash",
		Username:     "admin",
		IsStaff:      true,
	}
	testDB.Create(staff)

	orderRepo := repository.NewOrderRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	mailer := mail.NewSender(config.SMTPConfig{})
	orderService := service.NewOrderService(orderRepo, userRepo, mailer, testDB)
	order, err := orderService.Checkout(user.ID, service.CheckoutInput{
		ShippingAddress: "1 Test Street",
		City:            "Cairo",
		Country:         "Egypt",
		ZipCode:         "11511",
		PhoneNo:         "+201000000000",
	})
	require.NoError(t, err)

	router.PUT("/orders/:id/status", func(c *gin.Context) {
		setUserInContext(c, staff.ID, true)
		controller.UpdateStatus(c)
	})

	jsonBody, _ := json.Marshal(UpdateOrderStatusRequest{Status: "Shipped"})
	req := httptest.NewRequest(http.MethodPut, "/orders/"+itoa(order.ID)+"/status", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	updated, ok := response["order"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Shipped", updated["status"])
}

func TestOrderController_UpdateStatus_InvalidStatus(t *testing.T) {
	controller, router, testDB, user, product := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID, product.ID, 1)

	orderRepo := repository.NewOrderRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	mailer := mail.NewSender(config.SMTPConfig{})
	orderService := service.NewOrderService(orderRepo, userRepo, mailer, testDB)
	order, err := orderService.Checkout(user.ID, service.CheckoutInput{
		ShippingAddress: "1 Test Street",
		City:            "Cairo",
		Country:         "Egypt",
		ZipCode:         "11511",
		PhoneNo:         "+201000000000",
	})
	require.NoError(t, err)

	router.PATCH("/orders/:id/status", func(c *gin.Context) {
		setUserInContext(c, user.ID, false)
		controller.UpdateStatus(c)
	})

	jsonBody, _ := json.Marshal(UpdateOrderStatusRequest{Status: "Teleported"})
	req := httptest.NewRequest(http.MethodPatch, "/orders/"+itoa(order.ID)+"/status", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, apperrors.OrderInvalidStatus, response["error"])
}

func TestOrderController_CancelOrder_Success(t *testing.T) {
	controller, router, testDB, user, product := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID, product.ID, 1)

	orderRepo := repository.NewOrderRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	mailer := mail.NewSender(config.SMTPConfig{})
	orderService := service.NewOrderService(orderRepo, userRepo, mailer, testDB)
	order, err := orderService.Checkout(user.ID, service.CheckoutInput{
		ShippingAddress: "1 Test Street",
		City:            "Cairo",
		Country:         "Egypt",
		ZipCode:         "11511",
		PhoneNo:         "+201000000000",
	})
	require.NoError(t, err)

	router.POST("/orders/:id/cancel", func(c *gin.Context) {
		setUserInContext(c, user.ID, false)
		controller.CancelOrder(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/orders/"+itoa(order.ID)+"/cancel", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	cancelled, ok := response["order"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Cancelled", cancelled["status"])

	// Second cancel must be rejected
	req = httptest.NewRequest(http.MethodPost, "/orders/"+itoa(order.ID)+"/cancel", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, apperrors.OrderNotCancellable, response["error"])
}

func TestOrderController_GetOrderStatus(t *testing.T) {
	controller, router, testDB, user, product := setupOrderControllerTest(t)
	fillCart(t, testDB, user.ID, product.ID, 1)

	orderRepo := repository.NewOrderRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	mailer := mail.NewSender(config.SMTPConfig{})
	orderService := service.NewOrderService(orderRepo, userRepo, mailer, testDB)
	order, err := orderService.Checkout(user.ID, service.CheckoutInput{
		ShippingAddress: "1 Test Street",
		City:            "Cairo",
		Country:         "Egypt",
		ZipCode:         "11511",
		PhoneNo:         "+201000000000",
	})
	require.NoError(t, err)

	router.GET("/orders/:id/status", func(c *gin.Context) {
		setUserInContext(c, user.ID, false)
		controller.GetOrderStatus(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/orders/"+itoa(order.ID)+"/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Pending", response["status"])
	assert.Equal(t, order.OrderNumber, response["order_number"])
	assert.NotContains(t, response, "delivered_at")
}
