package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/service"
	apperrors "github.com/electroegy/electroegy-backend/internal/errors"
	"github.com/electroegy/electroegy-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportController produces xlsx snapshots of the catalog and the order
// book for staff.
type ExportController struct {
	productService service.ProductService
	orderService   service.OrderService
}

func NewExportController(productService service.ProductService, orderService service.OrderService) *ExportController {
	return &ExportController{
		productService: productService,
		orderService:   orderService,
	}
}

// ExportProducts streams the full catalog as an xlsx file
// GET /api/v1/admin/export/products (staff only)
func (ctrl *ExportController) ExportProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	products, err := ctrl.productService.GetAllProducts()
	if err != nil {
		log.Error("Failed to load products for export", err, nil)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "export products")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Products"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []interface{}{"ID", "Name", "Brand", "Category", "Price", "Stock", "Rating", "Created At"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		log.Error("Failed to write export header", err, nil)
		apperrors.InternalError(c, "")
		return
	}
	for i, p := range products {
		row := []interface{}{
			p.ID,
			p.Name,
			p.Brand,
			p.Category,
			p.Price,
			p.Stock,
			p.Rating,
			p.CreatedAt.Format(time.RFC3339),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			log.Error("Failed to write export row", err, map[string]interface{}{
				"product_id": p.ID,
			})
			apperrors.InternalError(c, "")
			return
		}
	}

	ctrl.writeWorkbook(c, f, "products")
}

// ExportOrders streams every order with its line items as an xlsx file
// GET /api/v1/admin/export/orders (staff only)
func (ctrl *ExportController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orders, err := ctrl.orderService.GetOrders(userID, true)
	if err != nil {
		log.Error("Failed to load orders for export", err, nil)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "export orders")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Orders"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []interface{}{
		"Order Number", "User ID", "Status", "Payment Status", "Payment Method",
		"Total Amount", "City", "Country", "Created At", "Delivered At",
		"Product", "Unit Price", "Quantity", "Line Total",
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		log.Error("Failed to write export header", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	rowNum := 2
	for _, o := range orders {
		for _, item := range o.Items {
			row := orderExportRow(&o, &item)
			cell := fmt.Sprintf("A%d", rowNum)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				log.Error("Failed to write export row", err, map[string]interface{}{
					"order_id": o.ID,
				})
				apperrors.InternalError(c, "")
				return
			}
			rowNum++
		}
	}

	ctrl.writeWorkbook(c, f, "orders")
}

func orderExportRow(o *model.Order, item *model.OrderItem) []interface{} {
	deliveredAt := ""
	if o.DeliveredAt != nil {
		deliveredAt = o.DeliveredAt.Format(time.RFC3339)
	}
	return []interface{}{
		o.OrderNumber,
		o.UserID,
		string(o.Status),
		string(o.PaymentStatus),
		o.PaymentMethod,
		o.TotalAmount,
		o.City,
		o.Country,
		o.CreatedAt.Format(time.RFC3339),
		deliveredAt,
		item.ProductName,
		item.Price,
		item.Quantity,
		item.Total(),
	}
}

func (ctrl *ExportController) writeWorkbook(c *gin.Context, f *excelize.File, name string) {
	log := middleware.GetLoggerFromContext(c)

	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("2006-01-02"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := f.Write(c.Writer); err != nil {
		log.Error("Failed to stream workbook", err, map[string]interface{}{
			"filename": filename,
		})
	}
}
