package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/electroegy/electroegy-backend/config"
	"github.com/electroegy/electroegy-backend/internal/app/model"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/internal/db"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Imports a product catalog from an XLSX file. Expected columns:
// Name | Description | Brand | Category | Price | Stock | ImageURL
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	owner, err := findOrCreateCatalogOwner(db.GetDB())
	if err != nil {
		log.Fatal("Failed to prepare catalog owner:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, skipped, err := readProductsFromXLSX(filePath, owner.ID)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total products to import: %d (skipped %d rows)\n", len(products), skipped)

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	batchSize := 500
	productRepo := repository.NewProductRepository(db.GetDB())
	if err := productRepo.BulkCreate(products, batchSize); err != nil {
		log.Fatal("Failed to bulk create products:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", len(products))
}

// findOrCreateCatalogOwner returns the staff account that owns imported
// products, creating it on first run.
func findOrCreateCatalogOwner(gdb *gorm.DB) (*model.User, error) {
	userRepo := repository.NewUserRepository(gdb)

	owner, err := userRepo.FindByEmail("catalog@electroegy.com")
	if err == nil {
		return owner, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	owner = &model.User{
		Email:        "catalog@electroegy.com",
		PasswordHash: "!", // no usable password; import account only
		Username:     "catalog",
		IsStaff:      true,
	}
	if err := userRepo.Create(owner); err != nil {
		return nil, err
	}
	return owner, nil
}

func readProductsFromXLSX(filePath string, ownerID uint) ([]model.Product, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	var products []model.Product
	seen := make(map[string]bool)
	skipped := 0

	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}

		if len(row) < 5 {
			skipped++
			continue
		}

		name := strings.TrimSpace(row[0])
		description := strings.TrimSpace(row[1])
		brand := strings.TrimSpace(row[2])
		category := strings.TrimSpace(row[3])
		priceStr := strings.TrimSpace(row[4])

		stockStr := "0"
		if len(row) > 5 {
			stockStr = strings.TrimSpace(row[5])
		}
		imageURL := ""
		if len(row) > 6 {
			imageURL = strings.TrimSpace(row[6])
		}

		if name == "" || priceStr == "" {
			skipped++
			continue
		}

		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price <= 0 {
			skipped++
			continue
		}

		stock, err := strconv.Atoi(stockStr)
		if err != nil || stock < 0 {
			stock = 0
		}

		// Duplicate check on name+brand
		key := fmt.Sprintf("%s|%s", name, brand)
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true

		products = append(products, model.Product{
			UserID:      ownerID,
			Name:        name,
			Description: description,
			Brand:       brand,
			Category:    category,
			Price:       price,
			Stock:       stock,
			ImageURL:    imageURL,
		})

		if len(products)%500 == 0 {
			fmt.Printf("Processed %d products...\n", len(products))
		}
	}

	return products, skipped, nil
}
