package catalog

import (
	"github.com/shopspring/decimal"

	"kabraji/internal/domain"
	"kabraji/internal/xid"
)

type seedProduct struct {
	name     string
	category string
	price    string
	stock    int64
	unit     string
}

var seedTable = []seedProduct{
	{"Asian Paints Royale", domain.CategoryPaints, "450.0", 50, "Liter"},
	{"Berger Weather Coat", domain.CategoryPaints, "420.0", 40, "Liter"},
	{"Nerolac Excel", domain.CategoryPaints, "380.0", 60, "Liter"},
	{"Dulux Premium", domain.CategoryPaints, "500.0", 30, "Liter"},
	{"Paint Primer", domain.CategoryPaints, "250.0", 45, "Liter"},

	{"Hindware Toilet Seat", domain.CategorySanitary, "3500.0", 20, "Piece"},
	{"Jaquar Basin Tap", domain.CategorySanitary, "1200.0", 35, "Piece"},
	{"Cera Wash Basin", domain.CategorySanitary, "2800.0", 15, "Piece"},
	{"Parryware Commode", domain.CategorySanitary, "4500.0", 12, "Piece"},
	{"Shower Head Premium", domain.CategorySanitary, "800.0", 40, "Piece"},

	{"Cement - UltraTech", domain.CategoryBuildingMaterials, "380.0", 200, "Bag"},
	{"Cement - ACC", domain.CategoryBuildingMaterials, "375.0", 180, "Bag"},
	{"TMT Steel Bars 8mm", domain.CategoryBuildingMaterials, "55.0", 500, "Kg"},
	{"TMT Steel Bars 12mm", domain.CategoryBuildingMaterials, "54.0", 600, "Kg"},
	{"Bricks - Red Clay", domain.CategoryBuildingMaterials, "8.0", 5000, "Piece"},
	{"Sand - River", domain.CategoryBuildingMaterials, "1500.0", 100, "Ton"},
	{"Gravel/Aggregate", domain.CategoryBuildingMaterials, "1200.0", 80, "Ton"},
	{"PVC Pipes 1 inch", domain.CategoryBuildingMaterials, "45.0", 150, "Meter"},
	{"PVC Pipes 2 inch", domain.CategoryBuildingMaterials, "80.0", 120, "Meter"},
	{"Electrical Wires", domain.CategoryBuildingMaterials, "25.0", 300, "Meter"},
}

// DefaultProducts returns the opening stock of the shop, ids PROD0001 onwards.
func DefaultProducts() []domain.Product {
	products := make([]domain.Product, 0, len(seedTable))
	for i, seed := range seedTable {
		products = append(products, domain.Product{
			ID:            xid.Sequence(xid.ProductPrefix, i+1),
			Name:          seed.name,
			Category:      seed.category,
			UnitPrice:     decimal.RequireFromString(seed.price),
			StockQuantity: decimal.NewFromInt(seed.stock),
			Unit:          seed.unit,
		})
	}
	return products
}
