package dto

import (
	"github.com/fekuna/cave-storefront/internal/cart"
	productdto "github.com/fekuna/cave-storefront/internal/product/dto"
)

type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type CartLineView struct {
	ID             string                     `json:"id"`
	ProductID      string                     `json:"product_id"`
	Quantity       int                        `json:"quantity"`
	Product        *productdto.CatalogProduct `json:"product"`
	UnitPriceCents int64                      `json:"unit_price_cents"`
	LineTotalCents int64                      `json:"line_total_cents"`
	StockQuantity  int                        `json:"stock_quantity"`
	Warnings       []string                   `json:"warnings"`
}

type CartView struct {
	Items         []CartLineView `json:"items"`
	ItemCount     int            `json:"item_count"`
	SubtotalCents int64          `json:"subtotal_cents"`
	HasWarnings   bool           `json:"has_warnings"`
}

func NewCartView(s *cart.Summary, locale string) CartView {
	view := CartView{
		Items:         make([]CartLineView, 0, len(s.Lines)),
		ItemCount:     s.ItemCount,
		SubtotalCents: s.SubtotalCents,
		HasWarnings:   s.HasWarnings,
	}
	for _, l := range s.Lines {
		lv := CartLineView{
			ID:             l.ID,
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			LineTotalCents: l.LineTotalCents,
			Warnings:       l.Warnings,
		}
		if lv.Warnings == nil {
			lv.Warnings = []string{}
		}
		if l.Product != nil {
			cp := productdto.NewCatalogProduct(l.Product, locale)
			lv.Product = &cp
			lv.UnitPriceCents = l.Product.PriceCents
			lv.StockQuantity = l.Product.StockQuantity
		}
		view.Items = append(view.Items, lv)
	}
	return view
}
