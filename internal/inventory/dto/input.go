package dto

type AdjustStockInput struct {
	ProductID      string `json:"product_id" binding:"required,uuid"`
	QuantityChange int    `json:"quantity_change" binding:"required"`
	MovementType   string `json:"movement_type" binding:"omitempty,oneof=adjustment restock return bulk_update"`
	Reason         string `json:"reason" binding:"max=500"`
	ReferenceType  string `json:"-"`
	ReferenceID    string `json:"-"`
	ActorID        string `json:"-"`
}
