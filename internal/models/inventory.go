// internal/models/inventory.go
package models

type Inventory struct {
	BaseModel
	VINNumber     string        `json:"vin_number" gorm:"column:vin_number;uniqueIndex;size:32;not null"`
	Make          string        `json:"make" gorm:"size:100;not null"`
	Model         string        `json:"model" gorm:"size:100;not null"`
	Year          int           `json:"year" gorm:"not null"`
	Mileage       int           `json:"mileage" gorm:"not null"`
	ConditionType ConditionType `json:"condition_type" gorm:"type:varchar(20);not null"`
	Cost          float64       `json:"cost" gorm:"type:decimal(12,2);not null"`
	SalePrice     float64       `json:"sale_price" gorm:"type:decimal(12,2);not null"`
	ProfitPercent float64       `json:"profit_percent" gorm:"not null"`
	Status        VehicleStatus `json:"status" gorm:"type:varchar(20);default:'Available';index"`
	Location      string        `json:"location" gorm:"size:50;not null;index"`
	PRUpdateCount int           `json:"pr_update_count" gorm:"column:pr_update_count;default:0"`
}

func (Inventory) TableName() string {
	return "inventory"
}
