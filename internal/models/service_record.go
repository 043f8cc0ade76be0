// internal/models/service_record.go
package models

type ServiceRecord struct {
	BaseModel
	ServiceID        string           `json:"service_id" gorm:"uniqueIndex;size:32;not null"`
	VINNumber        string           `json:"vin_number" gorm:"column:vin_number;size:32;not null;index"`
	SeriousnessLevel SeriousnessLevel `json:"seriousness_level" gorm:"type:varchar(10);not null"`
	EstimatedDays    int              `json:"estimated_days" gorm:"not null"`
	CostAdded        float64          `json:"cost_added" gorm:"type:decimal(12,2);default:0"`
	Status           ServiceStatus    `json:"status" gorm:"type:varchar(20);default:'In Service';index"`
}
