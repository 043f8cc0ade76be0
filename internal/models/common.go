// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"
)

// Base model with common fields. Primary keys are plain sequences because the
// public business identifiers (sale/service/finance ids, generated VINs) are
// derived from the row's own sequence number.
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleFinance    Role = "Finance"
	RoleBuyerRep   Role = "BuyerRep"
	RoleSalesRep   Role = "SalesRep"
	RoleServiceRep Role = "ServiceRep"
	RolePR         Role = "PR"
)

// Privileged roles bypass location restrictions.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleFinance
}

type VehicleStatus string

const (
	VehicleStatusAvailable     VehicleStatus = "Available"
	VehicleStatusInService     VehicleStatus = "In Service"
	VehicleStatusUnderWriting  VehicleStatus = "Under Writing"
	VehicleStatusUnderContract VehicleStatus = "Under Contract"
	VehicleStatusSold          VehicleStatus = "Sold"
)

type ConditionType string

const (
	ConditionNormal  ConditionType = "Normal"
	ConditionDamaged ConditionType = "Damaged"
)

func (c ConditionType) IsDamaged() bool {
	return strings.EqualFold(string(c), string(ConditionDamaged))
}

type SaleStatus string

const (
	SaleStatusUnderContract SaleStatus = "Under Contract"
	SaleStatusUnderWriting  SaleStatus = "Under Writing"
	SaleStatusSold          SaleStatus = "Sold"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "Cash"
	PaymentMethodCredit PaymentMethod = "Credit"
	PaymentMethodLoan   PaymentMethod = "Loan"
)

type SeriousnessLevel string

const (
	SeriousnessHigh   SeriousnessLevel = "High"
	SeriousnessMedium SeriousnessLevel = "Medium"
	SeriousnessLow    SeriousnessLevel = "Low"
)

type ServiceStatus string

const (
	ServiceStatusInService ServiceStatus = "In Service"
	ServiceStatusCompleted ServiceStatus = "Completed"
)
