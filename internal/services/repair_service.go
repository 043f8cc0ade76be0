// internal/services/repair_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kucukkal/dealer-backend/internal/cache"
	"github.com/kucukkal/dealer-backend/internal/errs"
	"github.com/kucukkal/dealer-backend/internal/models"
	"github.com/kucukkal/dealer-backend/internal/utils"
	"github.com/kucukkal/dealer-backend/internal/vinlock"
)

type RepairService struct {
	db           *gorm.DB
	locker       *vinlock.Locker
	summaryCache *cache.SummaryCache
}

type CreateServiceRequest struct {
	ServiceID        string  `json:"service_id" validate:"required,max=32"`
	VINNumber        string  `json:"vin_number" validate:"required"`
	SeriousnessLevel string  `json:"seriousness_level" validate:"required,seriousness"`
	EstimatedDays    int     `json:"estimated_days" validate:"required,gt=0"`
	CostAdded        float64 `json:"cost_added"`
	Status           string  `json:"status" validate:"omitempty,service_status"`
}

type UpdateServiceRequest struct {
	SeriousnessLevel *string  `json:"seriousness_level,omitempty" validate:"omitempty,seriousness"`
	EstimatedDays    *int     `json:"estimated_days,omitempty" validate:"omitempty,gt=0"`
	ServiceStartDate *string  `json:"service_start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CostAdded        *float64 `json:"cost_added,omitempty"`
}

// SimpleEntryRequest is the quick workshop intake: VIN and seriousness,
// with days and cost defaulted from the seriousness when omitted.
type SimpleEntryRequest struct {
	VINNumber        string   `json:"vin_number" validate:"required"`
	SeriousnessLevel string   `json:"seriousness_level" validate:"required,seriousness"`
	EstimatedDays    *int     `json:"estimated_days,omitempty" validate:"omitempty,gt=0"`
	CostAdded        *float64 `json:"cost_added,omitempty"`
}

// ServiceWithCarInfo is a service record joined with the vehicle's
// identity so the workshop page never needs a second lookup.
type ServiceWithCarInfo struct {
	ID               uint      `json:"id"`
	ServiceID        string    `json:"service_id"`
	VINNumber        string    `json:"vin_number" gorm:"column:vin_number"`
	SeriousnessLevel string    `json:"seriousness_level"`
	EstimatedDays    int       `json:"estimated_days"`
	CostAdded        float64   `json:"cost_added"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	Make             string    `json:"make"`
	Model            string    `json:"model"`
	Year             int       `json:"year"`
	Mileage          int       `json:"mileage"`
	ServiceStartDate string    `json:"service_start_date"`
}

func NewRepairService(db *gorm.DB, locker *vinlock.Locker, summaryCache *cache.SummaryCache) *RepairService {
	return &RepairService{db: db, locker: locker, summaryCache: summaryCache}
}

// DefaultRepairCost maps a seriousness level to the standard repair
// cost quoted when the workshop does not supply one.
func DefaultRepairCost(level string) float64 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "high":
		return 2000
	case "medium":
		return 1200
	case "low":
		return 500
	}
	return 0
}

func defaultRepairDays(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "high":
		return 3
	case "medium":
		return 2
	}
	return 1
}

// List returns service records joined with car info. ServiceReps only
// see vehicles in their own location.
func (s *RepairService) List(role models.Role, location string) ([]ServiceWithCarInfo, error) {
	query := s.db.Model(&models.ServiceRecord{}).
		Select("service_records.id, service_records.service_id, service_records.vin_number, service_records.seriousness_level, service_records.estimated_days, service_records.cost_added, service_records.status, service_records.created_at, inventory.make, inventory.model, inventory.year, inventory.mileage").
		Joins("JOIN inventory ON inventory.vin_number = service_records.vin_number")

	if !role.Privileged() {
		query = query.Where("inventory.location = ?", location)
	}

	var rows []ServiceWithCarInfo
	if err := query.Order("service_records.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list service records: %w", err)
	}
	for i := range rows {
		rows[i].ServiceStartDate = rows[i].CreatedAt.Format("2006-01-02")
	}
	return rows, nil
}

// Create inserts a fully-specified service record. Intake from the
// workshop page goes through SimpleEntry instead; this path trusts the
// caller's id and cost.
func (s *RepairService) Create(req *CreateServiceRequest) (*models.ServiceRecord, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	status := models.ServiceStatusInService
	if req.Status != "" {
		status = models.ServiceStatus(req.Status)
	}

	record := &models.ServiceRecord{
		ServiceID:        req.ServiceID,
		VINNumber:        req.VINNumber,
		SeriousnessLevel: models.SeriousnessLevel(req.SeriousnessLevel),
		EstimatedDays:    req.EstimatedDays,
		CostAdded:        req.CostAdded,
		Status:           status,
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create service record: %w", err)
	}
	return record, nil
}

// Update edits the workshop-managed fields of a record. When the
// seriousness changes and the repair cost was not explicitly edited,
// the cost re-derives from the new seriousness. An explicit new cost
// always wins.
func (s *RepairService) Update(role models.Role, location, serviceID string, req *UpdateServiceRequest) (*ServiceWithCarInfo, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var svc models.ServiceRecord
	if err := s.db.Where("service_id = ?", serviceID).First(&svc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("service record not found")
		}
		return nil, fmt.Errorf("failed to load service record: %w", err)
	}

	inv, err := s.loadInventory(svc.VINNumber)
	if err != nil {
		return nil, err
	}
	if !role.Privileged() && inv.Location != location {
		return nil, errs.Permissionf("not enough permissions for this location")
	}

	oldSeriousness := svc.SeriousnessLevel
	oldCost := svc.CostAdded

	seriousnessChanged := false
	if req.SeriousnessLevel != nil {
		newLevel := models.SeriousnessLevel(*req.SeriousnessLevel)
		seriousnessChanged = newLevel != oldSeriousness
		svc.SeriousnessLevel = newLevel
	}
	if req.EstimatedDays != nil {
		svc.EstimatedDays = *req.EstimatedDays
	}
	if req.ServiceStartDate != nil {
		day, err := time.ParseInLocation("2006-01-02", *req.ServiceStartDate, time.Local)
		if err != nil {
			return nil, errs.Validationf("invalid service start date %q", *req.ServiceStartDate)
		}
		// The creation timestamp doubles as the repair start date.
		svc.CreatedAt = day
	}

	switch {
	case req.CostAdded != nil && *req.CostAdded != oldCost:
		svc.CostAdded = *req.CostAdded
	case seriousnessChanged:
		svc.CostAdded = DefaultRepairCost(string(svc.SeriousnessLevel))
	}

	if err := s.db.Save(&svc).Error; err != nil {
		return nil, fmt.Errorf("failed to update service record: %w", err)
	}

	return joined(&svc, inv), nil
}

// SimpleEntry books a vehicle into the workshop. Only one active
// service record may exist per VIN, so the step runs under the VIN
// lock.
func (s *RepairService) SimpleEntry(role models.Role, location string, req *SimpleEntryRequest) (*ServiceWithCarInfo, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(req.VINNumber)
	defer unlock()

	inv, err := s.loadInventory(req.VINNumber)
	if err != nil {
		if errs.IsKind(err, errs.KindNotFound) {
			return nil, errs.NotFoundf("car not found in inventory")
		}
		return nil, err
	}
	if !role.Privileged() && inv.Location != location {
		return nil, errs.Permissionf("not enough permissions for this location")
	}

	var active int64
	err = s.db.Model(&models.ServiceRecord{}).
		Where("vin_number = ? AND status = ?", req.VINNumber, models.ServiceStatusInService).
		Count(&active).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check service records: %w", err)
	}
	if active > 0 {
		return nil, errs.Policyf("this car is already in service")
	}

	days := defaultRepairDays(req.SeriousnessLevel)
	if req.EstimatedDays != nil {
		days = *req.EstimatedDays
	}
	cost := DefaultRepairCost(req.SeriousnessLevel)
	if req.CostAdded != nil {
		cost = *req.CostAdded
	}

	svc := &models.ServiceRecord{
		VINNumber:        req.VINNumber,
		SeriousnessLevel: models.SeriousnessLevel(req.SeriousnessLevel),
		EstimatedDays:    days,
		CostAdded:        cost,
		Status:           models.ServiceStatusInService,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(svc).Error; err != nil {
			return fmt.Errorf("failed to create service record: %w", err)
		}
		svc.ServiceID = businessID(time.Now(), svc.ID)
		if err := tx.Model(svc).Update("service_id", svc.ServiceID).Error; err != nil {
			return fmt.Errorf("failed to assign service id: %w", err)
		}
		err := tx.Model(&models.Inventory{}).
			Where("vin_number = ?", req.VINNumber).
			Update("status", models.VehicleStatusInService).Error
		if err != nil {
			return fmt.Errorf("failed to update inventory status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv.Status = models.VehicleStatusInService
	return joined(svc, inv), nil
}

// Complete manually finishes a repair: the repair cost is folded into
// the vehicle's cost and the car returns to the Available pool.
func (s *RepairService) Complete(role models.Role, location, serviceID string) (*ServiceWithCarInfo, error) {
	var svc models.ServiceRecord
	err := s.db.Where("service_id = ? AND status = ?", serviceID, models.ServiceStatusInService).
		First(&svc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("in-service record not found for this id")
		}
		return nil, fmt.Errorf("failed to load service record: %w", err)
	}

	unlock := s.locker.Lock(svc.VINNumber)
	defer unlock()

	inv, err := s.loadInventory(svc.VINNumber)
	if err != nil {
		return nil, err
	}
	if !role.Privileged() && inv.Location != location {
		return nil, errs.Permissionf("not enough permissions for this location")
	}

	if err := s.completeOne(&svc, inv); err != nil {
		return nil, err
	}
	return joined(&svc, inv), nil
}

// CompleteDue is the nightly sweep entry point: every active repair
// whose start date plus estimated days has passed is completed. Each
// record is processed independently so one failure never stalls the
// rest of the sweep.
func (s *RepairService) CompleteDue() (completed []string, failures int) {
	var dueCandidates []models.ServiceRecord
	err := s.db.Where("status = ?", models.ServiceStatusInService).Find(&dueCandidates).Error
	if err != nil {
		logrus.WithError(err).Error("Service completion sweep could not load records")
		return nil, 1
	}

	today := truncateToDay(time.Now())
	for i := range dueCandidates {
		svc := &dueCandidates[i]
		due := truncateToDay(svc.CreatedAt).AddDate(0, 0, svc.EstimatedDays)
		if due.After(today) {
			continue
		}

		if err := s.completeWithLock(svc); err != nil {
			failures++
			logrus.WithError(err).WithFields(logrus.Fields{
				"service_id": svc.ServiceID,
				"vin_number": svc.VINNumber,
			}).Error("Service completion sweep failed for record")
			continue
		}
		completed = append(completed, svc.ServiceID)
	}

	if len(completed) > 0 || failures > 0 {
		logrus.WithFields(logrus.Fields{
			"completed": len(completed),
			"failures":  failures,
		}).Info("Service completion sweep finished")
	}
	return completed, failures
}

func (s *RepairService) completeWithLock(svc *models.ServiceRecord) error {
	unlock := s.locker.Lock(svc.VINNumber)
	defer unlock()

	inv, err := s.loadInventory(svc.VINNumber)
	if err != nil {
		if errs.IsKind(err, errs.KindNotFound) {
			return errs.Consistencyf("inventory record missing for service %s", svc.ServiceID)
		}
		return err
	}
	return s.completeOne(svc, inv)
}

// completeOne applies the completion state change: repair cost rolls
// into the vehicle's cost, the car becomes Available, and the record
// closes.
func (s *RepairService) completeOne(svc *models.ServiceRecord, inv *models.Inventory) error {
	inv.Cost += svc.CostAdded
	inv.Status = models.VehicleStatusAvailable
	svc.Status = models.ServiceStatusCompleted

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(inv).Error; err != nil {
			return fmt.Errorf("failed to update inventory: %w", err)
		}
		if err := tx.Save(svc).Error; err != nil {
			return fmt.Errorf("failed to update service record: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.summaryCache.Invalidate(context.Background()); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate finance summary cache")
	}
	return nil
}

func (s *RepairService) loadInventory(vin string) (*models.Inventory, error) {
	var inv models.Inventory
	if err := s.db.Where("vin_number = ?", vin).First(&inv).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("inventory record not found")
		}
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	return &inv, nil
}

func joined(svc *models.ServiceRecord, inv *models.Inventory) *ServiceWithCarInfo {
	return &ServiceWithCarInfo{
		ID:               svc.ID,
		ServiceID:        svc.ServiceID,
		VINNumber:        svc.VINNumber,
		SeriousnessLevel: string(svc.SeriousnessLevel),
		EstimatedDays:    svc.EstimatedDays,
		CostAdded:        svc.CostAdded,
		Status:           string(svc.Status),
		CreatedAt:        svc.CreatedAt,
		Make:             inv.Make,
		Model:            inv.Model,
		Year:             inv.Year,
		Mileage:          inv.Mileage,
		ServiceStartDate: svc.CreatedAt.Format("2006-01-02"),
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
