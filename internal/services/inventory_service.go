// internal/services/inventory_service.go
package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kucukkal/dealer-backend/internal/cache"
	"github.com/kucukkal/dealer-backend/internal/errs"
	"github.com/kucukkal/dealer-backend/internal/models"
	"github.com/kucukkal/dealer-backend/internal/pricing"
	"github.com/kucukkal/dealer-backend/internal/utils"
	"github.com/kucukkal/dealer-backend/internal/vinlock"
)

// Batch import files must carry these columns, matched case-insensitively
// after trimming. "condition" maps to condition_type and "sale price" to
// sale_price.
var importColumns = []string{
	"make",
	"model",
	"year",
	"mileage",
	"condition",
	"cost",
	"sale price",
	"location",
}

type InventoryService struct {
	db           *gorm.DB
	locker       *vinlock.Locker
	storage      *StorageService
	summaryCache *cache.SummaryCache
}

type CreateInventoryRequest struct {
	Make          string  `json:"make" validate:"required,max=100"`
	Model         string  `json:"model" validate:"required,max=100"`
	Year          int     `json:"year" validate:"required"`
	Mileage       int     `json:"mileage"`
	ConditionType string  `json:"condition_type" validate:"required,condition"`
	Cost          float64 `json:"cost"`
	SalePrice     float64 `json:"sale_price"`
	Location      string  `json:"location" validate:"required,max=50"`
}

type UpdateInventoryRequest struct {
	Make          *string  `json:"make,omitempty" validate:"omitempty,max=100"`
	Model         *string  `json:"model,omitempty" validate:"omitempty,max=100"`
	Year          *int     `json:"year,omitempty"`
	Mileage       *int     `json:"mileage,omitempty"`
	ConditionType *string  `json:"condition_type,omitempty" validate:"omitempty,condition"`
	Cost          *float64 `json:"cost,omitempty"`
	SalePrice     *float64 `json:"sale_price,omitempty"`
	Location      *string  `json:"location,omitempty" validate:"omitempty,max=50"`
	Status        *string  `json:"status,omitempty" validate:"omitempty,vehicle_status"`
}

// ImportResult summarizes one batch import. Rows that fail validation
// are reported individually and never block the rest of the file.
type ImportResult struct {
	Imported   int      `json:"imported"`
	Failed     int      `json:"failed"`
	RowErrors  []string `json:"row_errors,omitempty"`
	BatchID    uint     `json:"batch_id,omitempty"`
	ArchiveKey string   `json:"archive_key,omitempty"`
	Detail     string   `json:"detail"`
}

func NewInventoryService(db *gorm.DB, locker *vinlock.Locker, storage *StorageService, summaryCache *cache.SummaryCache) *InventoryService {
	return &InventoryService{
		db:           db,
		locker:       locker,
		storage:      storage,
		summaryCache: summaryCache,
	}
}

// List returns inventory rows visible to the caller. Non-privileged
// roles only see their own location; privileged roles may filter by any
// location via params.
func (s *InventoryService) List(role models.Role, location string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Inventory{})

	if !role.Privileged() {
		query = query.Where("location = ?", location)
	} else if params.Location != "" {
		query = query.Where("location = ?", params.Location)
	}

	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("vin_number ILIKE ? OR make ILIKE ? OR model ILIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count inventory: %w", err)
	}

	query = utils.ApplySort(query, params,
		"created_at", "year", "mileage", "cost", "sale_price", "profit_percent", "status")
	query = utils.ApplyPagination(query, params)

	var items []models.Inventory
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	result := utils.CreatePaginationResult(items, total, params)
	return &result, nil
}

func (s *InventoryService) Get(role models.Role, location, vin string) (*models.Inventory, error) {
	var item models.Inventory
	if err := s.db.Where("vin_number = ?", vin).First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("car not found")
		}
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	if !role.Privileged() && item.Location != location {
		return nil, errs.Permissionf("not enough permissions for this location")
	}

	return &item, nil
}

// Create acquires a single vehicle. BuyerRep acquisitions are pinned to
// the rep's own location regardless of the requested one. The VIN is
// always generated server-side from the acquisition date and the new
// row's sequence number, so the row is inserted first and keyed second.
func (s *InventoryService) Create(role models.Role, userLocation string, req *CreateInventoryRequest) (*models.Inventory, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	if role == models.RoleBuyerRep {
		req.Location = userLocation
	}

	quote, err := pricing.Acquisition(role, req.Year, req.Mileage, req.Cost, req.SalePrice, time.Now())
	if err != nil {
		return nil, err
	}

	condition := models.ConditionType(req.ConditionType)
	vehicleStatus := models.VehicleStatusAvailable
	if condition.IsDamaged() {
		vehicleStatus = models.VehicleStatusInService
	}

	item := &models.Inventory{
		VINNumber:     "",
		Make:          req.Make,
		Model:         req.Model,
		Year:          req.Year,
		Mileage:       req.Mileage,
		ConditionType: condition,
		Cost:          req.Cost,
		SalePrice:     quote.Price,
		ProfitPercent: quote.ProfitPercent,
		Status:        vehicleStatus,
		Location:      req.Location,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create inventory: %w", err)
		}

		now := time.Now()
		vin := businessID(now, item.ID)
		if err := tx.Model(item).Update("vin_number", vin).Error; err != nil {
			return fmt.Errorf("failed to assign VIN: %w", err)
		}
		item.VINNumber = vin

		if condition.IsDamaged() {
			if err := createDamageService(tx, now, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary()
	return item, nil
}

// Update patches one or more fields of a vehicle and re-validates the
// acquisition rules against the merged result. A merge that turns the
// condition to Damaged moves the car into service and opens a repair
// record if none is active.
func (s *InventoryService) Update(role models.Role, userLocation, vin string, req *UpdateInventoryRequest) (*models.Inventory, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(vin)
	defer unlock()

	var item models.Inventory
	if err := s.db.Where("vin_number = ?", vin).First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("car not found")
		}
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	if !role.Privileged() && item.Location != userLocation {
		return nil, errs.Permissionf("not enough permissions for this location")
	}

	applyInventoryUpdate(&item, req)

	quote, err := pricing.Reprice(role, item.Year, item.Mileage, item.Cost, item.SalePrice, time.Now())
	if err != nil {
		return nil, err
	}
	item.SalePrice = quote.Price
	item.ProfitPercent = quote.ProfitPercent

	needsService := false
	if item.ConditionType.IsDamaged() {
		item.Status = models.VehicleStatusInService

		var active int64
		err := s.db.Model(&models.ServiceRecord{}).
			Where("vin_number = ? AND status = ?", item.VINNumber, models.ServiceStatusInService).
			Count(&active).Error
		if err != nil {
			return nil, fmt.Errorf("failed to check service records: %w", err)
		}
		needsService = active == 0
	} else if item.Status == "" {
		item.Status = models.VehicleStatusAvailable
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&item).Error; err != nil {
			return fmt.Errorf("failed to update inventory: %w", err)
		}
		if needsService {
			if err := createDamageService(tx, time.Now(), &item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary()
	return &item, nil
}

func (s *InventoryService) Delete(vin string) error {
	unlock := s.locker.Lock(vin)
	defer unlock()

	var item models.Inventory
	if err := s.db.Where("vin_number = ?", vin).First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errs.NotFoundf("car not found")
		}
		return fmt.Errorf("failed to load inventory: %w", err)
	}

	if err := s.db.Delete(&item).Error; err != nil {
		return fmt.Errorf("failed to delete inventory: %w", err)
	}

	s.invalidateSummary()
	return nil
}

// Import ingests a CSV acquisition file. Row failures are collected and
// reported per row; valid rows are committed together. Admin imports
// take each row's location from the file, BuyerRep imports reject rows
// outside the rep's own location. The original upload is archived to
// object storage when a bucket is configured, and an ImportBatch row
// records the outcome either way.
func (s *InventoryService) Import(role models.Role, userLocation, username, fileName string, content []byte) (*ImportResult, error) {
	if fileName == "" || len(content) == 0 {
		return nil, errs.Validationf("no file uploaded")
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ".csv") {
		return nil, errs.Validationf("only .csv files are supported")
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errs.Validationf("could not read CSV file: %v", err)
	}

	colMap := make(map[string]int, len(header))
	for idx, name := range header {
		colMap[strings.ToLower(strings.TrimSpace(name))] = idx
	}
	for _, col := range importColumns {
		if _, ok := colMap[col]; !ok {
			return nil, errs.Validationf("missing required column in CSV header: %s", col)
		}
	}

	imported := 0
	var rowErrors []string

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for rowIdx := 2; ; rowIdx++ {
			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %v", rowIdx, err))
				continue
			}

			if err := s.importRow(tx, role, userLocation, colMap, record); err != nil {
				rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %v", rowIdx, err))
				continue
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Imported:  imported,
		Failed:    len(rowErrors),
		RowErrors: rowErrors,
	}
	result.Detail = fmt.Sprintf("Imported %d cars from CSV.", imported)
	if len(rowErrors) > 0 {
		result.Detail += fmt.Sprintf(" Some rows failed: %d. First error: %s", len(rowErrors), rowErrors[0])
	}

	if s.storage.Enabled() {
		key, err := s.storage.ArchiveImportFile(content, fileName, username)
		if err != nil {
			logrus.WithError(err).WithField("file", fileName).Warn("Failed to archive import file")
		} else {
			result.ArchiveKey = key
		}
	}

	batch := &models.ImportBatch{
		FileName:     fileName,
		ArchiveKey:   result.ArchiveKey,
		UploadedBy:   username,
		CreatedCount: imported,
		ErrorCount:   len(rowErrors),
		RowErrors:    pq.StringArray(rowErrors),
	}
	if err := s.db.Create(batch).Error; err != nil {
		logrus.WithError(err).WithField("file", fileName).Warn("Failed to record import batch")
	} else {
		result.BatchID = batch.ID
	}

	if imported > 0 {
		s.invalidateSummary()
	}
	return result, nil
}

// importRow validates and inserts one CSV row inside the import
// transaction. Every returned error becomes that row's entry in the
// batch report.
func (s *InventoryService) importRow(tx *gorm.DB, role models.Role, userLocation string, colMap map[string]int, record []string) error {
	get := func(col string) string {
		idx, ok := colMap[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	makeName := get("make")
	modelName := get("model")
	yearVal := get("year")
	mileageVal := get("mileage")
	conditionType := get("condition")
	costVal := get("cost")
	salePriceVal := get("sale price")
	fileLocation := get("location")

	if makeName == "" || modelName == "" {
		return fmt.Errorf("make and model are required")
	}
	if yearVal == "" || mileageVal == "" {
		return fmt.Errorf("year and mileage are required")
	}
	if conditionType == "" {
		return fmt.Errorf("condition is required")
	}
	if costVal == "" || salePriceVal == "" {
		return fmt.Errorf("cost and sale price are required")
	}

	year, err := strconv.Atoi(yearVal)
	if err != nil {
		return fmt.Errorf("invalid year %q", yearVal)
	}
	mileage, err := strconv.Atoi(mileageVal)
	if err != nil {
		return fmt.Errorf("invalid mileage %q", mileageVal)
	}
	cost, err := strconv.ParseFloat(costVal, 64)
	if err != nil {
		return fmt.Errorf("invalid cost %q", costVal)
	}
	salePrice, err := strconv.ParseFloat(salePriceVal, 64)
	if err != nil {
		return fmt.Errorf("invalid sale price %q", salePriceVal)
	}

	if fileLocation == "" {
		return fmt.Errorf("location is required in the file for batch imports")
	}
	if role != models.RoleAdmin && fileLocation != userLocation {
		return fmt.Errorf("location %q does not match buyer rep location %q", fileLocation, userLocation)
	}

	quote, err := pricing.ImportAcquisition(role, year, mileage, cost, salePrice, time.Now())
	if err != nil {
		return err
	}

	condition := models.ConditionType(conditionType)
	vehicleStatus := models.VehicleStatusAvailable
	if condition.IsDamaged() {
		vehicleStatus = models.VehicleStatusInService
	}

	item := &models.Inventory{
		VINNumber:     "",
		Make:          makeName,
		Model:         modelName,
		Year:          year,
		Mileage:       mileage,
		ConditionType: condition,
		Cost:          cost,
		SalePrice:     quote.Price,
		ProfitPercent: quote.ProfitPercent,
		Status:        vehicleStatus,
		Location:      fileLocation,
	}

	if err := tx.Create(item).Error; err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}

	now := time.Now()
	vin := businessID(now, item.ID)
	if err := tx.Model(item).Update("vin_number", vin).Error; err != nil {
		return fmt.Errorf("failed to assign VIN: %w", err)
	}
	item.VINNumber = vin

	if condition.IsDamaged() {
		if err := createDamageService(tx, now, item); err != nil {
			return err
		}
	}
	return nil
}

// createDamageService opens the standard repair ticket for a vehicle
// acquired or re-flagged as Damaged: High seriousness, 3 estimated
// days, 2000 repair cost. Like VINs, the public service id derives from
// the new row's sequence number, so the insert comes first.
func createDamageService(tx *gorm.DB, now time.Time, item *models.Inventory) error {
	svc := &models.ServiceRecord{
		VINNumber:        item.VINNumber,
		SeriousnessLevel: models.SeriousnessHigh,
		EstimatedDays:    3,
		CostAdded:        2000,
		Status:           models.ServiceStatusInService,
	}
	if err := tx.Create(svc).Error; err != nil {
		return fmt.Errorf("failed to open service record: %w", err)
	}
	if err := tx.Model(svc).Update("service_id", businessID(now, svc.ID)).Error; err != nil {
		return fmt.Errorf("failed to assign service id: %w", err)
	}
	return nil
}

func applyInventoryUpdate(item *models.Inventory, req *UpdateInventoryRequest) {
	if req.Make != nil {
		item.Make = *req.Make
	}
	if req.Model != nil {
		item.Model = *req.Model
	}
	if req.Year != nil {
		item.Year = *req.Year
	}
	if req.Mileage != nil {
		item.Mileage = *req.Mileage
	}
	if req.ConditionType != nil {
		item.ConditionType = models.ConditionType(*req.ConditionType)
	}
	if req.Cost != nil {
		item.Cost = *req.Cost
	}
	if req.SalePrice != nil {
		item.SalePrice = *req.SalePrice
	}
	if req.Location != nil {
		item.Location = *req.Location
	}
	if req.Status != nil {
		item.Status = models.VehicleStatus(*req.Status)
	}
}

func (s *InventoryService) invalidateSummary() {
	if err := s.summaryCache.Invalidate(context.Background()); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate finance summary cache")
	}
}
