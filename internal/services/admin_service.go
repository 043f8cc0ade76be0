// internal/services/admin_service.go
package services

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kucukkal/dealer-backend/internal/config"
	"github.com/kucukkal/dealer-backend/internal/database"
	"github.com/kucukkal/dealer-backend/internal/errs"
)

// AdminService hosts destructive maintenance operations. Everything
// here is double-gated: the route requires the Admin role and the
// service refuses to act unless the deployment explicitly opts in
// through ALLOW_DB_RESET.
type AdminService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAdminService(db *gorm.DB, cfg *config.Config) *AdminService {
	return &AdminService{db: db, cfg: cfg}
}

// resetTables lists every table the reset wipes, children before
// parents. Identity restart matters because VINs, sale ids and service
// ids all embed the row id: a reset database should mint them from 1
// again.
var resetTables = []string{
	"finance_records",
	"sales",
	"service_records",
	"import_batches",
	"audit_logs",
	"inventory",
	"users",
}

// ResetDatabase truncates all dealership tables and re-seeds the fixed
// user set so the environment is immediately usable again.
func (s *AdminService) ResetDatabase(requestedBy string) error {
	if !s.cfg.App.AllowDBReset {
		return errs.Permissionf("database reset is disabled on this environment")
	}

	logrus.WithField("requested_by", requestedBy).Warn("Database reset requested")

	// Truncate and re-seed in one transaction so a failed seed cannot
	// leave the database empty of users.
	stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(resetTables, ", "))
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to truncate tables: %w", err)
		}
		if err := database.SeedInitialData(tx); err != nil {
			return fmt.Errorf("failed to re-seed users after reset: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithField("requested_by", requestedBy).Warn("Database reset completed")
	return nil
}
