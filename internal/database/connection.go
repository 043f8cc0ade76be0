// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kucukkal/dealer-backend/internal/config"
	"github.com/kucukkal/dealer-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Inventory{},
		&models.Sale{},
		&models.ServiceRecord{},
		&models.FinanceRecord{},
		&models.ImportBatch{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Inventory indexes
		"CREATE INDEX IF NOT EXISTS idx_inventory_status_location ON inventory(status, location)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_condition ON inventory(condition_type)",

		// Sale indexes
		"CREATE INDEX IF NOT EXISTS idx_sales_vin_status ON sales(vin_number, status)",
		"CREATE INDEX IF NOT EXISTS idx_sales_status ON sales(status)",
		"CREATE INDEX IF NOT EXISTS idx_sales_under_writing_at ON sales(status_under_writing_at)",

		// Service indexes
		"CREATE INDEX IF NOT EXISTS idx_service_records_vin_status ON service_records(vin_number, status)",
		"CREATE INDEX IF NOT EXISTS idx_service_records_status ON service_records(status)",

		// Finance indexes
		"CREATE INDEX IF NOT EXISTS idx_finance_records_vin ON finance_records(vin_number)",
		"CREATE INDEX IF NOT EXISTS idx_finance_records_status ON finance_records(status)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

type seedUser struct {
	Username string
	Password string
	Role     models.Role
	Location string
}

// The fixed user roster every fresh deployment starts with. Three of
// the Rockville passwords ship without the trailing "!" and are kept
// that way so existing credentials stay valid.
var seedUsers = []seedUser{
	{"admin", "admin123!", models.RoleAdmin, "HQ"},
	{"accountant", "account123!", models.RoleFinance, "HQ"},

	{"pr_user_A", "prA123!", models.RolePR, "Denver"},
	{"service_rep_A", "serviceA123!", models.RoleServiceRep, "Denver"},
	{"sales_rep_A", "salesA123!", models.RoleSalesRep, "Denver"},
	{"buyer_rep_A", "buyerA123!", models.RoleBuyerRep, "Denver"},

	{"pr_user_B", "prB123!", models.RolePR, "Rockville"},
	{"service_rep_B", "serviceB123", models.RoleServiceRep, "Rockville"},
	{"sales_rep_B", "salesB123", models.RoleSalesRep, "Rockville"},
	{"buyer_rep_B", "buyerB123", models.RoleBuyerRep, "Rockville"},
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial users...")

	created, skipped := 0, 0
	for _, su := range seedUsers {
		var count int64
		db.Model(&models.User{}).Where("username = ?", su.Username).Count(&count)
		if count > 0 {
			skipped++
			continue
		}

		user := &models.User{
			Username: su.Username,
			Role:     su.Role,
			Location: su.Location,
		}
		if err := user.SetPassword(su.Password); err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", su.Username, err)
		}
		if err := db.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", su.Username, err)
		}
		created++
	}

	log.Printf("User seeding completed: %d created, %d already present", created, skipped)
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
