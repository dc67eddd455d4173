package infra

import (
	"fmt"

	"erppsi/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and migrates the
// contract schema.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates the tables this service owns or reads,
// then applies PostgreSQL-only patches GORM cannot express. Other dialects
// (SQLite in tests) only get AutoMigrate.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Cliente{},
		&model.Plan{},
		&model.ServicioCliente{},
		&model.Contrato{},
		&model.EventoFirma{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL. Each statement is guarded so
// re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// unsigned contracts per customer
		`CREATE INDEX IF NOT EXISTS idx_contratos_pendientes_firma
		    ON contratos (cliente_id) WHERE firmado = false`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_contratos_tipo_permanencia') THEN
		    ALTER TABLE contratos ADD CONSTRAINT chk_contratos_tipo_permanencia
		        CHECK (tipo_permanencia IN ('con_permanencia', 'sin_permanencia'));
		  END IF;
		END $$`,
		// a signed contract always carries its artifact path
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_contratos_firmado_pdf') THEN
		    ALTER TABLE contratos ADD CONSTRAINT chk_contratos_firmado_pdf
		        CHECK (firmado = false OR pdf_path IS NOT NULL);
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
