package storage

import (
	"fmt"
	"log/slog"
	"pngme/models"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

// Ledger keeps track of which chunks were written into or removed from
// which files.
type Ledger interface {
	AddRecord(r *models.Record) (*models.Record, error)
	ListRecords(file string) ([]models.Record, error)
	ListAllRecords() ([]models.Record, error)
	RemoveRecords(file string) (int64, error)
	Close() error
}

type ProviderSQL struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func (p ProviderSQL) AddRecord(r *models.Record) (*models.Record, error) {
	query := `
        INSERT INTO records (id, file, op, chunk_type, size, crc, created_at)
        VALUES (:id, :file, :op, :chunk_type, :size, :crc, :created_at)
        RETURNING *;`
	stmt, err := p.db.PrepareNamed(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	var resp models.Record
	if err := stmt.Get(&resp, r); err != nil {
		return nil, err
	}
	p.logger.Debug("ledger record added", "file", r.File, "op", r.Op, "type", r.ChunkType)
	return &resp, nil
}

func (p ProviderSQL) ListRecords(file string) ([]models.Record, error) {
	resp := []models.Record{}
	err := p.db.Select(&resp, "SELECT * FROM records WHERE file=$1 ORDER BY created_at, rowid;", file)
	return resp, err
}

func (p ProviderSQL) ListAllRecords() ([]models.Record, error) {
	resp := []models.Record{}
	err := p.db.Select(&resp, "SELECT * FROM records ORDER BY created_at, rowid;")
	return resp, err
}

func (p ProviderSQL) RemoveRecords(file string) (int64, error) {
	res, err := p.db.Exec("DELETE FROM records WHERE file = $1;", file)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (p ProviderSQL) Close() error {
	return p.db.Close()
}

// NewProviderSQL opens (creating if needed) the sqlite ledger at dbPath
// and applies the embedded migrations.
func NewProviderSQL(dbPath string, logger *slog.Logger) (*ProviderSQL, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", dbPath, err)
	}
	// a single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)
	var version string
	if err := db.Get(&version, "select sqlite_version()"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger %s: %w", dbPath, err)
	}
	logger.Debug("ledger opened", "path", dbPath, "sqlite", version)
	p := &ProviderSQL{db: db, logger: logger}
	if err := p.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}
