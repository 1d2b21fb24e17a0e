package db

import (
	"fmt"
	"net/url"

	"lawyer_site_go/models"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options selects the backing store. TursoURL wins over Path when both are set.
type Options struct {
	Path        string
	TursoURL    string
	TursoToken  string
	Environment string
}

// Open connects to a local SQLite file (WAL mode) or a remote Turso
// database and migrates the delivery log table.
func Open(opts Options, log *zap.SugaredLogger) (*gorm.DB, error) {
	logLevel := logger.Info
	if opts.Environment == "production" {
		logLevel = logger.Warn
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var dialector gorm.Dialector
	switch {
	case opts.TursoURL != "":
		dsn, err := tursoDSN(opts.TursoURL, opts.TursoToken)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.New(sqlite.Config{DriverName: "libsql", DSN: dsn})
	case opts.Path != "":
		dialector = sqlite.Open(opts.Path + "?_journal_mode=WAL")
	default:
		return nil, fmt.Errorf("no database configured")
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.AutoMigrate(&models.DeliveryLog{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infow("delivery log database ready", "turso", opts.TursoURL != "")
	return conn, nil
}

func tursoDSN(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid TURSO_DATABASE_URL: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("authToken", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Close closes the database connection
func Close(conn *gorm.DB) error {
	if conn == nil {
		return nil
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
