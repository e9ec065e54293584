package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config describes the MySQL session store connection. LogLevel follows
// gorm: 1 silent, 2 error, 3 warn, 4 info.
type Config struct {
	DSN             string        `envconfig:"DSN"`
	MaxIdleConns    int           `split_words:"true" default:"5"`
	MaxOpenConns    int           `split_words:"true" default:"20"`
	ConnMaxLifetime time.Duration `split_words:"true" default:"30m"`
	LogLevel        int           `split_words:"true" default:"2"`
}

func (c *Config) New(ctx context.Context) (*gorm.DB, error) {
	if c.DSN == "" {
		return nil, fmt.Errorf("mysql dsn is empty")
	}

	db, err := gorm.Open(mysql.Open(c.DSN), &gorm.Config{
		Logger:      logger.Default.LogMode(logLevel(c.LogLevel)),
		PrepareStmt: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(c.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

func logLevel(level int) logger.LogLevel {
	switch level {
	case 1:
		return logger.Silent
	case 2:
		return logger.Error
	case 3:
		return logger.Warn
	case 4:
		return logger.Info
	}
	return logger.Error
}
