package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestNewRequiresDSN(t *testing.T) {
	_, err := (&Config{}).New(context.Background())
	assert.ErrorContains(t, err, "dsn is empty")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, logLevel(1))
	assert.Equal(t, logger.Info, logLevel(4))
	assert.Equal(t, logger.Error, logLevel(0))
}
