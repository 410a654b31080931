package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: products.name")))
	assert.True(t, IsDuplicateKeyErr(errors.New(`ERROR: duplicate key value violates unique constraint "invoices_pkey"`)))
	assert.False(t, IsDuplicateKeyErr(errors.New("connection refused")))
	assert.False(t, IsDuplicateKeyErr(nil))
}

func TestDialect(t *testing.T) {
	for _, typ := range []string{"postgres", "mysql", "sqlite"} {
		d, err := Dialect(Config{Type: typ})
		assert.NoError(t, err, typ)
		assert.NotNil(t, d, typ)
	}
	_, err := Dialect(Config{Type: "oracle"})
	assert.Error(t, err)
}
