package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestEnsureSchema(t *testing.T) {
	t.Run("applies every statement", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		for range schema {
			mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
		}

		assert.NoError(t, EnsureSchema(context.Background(), db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS positions").WillReturnError(errors.New("permission denied"))

		err = EnsureSchema(context.Background(), db)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "schema statement 0")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDBConfig_DSN(t *testing.T) {
	c := &DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "taskearn", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=taskearn sslmode=disable", c.DSN())
}
