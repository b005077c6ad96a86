package mssql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

var (
	currency = tableRef{schema: "Sales", name: "Currency"}
	errorLog = tableRef{schema: "dbo", name: "ErrorLog"}
	address  = tableRef{schema: "Person", name: "Address"}
)

func TestTableNames_Disconnected(t *testing.T) {
	c, mock := newMockConnector(t)

	names := c.TableNames(context.Background())
	assert.NotNil(t, names)
	assert.Empty(t, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableNames(t *testing.T) {
	c, mock := connected(t)
	expectTables(mock, errorLog, address, currency)

	names := c.TableNames(context.Background())
	assert.Equal(t, []string{"dbo.ErrorLog", "Person.Address", "Sales.Currency"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableNames_QueryError(t *testing.T) {
	c, mock := connected(t)
	mock.ExpectQuery(listTablesQuery).WillReturnError(errors.New("permission denied"))

	names := c.TableNames(context.Background())
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestTableStructure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ref   tableRef
	}{
		{"qualified", "Sales.Currency", currency},
		{"bracketed", "[Sales].[Currency]", currency},
		{"default schema", "ErrorLog", errorLog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := connected(t)
			expectTables(mock, errorLog, currency)
			expectColumns(mock, tt.ref, "ID", "Name", "ModifiedDate")
			mock.ExpectQuery("SELECT COUNT_BIG(*) FROM " + tt.ref.quoted()).
				WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(105)))

			snap, err := c.TableStructure(context.Background(), tt.input)
			require.NoError(t, err)
			require.NotNil(t, snap)

			assert.Equal(t, tt.ref.schema, snap.Qualifier())
			assert.Equal(t, tt.ref.name, snap.BareName())
			assert.Len(t, snap.ColumnNames(), 3)
			assert.Equal(t, []string{"ID", "Name", "ModifiedDate"}, snap.ColumnNames())
			assert.Equal(t, int64(105), snap.RowCount())
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTableStructure_NotInCatalog(t *testing.T) {
	c, mock := connected(t)
	expectTables(mock, currency)

	snap, err := c.TableStructure(context.Background(), "dbo.Currency")
	assert.Nil(t, snap)
	assert.True(t, core.IsKind(err, core.KindCatalogMismatch))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableStructure_CaseSensitiveWhitelist(t *testing.T) {
	c, mock := connected(t)
	expectTables(mock, currency)

	snap, err := c.TableStructure(context.Background(), "sales.currency")
	assert.Nil(t, snap)
	assert.True(t, core.IsKind(err, core.KindCatalogMismatch))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableStructure_InjectionNeverReachesSQL(t *testing.T) {
	c, mock := connected(t)
	expectTables(mock, currency)

	snap, err := c.TableStructure(context.Background(), "Sales.Currency]; DROP TABLE x;--")
	assert.Nil(t, snap)
	assert.True(t, core.IsKind(err, core.KindCatalogMismatch))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableStructure_Disconnected(t *testing.T) {
	c, _ := newMockConnector(t)

	snap, err := c.TableStructure(context.Background(), "Sales.Currency")
	assert.Nil(t, snap)
	assert.True(t, core.IsKind(err, core.KindNotConnected))
}

func TestTableStructure_CountFails(t *testing.T) {
	c, mock := connected(t)
	expectTables(mock, currency)
	expectColumns(mock, currency, "ID")
	mock.ExpectQuery("SELECT COUNT_BIG(*) FROM [Sales].[Currency]").WillReturnError(errors.New("timeout"))

	snap, err := c.TableStructure(context.Background(), "Sales.Currency")
	assert.Nil(t, snap)
	assert.True(t, core.IsKind(err, core.KindExecution))
}

func TestTableStructure_InvalidName(t *testing.T) {
	c, mock := connected(t)

	snap, err := c.TableStructure(context.Background(), "Sales.")
	assert.Nil(t, snap)
	assert.True(t, core.IsKind(err, core.KindValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}
