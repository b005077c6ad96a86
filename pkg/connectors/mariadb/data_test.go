package mariadb

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlbridge/pkg/core"
)

const insertCurrency = "INSERT INTO `warehouse`.`Sales_Currency` (`CurrencyCode`, `Name`) VALUES (?, ?)"

func currencyRow(code string, name core.Value) core.Row {
	return core.NewRow([]string{"CurrencyCode", "Name"}, []core.Value{core.Text(code), name})
}

func expectCurrencyTable(mock sqlmock.Sqlmock) {
	expectActive(mock, "warehouse")
	expectTables(mock, "warehouse", "Sales_Currency")
}

func TestTableData_Disconnected(t *testing.T) {
	c, _ := newMockConnector(t)

	rows, err := c.TableData(context.Background(), "Sales_Currency")
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.True(t, core.IsKind(err, core.KindNotConnected))
}

func TestTableData(t *testing.T) {
	c, mock := connected(t)
	expectCurrencyTable(mock)
	mock.ExpectQuery("SELECT * FROM `warehouse`.`Sales_Currency`").WillReturnRows(
		sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("CurrencyCode").OfType("CHAR", ""),
			sqlmock.NewColumn("Rate").OfType("DECIMAL", []byte{}),
			sqlmock.NewColumn("Name").OfType("VARCHAR", ""),
		).
			AddRow([]byte("USD"), []byte("1.0000"), []byte("US Dollar")).
			AddRow([]byte("EUR"), []byte("0.9200"), nil))

	rows, err := c.TableData(context.Background(), "Sales_Currency")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	code, _ := rows[0].Get("CurrencyCode")
	assert.True(t, core.Text("USD").Equal(code))

	rate, _ := rows[1].Get("Rate")
	assert.True(t, core.Text("0.9200").Equal(rate))

	name, ok := rows[1].Get("Name")
	require.True(t, ok)
	assert.True(t, name.IsNull())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertData_NotInCatalog(t *testing.T) {
	c, mock := connected(t)
	expectActive(mock, "warehouse")
	expectTables(mock, "warehouse", "Person_Address")

	res, err := c.InsertData(context.Background(), "Sales_Currency", []core.Row{currencyRow("USD", core.Text("US Dollar"))})
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindCatalogMismatch))
	assert.Zero(t, res.Inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertData_BestEffort(t *testing.T) {
	c, mock := connected(t)
	expectCurrencyTable(mock)

	mock.ExpectExec(insertCurrency).WithArgs("USD", "US Dollar").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertCurrency).WithArgs("EUR", nil).
		WillReturnError(&mysqlErr1048)
	mock.ExpectExec("INSERT INTO `warehouse`.`Sales_Currency` (`CurrencyCode`) VALUES (?)").WithArgs("JPY").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows := []core.Row{
		currencyRow("USD", core.Text("US Dollar")),
		currencyRow("EUR", core.Null()),
		core.NewRow([]string{"Currency Code"}, []core.Value{core.Text("GBP")}),
		core.NewRow([]string{"CurrencyCode"}, []core.Value{core.Text("JPY")}),
	}

	res, err := c.InsertData(context.Background(), "Sales_Currency", rows)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Attempted)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.Equal(t, 2, res.Errors[1].Index)
	assert.True(t, core.IsKind(res.Errors[1].Err, core.KindValidation), "illegal column name is rejected before SQL")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertData_DefaultsRow(t *testing.T) {
	c, mock := connected(t)
	expectCurrencyTable(mock)
	mock.ExpectExec("INSERT INTO `warehouse`.`Sales_Currency` () VALUES ()").WillReturnResult(sqlmock.NewResult(1, 1))

	res, err := c.InsertData(context.Background(), "Sales_Currency", []core.Row{{}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertData_Atomic(t *testing.T) {
	t.Run("rollback", func(t *testing.T) {
		c, mock := connected(t, WithInsertMode(core.InsertAtomic))
		expectCurrencyTable(mock)
		mock.ExpectBegin()
		mock.ExpectExec(insertCurrency).WithArgs("USD", "US Dollar").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertCurrency).WithArgs("EUR", "Euro").WillReturnError(errors.New("lock wait timeout"))
		mock.ExpectRollback()

		res, err := c.InsertData(context.Background(), "Sales_Currency", []core.Row{
			currencyRow("USD", core.Text("US Dollar")),
			currencyRow("EUR", core.Text("Euro")),
		})
		assert.True(t, core.IsKind(err, core.KindExecution))
		assert.Zero(t, res.Inserted)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("illegal column rolls back", func(t *testing.T) {
		c, mock := connected(t, WithInsertMode(core.InsertAtomic))
		expectCurrencyTable(mock)
		mock.ExpectBegin()
		mock.ExpectRollback()

		res, err := c.InsertData(context.Background(), "Sales_Currency", []core.Row{
			core.NewRow([]string{"bad-col"}, []core.Value{core.Int(1)}),
		})
		require.Error(t, err)
		assert.Zero(t, res.Inserted)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit", func(t *testing.T) {
		c, mock := connected(t, WithInsertMode(core.InsertAtomic))
		expectCurrencyTable(mock)
		mock.ExpectBegin()
		mock.ExpectExec(insertCurrency).WithArgs("USD", "US Dollar").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		res, err := c.InsertData(context.Background(), "Sales_Currency", []core.Row{
			currencyRow("USD", core.Text("US Dollar")),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Inserted)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

var mysqlErr1048 = mysql.MySQLError{Number: 1048, Message: "Column 'Name' cannot be null"}
