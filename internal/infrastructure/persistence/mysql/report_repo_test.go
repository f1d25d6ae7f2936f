package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/domain/report"
)

func TestReceiverScopeFiltersOnlyByDate(t *testing.T) {
	db := dryRunDB(t)
	from := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	minScore := 4

	stmt := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var models []LoanModel
		return receiverScope(tx, "555", report.Filter{From: &from, To: &to, MinScore: &minScore, Query: "x"}).Find(&models)
	})

	assert.Contains(t, stmt, "loans.receiver_cedula = '555'")
	assert.Contains(t, stmt, "loans.returned_at >= '2024-05-01 00:00:00'")
	assert.Contains(t, stmt, "loans.returned_at < '2024-06-01 00:00:00'")
	assert.NotContains(t, stmt, "status")
	assert.NotContains(t, stmt, "return_report")
	assert.NotContains(t, stmt, "rating >=")
}

func TestReceiverScopeWithoutDates(t *testing.T) {
	db := dryRunDB(t)

	stmt := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var models []LoanModel
		return receiverScope(tx, "555", report.Filter{}).Find(&models)
	})

	assert.Contains(t, stmt, "WHERE loans.receiver_cedula = '555'")
	assert.NotContains(t, stmt, "returned_at")
}

func TestBookSummaryScopeQuery(t *testing.T) {
	db := dryRunDB(t)
	minScore := 3

	stmt := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []report.BookSummary
		return bookSummaryScope(tx, report.Filter{MinScore: &minScore, Query: " 50%_off "}).Find(&rows)
	})

	assert.Contains(t, stmt, "loans.status = 'returned'")
	assert.Contains(t, stmt, "loans.return_book_rating >= 3 OR loans.return_receiver_rating >= 3")
	assert.Contains(t, stmt, "JOIN books ON books.id = loans.book_id")
	assert.Contains(t, stmt, `books.cota LIKE '%50\%\_off%'`)

	stmt = db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []report.BookSummary
		return bookSummaryScope(tx, report.Filter{Query: "   "}).Find(&rows)
	})
	assert.NotContains(t, stmt, "LIKE")
}
