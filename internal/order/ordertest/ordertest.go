// Package ordertest provides an in-memory database and catalog fixtures for
// tests that exercise order storage.
package ordertest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/order/domain"
	"github.com/NewAcropolis/api-sub000/pkg/money"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory sqlite database with the order schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:orders_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&domain.Event{},
		&domain.EventDate{},
		&domain.Book{},
		&domain.Order{},
		&domain.Ticket{},
		&domain.OrderBook{},
		&domain.OrderError{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedEvent inserts an event with one date per start time.
func SeedEvent(t testing.TB, db *gorm.DB, title string, legacyID int, starts ...time.Time) domain.Event {
	t.Helper()

	event := domain.Event{
		ID:        uuid.NewString(),
		Title:     title,
		EventType: "Talk",
		Fee:       money.MustParse("5.00"),
		ConcFee:   money.MustParse("3.00"),
		CreatedAt: time.Now().UTC(),
	}
	if legacyID > 0 {
		id := legacyID
		event.OldID = &id
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	for _, start := range starts {
		date := domain.EventDate{
			ID:            uuid.NewString(),
			EventID:       event.ID,
			EventDatetime: start.UTC(),
			CreatedAt:     time.Now().UTC(),
		}
		if err := db.Create(&date).Error; err != nil {
			t.Fatalf("seed event date: %v", err)
		}
		event.Dates = append(event.Dates, date)
	}
	return event
}

func SeedBook(t testing.TB, db *gorm.DB, title string, legacyID int, price string) domain.Book {
	t.Helper()

	book := domain.Book{
		ID:        uuid.NewString(),
		Title:     title,
		Author:    "Jorge Angel Livraga",
		Price:     money.MustParse(price),
		CreatedAt: time.Now().UTC(),
	}
	if legacyID > 0 {
		id := legacyID
		book.OldID = &id
	}
	if err := db.Create(&book).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return book
}

// Count returns the number of rows in table.
func Count(t testing.TB, db *gorm.DB, table string) int64 {
	t.Helper()

	var n int64
	if err := db.Table(table).Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
