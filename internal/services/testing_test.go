package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"partner-office/internal/models"
	"partner-office/internal/notify"
	"partner-office/internal/repository"
)

// setupTestDB opens an in-memory sqlite database unique to the test. The
// named shared-cache DSN keeps every pooled connection on the same database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Partner{},
		&models.Lead{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

// createPartner inserts a partner with the given code and optional referrer.
func createPartner(t *testing.T, repo *repository.PartnerRepository, code, referrer string, level int) *models.Partner {
	t.Helper()

	partner := &models.Partner{
		UniqueCode:   code,
		Nickname:     "Partner " + code,
		Level:        level,
		PasswordHash: "x",
	}
	if referrer != "" {
		partner.ReferrerCode = &referrer
	}

	if err := repo.Create(context.Background(), partner); err != nil {
		t.Fatalf("failed to create partner %s: %v", code, err)
	}
	return partner
}

// createLead inserts a lead owned by code with the given status.
func createLead(t *testing.T, repo *repository.LeadRepository, code, status string, submittedAt time.Time) *models.Lead {
	t.Helper()

	lead := &models.Lead{
		MarketerCode: code,
		Status:       status,
		CustomerName: "Customer of " + code,
		ContactPhone: "010-0000-0000",
		SubmittedAt:  submittedAt,
	}
	if err := repo.Create(context.Background(), lead); err != nil {
		t.Fatalf("failed to create lead for %s: %v", code, err)
	}
	return lead
}

// fakeNotifier records deliveries and signals each one on a channel.
type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	ch     chan notify.Event
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ch: make(chan notify.Event, 16)}
}

func (f *fakeNotifier) Notify(ctx context.Context, target notify.Target, event notify.Event) error {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
	f.ch <- event
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// waitForEvent blocks until one delivery arrives or the timeout elapses.
func (f *fakeNotifier) waitForEvent(t *testing.T) notify.Event {
	t.Helper()
	select {
	case event := <-f.ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return notify.Event{}
	}
}
