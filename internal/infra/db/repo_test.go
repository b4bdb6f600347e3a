package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Each pooled connection gets its own :memory: database; pin the pool to
	// one connection so every query sees the same data.
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&userModel{}, &priceAlertModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestUserCreateIfAbsentKeepsOriginalRow(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	first := &domain.User{TgID: 42, Username: "alice", RegistrationDate: time.Now().Add(-time.Hour)}
	if err := repo.CreateIfAbsent(ctx, first); err != nil {
		t.Fatal(err)
	}

	// A repeated /start must not overwrite the registration.
	second := &domain.User{TgID: 42, Username: "alice_renamed", RegistrationDate: time.Now()}
	if err := repo.CreateIfAbsent(ctx, second); err != nil {
		t.Fatal(err)
	}

	stored, err := repo.GetByTgID(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Username != "alice" {
		t.Fatalf("username = %q, want original alice", stored.Username)
	}
}

func TestUserGetByTgIDNotFound(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	if _, err := repo.GetByTgID(context.Background(), 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAlertLifecycle(t *testing.T) {
	repo := NewAlertRepository(openTestDB(t))
	ctx := context.Background()

	alert := &domain.PriceAlert{
		UserID:         42,
		Cryptocurrency: "btc",
		TargetPrice:    decimal.RequireFromString("50000.50"),
		IsAbove:        true,
		CreatedAt:      time.Now(),
		IsActive:       true,
	}
	if err := repo.Create(ctx, alert); err != nil {
		t.Fatal(err)
	}
	if alert.ID == 0 {
		t.Fatal("id must be assigned on create")
	}

	stored, err := repo.GetByID(ctx, alert.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Cryptocurrency != "BTC" {
		t.Fatalf("cryptocurrency = %q, want uppercased BTC", stored.Cryptocurrency)
	}
	if !stored.TargetPrice.Equal(decimal.RequireFromString("50000.50")) {
		t.Fatalf("target price = %s, want 50000.50", stored.TargetPrice)
	}

	bySymbol, err := repo.ListActiveBySymbol(ctx, "btc")
	if err != nil {
		t.Fatal(err)
	}
	if len(bySymbol) != 1 {
		t.Fatalf("alerts for BTC = %d, want 1", len(bySymbol))
	}

	newTarget := decimal.RequireFromString("60000")
	if err := repo.Update(ctx, alert.ID, domain.AlertUpdate{TargetPrice: &newTarget}); err != nil {
		t.Fatal(err)
	}
	updated, err := repo.GetByID(ctx, alert.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !updated.TargetPrice.Equal(newTarget) {
		t.Fatalf("target price = %s, want 60000", updated.TargetPrice)
	}
	if !updated.IsAbove {
		t.Fatal("untouched fields must survive a partial update")
	}
}

func TestAlertDeactivateIsSoftDelete(t *testing.T) {
	repo := NewAlertRepository(openTestDB(t))
	ctx := context.Background()

	alert := &domain.PriceAlert{
		UserID:         42,
		Cryptocurrency: "ETH",
		TargetPrice:    decimal.RequireFromString("3000"),
		IsAbove:        false,
		CreatedAt:      time.Now(),
		IsActive:       true,
	}
	if err := repo.Create(ctx, alert); err != nil {
		t.Fatal(err)
	}

	if err := repo.Deactivate(ctx, alert.ID); err != nil {
		t.Fatal(err)
	}

	active, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Fatalf("active alerts = %d, want 0", len(active))
	}

	// The row itself survives.
	stored, err := repo.GetByID(ctx, alert.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.IsActive {
		t.Fatal("deactivated alert must not be active")
	}

	if err := repo.Deactivate(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListActiveByUserFiltersOtherUsers(t *testing.T) {
	repo := NewAlertRepository(openTestDB(t))
	ctx := context.Background()

	for _, alert := range []*domain.PriceAlert{
		{UserID: 1, Cryptocurrency: "BTC", TargetPrice: decimal.RequireFromString("50000"), IsAbove: true, CreatedAt: time.Now(), IsActive: true},
		{UserID: 1, Cryptocurrency: "ETH", TargetPrice: decimal.RequireFromString("3000"), IsAbove: false, CreatedAt: time.Now(), IsActive: true},
		{UserID: 2, Cryptocurrency: "BTC", TargetPrice: decimal.RequireFromString("40000"), IsAbove: false, CreatedAt: time.Now(), IsActive: true},
	} {
		if err := repo.Create(ctx, alert); err != nil {
			t.Fatal(err)
		}
	}

	alerts, err := repo.ListActiveByUser(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 2 {
		t.Fatalf("alerts for user 1 = %d, want 2", len(alerts))
	}
	for _, alert := range alerts {
		if alert.UserID != 1 {
			t.Fatalf("alert %d belongs to user %d", alert.ID, alert.UserID)
		}
	}
}
