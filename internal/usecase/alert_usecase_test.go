package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ShcoderDev/crypto-alerts-bot/internal/domain"
)

var supportedForTest = []string{"BTC", "ETH", "SOL"}

func TestCreateAlertValidation(t *testing.T) {
	uc := NewAlertUsecase(newFakeAlertRepo(), supportedForTest)

	if _, err := uc.CreateAlert(context.Background(), 1, "SHIB", mustDecimal(t, "0.01"), true); !errors.Is(err, ErrUnsupportedCryptocurrency) {
		t.Fatalf("err = %v, want ErrUnsupportedCryptocurrency", err)
	}
	if _, err := uc.CreateAlert(context.Background(), 1, "BTC", mustDecimal(t, "0"), true); !errors.Is(err, ErrInvalidTargetPrice) {
		t.Fatalf("err = %v, want ErrInvalidTargetPrice", err)
	}
	if _, err := uc.CreateAlert(context.Background(), 1, "BTC", mustDecimal(t, "-1"), true); !errors.Is(err, ErrInvalidTargetPrice) {
		t.Fatalf("err = %v, want ErrInvalidTargetPrice", err)
	}

	alert, err := uc.CreateAlert(context.Background(), 1, " btc ", mustDecimal(t, "50000"), true)
	if err != nil {
		t.Fatal(err)
	}
	if alert.Cryptocurrency != "BTC" {
		t.Fatalf("cryptocurrency = %q, want normalized BTC", alert.Cryptocurrency)
	}
	if !alert.IsActive {
		t.Fatal("new alert must be active")
	}
	if alert.ID == 0 {
		t.Fatal("alert id must be assigned")
	}
}

func TestUpdateAlertOwnership(t *testing.T) {
	repo := newFakeAlertRepo()
	uc := NewAlertUsecase(repo, supportedForTest)

	alertID := repo.addActive(1, "BTC", "50000", true)

	isAbove := false
	if _, err := uc.UpdateAlert(context.Background(), 2, alertID, withIsAbove(isAbove)); !errors.Is(err, ErrAlertAccessDenied) {
		t.Fatalf("err = %v, want ErrAlertAccessDenied", err)
	}
	if _, err := uc.UpdateAlert(context.Background(), 1, 999, withIsAbove(isAbove)); !errors.Is(err, ErrAlertNotFound) {
		t.Fatalf("err = %v, want ErrAlertNotFound", err)
	}

	updated, err := uc.UpdateAlert(context.Background(), 1, alertID, withIsAbove(isAbove))
	if err != nil {
		t.Fatal(err)
	}
	if updated.IsAbove {
		t.Fatal("is_above should be updated to false")
	}
}

func TestDeleteAlertIsSoftDelete(t *testing.T) {
	repo := newFakeAlertRepo()
	uc := NewAlertUsecase(repo, supportedForTest)

	alertID := repo.addActive(1, "ETH", "3000", false)

	if err := uc.DeleteAlert(context.Background(), 2, alertID); !errors.Is(err, ErrAlertAccessDenied) {
		t.Fatalf("err = %v, want ErrAlertAccessDenied", err)
	}
	if err := uc.DeleteAlert(context.Background(), 1, alertID); err != nil {
		t.Fatal(err)
	}

	// Row is still present, only inactive.
	alert, err := repo.GetByID(context.Background(), alertID)
	if err != nil {
		t.Fatal(err)
	}
	if alert.IsActive {
		t.Fatal("deleted alert must be inactive")
	}

	active, err := uc.ListAlerts(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Fatalf("active alerts = %d, want 0", len(active))
	}
}

func withIsAbove(v bool) domain.AlertUpdate {
	return domain.AlertUpdate{IsAbove: &v}
}
