package recon

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/momtazchem/commerce-backend/pkg/config"
	"github.com/momtazchem/commerce-backend/pkg/db/models"
	"github.com/momtazchem/commerce-backend/pkg/enums"
)

func cartStages() config.CartConfig {
	return config.CartConfig{
		AbandonAfter:    time.Hour,
		SecondReminder:  3 * time.Hour,
		DeactivateAfter: 4 * time.Hour,
	}
}

func idleCart(idle time.Duration) models.CartSession {
	return models.CartSession{
		ID:           uuid.New(),
		CustomerID:   uuid.New(),
		ItemCount:    2,
		LastActivity: testClock.Add(-idle),
		IsActive:     true,
	}
}

func newCartPass(t *testing.T, cartsRepo *fakeCarts, notifySvc *fakeNotify) Pass {
	t.Helper()
	pass, err := NewCartCleanupPass(CartCleanupPassParams{
		Logger: testLogger(),
		Carts:  cartsRepo,
		Notify: notifySvc,
		Stages: cartStages(),
		Now:    func() time.Time { return testClock },
	})
	if err != nil {
		t.Fatalf("construct pass: %v", err)
	}
	return pass
}

func TestCartCleanup_MarksAbandonedAndSendsFirstReminder(t *testing.T) {
	session := idleCart(90 * time.Minute)
	cartsRepo := &fakeCarts{idle: []models.CartSession{session}}
	notifySvc := &fakeNotify{}

	pass := newCartPass(t, cartsRepo, notifySvc)
	if err := pass.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(cartsRepo.marked) != 1 || cartsRepo.marked[0] != session.ID {
		t.Fatalf("marked = %v", cartsRepo.marked)
	}
	if len(notifySvc.cartSends) != 1 || notifySvc.cartSends[0].Type != enums.NotificationTypeFirstReminder {
		t.Fatalf("notifications = %+v", notifySvc.cartSends)
	}
}

func TestCartCleanup_SecondReminderOnce(t *testing.T) {
	session := idleCart(200 * time.Minute)
	session.IsAbandoned = true
	cartsRepo := &fakeCarts{abandoned: []models.CartSession{session}}
	notifySvc := &fakeNotify{duplicates: map[string]bool{
		session.ID.String() + "/" + enums.NotificationTypeSecondReminder.String(): true,
	}}

	pass := newCartPass(t, cartsRepo, notifySvc)
	if err := pass.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(notifySvc.cartSends) != 0 {
		t.Fatal("duplicate second reminder must not send")
	}
}

func TestCartCleanup_DeactivatesStaleSessions(t *testing.T) {
	session := idleCart(5 * time.Hour)
	session.IsAbandoned = true
	cartsRepo := &fakeCarts{stale: []models.CartSession{session}}
	notifySvc := &fakeNotify{}

	pass := newCartPass(t, cartsRepo, notifySvc)
	if err := pass.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cartsRepo.deactivated) != 1 || cartsRepo.deactivated[0] != session.ID {
		t.Fatalf("deactivated = %v", cartsRepo.deactivated)
	}
}

func TestCartCleanup_RejectsNonIncreasingStages(t *testing.T) {
	_, err := NewCartCleanupPass(CartCleanupPassParams{
		Logger: testLogger(),
		Carts:  &fakeCarts{},
		Notify: &fakeNotify{},
		Stages: config.CartConfig{
			AbandonAfter:    2 * time.Hour,
			SecondReminder:  time.Hour,
			DeactivateAfter: 4 * time.Hour,
		},
	})
	if err == nil {
		t.Fatal("expected stage validation error")
	}
}
