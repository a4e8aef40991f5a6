// SPDX-License-Identifier: GPL-3.0-only

package resetflow

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"shortify-server/crypto"
	"shortify-server/models"
	"shortify-server/notifications"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []notifications.NotificationData
	fail bool
}

func (n *captureNotifier) notify(data notifications.NotificationData) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("smtp unreachable")
	}
	n.sent = append(n.sent, data)
	return nil
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// testClock is a settable clock shared with the service under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *captureNotifier, *testClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := conn.AutoMigrate(models.AllModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	notifier := &captureNotifier{}
	clock := &testClock{now: time.Date(2025, 1, 11, 14, 30, 0, 0, time.UTC)}

	svc := NewService(conn)
	svc.Now = clock.Now
	svc.Notify = notifier.notify

	return svc, conn, notifier, clock
}

func createUser(t *testing.T, conn *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := crypto.NewCrypto().HashPassword("OldPassword@123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{
		Email:    email,
		Username: strings.Split(email, "@")[0],
		Password: hash,
		Role:     models.DefaultRole,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

func pendingReset(t *testing.T, conn *gorm.DB, userID uint) *models.PasswordReset {
	t.Helper()

	var reset models.PasswordReset
	if err := conn.Where("user_id = ?", userID).First(&reset).Error; err != nil {
		t.Fatalf("expected a pending reset request: %v", err)
	}
	return &reset
}

func resetCount(t *testing.T, conn *gorm.DB, userID uint) int64 {
	t.Helper()

	var count int64
	if err := conn.Model(&models.PasswordReset{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count reset requests: %v", err)
	}
	return count
}

func TestInitiateResetCreatesRequestAndSendsEmail(t *testing.T) {
	svc, conn, notifier, clock := newTestService(t)
	user := createUser(t, conn, "alice@example.com")

	if err := svc.InitiateReset(user); err != nil {
		t.Fatalf("InitiateReset failed: %v", err)
	}

	reset := pendingReset(t, conn, user.ID)
	if reset.Verified {
		t.Error("new reset request must not be verified")
	}
	if reset.Code < crypto.OTPMin || reset.Code > crypto.OTPMax {
		t.Errorf("code %d outside six-digit range", reset.Code)
	}
	if want := clock.Now().Add(DefaultTTL); !reset.ExpiresAt.Equal(want) {
		t.Errorf("expiry = %v, want %v", reset.ExpiresAt, want)
	}

	if notifier.count() != 1 {
		t.Fatalf("expected exactly one notification, got %d", notifier.count())
	}
	sent := notifier.sent[0]
	if sent.To != user.Email {
		t.Errorf("notification addressed to %s, want %s", sent.To, user.Email)
	}
	if sent.Variables["otp"] != reset.Code {
		t.Errorf("emailed code %v does not match stored code %d", sent.Variables["otp"], reset.Code)
	}
}

func TestInitiateResetRejectsLivePendingRequest(t *testing.T) {
	svc, conn, notifier, _ := newTestService(t)
	user := createUser(t, conn, "alice@example.com")

	if err := svc.InitiateReset(user); err != nil {
		t.Fatalf("first InitiateReset failed: %v", err)
	}
	first := pendingReset(t, conn, user.ID)

	err := svc.InitiateReset(user)
	if !errors.Is(err, ErrAlreadyPending) {
		t.Fatalf("expected ErrAlreadyPending, got %v", err)
	}

	if got := resetCount(t, conn, user.ID); got != 1 {
		t.Errorf("expected 1 reset request, got %d", got)
	}
	if second := pendingReset(t, conn, user.ID); second.Code != first.Code {
		t.Error("pending request must not be replaced")
	}
	if notifier.count() != 1 {
		t.Errorf("expected 1 notification, got %d", notifier.count())
	}
}

func TestInitiateResetReplacesExpiredRequest(t *testing.T) {
	svc, conn, _, clock := newTestService(t)
	user := createUser(t, conn, "alice@example.com")

	if err := svc.InitiateReset(user); err != nil {
		t.Fatalf("first InitiateReset failed: %v", err)
	}
	first := pendingReset(t, conn, user.ID)

	clock.Advance(DefaultTTL + time.Second)

	if err := svc.InitiateReset(user); err != nil {
		t.Fatalf("InitiateReset after expiry failed: %v", err)
	}

	if got := resetCount(t, conn, user.ID); got != 1 {
		t.Fatalf("expected 1 reset request after replacement, got %d", got)
	}
	second := pendingReset(t, conn, user.ID)
	if second.ID == first.ID {
		t.Error("expired request should have been deleted and replaced")
	}
}

func TestVerifyCodeWrongCodeLeavesStateUntouched(t *testing.T) {
	svc, conn, _, _ := newTestService(t)
	user := createUser(t, conn, "alice@example.com")

	if err := svc.InitiateReset(user); err != nil {
		t.Fatalf("InitiateReset failed: %v", err)
	}
	reset := pendingReset(t, conn, user.ID)

	wrong := reset.Code + 1
	if wrong > crypto.OTPMax {
		wrong = crypto.OTPMin
	}
	if err := svc.VerifyCode(user, wrong); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}

	after := pendingReset(t, conn, user.ID)
	if after.Verified {
		t.Error("wrong code must not verify the request")
	}
}

func TestVerifyCodeForUnknownUserIsInvalid(t *testing.T) {
	svc, conn, _, _ := newTestService(t)
	alice := createUser(t, conn, "alice@example.com")
	bob := createUser(t, conn, "bob@example.com")

	if err := svc.InitiateReset(alice); err != nil {
		t.Fatalf("InitiateReset failed: %v", err)
	}
	reset := pendingReset(t, conn, alice.ID)

	// Alice's code submitted for Bob must look like no request exists.
	if err := svc.VerifyCode(bob, reset.Code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestVerifyCodeExpiredDeletesRequest(t *testing.T) {
	svc, conn, _, clock := newTestService(t)
	user := createUser(t, conn, "alice@example.com")

	if err := svc.InitiateReset(user); err != nil {
		t.Fatalf("InitiateReset failed: %v", err)
	}
	reset := pendingReset(t, conn, user.ID)

	clock.Advance(DefaultTTL + time.Second)

	if err := svc.VerifyCode(user, reset.Code); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if got := resetCount(t, conn, user.ID); got != 0 {
		t.Errorf("expired request should be deleted, found %d", got)
	}

	// With the record gone, the flow behaves as if it never existed.
	if err := svc.VerifyCode(user, reset.Code); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode after cleanup, got %v", err)
	}
	if err := svc.CompletePasswordChange(user, "NewPassword@123", "NewPassword@123"); !errors.Is(err, ErrNoPendingRequest) {
		t.Errorf("expected ErrNoPendingRequest after cleanup, got %v", err)
	}
}

func TestCompleteBeforeVerifyKeepsRequest(t *testing.T) {
	svc, conn, _, _ := newTestService(t)
	user := createUser(t, conn, "alice@example.com")
	oldHash := user.Password

	if err := svc.InitiateReset(user); err != nil {
		t.Fatalf("InitiateReset failed: %v", err)
	}

	err := svc.CompletePasswordChange(user, "NewPassword@123", "NewPassword@123")
	if !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}

	if got := resetCount(t, conn, user.ID); got != 1 {
		t.Errorf("request must survive a premature change attempt, found %d", got)
	}

	var fresh models.User
	if err := conn.First(&fresh, user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if fresh.Password != oldHash {
		t.Error("credential must not change before verification")
	}
}

func TestCompleteMismatchKeepsVerifiedRequest(t *testing.T) {
	svc, conn, _, _ := newTestService(t)
	user := createUser(t, conn, "alice@example.com")

	if err := svc.InitiateReset(user); err != nil {
		t.Fatalf("InitiateReset failed: %v", err)
	}
	reset := pendingReset(t, conn, user.ID)
	if err := svc.VerifyCode(user, reset.Code); err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}

	err := svc.CompletePasswordChange(user, "NewPassword@123", "Different@123")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	after := pendingReset(t, conn, user.ID)
	if !after.Verified {
		t.Error("verified request must survive a mismatch for a retry")
	}

	// Retry with matching values succeeds against the same request.
	if err := svc.CompletePasswordChange(user, "NewPassword@123", "NewPassword@123"); err != nil {
		t.Fatalf("retry after mismatch failed: %v", err)
	}
}

func TestCompleteExpiredDeletesRequest(t *testing.T) {
	svc, conn, _, clock := newTestService(t)
	user := createUser(t, conn, "alice@example.com")

	if err := svc.InitiateReset(user); err != nil {
		t.Fatalf("InitiateReset failed: %v", err)
	}
	reset := pendingReset(t, conn, user.ID)
	if err := svc.VerifyCode(user, reset.Code); err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}

	// Expiry is re-checked at change time, not only at verification.
	clock.Advance(DefaultTTL + time.Second)

	err := svc.CompletePasswordChange(user, "NewPassword@123", "NewPassword@123")
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if got := resetCount(t, conn, user.ID); got != 0 {
		t.Errorf("expired request should be deleted, found %d", got)
	}
}

func TestEndToEndPasswordChange(t *testing.T) {
	svc, conn, notifier, _ := newTestService(t)
	user := createUser(t, conn, "alice@example.com")

	if err := svc.InitiateReset(user); err != nil {
		t.Fatalf("InitiateReset failed: %v", err)
	}
	reset := pendingReset(t, conn, user.ID)

	if err := svc.VerifyCode(user, reset.Code); err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}
	if err := svc.CompletePasswordChange(user, "NewPassword@123", "NewPassword@123"); err != nil {
		t.Fatalf("CompletePasswordChange failed: %v", err)
	}

	var fresh models.User
	if err := conn.First(&fresh, user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if err := crypto.NewCrypto().VerifyPassword("NewPassword@123", fresh.Password); err != nil {
		t.Errorf("new password does not verify against stored hash: %v", err)
	}
	if got := resetCount(t, conn, user.ID); got != 0 {
		t.Errorf("request must be consumed by the change, found %d", got)
	}
	if notifier.count() != 1 {
		t.Errorf("expected 1 notification total, got %d", notifier.count())
	}

	// The flow is fully reset: a fresh initiation succeeds.
	if err := svc.InitiateReset(user); err != nil {
		t.Errorf("re-initiation after completed change failed: %v", err)
	}
}

func TestInitiateResetNotificationFailureKeepsRequest(t *testing.T) {
	svc, conn, notifier, _ := newTestService(t)
	notifier.fail = true
	user := createUser(t, conn, "alice@example.com")

	err := svc.InitiateReset(user)
	if !errors.Is(err, ErrNotificationFailed) {
		t.Fatalf("expected ErrNotificationFailed, got %v", err)
	}

	// The stored request survives and expires naturally.
	if got := resetCount(t, conn, user.ID); got != 1 {
		t.Errorf("expected the stored request to remain, found %d", got)
	}
}

func TestConcurrentInitiateCreatesSingleRequest(t *testing.T) {
	svc, conn, notifier, _ := newTestService(t)
	user := createUser(t, conn, "alice@example.com")

	const callers = 8
	results := make(chan error, callers)

	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < callers; i++ {
		go func() {
			start.Wait()
			results <- svc.InitiateReset(user)
		}()
	}
	start.Done()

	var ok, pending int
	for i := 0; i < callers; i++ {
		switch err := <-results; {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyPending):
			pending++
		default:
			t.Errorf("unexpected error from concurrent initiate: %v", err)
		}
	}

	if ok != 1 {
		t.Errorf("exactly one caller should win, got %d", ok)
	}
	if pending != callers-1 {
		t.Errorf("expected %d AlreadyPending results, got %d", callers-1, pending)
	}
	if got := resetCount(t, conn, user.ID); got != 1 {
		t.Errorf("expected exactly one persisted request, got %d", got)
	}
	if notifier.count() != 1 {
		t.Errorf("expected exactly one notification, got %d", notifier.count())
	}
}
