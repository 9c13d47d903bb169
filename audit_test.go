package teller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankapp/teller/model"
)

type recordingHook struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (h *recordingHook) Record(_ context.Context, entry model.AuditEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	return nil
}

func (h *recordingHook) Entries() []model.AuditEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.AuditEntry(nil), h.entries...)
}

func (h *recordingHook) waitFor(t *testing.T, n int) []model.AuditEntry {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(h.Entries()) >= n
	}, time.Second, 5*time.Millisecond)
	return h.Entries()
}

func TestAudit_RecordsEveryMutation(t *testing.T) {
	hook := &recordingHook{}
	tl, store := newTestTeller(t, hook)
	ctx := context.Background()
	a := createAccount(t, store, "500000")
	b := createAccount(t, store, "0")

	_, err := tl.Deposit(ctx, a, amount("100"), "teller1")
	require.NoError(t, err)
	entries := hook.waitFor(t, 1)
	assert.Equal(t, model.AuditEntry{
		Actor:      "teller1",
		Action:     model.ActionDeposit,
		Target:     a,
		Details:    "amount=100",
		OccurredAt: entries[0].OccurredAt,
	}, entries[0])

	pending, err := tl.Withdraw(ctx, a, amount("250000"), "teller1")
	require.NoError(t, err)
	entries = hook.waitFor(t, 2)
	assert.Equal(t, model.ActionWithdraw, entries[1].Action)
	assert.Equal(t, "amount=250000,status=PENDING_APPROVAL", entries[1].Details)

	_, err = tl.Transfer(ctx, a, b, amount("50"), "")
	require.NoError(t, err)
	entries = hook.waitFor(t, 3)
	assert.Equal(t, model.ActionTransfer, entries[2].Action)
	assert.Equal(t, a, entries[2].Target)
	assert.Equal(t, "to="+b+",amount=50", entries[2].Details)
	assert.Equal(t, model.SystemActor, entries[2].Actor)

	_, err = tl.Approve(ctx, pending.TransactionID, "manager1")
	require.NoError(t, err)
	entries = hook.waitFor(t, 4)
	assert.Equal(t, model.ActionApprove, entries[3].Action)
	assert.Equal(t, "manager1", entries[3].Actor)
	assert.Equal(t, a, entries[3].Target)
	assert.Equal(t, "txnId="+pending.TransactionID, entries[3].Details)
}

func TestAudit_RecordsReject(t *testing.T) {
	hook := &recordingHook{}
	tl, store := newTestTeller(t, hook)
	ctx := context.Background()
	acc := createAccount(t, store, "500000")

	pending, err := tl.Withdraw(ctx, acc, amount("250000"), "teller1")
	require.NoError(t, err)
	_, err = tl.Reject(ctx, pending.TransactionID, "manager1")
	require.NoError(t, err)

	entries := hook.waitFor(t, 2)
	assert.Equal(t, model.ActionReject, entries[1].Action)
	assert.Equal(t, "txnId="+pending.TransactionID, entries[1].Details)
}

func TestAudit_SkipsFailuresAndNoOps(t *testing.T) {
	hook := &recordingHook{}
	tl, store := newTestTeller(t, hook)
	ctx := context.Background()
	acc := createAccount(t, store, "500000")

	pending, err := tl.Withdraw(ctx, acc, amount("250000"), "teller1")
	require.NoError(t, err)
	_, err = tl.Reject(ctx, pending.TransactionID, "manager1")
	require.NoError(t, err)
	hook.waitFor(t, 2)

	_, err = tl.Approve(ctx, pending.TransactionID, "manager1")
	require.NoError(t, err)
	_, err = tl.Reject(ctx, pending.TransactionID, "manager1")
	require.NoError(t, err)
	_, err = tl.Withdraw(ctx, acc, amount("999999"), "teller1")
	require.Error(t, err)
	_, err = tl.Deposit(ctx, "ACC-MISSING", amount("1"), "teller1")
	require.Error(t, err)

	_, err = tl.Deposit(ctx, acc, amount("1"), "teller1")
	require.NoError(t, err)

	// Close drains the dispatcher, so nothing can arrive after this point
	tl.Close()
	entries := hook.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, []string{model.ActionWithdraw, model.ActionReject, model.ActionDeposit},
		[]string{entries[0].Action, entries[1].Action, entries[2].Action})
}

func TestAudit_PreservesCommitOrder(t *testing.T) {
	hook := &recordingHook{}
	tl, store := newTestTeller(t, hook)
	ctx := context.Background()
	acc := createAccount(t, store, "1000000")

	var expected []string
	for i := 1; i <= 100; i++ {
		switch i % 3 {
		case 0:
			pending, err := tl.Withdraw(ctx, acc, amount("200001"), "teller1")
			require.NoError(t, err)
			expected = append(expected, "amount=200001,status=PENDING_APPROVAL")
			_, err = tl.Reject(ctx, pending.TransactionID, "manager1")
			require.NoError(t, err)
			expected = append(expected, "txnId="+pending.TransactionID)
		default:
			value := amount(fmt.Sprintf("%d", i))
			_, err := tl.Deposit(ctx, acc, value, "teller1")
			require.NoError(t, err)
			expected = append(expected, "amount="+value.String())
		}
	}

	tl.Close()
	entries := hook.Entries()
	details := make([]string, len(entries))
	for i, entry := range entries {
		details[i] = entry.Details
	}
	assert.Equal(t, expected, details)
}

func TestAudit_CloseDrainsAndStopsAccepting(t *testing.T) {
	release := make(chan struct{})
	hook := &recordingHook{}
	slow := AuditHookFunc(func(context.Context, model.AuditEntry) error {
		<-release
		return nil
	})
	tl, store := newTestTeller(t, slow, hook)
	ctx := context.Background()
	acc := createAccount(t, store, "100")

	for i := 0; i < 5; i++ {
		_, err := tl.Deposit(ctx, acc, amount("1"), "teller1")
		require.NoError(t, err)
	}
	assert.Empty(t, hook.Entries())

	close(release)
	tl.Close()
	assert.Len(t, hook.Entries(), 5)

	// mutations still succeed after Close, their entries are dropped
	_, err := tl.Deposit(ctx, acc, amount("1"), "teller1")
	require.NoError(t, err)
	assertBalance(t, store, acc, "106")
	assert.Never(t, func() bool {
		return len(hook.Entries()) > 5
	}, 50*time.Millisecond, 5*time.Millisecond)

	tl.Close()
}

func TestAudit_HookFailuresDoNotReachCaller(t *testing.T) {
	recorder := &recordingHook{}
	failing := AuditHookFunc(func(context.Context, model.AuditEntry) error {
		return errors.New("audit sink unavailable")
	})
	panicking := AuditHookFunc(func(context.Context, model.AuditEntry) error {
		panic("boom")
	})
	tl, store := newTestTeller(t, failing, panicking, recorder)
	acc := createAccount(t, store, "100")

	txn, err := tl.Deposit(context.Background(), acc, amount("50"), "teller1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, txn.Status)
	assertBalance(t, store, acc, "150")

	entries := recorder.waitFor(t, 1)
	assert.Equal(t, acc, entries[0].Target)
}

func TestAudit_SurvivesCancelledRequest(t *testing.T) {
	seen := make(chan error, 1)
	hook := AuditHookFunc(func(ctx context.Context, _ model.AuditEntry) error {
		seen <- ctx.Err()
		return nil
	})
	tl, store := newTestTeller(t, hook)
	acc := createAccount(t, store, "100")

	ctx, cancel := context.WithCancel(context.Background())
	_, err := tl.Deposit(ctx, acc, amount("1"), "teller1")
	require.NoError(t, err)
	cancel()

	select {
	case err := <-seen:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("audit hook was not called")
	}
}
