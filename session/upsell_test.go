package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novachat/novachat/gateway"
)

// completeAssistantMessages drives n send/complete round trips.
func completeAssistantMessages(t *testing.T, s *Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		message, err := s.SendUserMessage(context.Background(), "oi")
		require.NoError(t, err)
		require.NotNil(t, message)
		s.OnTypingComplete(message.ID)
	}
}

func upgradeCTAs(messages []*Message) []*Message {
	var ctas []*Message
	for _, message := range messages {
		if message.UpgradeCTA {
			ctas = append(ctas, message)
		}
	}
	return ctas
}

func waitForUpgradeCTA(t *testing.T, s *Store) []*Message {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if ctas := upgradeCTAs(s.Messages()); len(ctas) > 0 {
			return ctas
		}
		select {
		case <-deadline:
			t.Fatal("no upgrade CTA appeared")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestOnTypingCompleteClearsFlag(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{reply: "olá"}
	persistence := newFakePersistence()
	s := newTestStore(t, gw, persistence, false)
	selectTestChat(s)

	message, err := s.SendUserMessage(context.Background(), "oi")
	require.NoError(t, err)
	require.True(t, message.Typing)

	s.OnTypingComplete(message.ID)
	messages := s.Messages()
	assert.False(t, messages[1].Typing)

	// The cleared flag is persisted.
	persisted, err := persistence.LoadMessages("c1")
	require.NoError(t, err)
	assert.False(t, persisted[1].Typing)

	// Unknown ids are ignored.
	s.OnTypingComplete("no-such-message")
}

func TestFifthCompletionSchedulesUpgradeCTA(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{reply: "olá"}
	s := newTestStore(t, gw, newFakePersistence(), true)
	selectTestChat(s)

	completeAssistantMessages(t, s, 4)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, upgradeCTAs(s.Messages()), "no CTA before the 5th completion")

	completeAssistantMessages(t, s, 1)
	ctas := waitForUpgradeCTA(t, s)
	require.Len(t, ctas, 1)
	assert.Equal(t, "upgrade-cta-5", ctas[0].ID)
	assert.Equal(t, RoleAssistant, ctas[0].Role)
}

func TestUpgradeCTAIsIdempotent(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{reply: "olá"}
	s := newTestStore(t, gw, newFakePersistence(), true)
	selectTestChat(s)

	completeAssistantMessages(t, s, 5)
	fifth := s.Messages()[9] // 5 user + 5 assistant turns.
	require.Equal(t, RoleAssistant, fifth.Role)

	// Re-completing the same message under a re-render race inserts nothing.
	s.OnTypingComplete(fifth.ID)
	s.OnTypingComplete(fifth.ID)

	ctas := waitForUpgradeCTA(t, s)
	assert.Len(t, ctas, 1)

	// Give any stray duplicate timer a chance to fire, then re-check.
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, upgradeCTAs(s.Messages()), 1)
}

func TestUpgradeCTANotDuplicatedAcrossReselect(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{reply: "olá"}
	persistence := newFakePersistence()
	s := newTestStore(t, gw, persistence, true)
	chat := selectTestChat(s)

	completeAssistantMessages(t, s, 5)
	waitForUpgradeCTA(t, s)

	// Reselecting rehydrates the CTA and must not schedule another.
	s.SelectChat(chat)
	completeAssistantMessages(t, s, 1)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, upgradeCTAs(s.Messages()), 1)
}

func TestNoUpsellForPaidPlan(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{reply: "olá"}
	s := newTestStore(t, gw, newFakePersistence(), false)
	selectTestChat(s)

	completeAssistantMessages(t, s, 5)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, upgradeCTAs(s.Messages()))
}

func TestEachChatEarnsItsOwnUpgradeCTA(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{reply: "olá"}
	persistence := newFakePersistence()
	s := newTestStore(t, gw, persistence, true)
	selectTestChat(s)

	completeAssistantMessages(t, s, 5)
	ctas := waitForUpgradeCTA(t, s)
	require.Equal(t, "upgrade-cta-5", ctas[0].ID)

	// A second chat on the same store runs its own CTA cadence; the
	// first chat's upgrade-cta-5 must not suppress it.
	s.SelectChat(&gateway.Chat{ID: "c2", AgentID: "a1"})
	completeAssistantMessages(t, s, 5)
	ctas = waitForUpgradeCTA(t, s)
	require.Len(t, ctas, 1)
	assert.Equal(t, "upgrade-cta-5", ctas[0].ID)
	assert.Equal(t, "c2", ctas[0].ChatID)

	// The first chat still has exactly its own.
	persisted, err := persistence.LoadMessages("c1")
	require.NoError(t, err)
	assert.Len(t, upgradeCTAs(persisted), 1)
}

func TestUpsellLandsInPersistedHistoryAfterSwitch(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{reply: "olá"}
	persistence := newFakePersistence()
	s := newTestStore(t, gw, persistence, true)
	selectTestChat(s)

	completeAssistantMessages(t, s, 5)
	// Switch away before the delayed CTA fires.
	s.SelectChat(&gateway.Chat{ID: "c2", AgentID: "a1"})

	require.Eventually(t, func() bool {
		persisted, err := persistence.LoadMessages("c1")
		if err != nil {
			return false
		}
		return len(upgradeCTAs(persisted)) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Empty(t, upgradeCTAs(s.Messages()))
}
