// Package session owns the client-side state of a conversation: the
// active chat, its ordered message list, and the policies around sends
// (optimistic append, at-most-one-outstanding, CTA degradation).
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/scylladb/go-set/strset"

	"github.com/novachat/novachat/gateway"
)

const (
	// A free-tier user sees an upgrade prompt after every 5th completed
	// assistant message.
	upsellEvery = 5

	defaultUpsellMinDelay = 1 * time.Second
	defaultUpsellMaxDelay = 4 * time.Second

	upsellContent  = "Enjoying the conversation? Upgrade to the Pro plan for unlimited messages and priority agents."
	creditsContent = "You've used all your free messages for now. Buy credits or upgrade your plan to keep chatting."
)

// Gateway is the remote API surface the session needs.
type Gateway interface {
	ListChats(ctx context.Context) ([]*gateway.Chat, error)
	CreateChat(ctx context.Context, agentID, title string) (*gateway.Chat, error)
	SendMessage(ctx context.Context, chatID, text string) (string, error)
	ListAgents(ctx context.Context) ([]*gateway.Agent, error)
}

// Persistence is the local storage surface the session needs.
type Persistence interface {
	SaveMessages(chatID string, messages []*Message) error
	LoadMessages(chatID string) ([]*Message, error)
	UpsertChats(chats []*gateway.Chat) error
	ListChats() ([]*gateway.Chat, error)
}

// Options for a session store.
type Options struct {
	// FreeTier drives the upsell and credits CTA policies.
	FreeTier bool
	// Logger for best-effort failures. Defaults to a discard logger.
	Logger *slog.Logger
	// Upsell delay bounds. Zero values use the 1-4s defaults.
	UpsellMinDelay time.Duration
	UpsellMaxDelay time.Duration
}

// Store holds the signed-in user's chats and agents, the active chat and
// its message list. All methods are safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	gateway     Gateway
	persistence Persistence
	scheduler   *Scheduler
	logger      *slog.Logger
	freeTier    bool

	agents      []*gateway.Agent
	chats       []*gateway.Chat
	active      *gateway.Chat
	activeAgent *gateway.Agent
	messages    []*Message
	nextSeq     int

	inFlight map[string]bool
	ctaIDs   *strset.Set
}

// New creates a session store. Call Load to populate agents and chats,
// and Close on teardown to cancel pending upsell timers.
func New(gw Gateway, persistence Persistence, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	minDelay := opts.UpsellMinDelay
	maxDelay := opts.UpsellMaxDelay
	if minDelay == 0 && maxDelay == 0 {
		minDelay = defaultUpsellMinDelay
		maxDelay = defaultUpsellMaxDelay
	}
	return &Store{
		gateway:     gw,
		persistence: persistence,
		scheduler:   NewScheduler(minDelay, maxDelay),
		logger:      logger,
		freeTier:    opts.FreeTier,
		inFlight:    map[string]bool{},
		ctaIDs:      strset.New(),
	}
}

// Load fetches agents and chats. Both read paths are best-effort: a
// failed agent fetch leaves the agent set empty (listing chats needs no
// agents), and when the remote chat list returns nothing, the local
// mirror backs the list.
func (s *Store) Load(ctx context.Context) error {
	agents, err := s.gateway.ListAgents(ctx)
	if err != nil {
		s.logger.Warn("listing agents", "error", err)
		agents = nil
	}

	chats, _ := s.gateway.ListChats(ctx)
	if len(chats) > 0 {
		if err := s.persistence.UpsertChats(chats); err != nil {
			s.logger.Warn("mirroring chats locally", "error", err)
		}
	} else {
		local, err := s.persistence.ListChats()
		if err != nil {
			s.logger.Warn("listing local chats", "error", err)
		}
		chats = local
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = agents
	s.chats = chats
	return nil
}

// Agents available to the user.
func (s *Store) Agents() []*gateway.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*gateway.Agent{}, s.agents...)
}

// Chats known to the session, most recent first.
func (s *Store) Chats() []*gateway.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*gateway.Chat{}, s.chats...)
}

// ActiveChat returns the selected chat, or nil.
func (s *Store) ActiveChat() *gateway.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ActiveAgent returns the agent bound to the selected chat, or nil when
// the agent is no longer in the loaded set.
func (s *Store) ActiveAgent() *gateway.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeAgent
}

// Messages returns the active chat's message list in insertion order.
func (s *Store) Messages() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Message{}, s.messages...)
}

// Sending reports whether a send is in flight for the active chat.
func (s *Store) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil && s.inFlight[s.active.ID]
}

// SelectChat makes chat the active conversation, resolves its bound agent
// and rehydrates locally persisted history. Absent or corrupt history
// yields an empty list; the API does not serve message history.
func (s *Store) SelectChat(chat *gateway.Chat) {
	messages, err := s.persistence.LoadMessages(chat.ID)
	if err != nil {
		s.logger.Warn("rehydrating chat history", "chat_id", chat.ID, "error", err)
		messages = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = chat
	s.activeAgent = s.resolveAgent(chat.AgentID)
	s.messages = messages
	s.nextSeq = nextSequence(messages)
	// Remember CTAs already present so a reselect never duplicates them.
	for _, message := range messages {
		if message.UpgradeCTA {
			s.ctaIDs.Add(chat.ID + "/" + message.ID)
		}
	}
}

// StartChat creates a chat bound to agentID and selects it.
func (s *Store) StartChat(ctx context.Context, agentID, title string) (*gateway.Chat, error) {
	if agentID == "" {
		return nil, &gateway.ChatCreationError{Message: "no agent selected"}
	}
	chat, err := s.gateway.CreateChat(ctx, agentID, title)
	if err != nil {
		return nil, err
	}

	if err := s.persistence.UpsertChats([]*gateway.Chat{chat}); err != nil {
		s.logger.Warn("mirroring chat locally", "chat_id", chat.ID, "error", err)
	}

	s.mu.Lock()
	s.chats = append([]*gateway.Chat{chat}, s.chats...)
	s.mu.Unlock()

	s.SelectChat(chat)
	return chat, nil
}

// SendUserMessage appends the user's message optimistically, then asks the
// gateway for the agent's reply. It is a no-op (nil, nil) when the text is
// blank, no chat is active, or a send for the active chat is in flight.
// On success the returned assistant message carries the Typing flag; an
// exhausted quota degrades into a credits CTA message instead of an error.
func (s *Store) SendUserMessage(ctx context.Context, text string) (*Message, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if text == "" || s.active == nil || s.inFlight[s.active.ID] {
		s.mu.Unlock()
		return nil, nil
	}
	chatID := s.active.ID
	s.inFlight[chatID] = true

	userMessage := newMessage(chatID, RoleUser, text, s.nextSeq)
	s.nextSeq++
	s.messages = append(s.messages, userMessage)
	s.persistLocked(chatID)
	s.mu.Unlock()

	// The only suspension point: the network call runs without the lock so
	// reads (and chat switches) stay responsive.
	reply, err := s.gateway.SendMessage(ctx, chatID, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, chatID)

	if err != nil {
		if !gateway.IsQuotaExhausted(err) {
			return nil, err
		}
		creditsMessage := s.appendLocked(chatID, RoleAssistant, creditsContent, func(m *Message) {
			m.CreditsCTA = true
		})
		return creditsMessage, nil
	}

	assistantMessage := s.appendLocked(chatID, RoleAssistant, reply, func(m *Message) {
		m.Typing = true
	})
	return assistantMessage, nil
}

// OnTypingComplete clears the Typing flag on the given message. Idempotent:
// completing the same message twice has no further effect. For free-tier
// users, every 5th completed assistant message schedules a one-time
// upgrade CTA after a randomized delay.
func (s *Store) OnTypingComplete(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completed *Message
	for _, message := range s.messages {
		if message.ID == messageID {
			completed = message
			break
		}
	}
	if completed == nil || !completed.Typing {
		return
	}
	completed.Typing = false
	s.persistLocked(completed.ChatID)

	if !s.freeTier || s.active == nil {
		return
	}
	n := 0
	for _, message := range s.messages {
		if message.Role == RoleAssistant && !message.Typing && !message.UpgradeCTA && !message.CreditsCTA {
			n++
		}
	}
	if n == 0 || n%upsellEvery != 0 {
		return
	}

	ctaID := fmt.Sprintf("upgrade-cta-%d", n)
	chatID := s.active.ID
	// Keys are chat-scoped so each chat earns its own CTA cadence; the
	// message keeps the bare upgrade-cta-<n> identifier.
	key := chatID + "/" + ctaID
	if s.ctaIDs.Has(key) {
		return
	}
	s.ctaIDs.Add(key)

	s.scheduler.Schedule(key, func() {
		s.insertUpsell(chatID, ctaID)
	})
}

// Close cancels pending upsell timers. The store must not be used after.
func (s *Store) Close() {
	s.scheduler.Close()
}

// insertUpsell appends the upgrade CTA message to the chat it was
// scheduled for, whether or not that chat is still active.
func (s *Store) insertUpsell(chatID, ctaID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil && s.active.ID == chatID {
		for _, message := range s.messages {
			if message.ID == ctaID {
				return
			}
		}
		upsell := newMessage(chatID, RoleAssistant, upsellContent, s.nextSeq)
		s.nextSeq++
		upsell.ID = ctaID
		upsell.UpgradeCTA = true
		s.messages = append(s.messages, upsell)
		s.persistLocked(chatID)
		return
	}

	// The user navigated away: write straight to the persisted history.
	messages, err := s.persistence.LoadMessages(chatID)
	if err != nil {
		s.logger.Warn("rehydrating chat history for upsell", "chat_id", chatID, "error", err)
		return
	}
	for _, message := range messages {
		if message.ID == ctaID {
			return
		}
	}
	upsell := newMessage(chatID, RoleAssistant, upsellContent, nextSequence(messages))
	upsell.ID = ctaID
	upsell.UpgradeCTA = true
	messages = append(messages, upsell)
	if err := s.persistence.SaveMessages(chatID, messages); err != nil {
		s.logger.Warn("persisting upsell message", "chat_id", chatID, "error", err)
	}
}

// appendLocked appends a decorated message to chatID and persists. When
// the user switched chats while a send was in flight, the message goes to
// the persisted history of its own chat rather than the now-active list.
func (s *Store) appendLocked(chatID string, role Role, content string, decorate func(*Message)) *Message {
	if s.active != nil && s.active.ID == chatID {
		message := newMessage(chatID, role, content, s.nextSeq)
		s.nextSeq++
		decorate(message)
		s.messages = append(s.messages, message)
		s.persistLocked(chatID)
		return message
	}
	messages, err := s.persistence.LoadMessages(chatID)
	if err != nil {
		s.logger.Warn("rehydrating chat history for reply", "chat_id", chatID, "error", err)
	}
	message := newMessage(chatID, role, content, nextSequence(messages))
	decorate(message)
	messages = append(messages, message)
	if err := s.persistence.SaveMessages(chatID, messages); err != nil {
		s.logger.Warn("persisting chat history", "chat_id", chatID, "error", err)
	}
	return message
}

// persistLocked writes the live message list. History is a convenience:
// failures are logged and otherwise ignored.
func (s *Store) persistLocked(chatID string) {
	if err := s.persistence.SaveMessages(chatID, s.messages); err != nil {
		s.logger.Warn("persisting chat history", "chat_id", chatID, "error", err)
	}
}

func (s *Store) resolveAgent(agentID string) *gateway.Agent {
	for _, agent := range s.agents {
		if agent.ID == agentID {
			return agent
		}
	}
	return nil
}

func nextSequence(messages []*Message) int {
	next := 0
	for _, message := range messages {
		if message.Seq >= next {
			next = message.Seq + 1
		}
	}
	return next
}
