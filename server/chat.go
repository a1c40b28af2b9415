package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/novachat/novachat/session"
)

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	chats, err := s.store.ListChats()
	if err != nil {
		http.Error(w, "Failed to list chats", http.StatusInternalServerError)
		return
	}

	pageSize := s.pageSize
	if pageSize < 1 {
		pageSize = 50
	}
	totalPages := (len(chats) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(chats) {
		end = len(chats)
	}

	chatViews := []ChatViewModel{}
	for _, chat := range chats[start:end] {
		chatViews = append(chatViews, ChatViewModel{
			Chat:          chat,
			FormattedTime: time.UnixMicro(chat.UpdateTimestamp).Format("Jan 2, 2006 3:04 PM"),
		})
	}

	data := &PageData{
		Title:       "Inbox",
		Chats:       chatViews,
		CurrentPage: page,
		TotalPages:  totalPages,
	}

	if err := s.tmpl.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) != 3 || parts[2] == "" {
		http.NotFound(w, r)
		return
	}
	chatID := parts[2]

	messages, err := s.store.LoadMessages(chatID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var chatView *ChatViewModel
	chats, err := s.store.ListChats()
	if err == nil {
		for _, chat := range chats {
			if chat.ID == chatID {
				chatView = &ChatViewModel{
					Chat:          chat,
					FormattedTime: time.UnixMicro(chat.UpdateTimestamp).Format(time.RFC822),
				}
				break
			}
		}
	}
	if chatView == nil {
		http.NotFound(w, r)
		return
	}

	messageViews := []MessageViewModel{}
	for _, message := range messages {
		messageViews = append(messageViews, MessageViewModel{
			Message:       message,
			FormattedTime: time.UnixMicro(message.CreationTimestamp).Format("3:04 PM"),
			RoleLabel:     roleLabel(message),
		})
	}

	data := &PageData{
		Title:    "Chat " + chatID,
		ShowBack: true,
		Chat:     chatView,
		Messages: messageViews,
	}

	if err := s.tmpl.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

func roleLabel(message *session.Message) string {
	switch {
	case message.UpgradeCTA || message.CreditsCTA:
		return "Notice"
	case message.Role == session.RoleUser:
		return "You"
	default:
		return "Agent"
	}
}
