package server

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/Masterminds/sprig/v3"
	"github.com/spf13/cobra"

	"github.com/novachat/novachat/gateway"
	"github.com/novachat/novachat/session"
	"github.com/novachat/novachat/store"
)

//go:embed templates
var templatesFS embed.FS

type PageData struct {
	Title       string
	ShowBack    bool
	Chat        *ChatViewModel
	Chats       []ChatViewModel
	Messages    []MessageViewModel
	CurrentPage int
	TotalPages  int
}

// ChatViewModel represents a chat with formatted time for the template.
type ChatViewModel struct {
	*gateway.Chat
	FormattedTime string
}

// MessageViewModel represents a message with display labels for the template.
type MessageViewModel struct {
	*session.Message
	FormattedTime string
	RoleLabel     string
}

// NewServeCmd creates a new serve command.
func NewServeCmd(s *store.Store) *cobra.Command {
	var opts struct {
		Port     int
		PageSize int
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a web interface for viewing chats",
		Long:  "Serve a web interface for viewing chats",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := &Server{
				store:    s,
				pageSize: opts.PageSize,
			}
			return server.Start(opts.Port)
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 3030, "Port to serve on")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 50, "Number of chats per page")
	return cmd
}

// Server handles the web interface.
type Server struct {
	store    *store.Store
	pageSize int
	tmpl     *template.Template
}

func (s *Server) Start(port int) error {
	handler, err := s.handler()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", port)
	fmt.Printf("Server starting on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, handler)
}

func (s *Server) handler() (http.Handler, error) {
	funcMap := sprig.HtmlFuncMap()
	funcMap["formatMessage"] = formatMessage

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	s.tmpl = tmpl

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleInbox)
	mux.HandleFunc("/chat/", s.handleChat)
	return mux, nil
}

// formatMessage turns message content into html, preserving line breaks.
func formatMessage(content string) template.HTML {
	escaped := template.HTMLEscapeString(content)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return template.HTML(escaped)
}
