package chat

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/novachat/novachat/gateway"
	"github.com/novachat/novachat/internal/cli"
	"github.com/novachat/novachat/session"
	"github.com/novachat/novachat/store"
)

// NewListCmd instantiates and returns the chat list command.
func NewListCmd(s *store.Store, client *gateway.Client) *cobra.Command {
	var opts struct {
		PageSize int
	}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all chats",
		Long:  "List all chats",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := session.New(client, s, session.Options{})
			defer sess.Close()
			if err := sess.Load(cmd.Context()); err != nil {
				return err
			}

			// Headers.
			cli.Title("NOVACHAT CHAT LIST")

			chats := sess.Chats()
			if len(chats) > opts.PageSize {
				chats = chats[:opts.PageSize]
			}
			for _, chat := range chats {
				cli.ChatInfo("chat (%s) - %s\n", chat.ID, time.UnixMicro(chat.UpdateTimestamp).String())
				cli.UserInput("> %s [agent: %s]\n", chat.Title, chat.AgentID)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.PageSize, "page-size", "p", 50, "Page size")
	return cmd
}
