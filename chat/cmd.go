package chat

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/novachat/novachat/gateway"
	"github.com/novachat/novachat/internal/cli"
	"github.com/novachat/novachat/internal/configuration"
	"github.com/novachat/novachat/internal/debug"
	"github.com/novachat/novachat/session"
	"github.com/novachat/novachat/store"
	"github.com/novachat/novachat/tui"
)

// NewCmd instantiates and returns the chat command.
func NewCmd(config *configuration.Config, s *store.Store, client *gateway.Client) *cobra.Command {
	var opts struct {
		AgentID string
		ChatID  string
		Title   string
		Plain   bool
	}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Back and forth chat with an agent",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sess := session.New(client, s, session.Options{
				FreeTier: config.FreeTier(),
				Logger:   debug.GetLogger(),
			})
			defer sess.Close()
			if err := sess.Load(ctx); err != nil {
				return err
			}

			if opts.ChatID != "" {
				var selected *gateway.Chat
				for _, chat := range sess.Chats() {
					if chat.ID == opts.ChatID {
						selected = chat
						break
					}
				}
				if selected == nil {
					return fmt.Errorf("unknown chat (%s)", opts.ChatID)
				}
				sess.SelectChat(selected)
			} else {
				agentID, err := resolveAgent(config, sess, opts.AgentID)
				if err != nil {
					return err
				}
				if _, err := sess.StartChat(ctx, agentID, opts.Title); err != nil {
					return err
				}
			}

			if opts.Plain {
				return runPlain(ctx, sess)
			}
			return tui.Run(ctx, sess)
		},
	}

	cmd.Flags().StringVarP(&opts.AgentID, "agent", "a", "", "agent to chat with")
	cmd.Flags().StringVarP(&opts.ChatID, "chat", "c", "", "resume an existing chat")
	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "title for the new chat")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "plain prompt instead of the full-screen ui")
	return cmd
}

// resolveAgent picks the agent: flag, then config default, then an
// interactive picker.
func resolveAgent(config *configuration.Config, sess *session.Store, agentID string) (string, error) {
	if agentID == "" {
		agentID = config.Chat.DefaultAgent
	}
	if agentID != "" {
		return agentID, nil
	}

	agents := sess.Agents()
	if len(agents) == 0 {
		return "", fmt.Errorf("no agents available for this account")
	}
	options := make([]string, len(agents))
	for i, agent := range agents {
		options[i] = fmt.Sprintf("%s %s - %s", agent.Avatar, agent.Name, agent.Description)
	}
	index, err := cli.SelectOption("Pick an agent", options)
	if err != nil {
		return "", err
	}
	return agents[index].ID, nil
}
