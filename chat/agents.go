package chat

import (
	"github.com/spf13/cobra"

	"github.com/novachat/novachat/gateway"
	"github.com/novachat/novachat/internal/cli"
)

// NewAgentsCmd instantiates and returns the agents command.
func NewAgentsCmd(client *gateway.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List the agents available to this account",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			agents, err := client.ListAgents(cmd.Context())
			if err != nil {
				return err
			}

			cli.Title("NOVACHAT AGENTS")
			for _, agent := range agents {
				cli.AgentInfo("%s %s (%s)\n", agent.Avatar, agent.Name, agent.ID)
				if agent.Description != "" {
					cli.UserInput("  %s\n", agent.Description)
				}
				if agent.Tone != "" {
					cli.UserInput("  tone: %s · style: %s\n", agent.Tone, agent.Style)
				}
			}
			return nil
		},
	}
	return cmd
}
