package main

import (
	"github.com/spf13/cobra"

	"github.com/novachat/novachat/chat"
	"github.com/novachat/novachat/gateway"
	"github.com/novachat/novachat/internal/configuration"
	"github.com/novachat/novachat/server"
	"github.com/novachat/novachat/store"
)

const configFilepath = "~/.config/novachat/config.json"

var rootCmd = &cobra.Command{
	Use:     "novachat",
	Short:   "A CLI for chatting with novachat agents",
	Version: "1.0",
}

func main() {
	config, err := configuration.Parse(configFilepath)
	if err != nil {
		panic(err)
	}

	// Create store
	store, err := store.New(config.Database)
	if err != nil {
		panic(err)
	}
	// Ensure store is closed when the program exits normally
	defer store.Close()

	client := gateway.New(config)

	rootCmd.AddCommand(server.NewServeCmd(store))
	rootCmd.AddCommand(chat.NewCmd(config, store, client))
	rootCmd.AddCommand(chat.NewListCmd(store, client))
	rootCmd.AddCommand(chat.NewAgentsCmd(client))
	rootCmd.Execute()
}
