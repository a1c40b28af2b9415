package chat

import (
	"context"
	"errors"
	"io"

	"github.com/chzyer/readline"

	"github.com/novachat/novachat/gateway"
	"github.com/novachat/novachat/internal/cli"
	"github.com/novachat/novachat/session"
)

// runPlain drives the chat through a bare readline loop. There is no
// typing animation here, so assistant replies are marked complete as
// soon as they are printed.
func runPlain(ctx context.Context, sess *session.Store) error {
	printHeader(sess)
	printed := printMessages(sess, 0)

	for {
		text, err := cli.PromptUser()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			return err
		}

		message, err := sess.SendUserMessage(ctx, text)
		var unavailableError *gateway.GatewayUnavailableError
		if errors.As(err, &unavailableError) {
			cli.SystemNotice("%s", unavailableError.Error())
		} else if err != nil {
			cli.Error("%s", err.Error())
		}
		if message != nil && message.Typing {
			sess.OnTypingComplete(message.ID)
		}

		// Upsell messages scheduled earlier are picked up here too,
		// one turn late at worst.
		printed = printMessages(sess, printed)
	}
}

func printHeader(sess *session.Store) {
	chat := sess.ActiveChat()
	if chat == nil {
		return
	}
	title := chat.Title
	if agent := sess.ActiveAgent(); agent != nil {
		title += " · " + agent.Name
	}
	cli.Title("%s", title)
}

// printMessages prints every message at index >= from and returns the
// new high-water mark.
func printMessages(sess *session.Store, from int) int {
	messages := sess.Messages()
	for _, message := range messages[from:] {
		switch {
		case message.UpgradeCTA || message.CreditsCTA:
			cli.Upsell("%s", message.Content)
		case message.Role == session.RoleUser:
			cli.UserInput("%s", message.Content)
		default:
			cli.AgentOutput("%s", message.Content)
		}
	}
	return len(messages)
}
