package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zephyrtronium/warden/message"
)

// Say repeats a message as the bot, removing the original.
//   - message: Text to say.
func Say(ctx context.Context, robo *Robot, call *Invocation) error {
	if err := robo.Platform.Delete(ctx, call.Message.Channel, call.Message.ID); err != nil {
		return fmt.Errorf("couldn't delete invocation: %w", err)
	}
	_, err := robo.Platform.Send(ctx, message.Sent{Channel: call.Message.Channel, Text: call.Args.String("message")})
	return err
}

// Embed sends a card with a title and description.
//   - title: Card title. Quote it to use several words.
//   - description: Card text.
func Embed(ctx context.Context, robo *Robot, call *Invocation) error {
	c := &message.Card{
		Title:       call.Args.String("title"),
		Description: call.Args.String("description"),
		Color:       message.Blurple,
	}
	return robo.card(ctx, call, c)
}

// Announce posts an announcement card to another channel.
//   - channel: Channel to announce in.
//   - message: Announcement text.
func Announce(ctx context.Context, robo *Robot, call *Invocation) error {
	ch := call.Args.Channel("channel")
	c := &message.Card{
		Title:       "📢 Announcement",
		Description: call.Args.String("message"),
		Color:       message.Red,
		Footer:      "Announced by " + call.Author().Name,
	}
	if _, err := robo.Platform.Send(ctx, message.Sent{Channel: ch.ID, Card: c}); err != nil {
		return fmt.Errorf("couldn't announce in %s: %w", ch.Mention(), err)
	}
	robo.Log.InfoContext(ctx, "announced", slog.Int64("channel", ch.ID), slog.Int64("by", call.Author().ID))
	return robo.say(ctx, call, "✅ Announcement sent to "+ch.Mention())
}
