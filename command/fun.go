package command

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"gitlab.com/zephyrtronium/pick"

	"github.com/zephyrtronium/warden/message"
)

// ErrRollRange is the error for a die with no faces.
var ErrRollRange = errors.New("number must be greater than 0")

// ErrTooFewChoices is the error for a choice among fewer than two options.
var ErrTooFewChoices = errors.New("need at least 2 options")

// Roll returns a uniform random integer in [1, n].
func Roll(n int, intn func(int) int) (int, error) {
	if n < 1 {
		return 0, ErrRollRange
	}
	return 1 + intn(n), nil
}

// Choose picks one of the comma-separated options in s. Options are trimmed
// of surrounding space and empty options are ignored.
func Choose(s string, intn func(int) int) (string, error) {
	var opts []string
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			opts = append(opts, o)
		}
	}
	if len(opts) < 2 {
		return "", ErrTooFewChoices
	}
	return opts[intn(len(opts))], nil
}

// RollCommand rolls a die.
//   - num: Number of faces. Defaults to 100.
func RollCommand(ctx context.Context, robo *Robot, call *Invocation) error {
	n, ok := call.Args.Int("num")
	if !ok {
		n = 100
	}
	r, err := Roll(n, robo.intn)
	if err != nil {
		return robo.say(ctx, call, "❌ Number must be greater than 0!")
	}
	c := &message.Card{
		Title:  "🎲 Dice Roll",
		Color:  message.Gold,
		Footer: "Rolled by " + call.Author().Name,
	}
	c.Add("Result", fmt.Sprintf("**%d** (1-%d)", r, n), true)
	return robo.card(ctx, call, c)
}

var answers = pick.New([]pick.Case[string]{
	{E: "Yes, definitely!", W: 1},
	{E: "No, not at all.", W: 1},
	{E: "Ask again later.", W: 1},
	{E: "It is certain.", W: 1},
	{E: "Don't count on it.", W: 1},
	{E: "Maybe... 🤔", W: 1},
	{E: "Absolutely!", W: 1},
	{E: "Signs point to yes.", W: 1},
	{E: "Very doubtful.", W: 1},
	{E: "Outlook good.", W: 1},
	{E: "Better not tell you now.", W: 1},
	{E: "Concentrate and ask again.", W: 1},
})

// EightBall answers a question.
//   - question: The question.
func EightBall(ctx context.Context, robo *Robot, call *Invocation) error {
	c := &message.Card{
		Title:       "🎱 Magic 8Ball",
		Description: "Question: " + call.Args.String("question"),
		Color:       message.Blurple,
	}
	c.Add("Answer", answers.Pick(rand.Uint32()), true)
	return robo.card(ctx, call, c)
}

// Coin flips a coin.
// No arguments.
func Coin(ctx context.Context, robo *Robot, call *Invocation) error {
	side := "Heads"
	if robo.intn(2) == 1 {
		side = "Tails"
	}
	c := &message.Card{Title: "Coin Flip", Color: message.Gold}
	c.Add("Result", "🪙 **"+side+"**", true)
	return robo.card(ctx, call, c)
}

var jokes = pick.New([]pick.Case[string]{
	{E: "Why don't scientists trust atoms? Because they make up everything!", W: 1},
	{E: "What do you call a fake noodle? An impasta!", W: 1},
	{E: "Why did the scarecrow win an award? He was outstanding in his field!", W: 1},
	{E: "What did the ocean say to the beach? Nothing, it just waved.", W: 1},
	{E: "Why don't eggs tell jokes? They'd crack each other up!", W: 1},
	{E: "What's the best thing about Switzerland? I don't know, but their flag is a big plus.", W: 1},
})

// Joke tells a joke.
// No arguments.
func Joke(ctx context.Context, robo *Robot, call *Invocation) error {
	c := &message.Card{
		Title:       "😂 Random Joke",
		Description: jokes.Pick(rand.Uint32()),
		Color:       message.Purple,
	}
	return robo.card(ctx, call, c)
}

var memes = pick.New([]pick.Case[string]{
	{E: "Did you ever hear the tragedy of Darth Plagueis The Wise?", W: 1},
	{E: "It's over 9000! 🌊", W: 1},
	{E: "To be continued... ➡️", W: 1},
	{E: "This is the way.", W: 1},
	{E: "I'm not crying, you're crying 😭", W: 1},
	{E: "UNLIMITED POWER! ⚡", W: 1},
	{E: "Hello there... General Kenobi!", W: 1},
	{E: "It's treason, then.", W: 1},
})

// Meme sends a meme.
// No arguments.
func Meme(ctx context.Context, robo *Robot, call *Invocation) error {
	return robo.say(ctx, call, "✨ "+memes.Pick(rand.Uint32()))
}

// ChooseCommand picks among options.
//   - options: Comma-separated options.
func ChooseCommand(ctx context.Context, robo *Robot, call *Invocation) error {
	s, err := Choose(call.Args.String("options"), robo.intn)
	if err != nil {
		return robo.say(ctx, call, "❌ Please provide at least 2 options separated by commas!")
	}
	c := &message.Card{Title: "🎯 Random Choice", Color: message.Green}
	c.Add("Picked", "**"+s+"**", true)
	return robo.card(ctx, call, c)
}

