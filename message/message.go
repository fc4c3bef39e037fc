// Package message describes the chat entities the bot reads and writes,
// independent of any particular client library.
package message

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// User is a chat user.
type User struct {
	// ID is the unique platform ID of the user.
	ID int64
	// Name is the user's account name.
	Name string
	// Display is the name shown for the user, which may be a server nickname.
	// If empty, Name is shown.
	Display string
	// Bot indicates whether the account is a bot.
	Bot bool
	// Avatar is the URL of the user's avatar image.
	Avatar string
	// Created is the account creation time.
	Created time.Time
}

// Mention returns text that mentions the user.
func (u *User) Mention() string {
	return "<@" + strconv.FormatInt(u.ID, 10) + ">"
}

// DisplayName returns the name shown for the user.
func (u *User) DisplayName() string {
	if u.Display != "" {
		return u.Display
	}
	return u.Name
}

// Member is a user in the context of a server.
type Member struct {
	User
	// Guild is the server ID.
	Guild int64
	// Joined is the time the user joined the server.
	Joined time.Time
	// Roles is the IDs of the member's roles, excluding the implicit
	// everyone role.
	Roles []int64
	// Color is the member's display color as 0xRRGGBB.
	Color int
}

// RoleMentions formats the member's roles as mentions.
func (m *Member) RoleMentions() []string {
	r := make([]string, len(m.Roles))
	for i, id := range m.Roles {
		r[i] = "<@&" + strconv.FormatInt(id, 10) + ">"
	}
	return r
}

// Guild is a server.
type Guild struct {
	ID       int64
	Name     string
	Icon     string
	Owner    int64
	Members  int
	Channels int
	Roles    int
	Created  time.Time
}

// Channel is a text channel.
type Channel struct {
	ID    int64
	Guild int64
	Name  string
}

// Mention returns text that links the channel.
func (c *Channel) Mention() string {
	return "<#" + strconv.FormatInt(c.ID, 10) + ">"
}

// Received is a message received from the platform.
type Received struct {
	// ID is the unique ID of the message.
	ID int64
	// Channel is the channel the message was sent to.
	Channel int64
	// Guild is the server containing the channel, or 0 for a direct message.
	Guild int64
	// Author is the message sender. Author.Guild is 0 for direct messages.
	Author Member
	// Text is the text of the message.
	Text string
	// Time is the time the message was sent.
	Time time.Time
}

// Sent is a message to be sent to a channel.
type Sent struct {
	// Reply is a message to reply to. If zero, the message is not a reply.
	Reply int64
	// Channel is the channel to which the message is sent.
	Channel int64
	// Text is the message text.
	Text string
	// Card is an optional structured payload.
	Card *Card
}

// AsReply returns a copy of the message as a reply to the given message ID.
func (m Sent) AsReply(id int64) Sent {
	m.Reply = id
	return m
}

// formatString is a type to prevent misuse of format strings passed to [Format].
type formatString string

// Format constructs a message to send from a format string literal and
// formatting arguments.
func Format(channel int64, f formatString, args ...any) Sent {
	return Sent{
		Channel: channel,
		Text:    strings.TrimSpace(fmt.Sprintf(string(f), args...)),
	}
}

// Card is a structured message, rendered by the client as an embed.
type Card struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
	Thumbnail   string
	Image       string
	Footer      string
}

// Field is a named value in a card.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Add appends a field to the card and returns the card.
func (c *Card) Add(name, value string, inline bool) *Card {
	c.Fields = append(c.Fields, Field{Name: name, Value: value, Inline: inline})
	return c
}

// Card colors.
const (
	Green   = 0x2ecc71
	Blue    = 0x3498db
	Purple  = 0x9b59b6
	Gold    = 0xf1c40f
	Orange  = 0xe67e22
	Red     = 0xe74c3c
	DarkRed = 0x992d22
	Blurple = 0x5865f2
)

// ActivityKind is the verb of a presence activity.
type ActivityKind int

const (
	Playing ActivityKind = iota
	Listening
	Watching
)

// Activity is a presence activity shown on the bot's profile.
type Activity struct {
	Kind ActivityKind `toml:"kind"`
	Name string       `toml:"name"`
}

func (a Activity) String() string {
	switch a.Kind {
	case Playing:
		return "playing " + a.Name
	case Listening:
		return "listening to " + a.Name
	case Watching:
		return "watching " + a.Name
	default:
		return a.Name
	}
}

// UnmarshalText parses an activity kind from its name.
func (k *ActivityKind) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "playing", "game":
		*k = Playing
	case "listening":
		*k = Listening
	case "watching":
		*k = Watching
	default:
		return fmt.Errorf("unknown activity kind %q", b)
	}
	return nil
}

// ParseID parses a platform ID.
func ParseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// FormatID formats a platform ID. Zero formats as the empty string.
func FormatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
