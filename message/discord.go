package message

import (
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
)

// snowflake parses an ID, yielding 0 for malformed or empty IDs.
func snowflake(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func created(id string) time.Time {
	t, _ := discordgo.SnowflakeTimestamp(id)
	return t
}

// FromDiscordUser adapts a Discord user.
func FromDiscordUser(u *discordgo.User) User {
	if u == nil {
		return User{}
	}
	return User{
		ID:      snowflake(u.ID),
		Name:    u.Username,
		Display: u.GlobalName,
		Bot:     u.Bot,
		Avatar:  u.AvatarURL(""),
		Created: created(u.ID),
	}
}

// FromDiscordMember adapts a Discord guild member. If the member object does
// not carry its user, as in message events, u supplies it.
func FromDiscordMember(m *discordgo.Member, u *discordgo.User) Member {
	if m == nil {
		return Member{User: FromDiscordUser(u)}
	}
	if m.User == nil {
		// Copy so that we don't modify an object the session may share.
		c := *m
		c.User = u
		m = &c
	}
	r := Member{
		User:   FromDiscordUser(m.User),
		Guild:  snowflake(m.GuildID),
		Joined: m.JoinedAt,
		Roles:  make([]int64, 0, len(m.Roles)),
	}
	if m.User != nil {
		r.Display = m.DisplayName()
		r.Avatar = m.AvatarURL("")
	}
	for _, id := range m.Roles {
		r.Roles = append(r.Roles, snowflake(id))
	}
	return r
}

// FromDiscord adapts a Discord message.
func FromDiscord(m *discordgo.Message) *Received {
	r := Received{
		ID:      snowflake(m.ID),
		Channel: snowflake(m.ChannelID),
		Guild:   snowflake(m.GuildID),
		Author:  FromDiscordMember(m.Member, m.Author),
		Text:    m.Content,
		Time:    m.Timestamp,
	}
	if r.Author.Guild == 0 && m.Member != nil {
		// Message events omit the guild ID from the member.
		r.Author.Guild = r.Guild
	}
	return &r
}

// FromDiscordGuild adapts a Discord guild.
func FromDiscordGuild(g *discordgo.Guild) *Guild {
	r := Guild{
		ID:       snowflake(g.ID),
		Name:     g.Name,
		Owner:    snowflake(g.OwnerID),
		Members:  g.MemberCount,
		Channels: len(g.Channels),
		Roles:    len(g.Roles),
		Created:  created(g.ID),
	}
	if g.Icon != "" {
		r.Icon = g.IconURL("")
	}
	return &r
}

// FromDiscordChannel adapts a Discord channel.
func FromDiscordChannel(c *discordgo.Channel) *Channel {
	return &Channel{
		ID:    snowflake(c.ID),
		Guild: snowflake(c.GuildID),
		Name:  c.Name,
	}
}

// ToDiscord creates a message to send to Discord.
func ToDiscord(m Sent) *discordgo.MessageSend {
	r := discordgo.MessageSend{
		Content: m.Text,
		// Never ping everyone or roles on behalf of a command.
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		},
	}
	if m.Reply != 0 {
		r.Reference = &discordgo.MessageReference{
			MessageID: FormatID(m.Reply),
			ChannelID: FormatID(m.Channel),
		}
	}
	if m.Card != nil {
		r.Embeds = []*discordgo.MessageEmbed{ToDiscordEmbed(m.Card)}
	}
	return &r
}

// ToDiscordEmbed renders a card as a Discord embed.
func ToDiscordEmbed(c *Card) *discordgo.MessageEmbed {
	e := discordgo.MessageEmbed{
		Title:       c.Title,
		Description: c.Description,
		Color:       c.Color,
	}
	for _, f := range c.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if c.Thumbnail != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: c.Thumbnail}
	}
	if c.Image != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: c.Image}
	}
	if c.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: c.Footer}
	}
	return &e
}

// ToDiscordActivity converts an activity to Discord's representation.
func ToDiscordActivity(a Activity) *discordgo.Activity {
	r := discordgo.Activity{Name: a.Name}
	switch a.Kind {
	case Playing:
		r.Type = discordgo.ActivityTypeGame
	case Listening:
		r.Type = discordgo.ActivityTypeListening
	case Watching:
		r.Type = discordgo.ActivityTypeWatching
	}
	return &r
}
