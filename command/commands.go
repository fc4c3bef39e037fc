package command

// Help groups, in display order.
const (
	GroupUtility    = "⚙️ Utility"
	GroupFun        = "🎮 Fun"
	GroupPoints     = "⭐ Points"
	GroupModeration = "🛡️ Moderation"
	GroupAdmin      = "👑 Admin"
)

var groups = []string{GroupUtility, GroupFun, GroupPoints, GroupModeration, GroupAdmin}

// Commands returns the specs of all the bot's commands.
func Commands() []Spec {
	return []Spec{
		{
			Name:  "ping",
			Group: GroupUtility,
			Help:  "Check bot latency",
			Fn:    Ping,
		},
		{
			Name:  "hello",
			Group: GroupUtility,
			Help:  "Bot greets the user",
			Fn:    Hello,
		},
		{
			Name:      "serverinfo",
			Group:     GroupUtility,
			Help:      "Get information about the server",
			GuildOnly: true,
			Fn:        ServerInfo,
		},
		{
			Name:      "userinfo",
			Group:     GroupUtility,
			Help:      "Get info about a user",
			GuildOnly: true,
			Params:    []Param{{Name: "user", Kind: Member, Optional: true}},
			Fn:        UserInfo,
		},
		{
			Name:   "avatar",
			Group:  GroupUtility,
			Help:   "Get a user's avatar",
			Params: []Param{{Name: "user", Kind: Member, Optional: true}},
			Fn:     Avatar,
		},
		{
			Name:   "roll",
			Group:  GroupFun,
			Help:   "Roll a random number between 1 and num (default 100)",
			Params: []Param{{Name: "num", Kind: Int, Optional: true}},
			Fn:     RollCommand,
		},
		{
			Name:   "8ball",
			Group:  GroupFun,
			Help:   "Ask the magic 8ball a question",
			Params: []Param{{Name: "question", Kind: Text}},
			Fn:     EightBall,
		},
		{
			Name:  "coin",
			Group: GroupFun,
			Help:  "Flip a coin",
			Fn:    Coin,
		},
		{
			Name:  "joke",
			Group: GroupFun,
			Help:  "Tell a random joke",
			Fn:    Joke,
		},
		{
			Name:  "meme",
			Group: GroupFun,
			Help:  "Get a random meme response",
			Fn:    Meme,
		},
		{
			Name:   "choose",
			Group:  GroupFun,
			Help:   "Choose between options (separate with commas)",
			Params: []Param{{Name: "options", Kind: Text}},
			Fn:     ChooseCommand,
		},
		{
			Name:   "points",
			Group:  GroupPoints,
			Help:   "Check user points",
			Params: []Param{{Name: "user", Kind: Member, Optional: true}},
			Fn:     Points,
		},
		{
			Name:  "leaderboard",
			Group: GroupPoints,
			Help:  "Show top 10 users by points",
			Fn:    Leaderboard,
		},
		{
			Name:      "warn",
			Group:     GroupModeration,
			Help:      "Warn a user",
			Perm:      PermModerate,
			GuildOnly: true,
			Params: []Param{
				{Name: "user", Kind: Member},
				{Name: "reason", Kind: Text, Optional: true},
			},
			Fn: Warn,
		},
		{
			Name:      "warnings",
			Group:     GroupModeration,
			Help:      "Check warnings for a user",
			Perm:      PermModerate,
			GuildOnly: true,
			Params:    []Param{{Name: "user", Kind: Member}},
			Fn:        Warnings,
		},
		{
			Name:      "kick",
			Group:     GroupModeration,
			Help:      "Kick a user from the server",
			Perm:      PermKick,
			GuildOnly: true,
			Params: []Param{
				{Name: "user", Kind: Member},
				{Name: "reason", Kind: Text, Optional: true},
			},
			Fn: Kick,
		},
		{
			Name:      "ban",
			Group:     GroupModeration,
			Help:      "Ban a user from the server",
			Perm:      PermBan,
			GuildOnly: true,
			Params: []Param{
				{Name: "user", Kind: Member},
				{Name: "reason", Kind: Text, Optional: true},
			},
			Fn: Ban,
		},
		{
			Name:      "purge",
			Group:     GroupModeration,
			Help:      "Delete recent messages in this channel",
			Perm:      PermManageMessages,
			GuildOnly: true,
			Params:    []Param{{Name: "amount", Kind: Int}},
			Fn:        Purge,
		},
		{
			Name:   "say",
			Group:  GroupAdmin,
			Help:   "Make the bot say something",
			Perm:   PermAdmin,
			Params: []Param{{Name: "message", Kind: Text}},
			Fn:     Say,
		},
		{
			Name:  "embed",
			Group: GroupAdmin,
			Help:  "Create an embed message",
			Perm:  PermAdmin,
			Params: []Param{
				{Name: "title", Kind: Word},
				{Name: "description", Kind: Text},
			},
			Fn: Embed,
		},
		{
			Name:      "announce",
			Group:     GroupAdmin,
			Help:      "Send an announcement to a channel",
			Perm:      PermAdmin,
			GuildOnly: true,
			Params: []Param{
				{Name: "channel", Kind: Channel},
				{Name: "message", Kind: Text},
			},
			Fn: Announce,
		},
		{
			Name:   "help",
			Help:   "Show all available commands",
			Params: []Param{{Name: "command", Kind: Word, Optional: true}},
			Fn:     Help,
		},
	}
}
