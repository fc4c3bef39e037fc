package command_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/zephyrtronium/warden/command"
	"github.com/zephyrtronium/warden/command/commandtest"
	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/moderation"
	"github.com/zephyrtronium/warden/points"
	"github.com/zephyrtronium/warden/store/kvstore"
)

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testRobot creates a robot with in-memory storage and a fake platform.
// The fake has members 1 "kita" (admin), 2 "ryou" (moderator), and
// 3 "bocchi" (no permissions), and channels 20 "general" and 21 "news".
func testRobot(t *testing.T) (*command.Robot, *commandtest.Platform) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	s, err := kvstore.New(db)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	p := commandtest.New(10, "kessoku")
	p.AddMember(1, "kita", command.PermAdmin)
	p.AddMember(2, "ryou", command.PermModerate|command.PermManageMessages)
	p.AddMember(3, "bocchi", command.PermNone)
	p.AddChannel(20, 10, "general")
	p.AddChannel(21, 10, "news")
	p.AddChannel(30, 99, "elsewhere")
	robo := &command.Robot{
		Log:        slogDiscard(),
		Platform:   p,
		Points:     points.New(s, nil),
		Moderation: moderation.New(s, nil),
		IntN:       func(n int) int { return n - 1 },
	}
	return robo, p
}

// msg creates a message in the general channel from the given member.
func msg(p *commandtest.Platform, from int64, text string) *message.Received {
	return p.Message(500, 20, from, text)
}
