package command

import "strings"

// Perm is a set of permissions a member holds or a command requires.
type Perm uint8

const (
	// PermModerate allows moderating members, e.g. timeouts and warnings.
	PermModerate Perm = 1 << iota
	// PermKick allows kicking members.
	PermKick
	// PermBan allows banning members.
	PermBan
	// PermManageMessages allows deleting others' messages.
	PermManageMessages
	// PermAdmin is server administrator. It implies every other permission.
	PermAdmin
)

// PermNone is the empty permission set. Every member satisfies it.
const PermNone Perm = 0

// Allows reports whether p satisfies the requirement need.
func (p Perm) Allows(need Perm) bool {
	return p&PermAdmin != 0 || p&need == need
}

func (p Perm) String() string {
	if p == PermNone {
		return "none"
	}
	var s []string
	names := [...]string{"moderate", "kick", "ban", "manage_messages", "admin"}
	for i, n := range names {
		if p&(1<<i) != 0 {
			s = append(s, n)
		}
	}
	return strings.Join(s, "|")
}
