package main

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/zephyrtronium/warden/command"
)

func TestPerms(t *testing.T) {
	cases := []struct {
		name string
		in   int64
		want command.Perm
	}{
		{"none", 0, command.PermNone},
		{"unrelated", discordgo.PermissionSendMessages | discordgo.PermissionViewChannel, command.PermNone},
		{"admin", discordgo.PermissionAdministrator, command.PermAdmin},
		{"moderate", discordgo.PermissionModerateMembers, command.PermModerate},
		{"kick", discordgo.PermissionKickMembers, command.PermKick},
		{"ban", discordgo.PermissionBanMembers, command.PermBan},
		{"messages", discordgo.PermissionManageMessages, command.PermManageMessages},
		{"mixed", discordgo.PermissionKickMembers | discordgo.PermissionBanMembers | discordgo.PermissionSendMessages, command.PermKick | command.PermBan},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := perms(c.in); got != c.want {
				t.Errorf("wrong perms: want %v, got %v", c.want, got)
			}
		})
	}
}

func TestRESTErr(t *testing.T) {
	rest := func(code int) error {
		return &discordgo.RESTError{Response: &http.Response{StatusCode: code}}
	}
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"forbidden", rest(http.StatusForbidden), command.ErrForbidden},
		{"not-found", rest(http.StatusNotFound), command.ErrNotFound},
		{"wrapped", fmt.Errorf("kick: %w", rest(http.StatusForbidden)), command.ErrForbidden},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := resterr(c.err); !errors.Is(got, c.want) {
				t.Errorf("wrong error: want %v, got %v", c.want, got)
			}
		})
	}
	other := rest(http.StatusBadRequest)
	if got := resterr(other); errors.Is(got, command.ErrForbidden) || errors.Is(got, command.ErrNotFound) {
		t.Errorf("bad request translated to %v", got)
	}
}
