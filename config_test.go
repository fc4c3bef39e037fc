package main_test

import (
	"context"
	_ "embed"
	"strings"
	"testing"

	main "github.com/zephyrtronium/warden"
	"github.com/zephyrtronium/warden/message"
)

//go:embed example.toml
var exampleToml string

func eqcase[T comparable](t *testing.T, name string, val T, eq T) {
	t.Helper()
	if val != eq {
		t.Errorf("wrong %s: want %#v, got %#v", name, eq, val)
	}
}

func TestExampleConfig(t *testing.T) {
	t.Setenv("WARDEN_DATA", "/var/warden")
	cfg, _, err := main.Load(context.Background(), strings.NewReader(exampleToml))
	if err != nil {
		t.Fatalf("failed to load example.toml: %v", err)
	}

	eqcase(t, "Prefix", cfg.Prefix, "!")
	eqcase(t, "Owner.Name", cfg.Owner.Name, `zephyrtronium`)
	eqcase(t, "Owner.Contact", cfg.Owner.Contact, `zephyrtronium on Discord`)
	eqcase(t, "DB.SQL", cfg.DB.SQL, "file:/var/warden/warden.db")
	eqcase(t, "DB.KV", cfg.DB.KV, "")
	eqcase(t, "DB.KVFlag", cfg.DB.KVFlag, "")
	eqcase(t, "HTTP.Listen", cfg.HTTP.Listen, ":4959")
	eqcase(t, "Presence.Every", cfg.Presence.Every, 1800.0)
	eqcase(t, "len(Presence.Activities)", len(cfg.Presence.Activities), 3)
	eqcase(t, "Presence.Activities[0].Kind", cfg.Presence.Activities[0].Kind, message.Watching)
	eqcase(t, "Presence.Activities[0].Name", cfg.Presence.Activities[0].Name, "!help")
	eqcase(t, "Presence.Activities[0].Weight", cfg.Presence.Activities[0].Weight, 2)
	eqcase(t, "Presence.Activities[1].Kind", cfg.Presence.Activities[1].Kind, message.Playing)
	eqcase(t, "Presence.Activities[2].Kind", cfg.Presence.Activities[2].Kind, message.Listening)
	eqcase(t, "Rate.Every", cfg.Rate.Every, 1.0)
	eqcase(t, "Rate.Num", cfg.Rate.Num, 5)

	cases := cfg.Presence.Cases()
	eqcase(t, "len(Cases)", len(cases), 3)
	eqcase(t, "Cases[0].W", cases[0].W, 2)
	eqcase(t, "Cases[1].W", cases[1].W, 1)
	eqcase(t, "Cases[2].E", cases[2].E, message.Activity{Kind: message.Listening, Name: "your messages"})
}

func TestDefaultPrefix(t *testing.T) {
	cfg, _, err := main.Load(context.Background(), strings.NewReader("[db]\nkv = \"/tmp/kv\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	eqcase(t, "Prefix", cfg.Prefix, main.DefaultPrefix)
}

func TestBadActivity(t *testing.T) {
	const cfg = `
[[presence.activities]]
kind = "dancing"
name = "in the rain"
`
	_, _, err := main.Load(context.Background(), strings.NewReader(cfg))
	if err == nil {
		t.Error("no error for unknown activity kind")
	}
}
