package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/zephyrtronium/warden/message"
)

// Parse extracts a command name and its argument text from a message. The
// name immediately follows the prefix and is returned in lower case.
func Parse(prefix, text string) (name, rest string, ok bool) {
	if prefix == "" {
		return "", "", false
	}
	s, ok := strings.CutPrefix(text, prefix)
	if !ok {
		return "", "", false
	}
	k := strings.IndexFunc(s, unicode.IsSpace)
	if k < 0 {
		k = len(s)
	}
	if k == 0 {
		// Prefix alone or followed by space.
		return "", "", false
	}
	return strings.ToLower(s[:k]), strings.TrimSpace(s[k:]), true
}

// word splits the first argument from s. A double-quoted argument may
// contain spaces.
func word(s string) (w, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if s == "" {
		return "", ""
	}
	if s[0] == '"' {
		if k := strings.IndexByte(s[1:], '"'); k >= 0 {
			return s[1 : k+1], s[k+2:]
		}
	}
	k := strings.IndexFunc(s, unicode.IsSpace)
	if k < 0 {
		return s, ""
	}
	return s[:k], s[k:]
}

// args converts the argument text of a command according to its parameters.
func (spec *Spec) args(ctx context.Context, p Platform, msg *message.Received, text string) (Args, error) {
	r := make(Args, len(spec.Params))
	for _, param := range spec.Params {
		text = strings.TrimSpace(text)
		if text == "" {
			if param.Optional {
				continue
			}
			return nil, &MissingArgumentError{Command: spec.Name, Param: param.Name}
		}
		var w string
		if param.Kind == Text {
			w, text = text, ""
		} else {
			w, text = word(text)
		}
		v, err := convert(ctx, p, msg, param.Kind, w)
		switch {
		case err == nil: // do nothing
		case errors.Is(err, errBadArgument), errors.Is(err, ErrNotFound):
			return nil, &BadArgumentError{Command: spec.Name, Param: param.Name, Value: w, Err: err}
		default:
			return nil, &HandlerError{Command: spec.Name, Err: err}
		}
		r[param.Name] = v
	}
	return r, nil
}

var errBadArgument = errors.New("malformed argument")

func convert(ctx context.Context, p Platform, msg *message.Received, kind Kind, w string) (any, error) {
	switch kind {
	case Word, Text:
		return w, nil
	case Int:
		n, err := strconv.Atoi(w)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errBadArgument, err)
		}
		return n, nil
	case Member:
		if msg.Guild == 0 {
			return nil, ErrGuildOnly
		}
		if id, ok := mention(w, "<@!", "<@"); ok {
			return p.Member(ctx, msg.Guild, id)
		}
		if strings.HasPrefix(w, "<@") {
			return nil, fmt.Errorf("%w: malformed mention", errBadArgument)
		}
		return p.FindMember(ctx, msg.Guild, w)
	case Channel:
		if msg.Guild == 0 {
			return nil, ErrGuildOnly
		}
		if id, ok := mention(w, "<#"); ok {
			c, err := p.Channel(ctx, id)
			if err != nil {
				return nil, err
			}
			if c.Guild != msg.Guild {
				// Don't let commands reach into other servers.
				return nil, ErrNotFound
			}
			return c, nil
		}
		if strings.HasPrefix(w, "<#") {
			return nil, fmt.Errorf("%w: malformed channel mention", errBadArgument)
		}
		return p.FindChannel(ctx, msg.Guild, strings.TrimPrefix(w, "#"))
	default:
		panic(fmt.Errorf("command: unknown parameter kind %d", kind))
	}
}

// mention parses an ID from a mention with one of the given openers, or
// from a bare ID.
func mention(w string, open ...string) (int64, bool) {
	for _, o := range open {
		if s, ok := strings.CutPrefix(w, o); ok {
			if s, ok := strings.CutSuffix(s, ">"); ok {
				id, err := message.ParseID(s)
				return id, err == nil && id > 0
			}
		}
	}
	id, err := message.ParseID(w)
	return id, err == nil && id > 0
}
