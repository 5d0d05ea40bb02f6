// Package irc implements the IRC messaging channel using the girc library.
// The bot answers channel messages that mention its nick, and every direct
// message.
package irc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lrstanley/girc"

	"github.com/soyeahso/prodbot/internal/config"
	"github.com/soyeahso/prodbot/internal/domain"
	"github.com/soyeahso/prodbot/internal/logging"
	"github.com/soyeahso/prodbot/internal/version"
)

// maxLineBytes keeps each PRIVMSG well under the 512-byte IRC line limit
// once the prefix and target are added.
const maxLineBytes = 400

var ErrNotConnected = errors.New("irc: not connected")

// Channel implements domain.Channel for IRC.
type Channel struct {
	cfg    config.IRCConfig
	client *girc.Client
	log    *logging.Logger

	mu      sync.RWMutex
	handler func(msg domain.InboundMessage)
	lastErr string
}

// New creates an IRC channel from configuration.
func New(cfg config.IRCConfig, log *logging.Logger) *Channel {
	return &Channel{cfg: cfg, log: log.Sub("irc")}
}

func (c *Channel) ID() string { return "irc" }

func (c *Channel) OnMessage(handler func(msg domain.InboundMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// Status returns the current connection state.
func (c *Channel) Status() domain.ChannelStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.ChannelStatus{
		ChannelID: c.ID(),
		Connected: c.client != nil && c.client.IsConnected(),
		LastError: c.lastErr,
	}
}

func (c *Channel) port() int {
	switch {
	case c.cfg.Port != 0:
		return c.cfg.Port
	case c.cfg.UseTLS:
		return 6697
	default:
		return 6667
	}
}

func (c *Channel) clientConfig() girc.Config {
	gc := girc.Config{
		Server:  c.cfg.Server,
		Port:    c.port(),
		Nick:    c.cfg.Nick,
		User:    c.cfg.Nick,
		Name:    "prodbot product assistant",
		SSL:     c.cfg.UseTLS,
		Version: version.UserAgent(),
	}
	if c.cfg.UseTLS {
		gc.TLSConfig = &tls.Config{ServerName: c.cfg.Server, MinVersion: tls.VersionTLS12}
	}
	switch {
	case c.cfg.SASL && c.cfg.Password != "":
		gc.SASL = &girc.SASLPlain{User: c.cfg.Nick, Pass: c.cfg.Password}
	case c.cfg.Password != "":
		gc.ServerPass = c.cfg.Password
	}
	return gc
}

// Start connects to the IRC server and blocks until the connection ends
// or ctx is cancelled.
func (c *Channel) Start(ctx context.Context) error {
	client := girc.New(c.clientConfig())
	client.Handlers.Add(girc.CONNECTED, c.onConnected)
	client.Handlers.Add(girc.PRIVMSG, c.onPrivmsg)
	client.Handlers.Add(girc.DISCONNECTED, c.onDisconnected)

	c.mu.Lock()
	c.client = client
	c.lastErr = ""
	c.mu.Unlock()

	c.log.Info().
		Str("server", c.cfg.Server).
		Int("port", c.port()).
		Str("nick", c.cfg.Nick).
		Strs("channels", c.cfg.Channels).
		Bool("tls", c.cfg.UseTLS).
		Msg("connecting to IRC")

	errCh := make(chan error, 1)
	go func() { errCh <- client.Connect() }()

	select {
	case err := <-errCh:
		if err != nil {
			c.setErr(err)
			return fmt.Errorf("irc connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		client.Close()
		return ctx.Err()
	}
}

// Stop quits the IRC server if connected.
func (c *Channel) Stop(ctx context.Context) error {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client != nil && client.IsConnected() {
		c.log.Info().Msg("disconnecting from IRC")
		client.Quit("prodbot shutting down")
	}
	return nil
}

// Send delivers a message to an IRC channel or user, one PRIVMSG per line.
func (c *Channel) Send(ctx context.Context, msg domain.OutboundMessage) error {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}
	if msg.To == "" {
		return errors.New("irc: no target specified")
	}

	lines := splitMessage(msg.Body, maxLineBytes)
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		client.Cmd.Message(msg.To, line)
	}

	c.log.Debug().Str("to", msg.To).Int("lines", len(lines)).Msg("sent IRC message")
	return nil
}

func (c *Channel) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err.Error()
}

// nick returns the current nick, falling back to the configured one.
func (c *Channel) nick() string {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()
	if client != nil {
		if n := client.GetNick(); n != "" {
			return n
		}
	}
	return c.cfg.Nick
}

func (c *Channel) onConnected(client *girc.Client, _ girc.Event) {
	c.log.Info().Str("nick", client.GetNick()).Msg("connected to IRC")
	for _, ch := range c.cfg.Channels {
		c.log.Info().Str("channel", ch).Msg("joining channel")
		client.Cmd.Join(ch)
	}
}

func (c *Channel) onDisconnected(_ *girc.Client, _ girc.Event) {
	c.log.Warn().Msg("disconnected from IRC")
}

func (c *Channel) onPrivmsg(_ *girc.Client, e girc.Event) {
	if msg, ok := c.inbound(e); ok {
		c.mu.RLock()
		handler := c.handler
		c.mu.RUnlock()
		if handler != nil {
			handler(msg)
		}
	}
}

// inbound turns a PRIVMSG into an InboundMessage when the bot should
// answer it.
func (c *Channel) inbound(e girc.Event) (domain.InboundMessage, bool) {
	if e.Source == nil || len(e.Params) == 0 {
		return domain.InboundMessage{}, false
	}
	from := e.Source.Name
	nick := c.nick()
	if strings.EqualFold(from, nick) {
		return domain.InboundMessage{}, false
	}

	body := e.Last()
	if e.IsAction() {
		body = e.StripAction()
	}

	msg := domain.InboundMessage{
		ID:        uuid.NewString(),
		ChannelID: c.ID(),
		From:      from,
		Timestamp: time.Now(),
	}

	if e.IsFromChannel() {
		question, ok := addressed(body, nick)
		if !ok {
			return domain.InboundMessage{}, false
		}
		msg.ChatID = e.Params[0]
		msg.ChatType = domain.ChatTypeGroup
		msg.Body = question
	} else {
		msg.ChatID = from
		msg.ChatType = domain.ChatTypeDM
		msg.Body = strings.TrimSpace(body)
	}

	if c.cfg.Owner != "" && !strings.EqualFold(from, c.cfg.Owner) {
		c.log.Debug().Str("nick", from).Str("owner", c.cfg.Owner).Msg("ignoring message from non-owner")
		return domain.InboundMessage{}, false
	}
	if c.cfg.OpOnly && msg.ChatType == domain.ChatTypeGroup && !c.isChannelOp(from, msg.ChatID) {
		c.log.Debug().Str("nick", from).Str("channel", msg.ChatID).Msg("ignoring message from non-operator")
		return domain.InboundMessage{}, false
	}
	if msg.Body == "" {
		return domain.InboundMessage{}, false
	}
	return msg, true
}

// isChannelOp reports whether nick has operator or higher in channel.
func (c *Channel) isChannelOp(nick, channel string) bool {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()
	if client == nil {
		return false
	}
	user := client.LookupUser(nick)
	if user == nil {
		return false
	}
	perms, ok := user.Perms.Lookup(channel)
	return ok && perms.IsAdmin()
}

// addressed reports whether body mentions nick. A leading "nick:" or
// "nick," is stripped from the returned question; a mention elsewhere
// leaves the text as is.
func addressed(body, nick string) (string, bool) {
	if nick == "" {
		return "", false
	}
	lower, lnick := strings.ToLower(body), strings.ToLower(nick)
	if !strings.Contains(lower, lnick) {
		return "", false
	}
	trimmed := strings.TrimLeftFunc(body, unicode.IsSpace)
	if strings.HasPrefix(strings.ToLower(trimmed), lnick) {
		rest := trimmed[len(nick):]
		if r, _ := utf8.DecodeRuneInString(rest); r == ':' || r == ',' {
			return strings.TrimSpace(rest[1:]), true
		}
	}
	return strings.TrimSpace(body), true
}

// splitMessage breaks text into PRIVMSG-sized lines. Each input line is a
// separate output line, blank lines are dropped, and lines longer than
// maxLen bytes are cut at the last space before the limit, or at a rune
// boundary when there is none.
func splitMessage(text string, maxLen int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r \t")
		for len(line) > maxLen {
			cut := strings.LastIndexByte(line[:maxLen+1], ' ')
			if cut <= 0 {
				cut = maxLen
				for cut > 0 && !utf8.RuneStart(line[cut]) {
					cut--
				}
				if cut == 0 {
					cut = maxLen
				}
			}
			out = append(out, strings.TrimRight(line[:cut], " "))
			line = strings.TrimLeft(line[cut:], " ")
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
