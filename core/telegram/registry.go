package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/stockbot/core/logger"
	"github.com/m3rciful/stockbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds bot commands and callbacks.
type Registry struct {
	commands         map[string]commands.Command
	aliases          map[string]string
	callbacks        map[string]tele.HandlerFunc
	callbacksMu      sync.RWMutex
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry with default fallbacks.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			_ = c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
			return nil
		},
	}
}

// RegisterCommand adds a new command. Aliases are matched verbatim, which lets
// reply-keyboard labels route to the command; an alias may belong to one command only.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	reason := ""
	switch {
	case r == nil || name == "" || cmd.Handler == nil || cmd.Description == "":
		reason = "invalid"
	case name[0] != '/':
		reason = "no_slash_prefix"
	}
	if reason != "" {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", reason),
		)
		return fmt.Errorf("invalid command registration %q: %s", name, reason)
	}
	if _, exists := r.commands[name]; exists || r.aliases[name] != "" {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.duplicate",
			slog.String("name", name),
		)
		return fmt.Errorf("command already registered: %s", name)
	}
	for _, alias := range cmd.Aliases {
		if owner, taken := r.aliases[alias]; taken || r.commands[alias].Handler != nil {
			logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.duplicate",
				slog.String("name", name),
				slog.String("alias", alias),
				slog.String("owner", owner),
			)
			return fmt.Errorf("alias %q of %s already registered", alias, name)
		}
	}
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = name
	}
	return nil
}

// Menu lists, sorted by name, the commands a user with the given role sees.
func (r *Registry) Menu(admin bool) []tele.Command {
	var list []tele.Command
	for name, cmd := range r.commands {
		if cmd.Visible(admin) {
			list = append(list, cmd.Entry(name))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves a command by name, with or without the slash, or by alias.
// It returns the canonical key with metadata if found.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	if key, ok := r.aliases[name]; ok {
		return key, r.commands[key], true
	}
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	return "", commands.Command{}, false
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// RegisterCallback adds a callback handler mapped to its key.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if r == nil || key == "" || handler == nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.callback.skip",
			slog.String("key", key),
			slog.Bool("handler_nil", handler == nil),
		)
		return errors.New("invalid callback registration")
	}
	r.callbacksMu.Lock()
	defer r.callbacksMu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.callback.duplicate",
			slog.String("key", key),
		)
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback safely returns handler by key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns sorted keys (for diagnostics).
func (r *Registry) ListCallbacks() []string {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetCallbackNotFound replaces the fallback handler for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// SetTextFallback sets a global fallback handler for unknown text messages.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// MenuPublisher is the part of the bot API used to publish command menus.
type MenuPublisher interface {
	SetCommands(opts ...any) error
}

// MenuReport summarizes a PublishMenu call.
type MenuReport struct {
	Public int
	Admin  int
	// Scopes counts admin chats that received the admin menu.
	Scopes int
	Failed int
}

// PublishMenu sets the default menu to the public commands and, for each
// allow-listed admin, a chat-scoped menu that adds the admin commands.
// A private chat id equals the user id. Failures are logged and counted.
func PublishMenu(api MenuPublisher, reg *Registry, adminIDs []int64) MenuReport {
	public, admin := reg.Menu(false), reg.Menu(true)
	rep := MenuReport{Public: len(public), Admin: len(admin)}
	if err := api.SetCommands(public); err != nil {
		rep.Failed++
		logMenuFailure(err, 0)
	}
	for _, id := range adminIDs {
		if err := api.SetCommands(admin, tele.CommandScope{Type: tele.CommandScopeChat, ChatID: id}); err != nil {
			rep.Failed++
			logMenuFailure(err, id)
			continue
		}
		rep.Scopes++
	}
	return rep
}

func logMenuFailure(err error, chatID int64) {
	attrs := []slog.Attr{slog.String("err", err.Error())}
	if chatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", chatID))
	}
	logger.TWire.LogAttrs(context.Background(), slog.LevelError, "menu.publish_failed", attrs...)
}
