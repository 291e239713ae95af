// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/jeranaias/admitcon-tui/internal/auth"
	"github.com/jeranaias/admitcon-tui/internal/chat"
	"github.com/jeranaias/admitcon-tui/internal/history"
)

// =============================================================================
// HEADLESS NAVIGATOR
// =============================================================================

// Headless satisfies the Navigator contract for line mode, where there
// are no screens to switch. It only tracks the logical path so the
// managers' navigation rules still apply.
type Headless struct {
	mu   sync.Mutex
	path string
}

// NewHeadless starts at the home route.
func NewHeadless() *Headless {
	return &Headless{path: auth.RouteHome}
}

func (h *Headless) CurrentPath() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.path
}

func (h *Headless) Navigate(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.path = path
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-mode chat loop.
type REPL struct {
	prompt  *Prompt
	session *auth.Manager
	chat    *chat.Manager
	hist    *history.Store // nil when local history is disabled
	nav     *Headless
	out     io.Writer

	// conversation ids shown by the last /list, for /open by number
	listed []string
}

// NewREPL wires the line-mode interface. hist may be nil.
func NewREPL(session *auth.Manager, chatMgr *chat.Manager, hist *history.Store, nav *Headless, out io.Writer) *REPL {
	return &REPL{
		prompt:  NewPrompt(),
		session: session,
		chat:    chatMgr,
		hist:    hist,
		nav:     nav,
		out:     out,
	}
}

// Run drives the loop until the user quits or input is closed.
func (r *REPL) Run(ctx context.Context) error {
	defer r.prompt.Close()

	if err := r.ensureLogin(ctx); err != nil {
		return err
	}

	if id := r.chat.Resume(); id != "" {
		fmt.Fprintf(r.out, "resumed conversation %s (use /new to detach)\n", id)
		r.nav.Navigate(auth.RouteChatPrefix + id)
	}
	fmt.Fprintln(r.out, "type a message, or /help for commands")

	for {
		input, err := r.prompt.Read("> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out, "bye")
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := r.dispatch(ctx, input)
			if err != nil {
				fmt.Fprintf(r.out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		r.send(ctx, input)
	}
}

// ensureLogin prompts for credentials until a login succeeds.
func (r *REPL) ensureLogin(ctx context.Context) error {
	if r.session.Authenticated() {
		return nil
	}
	// Cookies on disk may carry a live session.
	if err := r.session.Verify(ctx); err == nil && r.session.Authenticated() {
		user := r.session.Session().User
		fmt.Fprintf(r.out, "welcome back, %s\n", user.Username)
		return nil
	}

	for {
		username, password, err := r.prompt.ReadCredentials()
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return fmt.Errorf("login aborted")
		}
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			continue
		}
		user, err := r.session.Login(ctx, username, password)
		if err != nil {
			fmt.Fprintf(r.out, "login failed: %v\n", err)
			continue
		}
		fmt.Fprintf(r.out, "logged in as %s (%s)\n", user.Username, user.Role)
		return nil
	}
}

func (r *REPL) send(ctx context.Context, message string) {
	res, err := r.chat.Send(ctx, message)
	if err != nil {
		fmt.Fprintf(r.out, "send failed: %v\n", err)
		return
	}
	if id := r.chat.CurrentID(); id != "" {
		r.nav.Navigate(auth.RouteChatPrefix + id)
	}
	fmt.Fprintf(r.out, "\n%s\n\n", res.BotMessage)
}

// =============================================================================
// COMMANDS
// =============================================================================

// parseCommand splits "/cmd rest of line" into its name and argument.
func parseCommand(input string) (name, arg string) {
	input = strings.TrimPrefix(input, "/")
	name, arg, _ = strings.Cut(input, " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

func (r *REPL) dispatch(ctx context.Context, input string) (quit bool, err error) {
	name, arg := parseCommand(input)

	switch name {
	case "help", "h", "?":
		r.printHelp()
	case "list", "ls":
		return false, r.cmdList(ctx)
	case "open":
		return false, r.cmdOpen(arg)
	case "new":
		r.chat.StartNew()
		r.listed = nil
		fmt.Fprintln(r.out, "starting fresh; the next message opens a new conversation")
	case "rename":
		return false, r.cmdRename(ctx, arg)
	case "delete", "rm":
		return false, r.cmdDelete(ctx, arg)
	case "search":
		return false, r.cmdSearch(ctx, arg)
	case "whoami":
		r.cmdWhoami()
	case "logout":
		r.chat.Reset()
		r.session.Logout()
		r.listed = nil
		fmt.Fprintln(r.out, "logged out")
		return false, r.ensureLogin(ctx)
	case "quit", "exit", "q":
		fmt.Fprintln(r.out, "bye")
		return true, nil
	default:
		return false, fmt.Errorf("unknown command /%s (try /help)", name)
	}
	return false, nil
}

func (r *REPL) printHelp() {
	fmt.Fprint(r.out, `commands:
  /list               list conversations
  /open <n|id>        switch to a conversation from /list
  /new                detach; next message starts a new conversation
  /rename <title>     rename the current conversation
  /delete [n|id]      delete a conversation (current when omitted)
  /search <term>      search local message history
  /whoami             show the signed-in user
  /logout             end the session
  /quit               exit
`)
}

func (r *REPL) cmdList(ctx context.Context) error {
	convs, err := r.chat.Conversations(ctx)
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		fmt.Fprintln(r.out, "no conversations yet")
		r.listed = nil
		return nil
	}

	current := r.chat.CurrentID()
	r.listed = r.listed[:0]
	for i, c := range convs {
		marker := " "
		if c.ID == current {
			marker = "*"
		}
		title := c.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(r.out, "%s %2d. %s  %s\n", marker, i+1, title, c.UpdatedAt.Format("2006-01-02 15:04"))
		r.listed = append(r.listed, c.ID)
	}
	return nil
}

// resolveID maps a /list ordinal or a raw id to a conversation id.
func (r *REPL) resolveID(arg string) (string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(r.listed) {
			return "", fmt.Errorf("no entry %d; run /list first", n)
		}
		return r.listed[n-1], nil
	}
	return arg, nil
}

func (r *REPL) cmdOpen(arg string) error {
	if arg == "" {
		return fmt.Errorf("usage: /open <n|id>")
	}
	id, err := r.resolveID(arg)
	if err != nil {
		return err
	}
	r.chat.Open(id)
	fmt.Fprintf(r.out, "switched to %s\n", id)
	return nil
}

func (r *REPL) cmdRename(ctx context.Context, title string) error {
	if title == "" {
		return fmt.Errorf("usage: /rename <title>")
	}
	id := r.chat.CurrentID()
	if id == "" {
		return fmt.Errorf("no conversation selected")
	}
	if err := r.chat.Rename(ctx, id, title); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "renamed")
	return nil
}

func (r *REPL) cmdDelete(ctx context.Context, arg string) error {
	id := r.chat.CurrentID()
	if arg != "" {
		resolved, err := r.resolveID(arg)
		if err != nil {
			return err
		}
		id = resolved
	}
	if id == "" {
		return fmt.Errorf("no conversation selected")
	}
	if err := r.chat.Delete(ctx, id); err != nil {
		return err
	}
	if r.hist != nil {
		if err := r.hist.Forget(id); err != nil {
			fmt.Fprintf(r.out, "warning: local history not pruned: %v\n", err)
		}
	}
	r.listed = nil
	fmt.Fprintf(r.out, "deleted %s\n", id)
	return nil
}

func (r *REPL) cmdSearch(ctx context.Context, term string) error {
	if r.hist == nil {
		return fmt.Errorf("local history is disabled")
	}
	if term == "" {
		return fmt.Errorf("usage: /search <term>")
	}
	results, err := r.hist.Search(ctx, term, 20)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(r.out, "no matches")
		return nil
	}
	for _, res := range results {
		title := res.Title
		if title == "" {
			title = res.ConversationID
		}
		fmt.Fprintf(r.out, "[%s] %s: %s\n", title, res.Message.Sender, snippet(res.Message.Content, 80))
	}
	return nil
}

func (r *REPL) cmdWhoami() {
	sess := r.session.Session()
	if !sess.Authenticated || sess.User == nil {
		fmt.Fprintln(r.out, "not signed in")
		return
	}
	fmt.Fprintf(r.out, "%s <%s> role=%s\n", sess.User.Username, sess.User.Email, sess.User.Role)
}

// snippet truncates on a rune boundary for display.
func snippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
