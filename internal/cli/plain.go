// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/session"
)

const plainPrompt = "you> "

func newPlainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plain",
		Short: "Chat in line mode",
		Long: `Chat without the full-screen interface. Replies are printed as they
are revealed. Type /status, /upgrade or /quit at the prompt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r lineReader
			if IsTTY() {
				r = newLinerReader()
			} else {
				r = newScanReader(cmd.InOrStdin())
			}
			return a.runPlain(cmd, r)
		},
	}
}

// =============================================================================
// LINE READERS
// =============================================================================

// lineReader supplies prompts to the line-mode loop.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linerReader edits lines with history on a terminal.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &linerReader{line: line}
	if dir, err := config.ConfigDir(); err == nil {
		r.historyFile = filepath.Join(dir, "plain_history")
		if f, err := os.Open(r.historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (r *linerReader) Close() error {
	if r.historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
			if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
				_, _ = r.line.WriteHistory(f)
				f.Close()
			}
		}
	}
	return r.line.Close()
}

// scanReader reads piped input one line at a time. Prompts are not echoed.
type scanReader struct {
	scanner *bufio.Scanner
}

func newScanReader(in io.Reader) *scanReader {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &scanReader{scanner: s}
}

func (r *scanReader) Prompt(string) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scanReader) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

// runPlain drives the session controller synchronously. Each reveal tick
// prints only the characters added since the previous tick.
func (a *app) runPlain(cmd *cobra.Command, r lineReader) error {
	defer r.Close()
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ctrl, err := a.newController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := session.Pump(ctx, ctrl, ctrl.Init(), nil); err != nil {
		return err
	}
	if n := len(ctrl.Messages()); n > 0 {
		fmt.Fprintln(out, DimStyle.Render(fmt.Sprintf("Loaded %d messages from history.", n)))
	}
	fmt.Fprintln(out, DimStyle.Render(ctrl.GetStatus().QuotaLabel+"  /status /upgrade /quit"))

	for {
		input, err := r.Prompt(PromptStyle.Render(plainPrompt))
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := a.plainCommand(out, ctrl, input); quit {
				return nil
			}
			continue
		}

		if ctrl.Blocked() {
			fmt.Fprintln(out, WarningStyle.Render("[!] Free limit reached. Type /upgrade for unlimited messages."))
			continue
		}

		next := ctrl.Submit(input)
		if next == nil {
			continue
		}
		p := &revealPrinter{out: out, ctrl: ctrl}
		if err := session.Pump(ctx, ctrl, next, p.observe); err != nil {
			p.finish()
			return err
		}
		p.finish()
	}
}

// plainCommand handles a slash command and reports whether to quit.
func (a *app) plainCommand(out io.Writer, ctrl *session.Controller, input string) bool {
	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/quit", "/exit", "/q":
		return true
	case "/status":
		st := ctrl.GetStatus()
		fmt.Fprintln(out, formatField("Plan", st.Plan.String()))
		fmt.Fprintln(out, formatField("Quota", st.QuotaLabel))
		fmt.Fprintln(out, formatField("Messages", fmt.Sprint(st.MessageCount)))
	case "/upgrade":
		if err := ctrl.Upgrade(); err != nil {
			a.log.Warn("persist plan", zap.Error(err))
			fmt.Fprintln(out, WarningStyle.Render("[!] Upgraded for this session only: "+err.Error()))
			return false
		}
		fmt.Fprintln(out, SuccessStyle.Render("[OK] Upgraded to Premium. Unlimited messages."))
	default:
		fmt.Fprintln(out, WarningStyle.Render("[!] Unknown command "+input))
	}
	return false
}

// revealPrinter writes the growing suffix of assistant replies.
type revealPrinter struct {
	out     io.Writer
	ctrl    *session.Controller
	id      string
	printed int
}

func (p *revealPrinter) observe(tea.Msg) {
	msgs := p.ctrl.Messages()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role != model.RoleAssistant {
		return
	}
	if last.ID != p.id {
		p.finish()
		p.id = last.ID
		p.printed = 0
		fmt.Fprint(p.out, AssistantStyle.Render("parley> "))
	}
	runes := []rune(last.Content)
	if len(runes) > p.printed {
		fmt.Fprint(p.out, string(runes[p.printed:]))
		p.printed = len(runes)
	}
}

func (p *revealPrinter) finish() {
	if p.id != "" {
		fmt.Fprintln(p.out)
		p.id = ""
	}
}
