package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/paperdesk/internal/gateway"
	"github.com/csheth/paperdesk/internal/papers"
	"github.com/csheth/paperdesk/internal/session"
	"github.com/csheth/paperdesk/internal/workspace"
)

const importTimeout = 45 * time.Second

type importResultMsg struct {
	ref   string
	paper papers.Paper
	err   error
}

type improveResultMsg struct {
	editor *session.Editor
	mode   gateway.Mode
	notice session.Notice
	err    error
}

type chatResultMsg struct {
	reader *session.Reader
	result session.ChatResult
}

type reviewResultMsg struct {
	reader *session.Reader
	review gateway.ReviewResult
	err    error
}

type summaryResultMsg struct {
	reader  *session.Reader
	summary string
	err     error
}

func importJob(ctrl *workspace.Controller, ref string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, importTimeout)
		defer cancel()
		paper, err := ctrl.Import(ctx, ref)
		return importResultMsg{ref: ref, paper: paper, err: err}, err
	}
}

func improveJob(editor *session.Editor, mode gateway.Mode) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		notice, err := editor.Improve(ctx, mode)
		return improveResultMsg{editor: editor, mode: mode, notice: notice, err: err}, err
	}
}

// chatJob waits for a send that was already queued with SendAsync, so the
// user message is in the transcript before the job starts.
func chatJob(reader *session.Reader, pending <-chan session.ChatResult) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		select {
		case res := <-pending:
			return chatResultMsg{reader: reader, result: res}, res.Err
		case <-ctx.Done():
			return chatResultMsg{reader: reader, result: session.ChatResult{Err: ctx.Err()}}, ctx.Err()
		}
	}
}

func reviewJob(reader *session.Reader) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		review, err := reader.Review(ctx)
		return reviewResultMsg{reader: reader, review: review, err: err}, err
	}
}

func summaryJob(reader *session.Reader) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		summary, err := reader.Summary(ctx)
		return summaryResultMsg{reader: reader, summary: summary, err: err}, err
	}
}
