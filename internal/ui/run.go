package ui

import (
	"context"
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/oakwood-commons/jlens/internal/session"
	"github.com/oakwood-commons/jlens/pkg/logger"
)

// Run starts the viewer and blocks until the user quits. A zero width or
// height is taken from the terminal.
func Run(ctx context.Context, sess *session.Session, opts Options, progOpts ...tea.ProgramOption) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			if opts.Width <= 0 {
				opts.Width = w
			}
			if opts.Height <= 0 {
				opts.Height = h
			}
		}
	}
	m := New(ctx, sess, opts)
	progOpts = append([]tea.ProgramOption{tea.WithContext(ctx)}, progOpts...)
	logger.FromContext(ctx).V(logger.LevelDebug).Info("starting viewer", logger.SessionKey, sess.ID(), "rows", len(sess.Descriptors()))
	_, err := tea.NewProgram(m, progOpts...).Run()
	return err
}
