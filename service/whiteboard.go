package service

import (
	"context"
	"io"

	"github.com/zlnvch/cocreate/canvas"
)

func (s *Service) Whiteboard(ctx context.Context, workspaceId string) (*canvas.Board, error) {
	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return nil, err
	}
	return w.Board, nil
}

// ExportWhiteboard writes the composited board as PNG and reports whether
// anything was written. An unmounted board writes nothing.
func (s *Service) ExportWhiteboard(ctx context.Context, workspaceId string, out io.Writer) (bool, error) {
	board, err := s.Whiteboard(ctx, workspaceId)
	if err != nil {
		return false, err
	}
	return board.ExportPNG(out)
}
