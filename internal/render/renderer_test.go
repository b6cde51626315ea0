package render

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/kapu/checkers-arena-go/internal/checkers"
)

func TestRenderInitialPosition(t *testing.T) {
	r := NewSVGBoardRenderer()
	data, err := r.RenderPNG(context.Background(), *checkers.NewBoard(), Options{})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 72*8+28*2 || b.Dy() != 72*8+28*2 {
		t.Fatalf("unexpected image size %dx%d", b.Dx(), b.Dy())
	}
}

func TestPiecesChangeOutput(t *testing.T) {
	r := NewSVGBoardRenderer()
	ctx := context.Background()

	empty, err := r.RenderPNG(ctx, checkers.Board{}, Options{})
	if err != nil {
		t.Fatalf("render empty: %v", err)
	}

	var board checkers.Board
	board[3][4] = &checkers.Piece{Color: checkers.Red, King: true}
	withPiece, err := r.RenderPNG(ctx, board, Options{})
	if err != nil {
		t.Fatalf("render piece: %v", err)
	}

	if bytes.Equal(empty, withPiece) {
		t.Fatal("placing a piece did not change the rendered image")
	}
}

func TestHighlightChangesOutput(t *testing.T) {
	r := NewSVGBoardRenderer()
	ctx := context.Background()
	board := *checkers.NewBoard()

	plain, err := r.RenderPNG(ctx, board, Options{})
	if err != nil {
		t.Fatalf("render plain: %v", err)
	}
	marked, err := r.RenderPNG(ctx, board, Options{Highlight: &MoveHighlight{
		From: checkers.Pos{Row: 5, Col: 2},
		To:   checkers.Pos{Row: 4, Col: 1},
	}})
	if err != nil {
		t.Fatalf("render highlight: %v", err)
	}
	if bytes.Equal(plain, marked) {
		t.Fatal("highlight did not change the rendered image")
	}
}

func TestCancelledContext(t *testing.T) {
	r := NewSVGBoardRenderer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderPNG(ctx, checkers.Board{}, Options{}); err == nil {
		t.Fatal("expected context error")
	}
}
