package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kapu/checkers-arena-go/internal/checkers"
)

// MoveHighlight marks the from and to squares of the most recent move.
type MoveHighlight struct {
	From checkers.Pos
	To   checkers.Pos
}

type Options struct {
	Highlight *MoveHighlight
}

// BoardRenderer produces a PNG view of a board position.
type BoardRenderer interface {
	RenderPNG(ctx context.Context, board checkers.Board, opts Options) ([]byte, error)
}

type svgBoardRenderer struct{}

func NewSVGBoardRenderer() BoardRenderer {
	return &svgBoardRenderer{}
}

var (
	lightSquare    = color.RGBA{233, 207, 163, 255}
	darkSquare     = color.RGBA{128, 94, 62, 255}
	highlightFill  = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	coordTextColor = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	marginFill     = color.RGBA{28, 31, 46, 255}
)

func (r *svgBoardRenderer) RenderPNG(ctx context.Context, board checkers.Board, opts Options) ([]byte, error) {
	const (
		squareSize = 72
		boardSize  = squareSize * checkers.Size
		margin     = 28
	)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	totalWidth := boardSize + margin*2
	totalHeight := boardSize + margin*2
	origin := image.Point{X: margin, Y: margin}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(marginFill), image.Point{}, imagedraw.Src)

	drawSquares(img, squareSize, origin)
	drawMoveHighlight(img, opts.Highlight, squareSize, origin)
	if err := drawPieces(img, board, squareSize, origin); err != nil {
		return nil, err
	}
	drawCoordinates(img, squareSize, origin, margin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point) {
	for row := 0; row < checkers.Size; row++ {
		for col := 0; col < checkers.Size; col++ {
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			clr := squareColor(row, col)
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawMoveHighlight(img *image.RGBA, highlight *MoveHighlight, squareSize int, origin image.Point) {
	if img == nil || highlight == nil {
		return
	}
	drawSquareOverlay(img, highlight.From, squareSize, origin, highlightFill)
	drawSquareOverlay(img, highlight.To, squareSize, origin, highlightFill)
}

func drawSquareOverlay(img *image.RGBA, pos checkers.Pos, squareSize int, origin image.Point, clr color.Color) {
	rect := squareRect(pos, squareSize, origin)
	imagedraw.Draw(img, rect, image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawPieces(dst imagedraw.Image, board checkers.Board, squareSize int, origin image.Point) error {
	for row := 0; row < checkers.Size; row++ {
		for col := 0; col < checkers.Size; col++ {
			piece := board[row][col]
			if piece == nil {
				continue
			}
			img, err := renderPieceImage(*piece, squareSize)
			if err != nil {
				return err
			}
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

// drawCoordinates labels rows down the left edge and columns along the bottom,
// using the wire coordinate system (row 0 at the top).
func drawCoordinates(dst imagedraw.Image, squareSize int, origin image.Point, margin int) {
	drawer := &font.Drawer{
		Dst:  dst,
		Face: basicfont.Face7x13,
		Src:  image.NewUniform(coordTextColor),
	}
	ascent := basicfont.Face7x13.Metrics().Ascent.Ceil()

	boardEndY := origin.Y + checkers.Size*squareSize
	for row := 0; row < checkers.Size; row++ {
		label := strconv.Itoa(row)
		baseline := origin.Y + row*squareSize + squareSize/2 + ascent/2
		drawCenteredText(drawer, label, origin.X-margin/2, baseline)
	}
	for col := 0; col < checkers.Size; col++ {
		label := strconv.Itoa(col)
		centerX := origin.X + col*squareSize + squareSize/2
		drawCenteredText(drawer, label, centerX, boardEndY+ascent+4)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func squareRect(pos checkers.Pos, squareSize int, origin image.Point) image.Rectangle {
	x := origin.X + pos.Col*squareSize
	y := origin.Y + pos.Row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func squareColor(row, col int) color.Color {
	if (row+col)%2 == 0 {
		return lightSquare
	}
	return darkSquare
}
