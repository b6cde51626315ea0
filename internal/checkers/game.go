package checkers

// Game is one authoritative match: a board, whose turn it is, and the move
// history. It knows player slots only as opaque ids; identity data lives with
// the owning room.
type Game struct {
	RedID   string
	BlackID string

	Board   *Board
	Turn    Color
	History []Move
	Over    bool
	Winner  Color // set iff Over

	mandatoryCapture bool
}

// Option configures a new game.
type Option func(*Game)

// WithMandatoryCapture makes Validate reject a simple step while the acting
// color has any capture available. Off by default: the base ruleset lets a
// player decline captures.
func WithMandatoryCapture() Option {
	return func(g *Game) { g.mandatoryCapture = true }
}

// NewGame starts a match with red to move.
func NewGame(redID, blackID string, opts ...Option) *Game {
	g := &Game{
		RedID:   redID,
		BlackID: blackID,
		Board:   NewBoard(),
		Turn:    Red,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ColorOf maps a player id to its side; ok is false for strangers.
func (g *Game) ColorOf(playerID string) (Color, bool) {
	switch playerID {
	case g.RedID:
		return Red, true
	case g.BlackID:
		return Black, true
	}
	return "", false
}

// forwardRowStep is the row delta a man of this color is forced to move in:
// red advances toward row 0, black toward row 7.
func forwardRowStep(c Color) int {
	if c == Red {
		return -1
	}
	return 1
}

func backRank(c Color) int {
	if c == Red {
		return 0
	}
	return Size - 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Validate reports whether moving the piece on from to to is legal for color.
// It does not consult whose turn it is; turn order is enforced by the caller.
func (g *Game) Validate(from, to Pos, color Color) error {
	if g.Over {
		return ErrGameOver
	}
	if !from.onBoard() || !to.onBoard() {
		return ErrOffBoard
	}
	piece := g.Board.At(from)
	if piece == nil {
		return ErrNoPiece
	}
	if piece.Color != color {
		return ErrNotYours
	}
	if g.Board.At(to) != nil {
		return ErrOccupied
	}

	rowDiff := to.Row - from.Row
	colDiff := to.Col - from.Col

	switch {
	case abs(rowDiff) == 1 && abs(colDiff) == 1:
		if g.mandatoryCapture && g.hasCapture(color) {
			return ErrCaptureForced
		}
		if !piece.King && rowDiff != forwardRowStep(color) {
			return ErrWrongDirection
		}
		return nil

	case abs(rowDiff) == 2 && abs(colDiff) == 2:
		mid := Pos{Row: from.Row + rowDiff/2, Col: from.Col + colDiff/2}
		jumped := g.Board.At(mid)
		if jumped == nil || jumped.Color == color {
			return ErrNothingToJump
		}
		if !piece.King && rowDiff != 2*forwardRowStep(color) {
			return ErrWrongDirection
		}
		return nil
	}

	return ErrBadShape
}

// hasCapture reports whether any piece of color has a legal jump.
func (g *Game) hasCapture(color Color) bool {
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			piece := g.Board[row][col]
			if piece == nil || piece.Color != color {
				continue
			}
			for _, dr := range []int{-2, 2} {
				if !piece.King && dr != 2*forwardRowStep(color) {
					continue
				}
				for _, dc := range []int{-2, 2} {
					to := Pos{Row: row + dr, Col: col + dc}
					if !to.onBoard() || g.Board.At(to) != nil {
						continue
					}
					jumped := g.Board.At(Pos{Row: row + dr/2, Col: col + dc/2})
					if jumped != nil && jumped.Color != color {
						return true
					}
				}
			}
		}
	}
	return false
}

// Move applies one move for color. On any validation failure the game state
// is untouched. On success it relocates the piece, removes a jumped piece,
// promotes on the opponent's back rank, appends to the history, flips the
// turn unconditionally and re-evaluates the end condition.
func (g *Game) Move(from, to Pos, color Color) (Move, error) {
	if err := g.Validate(from, to, color); err != nil {
		return Move{}, err
	}

	piece := g.Board[from.Row][from.Col]
	g.Board[to.Row][to.Col] = piece
	g.Board[from.Row][from.Col] = nil

	var captured *Piece
	if abs(to.Row-from.Row) == 2 {
		mid := Pos{Row: from.Row + (to.Row-from.Row)/2, Col: from.Col + (to.Col-from.Col)/2}
		captured = g.Board[mid.Row][mid.Col]
		g.Board[mid.Row][mid.Col] = nil
	}

	becameKing := false
	if !piece.King && to.Row == backRank(color) {
		piece.King = true
		becameKing = true
	}

	mv := Move{From: from, To: to, Player: color, Captured: captured, BecameKing: becameKing}
	g.History = append(g.History, mv)
	g.Turn = g.Turn.Other()
	g.checkEnd()
	return mv, nil
}

// checkEnd flags the game over once either side has no pieces left. A side
// with pieces but no legal moves keeps the turn; stalemate is not detected.
func (g *Game) checkEnd() {
	switch {
	case g.Board.Count(Red) == 0:
		g.Over = true
		g.Winner = Black
	case g.Board.Count(Black) == 0:
		g.Over = true
		g.Winner = Red
	}
}
