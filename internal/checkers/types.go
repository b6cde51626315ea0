package checkers

// Color identifies a side.
type Color string

const (
	Red   Color = "red"
	Black Color = "black"
)

// Other returns the opposing side.
func (c Color) Other() Color {
	if c == Red {
		return Black
	}
	return Red
}

// Piece occupies one dark square. Color never changes; King flips false→true
// exactly once, on promotion.
type Piece struct {
	Color Color `json:"color"`
	King  bool  `json:"isKing"`
}

// Pos is a board coordinate, row 0 at black's back rank.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Pos) onBoard() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

// Move records one accepted move.
type Move struct {
	From       Pos    `json:"from"`
	To         Pos    `json:"to"`
	Player     Color  `json:"player"`
	Captured   *Piece `json:"captured,omitempty"`
	BecameKing bool   `json:"becameKing"`
}

// Validation errors. All of them mean "illegal move" to the outside; the
// distinct values exist for tests and logging.
var (
	ErrOffBoard       = errf("square off the board")
	ErrNoPiece        = errf("no piece on source square")
	ErrNotYours       = errf("piece belongs to the opponent")
	ErrOccupied       = errf("destination square occupied")
	ErrBadShape       = errf("move is not a diagonal step or jump")
	ErrWrongDirection = errf("men may only move forward")
	ErrNothingToJump  = errf("no opposing piece to jump")
	ErrCaptureForced  = errf("a capture is available and must be taken")
	ErrGameOver       = errf("game is already over")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
