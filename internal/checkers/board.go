package checkers

// Size is the board edge length.
const Size = 8

// Board is the 8x8 grid. Pieces only ever occupy dark squares, i.e. squares
// where (row+col) is odd; NewBoard establishes that and legal moves preserve it.
type Board [Size][Size]*Piece

// NewBoard places black men on the dark squares of rows 0-2 and red men on
// the dark squares of rows 5-7.
func NewBoard() *Board {
	var b Board
	for row := 0; row < 3; row++ {
		for col := 0; col < Size; col++ {
			if (row+col)%2 == 1 {
				b[row][col] = &Piece{Color: Black}
			}
		}
	}
	for row := 5; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if (row+col)%2 == 1 {
				b[row][col] = &Piece{Color: Red}
			}
		}
	}
	return &b
}

// At returns the piece on p, or nil. Off-board positions are nil.
func (b *Board) At(p Pos) *Piece {
	if !p.onBoard() {
		return nil
	}
	return b[p.Row][p.Col]
}

// Count returns the number of remaining pieces of the given color.
func (b *Board) Count(c Color) int {
	n := 0
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if p := b[row][col]; p != nil && p.Color == c {
				n++
			}
		}
	}
	return n
}
