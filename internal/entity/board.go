package entity

import "encoding/json"

const (
	MarkX Mark = "X"
	MarkO Mark = "O"

	// MarkTie is returned by Evaluate when the board is full with no winner.
	MarkTie Mark = "-"

	EmptyCell Mark = ""
)

// WinCombos - the 8 winning lines, checked in this order.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Mark is a player's symbol. An empty Mark is an empty cell.
type Mark string

// MarshalJSON - renders an empty cell as null, matching the wire contract.
func (that Mark) MarshalJSON() ([]byte, error) {
	if that == EmptyCell {
		return []byte("null"), nil
	}

	return json.Marshal(string(that))
}

func (that *Mark) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*that = EmptyCell
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	*that = Mark(s)

	return nil
}

// Other - returns the opposing mark.
func (that Mark) Other() Mark {
	if that == MarkX {
		return MarkO
	}

	return MarkX
}

// Board is the 3x3 grid in row-major order.
type Board [9]Mark

// Evaluate - determines the board result: the winning mark, MarkTie when the
// board is full with no winner, or EmptyCell while the game can continue.
// It has no side effects and reports the first winning line found.
func (that Board) Evaluate() Mark {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	for _, cell := range that {
		if cell == EmptyCell {
			return EmptyCell
		}
	}

	return MarkTie
}

// IsEmpty - reports whether no cell has been played.
func (that Board) IsEmpty() bool {
	return that == Board{}
}
