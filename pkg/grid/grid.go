// Package grid maps linear cell indexes to column/row coordinates and
// renders terminal cells.
package grid

// GetGridCoords returns the column and row of index in a grid cols wide.
func GetGridCoords(index, cols int) (int, int) {
	return index % cols, index / cols
}

// HalfBlock returns the character that shows two vertically stacked
// pixels in one terminal cell.
func HalfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	}
	return ' '
}
