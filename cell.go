package termio

import "image/color"

// CellFlags is a bitmask of cell rendering attributes.
type CellFlags uint16

const (
	CellFlagBold CellFlags = 1 << iota
	CellFlagDim
	CellFlagItalic
	CellFlagUnderline
	CellFlagInverse
	CellFlagWideChar
	CellFlagWideCharSpacer
	CellFlagDirty
)

// styleFlags are the flags that affect how a cell is rendered, as opposed
// to the bookkeeping flags (wide char tracking, dirty tracking).
const styleFlags = CellFlagBold | CellFlagDim | CellFlagItalic | CellFlagUnderline | CellFlagInverse

// Cell stores the character, colors, and formatting attributes for one grid
// position. Colors are always concrete RGB values ([color.RGBA]); nil means
// "inherit the terminal default". Wide characters (2 columns) use a spacer
// cell with Char 0 in the second position, carrying the same attributes.
type Cell struct {
	Char  rune
	Fg    color.Color
	Bg    color.Color
	Flags CellFlags
}

// NewCell creates a cell initialized with a space character and default colors.
func NewCell() Cell {
	return Cell{Char: ' '}
}

// Reset clears all attributes and sets the cell to default state.
func (c *Cell) Reset() {
	c.Char = ' '
	c.Fg = nil
	c.Bg = nil
	c.Flags = 0
}

// HasFlag returns true if the specified flag is set.
func (c *Cell) HasFlag(flag CellFlags) bool {
	return c.Flags&flag != 0
}

// SetFlag enables the specified flag without affecting others.
func (c *Cell) SetFlag(flag CellFlags) {
	c.Flags |= flag
}

// ClearFlag disables the specified flag without affecting others.
func (c *Cell) ClearFlag(flag CellFlags) {
	c.Flags &^= flag
}

// IsDirty returns true if the cell was modified since the last flush.
func (c *Cell) IsDirty() bool {
	return c.HasFlag(CellFlagDirty)
}

// MarkDirty marks the cell as modified for dirty tracking.
func (c *Cell) MarkDirty() {
	c.SetFlag(CellFlagDirty)
}

// ClearDirty resets the dirty tracking flag.
func (c *Cell) ClearDirty() {
	c.ClearFlag(CellFlagDirty)
}

// IsWide returns true if this cell contains a wide character (CJK, emoji)
// that occupies 2 columns.
func (c *Cell) IsWide() bool {
	return c.HasFlag(CellFlagWideChar)
}

// IsWideSpacer returns true if this is the second cell of a wide character.
func (c *Cell) IsWideSpacer() bool {
	return c.HasFlag(CellFlagWideCharSpacer)
}

// SameStyle returns true if both cells render with identical colors and
// style attributes. Bookkeeping flags are ignored.
func (c *Cell) SameStyle(other *Cell) bool {
	return c.Fg == other.Fg &&
		c.Bg == other.Bg &&
		c.Flags&styleFlags == other.Flags&styleFlags
}
