package termio

import "testing"

func TestNewCell(t *testing.T) {
	cell := NewCell()

	if cell.Char != ' ' {
		t.Errorf("expected space character, got %q", cell.Char)
	}
	if cell.Fg != nil || cell.Bg != nil {
		t.Error("expected default colors to be nil")
	}
	if cell.Flags != 0 {
		t.Errorf("expected no flags, got %b", cell.Flags)
	}
}

func TestCellFlags(t *testing.T) {
	cell := NewCell()

	cell.SetFlag(CellFlagBold)
	cell.SetFlag(CellFlagUnderline)

	if !cell.HasFlag(CellFlagBold) {
		t.Error("expected bold flag to be set")
	}
	if !cell.HasFlag(CellFlagUnderline) {
		t.Error("expected underline flag to be set")
	}
	if cell.HasFlag(CellFlagItalic) {
		t.Error("expected italic flag to be clear")
	}

	cell.ClearFlag(CellFlagBold)
	if cell.HasFlag(CellFlagBold) {
		t.Error("expected bold flag to be cleared")
	}
	if !cell.HasFlag(CellFlagUnderline) {
		t.Error("clearing bold should not affect underline")
	}
}

func TestCellDirtyTracking(t *testing.T) {
	cell := NewCell()

	if cell.IsDirty() {
		t.Error("new cell should not be dirty")
	}

	cell.MarkDirty()
	if !cell.IsDirty() {
		t.Error("expected cell to be dirty")
	}

	cell.ClearDirty()
	if cell.IsDirty() {
		t.Error("expected dirty flag to be cleared")
	}
}

func TestCellReset(t *testing.T) {
	cell := NewCell()
	cell.Char = 'x'
	cell.Fg = AnsiPalette[1]
	cell.SetFlag(CellFlagBold | CellFlagWideChar)

	cell.Reset()

	if cell.Char != ' ' {
		t.Errorf("expected space after reset, got %q", cell.Char)
	}
	if cell.Fg != nil {
		t.Error("expected nil foreground after reset")
	}
	if cell.Flags != 0 {
		t.Errorf("expected no flags after reset, got %b", cell.Flags)
	}
}

func TestCellSameStyle(t *testing.T) {
	a := NewCell()
	b := NewCell()
	a.Char = 'a'
	b.Char = 'b'

	if !a.SameStyle(&b) {
		t.Error("cells with default style should match regardless of character")
	}

	// Bookkeeping flags are not style.
	b.MarkDirty()
	b.SetFlag(CellFlagWideChar)
	if !a.SameStyle(&b) {
		t.Error("dirty and wide flags should not affect style comparison")
	}

	b.SetFlag(CellFlagBold)
	if a.SameStyle(&b) {
		t.Error("bold flag should break style equality")
	}

	b.ClearFlag(CellFlagBold)
	b.Fg = AnsiPalette[2]
	if a.SameStyle(&b) {
		t.Error("foreground color should break style equality")
	}
}
