package control

// MenuItem is one selectable entry on the panel menu.
type MenuItem int

const (
	MenuLight MenuItem = iota
	MenuFan
)

var menuNames = [...]string{"light", "fan"}

func (i MenuItem) String() string {
	if i < 0 || int(i) >= len(menuNames) {
		return "unknown"
	}
	return menuNames[i]
}

// Menu tracks the selected entry. The selection stops at either end
// instead of wrapping.
type Menu struct {
	index int
}

// Left moves the selection one entry towards the start.
// It reports whether the selection changed.
func (m *Menu) Left() bool {
	if m.index == 0 {
		return false
	}
	m.index--
	return true
}

// Right moves the selection one entry towards the end.
// It reports whether the selection changed.
func (m *Menu) Right() bool {
	if m.index == len(menuNames)-1 {
		return false
	}
	m.index++
	return true
}

// Index returns the zero-based selection.
func (m *Menu) Index() int {
	return m.index
}

// Selected returns the selected entry.
func (m *Menu) Selected() MenuItem {
	return MenuItem(m.index)
}
