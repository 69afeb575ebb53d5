// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Disabled bool
	Callback func()
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu. Titles and enabled state may be
// changed from any goroutine, before or after the menu is built.
type Tray struct {
	mu      sync.Mutex
	items   []*MenuItem
	tooltip string
	onReady func()
	onExit  func()
	readyCh chan struct{}
	quitCh  chan struct{}
}

// New creates a new system tray
func New(tooltip string) *Tray {
	t := &Tray{
		items:   make([]*MenuItem, 0),
		tooltip: tooltip,
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}

	t.onReady = func() {
		systray.SetTitle("Macro")
		systray.SetIcon(getIcon())
		t.mu.Lock()
		systray.SetTooltip(t.tooltip)
		t.mu.Unlock()
		close(t.readyCh)
	}

	t.onExit = func() {
		close(t.quitCh)
	}

	return t
}

// AddMenuItem adds a menu item to the tray. Items must be added before Run.
func (t *Tray) AddMenuItem(title string, callback func()) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := len(t.items)
	menuItem := &MenuItem{
		ID:       id,
		Title:    title,
		Callback: callback,
	}
	t.items = append(t.items, menuItem)
	return id
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, nil) // nil indicates separator
}

// SetItemTitle relabels a menu item
func (t *Tray) SetItemTitle(id int, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	mi := t.lookup(id)
	if mi == nil {
		return
	}
	mi.Title = title
	if mi.item != nil {
		mi.item.SetTitle(title)
	}
}

// SetItemEnabled enables or greys out a menu item
func (t *Tray) SetItemEnabled(id int, enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	mi := t.lookup(id)
	if mi == nil {
		return
	}
	mi.Disabled = !enabled
	if mi.item != nil {
		if enabled {
			mi.item.Enable()
		} else {
			mi.item.Disable()
		}
	}
}

// SetTooltip changes the icon tooltip
func (t *Tray) SetTooltip(tooltip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tooltip = tooltip
	select {
	case <-t.readyCh:
		systray.SetTooltip(tooltip)
	default:
	}
}

// Item returns a copy of a menu item's current title and state
func (t *Tray) Item(id int) (MenuItem, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	mi := t.lookup(id)
	if mi == nil {
		return MenuItem{}, false
	}
	return MenuItem{ID: mi.ID, Title: mi.Title, Disabled: mi.Disabled}, true
}

func (t *Tray) lookup(id int) *MenuItem {
	if id < 0 || id >= len(t.items) {
		return nil
	}
	return t.items[id]
}

// Run starts the tray event loop (blocks)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.onExit)
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	t.onReady()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Create menu items with whatever state was set before ready
	for _, menuItem := range t.items {
		if menuItem == nil {
			// Separator
			systray.AddSeparator()
			continue
		}

		item := systray.AddMenuItem(menuItem.Title, "")
		if menuItem.Disabled {
			item.Disable()
		}
		menuItem.item = item

		// Handle clicks in goroutine
		if menuItem.Callback != nil {
			go func(mi *MenuItem, clicked chan struct{}) {
				for {
					select {
					case <-clicked:
						mi.Callback()
					case <-t.quitCh:
						return
					}
				}
			}(menuItem, item.ClickedCh)
		}
	}
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

// getIcon returns a 16x16 32-bit ICO with a filled red dot
func getIcon() []byte {
	const (
		size      = 16
		pixelSize = size * size * 4
		maskSize  = size * 4 // 1bpp rows padded to 32 bits
		dataSize  = 40 + pixelSize + maskSize
	)

	icon := make([]byte, 22+dataSize)
	// ICO Header
	copy(icon[0:6], []byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00})
	// Icon Directory
	copy(icon[6:22], []byte{
		size, size, 0x00, 0x00, 0x01, 0x00, 0x20, 0x00,
		byte(dataSize & 0xff), byte(dataSize >> 8), 0x00, 0x00,
		0x16, 0x00, 0x00, 0x00, // Offset
	})
	// DIB Header
	copy(icon[22:62], []byte{
		0x28, 0x00, 0x00, 0x00, // Size
		size, 0x00, 0x00, 0x00, // Width
		size * 2, 0x00, 0x00, 0x00, // Height (doubled for the mask)
		0x01, 0x00, // Planes
		0x20, 0x00, // BPP
		0x00, 0x00, 0x00, 0x00, // Compression
		byte(pixelSize & 0xff), byte(pixelSize >> 8), 0x00, 0x00, // Image Size
	})

	// BGRA pixels, bottom-up; the mask stays zero so alpha decides visibility
	pixels := icon[62 : 62+pixelSize]
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := 2*x-size+1, 2*y-size+1
			if dx*dx+dy*dy > (size-2)*(size-2) {
				continue
			}
			off := (y*size + x) * 4
			pixels[off+0] = 0x30
			pixels[off+1] = 0x30
			pixels[off+2] = 0xd0
			pixels[off+3] = 0xff
		}
	}
	return icon
}
