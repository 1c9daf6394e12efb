package view

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

var namedKeys = map[tcell.Key]string{
	tcell.KeyEnter:      "CR",
	tcell.KeyTab:        "Tab",
	tcell.KeyEscape:     "Esc",
	tcell.KeyBackspace:  "BS",
	tcell.KeyBackspace2: "BS",
	tcell.KeyDelete:     "Del",
	tcell.KeyInsert:     "Insert",
	tcell.KeyHome:       "Home",
	tcell.KeyEnd:        "End",
	tcell.KeyPgUp:       "PageUp",
	tcell.KeyPgDn:       "PageDown",
	tcell.KeyUp:         "Up",
	tcell.KeyDown:       "Down",
	tcell.KeyLeft:       "Left",
	tcell.KeyRight:      "Right",
	tcell.KeyF1:         "F1",
	tcell.KeyF2:         "F2",
	tcell.KeyF3:         "F3",
	tcell.KeyF4:         "F4",
	tcell.KeyF5:         "F5",
	tcell.KeyF6:         "F6",
	tcell.KeyF7:         "F7",
	tcell.KeyF8:         "F8",
	tcell.KeyF9:         "F9",
	tcell.KeyF10:        "F10",
	tcell.KeyF11:        "F11",
	tcell.KeyF12:        "F12",
}

// IsQuit reports whether ev is the viewer's quit key, Ctrl-Q.
func IsQuit(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlQ {
		return true
	}
	return ev.Key() == tcell.KeyRune && ev.Modifiers()&tcell.ModCtrl != 0 &&
		(ev.Rune() == 'q' || ev.Rune() == 'Q')
}

// Keys converts a terminal key event into editor key notation, such as
// "<Esc>" or "<C-w>". It returns "" for keys with no mapping.
func Keys(ev *tcell.EventKey) string {
	mod := ev.Modifiers()

	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		switch {
		case mod&tcell.ModCtrl != 0:
			return fmt.Sprintf("<C-%c>", r)
		case mod&tcell.ModAlt != 0:
			return fmt.Sprintf("<M-%s>", runeName(r))
		case r == '<':
			return "<lt>"
		default:
			return string(r)
		}
	}

	if ev.Key() == tcell.KeyBacktab {
		return "<S-Tab>"
	}
	if name, ok := namedKeys[ev.Key()]; ok {
		return "<" + modPrefix(mod) + name + ">"
	}

	if k := ev.Key(); k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return fmt.Sprintf("<C-%c>", 'a'+rune(k-tcell.KeyCtrlA))
	}
	return ""
}

func runeName(r rune) string {
	if r == '<' {
		return "lt"
	}
	return string(r)
}

func modPrefix(mod tcell.ModMask) string {
	var p string
	if mod&tcell.ModCtrl != 0 {
		p += "C-"
	}
	if mod&tcell.ModAlt != 0 {
		p += "M-"
	}
	if mod&tcell.ModShift != 0 {
		p += "S-"
	}
	return p
}
