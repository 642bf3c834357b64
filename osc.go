package decterm

import (
	"encoding/base64"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// oscDispatch routes a completed operating system command. The terminator
// (BEL or ST) is remembered only to mirror it in query replies; it never
// changes the effect of the command.
func (t *Terminal) oscDispatch(payload []byte, bel bool) {
	if t.hooks.Osc != nil {
		t.hooks.Osc(payload, bel, t.oscPerform)
		return
	}
	t.oscPerform(payload, bel)
}

func (t *Terminal) oscPerform(payload []byte, bel bool) {
	s := string(payload)
	cmd := s
	arg := ""
	if i := strings.IndexByte(s, ';'); i >= 0 {
		cmd, arg = s[:i], s[i+1:]
	}

	n, err := strconv.Atoi(cmd)
	if err != nil {
		return
	}

	terminator := "\x1b\\"
	if bel {
		terminator = "\a"
	}

	switch n {
	case 0: // icon name and window title
		t.iconTitle = arg
		t.title = arg
		t.titleProvider.SetIconTitle(arg)
		t.titleProvider.SetTitle(arg)
	case 1: // icon name
		t.iconTitle = arg
		t.titleProvider.SetIconTitle(arg)
	case 2: // window title
		t.title = arg
		t.titleProvider.SetTitle(arg)
	case 4: // change/query indexed palette color: 4;index;spec[;index;spec...]
		t.oscPalette(arg, terminator)
	case 5: // special colors map past the palette
		t.oscSpecialColor(arg, terminator)
	case 10, 11, 12, 13, 14, 17, 19: // dynamic colors
		t.oscDynamicColor(n, arg, terminator)
	case 52: // clipboard
		t.oscClipboard(arg, terminator)
	case 104: // reset indexed palette colors
		if arg == "" {
			for i := 0; i < 256; i++ {
				delete(t.colors, i)
			}
			t.schedRepaint()
			return
		}
		for _, f := range strings.Split(arg, ";") {
			if idx, err := strconv.Atoi(f); err == nil && idx >= 0 && idx < 256 {
				delete(t.colors, idx)
			}
		}
		t.schedRepaint()
	case 105: // reset special colors
		for _, f := range strings.Split(arg, ";") {
			if idx, err := strconv.Atoi(f); err == nil && idx >= 0 {
				delete(t.colors, 256+idx)
			}
		}
		t.schedRepaint()
	case 110, 111, 112, 113, 114, 117, 119: // reset dynamic colors
		if name, ok := dynamicColorName(n - 100); ok {
			delete(t.colors, name)
			t.schedRepaint()
		}
	}
}

// schedRepaint defers the whole-screen invalidation a palette change causes
// until the parser returns to ground, so a burst of OSC color updates paints
// once.
func (t *Terminal) schedRepaint() {
	t.repaintPending = true
}

// oscPalette handles OSC 4: repeated index;spec pairs. A spec of "?" queries
// the current value instead.
func (t *Terminal) oscPalette(arg, terminator string) {
	fields := strings.Split(arg, ";")
	for i := 0; i+1 < len(fields); i += 2 {
		idx, err := strconv.Atoi(fields[i])
		if err != nil || idx < 0 || idx > 255 {
			continue
		}
		spec := fields[i+1]
		if spec == "?" {
			rgba := ResolveColor(&IndexedColor{Index: idx}, t.colors, true)
			t.reply(fmt.Sprintf("\x1b]4;%d;rgb:%02x%02x/%02x%02x/%02x%02x%s",
				idx, rgba.R, rgba.R, rgba.G, rgba.G, rgba.B, rgba.B, terminator))
			continue
		}
		if rgba, ok := parseXColor(spec); ok {
			t.colors[idx] = rgba
			t.schedRepaint()
		}
	}
}

// oscSpecialColor handles OSC 5: like OSC 4 with indices offset past the
// 256-color palette.
func (t *Terminal) oscSpecialColor(arg, terminator string) {
	fields := strings.Split(arg, ";")
	for i := 0; i+1 < len(fields); i += 2 {
		idx, err := strconv.Atoi(fields[i])
		if err != nil || idx < 0 {
			continue
		}
		spec := fields[i+1]
		if spec == "?" {
			rgba := ResolveColor(&NamedColor{Name: 256 + idx}, t.colors, true)
			t.reply(fmt.Sprintf("\x1b]5;%d;rgb:%02x%02x/%02x%02x/%02x%02x%s",
				idx, rgba.R, rgba.R, rgba.G, rgba.G, rgba.B, rgba.B, terminator))
			continue
		}
		if rgba, ok := parseXColor(spec); ok {
			t.colors[256+idx] = rgba
			t.schedRepaint()
		}
	}
}

// dynamicColorName maps an OSC dynamic-color number to its NamedColor slot.
func dynamicColorName(n int) (int, bool) {
	switch n {
	case 10:
		return NamedColorForeground, true
	case 11:
		return NamedColorBackground, true
	case 12:
		return NamedColorCursor, true
	case 13:
		return NamedColorMouseFg, true
	case 14:
		return NamedColorMouseBg, true
	case 17:
		return NamedColorHighlightBg, true
	case 19:
		return NamedColorHighlightFg, true
	}
	return 0, false
}

// oscDynamicColor handles OSC 10-19: default foreground, background, cursor
// and friends. Multiple specs advance through consecutive color numbers,
// matching the xterm convention.
func (t *Terminal) oscDynamicColor(n int, arg, terminator string) {
	for _, spec := range strings.Split(arg, ";") {
		name, ok := dynamicColorName(n)
		if !ok {
			n++
			continue
		}
		if spec == "?" {
			rgba := ResolveColor(&NamedColor{Name: name}, t.colors, n == 10)
			t.reply(fmt.Sprintf("\x1b]%d;rgb:%02x%02x/%02x%02x/%02x%02x%s",
				n, rgba.R, rgba.R, rgba.G, rgba.G, rgba.B, rgba.B, terminator))
		} else if rgba, ok := parseXColor(spec); ok {
			t.colors[name] = rgba
			t.schedRepaint()
		}
		n++
	}
}

// oscClipboard handles OSC 52: "c;<base64 data>" stores, "c;?" queries.
func (t *Terminal) oscClipboard(arg, terminator string) {
	i := strings.IndexByte(arg, ';')
	if i < 0 {
		return
	}
	targets, data := arg[:i], arg[i+1:]
	if targets == "" {
		targets = "c"
	}

	if data == "?" {
		content := t.clipboardProvider.Read(targets[0])
		encoded := base64.StdEncoding.EncodeToString([]byte(content))
		t.reply("\x1b]52;" + targets + ";" + encoded + terminator)
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return
	}
	for j := 0; j < len(targets); j++ {
		t.clipboardProvider.Write(targets[j], decoded)
	}
}

// setColor stores a palette override directly (used by tests and embedders).
func (t *Terminal) setColor(index int, c color.Color) {
	t.colors[index] = c
	t.schedRepaint()
}

// SetColor stores a palette override at the given index.
func (t *Terminal) SetColor(index int, c color.Color) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setColor(index, c)
}
