package decterm

import (
	"image/color"
	"log/slog"
	"sync"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultRows is the default number of terminal rows.
	DefaultRows = 24
	// DefaultCols is the default number of terminal columns.
	DefaultCols = 80
)

// Ensure Terminal implements the parser's performer contract.
var _ performer = (*Terminal)(nil)

// Terminal emulates a DEC-VT compatible terminal without a display. It owns
// the parser, the dispatcher, two cell buffers (primary with scrollback,
// alternate without), and the mode registry. Bytes written via Write mutate
// the model; a renderer reads it back through the read API and the dirty
// rectangle. All methods are safe for concurrent use.
type Terminal struct {
	mu sync.RWMutex

	rows int
	cols int

	primary   *Buffer
	alternate *Buffer
	active    *Buffer

	cursor   *Cursor
	template CellTemplate
	charsets CharsetState

	// Per-buffer save-cursor records (DECSC/DECRC).
	savedPrimary *SavedCursor
	savedAlt     *SavedCursor

	// Vertical margins: scrollTop inclusive, scrollBottom exclusive.
	scrollTop    int
	scrollBottom int
	// Horizontal margins, inclusive; honored only while DECLRMM is set.
	leftMargin  int
	rightMargin int

	modes  *ModeRegistry
	parser *Parser

	// Conformance level from DECSCL: 1-5 (VT100..VT520). Controls which
	// sequences are honored and the DA1 reply.
	level         int
	eightBitReply bool

	title      string
	iconTitle  string
	titleStack []titleEntry

	colors map[int]color.Color

	lastGraphic    rune
	lastGraphicSet bool

	answerback     string
	allowWindowOps bool

	combiningLimit int
	normalize      bool

	// DECSACE: false = stream extent, true = rectangle extent.
	rectExtent bool

	// repaintPending defers whole-screen invalidation from palette changes
	// until the parser is back in ground state.
	repaintPending bool

	sel selection

	hooks Hooks

	scrollbackStorage ScrollbackProvider
	responseProvider  ResponseProvider
	bellProvider      BellProvider
	titleProvider     TitleProvider
	apcProvider       APCProvider
	pmProvider        PMProvider
	sosProvider       SOSProvider
	clipboardProvider ClipboardProvider

	logger *slog.Logger
}

type titleEntry struct {
	title string
	icon  string
}

// Option configures a Terminal during construction.
type Option func(*Terminal)

// WithSize sets the terminal dimensions.
// Values <= 0 are replaced with defaults (24x80).
func WithSize(rows, cols int) Option {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}

	return func(t *Terminal) {
		t.rows = rows
		t.cols = cols
	}
}

// WithResponse sets the writer for terminal responses (cursor position
// reports, device attributes). If nil, responses are discarded.
func WithResponse(p ResponseProvider) Option {
	return func(t *Terminal) {
		t.responseProvider = p
	}
}

// WithBell sets the handler for bell events. Defaults to a no-op.
func WithBell(p BellProvider) Option {
	return func(t *Terminal) {
		t.bellProvider = p
	}
}

// WithTitle sets the handler for window/icon title changes. Defaults to a no-op.
func WithTitle(p TitleProvider) Option {
	return func(t *Terminal) {
		t.titleProvider = p
	}
}

// WithAPC sets the handler for Application Program Command payloads.
func WithAPC(p APCProvider) Option {
	return func(t *Terminal) {
		t.apcProvider = p
	}
}

// WithPM sets the handler for Privacy Message payloads.
func WithPM(p PMProvider) Option {
	return func(t *Terminal) {
		t.pmProvider = p
	}
}

// WithSOS sets the handler for Start of String payloads.
func WithSOS(p SOSProvider) Option {
	return func(t *Terminal) {
		t.sosProvider = p
	}
}

// WithClipboard sets the handler for clipboard operations (OSC 52).
func WithClipboard(p ClipboardProvider) Option {
	return func(t *Terminal) {
		t.clipboardProvider = p
	}
}

// WithScrollback sets the storage for lines scrolled off the primary screen.
func WithScrollback(storage ScrollbackProvider) Option {
	return func(t *Terminal) {
		t.scrollbackStorage = storage
	}
}

// WithAnswerback sets the string sent in response to ENQ.
func WithAnswerback(s string) Option {
	return func(t *Terminal) {
		t.answerback = s
	}
}

// WithWindowOps allows the CSI t window operations (reports and resize
// requests). They are refused by default.
func WithWindowOps() Option {
	return func(t *Terminal) {
		t.allowWindowOps = true
	}
}

// WithCombiningLimit sets how many combining marks fold into one cell
// (default 2, max 5).
func WithCombiningLimit(n int) Option {
	return func(t *Terminal) {
		t.combiningLimit = clamp(n, 0, MaxCombining)
	}
}

// WithNormalization enables NFC precomposition of base+combining pairs.
func WithNormalization() Option {
	return func(t *Terminal) {
		t.normalize = true
	}
}

// WithLogger sets the diagnostic logger used for non-fatal warnings.
func WithLogger(l *slog.Logger) Option {
	return func(t *Terminal) {
		t.logger = l
	}
}

// WithHooks installs dispatch interception hooks.
func WithHooks(h Hooks) Option {
	return func(t *Terminal) {
		t.hooks = h
	}
}

// WithC1Printable treats bytes 0x80-0x9F as printable text instead of C1
// controls, for hosts that emit legacy 8-bit character sets.
func WithC1Printable() Option {
	return func(t *Terminal) {
		t.parser.SetC1Printable(true)
	}
}

// WithBrokenLinuxOSC enables early termination of Linux palette OSCs.
func WithBrokenLinuxOSC() Option {
	return func(t *Terminal) {
		t.parser.SetBrokenLinuxOSC(true)
	}
}

// WithBrokenStringTerm makes any C0 control terminate OSC/DCS strings.
func WithBrokenStringTerm() Option {
	return func(t *Terminal) {
		t.parser.SetBrokenStringTerm(true)
	}
}

// New creates a terminal with the given options.
// Defaults to 24x80, autowrap on, cursor visible, VT420 conformance.
func New(opts ...Option) *Terminal {
	t := &Terminal{
		rows:              DefaultRows,
		cols:              DefaultCols,
		colors:            make(map[int]color.Color),
		level:             4,
		combiningLimit:    DefaultCombining,
		bellProvider:      NoopBell{},
		titleProvider:     NoopTitle{},
		apcProvider:       NoopAPC{},
		pmProvider:        NoopPM{},
		sosProvider:       NoopSOS{},
		clipboardProvider: NoopClipboard{},
	}
	t.parser = NewParser(t)
	t.modes = NewModeRegistry()

	for _, opt := range opts {
		opt(t)
	}

	if t.scrollbackStorage == nil {
		t.scrollbackStorage = NoopScrollback{}
	}
	t.primary = NewBufferWithStorage(t.rows, t.cols, t.scrollbackStorage)
	t.alternate = NewBuffer(t.rows, t.cols)
	t.active = t.primary
	t.primary.SetMutateHook(t.sel.invalidate)
	t.alternate.SetMutateHook(t.sel.invalidate)

	t.cursor = NewCursor()
	t.template = NewCellTemplate()
	t.charsets = NewCharsetState()

	t.scrollTop = 0
	t.scrollBottom = t.rows
	t.leftMargin = 0
	t.rightMargin = t.cols - 1

	return t
}

// --- io.Writer entry point ---

// Write processes raw host output, parsing escape sequences and updating the
// terminal state. Implements io.Writer and never fails.
func (t *Terminal) Write(data []byte) (int, error) {
	t.mu.Lock()
	t.parser.Parse(data)
	if t.repaintPending && t.parser.InGround() {
		t.repaintPending = false
		t.active.MarkAllDirty()
	}
	t.mu.Unlock()
	return len(data), nil
}

// WriteString is a convenience wrapper around Write.
func (t *Terminal) WriteString(s string) (int, error) {
	return t.Write([]byte(s))
}

// --- Read API ---

// Rows returns the terminal height in character rows.
func (t *Terminal) Rows() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rows
}

// Cols returns the terminal width in character columns.
func (t *Terminal) Cols() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cols
}

// Cell returns a copy of the cell at (row, col) in the active buffer and
// true, or a zero cell and false when out of bounds.
func (t *Terminal) Cell(row, col int) (Cell, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c := t.active.Cell(row, col)
	if c == nil {
		return Cell{}, false
	}
	return c.Copy(), true
}

// Line returns a deep copy of the line at row for rendering.
func (t *Terminal) Line(row int) (Line, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	l := t.active.Line(row)
	if l == nil {
		return Line{}, false
	}
	return l.Copy(), true
}

// CursorPos returns the current cursor position (0-based).
func (t *Terminal) CursorPos() (row, col int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursor.Row, t.cursor.Col
}

// CursorVisible returns true if the cursor is currently visible (DECTCEM).
func (t *Terminal) CursorVisible() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.modes.Get(ModeDECTCEM, true)
}

// CursorStyle returns the current cursor rendering style (DECSCUSR).
func (t *Terminal) CursorStyle() CursorStyle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursor.Style
}

// Title returns the current window title string.
func (t *Terminal) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.title
}

// IconTitle returns the current icon title string.
func (t *Terminal) IconTitle() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.iconTitle
}

// Mode returns the current value of an ANSI mode (SM/RM numbering).
func (t *Terminal) Mode(code int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.modes.Get(code, false)
}

// PrivateMode returns the current value of a DEC private mode.
func (t *Terminal) PrivateMode(code int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.modes.Get(code, true)
}

// OnModeChange registers a hook invoked after every mode transition.
// Renderer-facing modes (DECTCEM, DECCKM, mouse protocols, bracketed paste)
// are delivered here.
func (t *Terminal) OnModeChange(hook func(ModeChange)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modes.RegisterHook(hook)
}

// IsAlternateScreen returns true if the alternate buffer is active.
func (t *Terminal) IsAlternateScreen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active == t.alternate
}

// ScrollRegion returns the vertical margins (0-based top inclusive, bottom
// exclusive).
func (t *Terminal) ScrollRegion() (top, bottom int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scrollTop, t.scrollBottom
}

// Margins returns the horizontal margins, meaningful while DECLRMM is set.
func (t *Terminal) Margins() (left, right int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.leftMargin, t.rightMargin
}

// DirtyRect returns the bounding rectangle mutated since the last
// ClearDirty, and whether anything is dirty.
func (t *Terminal) DirtyRect() (Rect, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active.DirtyRect()
}

// ClearDirty resets dirty tracking after the renderer painted.
func (t *Terminal) ClearDirty() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active.ClearDirty()
}

// LineContent returns the text content of a line, trimming trailing
// never-drawn cells.
func (t *Terminal) LineContent(row int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active.LineContent(row)
}

// String returns the visible screen content as a newline-separated string.
// Trailing empty lines are omitted. Implements fmt.Stringer.
func (t *Terminal) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lastNonEmpty := -1
	lines := make([]string, t.rows)
	for row := 0; row < t.rows; row++ {
		lines[row] = t.active.LineContent(row)
		if lines[row] != "" {
			lastNonEmpty = row
		}
	}
	if lastNonEmpty < 0 {
		return ""
	}

	out := ""
	for i, line := range lines[:lastNonEmpty+1] {
		if i > 0 {
			out += "\n"
		}
		out += line
	}
	return out
}

// Search finds all occurrences of pattern in the visible screen content.
func (t *Terminal) Search(pattern string) []Position {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if pattern == "" {
		return nil
	}

	var matches []Position
	want := []rune(pattern)
	for row := 0; row < t.rows; row++ {
		line := []rune(t.active.LineContent(row))
		for col := 0; col+len(want) <= len(line); col++ {
			found := true
			for i, r := range want {
				if line[col+i] != r {
					found = false
					break
				}
			}
			if found {
				matches = append(matches, Position{Row: row, Col: col})
			}
		}
	}
	return matches
}

// SearchScrollback finds pattern in scrollback lines. Returned rows are
// negative, where -1 is the most recent scrollback line.
func (t *Terminal) SearchScrollback(pattern string) []Position {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if pattern == "" {
		return nil
	}

	var matches []Position
	want := []rune(pattern)
	n := t.primary.ScrollbackLen()
	for i := 0; i < n; i++ {
		sl := t.primary.ScrollbackLine(i)
		line := []rune(lineText(&sl))
		for col := 0; col+len(want) <= len(line); col++ {
			found := true
			for j, r := range want {
				if line[col+j] != r {
					found = false
					break
				}
			}
			if found {
				matches = append(matches, Position{Row: -(n - i), Col: col})
			}
		}
	}
	return matches
}

// ScrollbackLen returns the number of lines stored in scrollback.
func (t *Terminal) ScrollbackLen() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.primary.ScrollbackLen()
}

// ScrollbackLine returns a line from scrollback, where 0 is the oldest line.
func (t *Terminal) ScrollbackLine(index int) Line {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.primary.ScrollbackLine(index)
}

// ClearScrollback removes all stored scrollback lines.
func (t *Terminal) ClearScrollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.primary.ClearScrollback()
}

// PaletteColor returns the palette override for index, if any.
func (t *Terminal) PaletteColor(index int) (color.Color, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.colors[index]
	return c, ok
}

// SetResponse replaces the response writer at runtime. PtyIO uses this to
// route dispatcher replies into its outbound buffer.
func (t *Terminal) SetResponse(w ResponseProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responseProvider = w
}

// swapBell installs a new bell provider and returns the previous one, so a
// suppression layer can wrap it.
func (t *Terminal) swapBell(p BellProvider) BellProvider {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.bellProvider
	t.bellProvider = p
	return prev
}

// --- Margin helpers ---

// lrActive reports whether left/right margins are in effect.
func (t *Terminal) lrActive() bool {
	return t.modes.Get(ModeDECLRMM, true)
}

// writeLeft returns the left edge of the write region.
func (t *Terminal) writeLeft() int {
	if t.lrActive() {
		return t.leftMargin
	}
	return 0
}

// writeRight returns the right edge of the write region.
func (t *Terminal) writeRight() int {
	if t.lrActive() {
		return t.rightMargin
	}
	return t.cols - 1
}

// inMargins reports whether the cursor is inside both margin pairs.
func (t *Terminal) inMargins() bool {
	if t.cursor.Row < t.scrollTop || t.cursor.Row >= t.scrollBottom {
		return false
	}
	return t.cursor.Col >= t.writeLeft() && t.cursor.Col <= t.writeRight()
}

// originMode reports DECOM.
func (t *Terminal) originMode() bool {
	return t.modes.Get(ModeDECOM, true)
}

// scrollbackEligible reports whether up-scrolled lines enter scrollback:
// primary buffer, full-width margins, top margin at 0.
func (t *Terminal) scrollbackEligible() bool {
	return t.active == t.primary && t.scrollTop == 0 &&
		t.writeLeft() == 0 && t.writeRight() == t.cols-1
}

// --- Cursor movement primitives ---

// moveTo places the cursor absolutely, honoring origin mode.
func (t *Terminal) moveTo(row, col int) {
	if t.originMode() {
		row += t.scrollTop
		col += t.writeLeft()
		row = clamp(row, t.scrollTop, t.scrollBottom-1)
		col = clamp(col, t.writeLeft(), t.writeRight())
	} else {
		row = clamp(row, 0, t.rows-1)
		col = clamp(col, 0, t.cols-1)
	}
	t.cursor.Row = row
	t.cursor.Col = col
	t.cursor.WrapPending = false
}

// moveRel moves the cursor relatively, clamped to the scroll region when the
// cursor starts inside it.
func (t *Terminal) moveRel(drow, dcol int) {
	top, bot := 0, t.rows-1
	if t.cursor.Row >= t.scrollTop && t.cursor.Row < t.scrollBottom {
		top, bot = t.scrollTop, t.scrollBottom-1
	}
	left, right := 0, t.cols-1
	if t.cursor.Col >= t.writeLeft() && t.cursor.Col <= t.writeRight() {
		left, right = t.writeLeft(), t.writeRight()
	}
	t.cursor.Row = clamp(t.cursor.Row+drow, top, bot)
	t.cursor.Col = clamp(t.cursor.Col+dcol, left, right)
	t.cursor.WrapPending = false
}

// scrollUp scrolls the margin rectangle up by n, transferring to scrollback
// when eligible.
func (t *Terminal) scrollUp(n int) {
	t.active.ScrollUp(t.scrollTop, t.scrollBottom, t.writeLeft(), t.writeRight(), n,
		t.template.Bg, t.scrollbackEligible())
}

// scrollDown scrolls the margin rectangle down by n.
func (t *Terminal) scrollDown(n int) {
	t.active.ScrollDown(t.scrollTop, t.scrollBottom, t.writeLeft(), t.writeRight(), n, t.template.Bg)
}

// index moves the cursor down n rows, scrolling at the bottom margin.
func (t *Terminal) index(n int) {
	for ; n > 0; n-- {
		if t.cursor.Row == t.scrollBottom-1 {
			t.scrollUp(1)
		} else if t.cursor.Row < t.rows-1 {
			t.cursor.Row++
		}
	}
	t.cursor.WrapPending = false
}

// reverseIndex moves the cursor up n rows, scrolling at the top margin.
func (t *Terminal) reverseIndex(n int) {
	for ; n > 0; n-- {
		if t.cursor.Row == t.scrollTop {
			t.scrollDown(1)
		} else if t.cursor.Row > 0 {
			t.cursor.Row--
		}
	}
	t.cursor.WrapPending = false
}

// linefeed is LF/VT/FF: index, plus carriage return under LNM.
func (t *Terminal) linefeed() {
	if line := t.active.Line(t.cursor.Row); line != nil {
		line.Wrapped = false
	}
	t.index(1)
	if t.modes.Get(ModeLNM, false) {
		t.cursor.Col = t.writeLeft()
	}
}

func (t *Terminal) carriageReturn() {
	if t.lrActive() && t.cursor.Col >= t.leftMargin {
		t.cursor.Col = t.leftMargin
	} else {
		t.cursor.Col = 0
	}
	t.cursor.WrapPending = false
}

func (t *Terminal) backspace() {
	if t.cursor.WrapPending {
		t.cursor.WrapPending = false
		return
	}
	left := t.writeLeft()
	if t.cursor.Col > left {
		t.cursor.Col--
	} else if t.modes.Get(ModeReverseWrap, true) && t.cursor.Row > t.scrollTop {
		t.cursor.Row--
		t.cursor.Col = t.writeRight()
	}
}

func (t *Terminal) horizontalTab() {
	t.cursor.Col = t.active.NextTabStop(t.cursor.Col, t.writeRight())
	t.cursor.WrapPending = false
}

// --- performer: print ---

// print places one graphic codepoint at the cursor: the heart of write_text.
// Handles charset translation, wide characters, combining folding, insert
// mode, and deferred autowrap.
func (t *Terminal) print(r rune) {
	if t.hooks.Print != nil {
		t.hooks.Print(r, t.printCell)
		return
	}
	t.printCell(r)
}

func (t *Terminal) printCell(r rune) {
	if !t.parser.UTF8() || r < 0x80 {
		r = t.charsets.Translate(r)
	}

	width := runeWidth(r)
	if width == 0 {
		t.combine(r)
		return
	}

	right := t.writeRight()
	autowrap := t.modes.Get(ModeDECAWM, true)

	if t.cursor.WrapPending {
		t.cursor.WrapPending = false
		if autowrap {
			if line := t.active.Line(t.cursor.Row); line != nil {
				line.Wrapped = true
			}
			if t.cursor.Row == t.scrollBottom-1 {
				t.scrollUp(1)
			} else if t.cursor.Row < t.rows-1 {
				t.cursor.Row++
			}
			t.cursor.Col = t.writeLeft()
		}
		// With autowrap off, printing continues over the last column.
	}

	// A wide glyph that no longer fits before the right margin wraps as a
	// unit, leaving the last column blank and not drawn.
	if width == 2 && t.cursor.Col+1 > right {
		if !autowrap {
			return
		}
		if line := t.active.Line(t.cursor.Row); line != nil {
			line.Wrapped = true
		}
		if t.cursor.Row == t.scrollBottom-1 {
			t.scrollUp(1)
		} else if t.cursor.Row < t.rows-1 {
			t.cursor.Row++
		}
		t.cursor.Col = t.writeLeft()
	}

	if t.modes.Get(ModeIRM, false) {
		t.active.InsertBlanks(t.cursor.Row, t.cursor.Col, width, right, t.template.Bg)
	}

	row, col := t.cursor.Row, t.cursor.Col

	// Overwriting either half of an existing wide glyph blanks the other.
	t.active.splitWideAt(row, col)
	t.active.splitWideAt(row, col+width)

	cell := t.active.Cell(row, col)
	if cell == nil {
		return
	}
	cell.Char = r
	cell.Combining = nil
	cell.Fg = t.template.Fg
	cell.Bg = t.template.Bg
	cell.Flags = t.template.Flags | CellFlagDrawn
	cell.ClearFlag(CellFlagWideChar | CellFlagWideCharSpacer)
	if width == 2 {
		cell.SetFlag(CellFlagWideChar)
		if spacer := t.active.Cell(row, col+1); spacer != nil {
			spacer.Erase(t.template.Bg)
			spacer.Flags = t.template.Flags | CellFlagDrawn | CellFlagWideCharSpacer
		}
	}
	t.active.markDirty(Rect{Top: row, Left: col, Bottom: row, Right: col + width - 1})

	t.lastGraphic = r
	t.lastGraphicSet = true

	if col+width > right {
		t.cursor.Col = right
		if autowrap {
			t.cursor.WrapPending = true
		}
	} else {
		t.cursor.Col = col + width
	}
}

// combine folds a zero-width mark into the preceding cell, possibly across
// a wrapped line boundary, precomposing when normalization is enabled.
func (t *Terminal) combine(r rune) {
	row, col := t.cursor.Row, t.cursor.Col
	if !t.cursor.WrapPending {
		col--
	}
	if col < 0 {
		if row == 0 {
			return
		}
		prev := t.active.Line(row - 1)
		if prev == nil || !prev.Wrapped {
			return
		}
		row--
		col = t.cols - 1
	}
	cell := t.active.Cell(row, col)
	if cell == nil {
		return
	}
	if cell.IsWideSpacer() && col > 0 {
		col--
		cell = t.active.Cell(row, col)
		if cell == nil {
			return
		}
	}
	if !cell.IsDrawn() {
		return
	}

	if t.normalize {
		composed := norm.NFC.String(string(cell.Char) + string(r))
		if cr := []rune(composed); len(cr) == 1 && runeWidth(cr[0]) == runeWidth(cell.Char) {
			cell.Char = cr[0]
			t.active.markDirty(Rect{Top: row, Left: col, Bottom: row, Right: col})
			return
		}
	}

	cell.AppendCombining(r, t.combiningLimit)
	t.active.markDirty(Rect{Top: row, Left: col, Bottom: row, Right: col})
}

// repeatLast implements REP: repeat the last graphic character n times.
func (t *Terminal) repeatLast(n int) {
	if !t.lastGraphicSet {
		return
	}
	if n > t.cols*t.rows {
		n = t.cols * t.rows
	}
	for i := 0; i < n; i++ {
		t.printCell(t.lastGraphic)
	}
}

// --- performer: execute (C0/C1 controls) ---

// execute runs a single-byte control function.
func (t *Terminal) execute(b byte) {
	if t.hooks.Execute != nil {
		t.hooks.Execute(b, t.executeControl)
		return
	}
	t.executeControl(b)
}

func (t *Terminal) executeControl(b byte) {
	switch b {
	case 0x05: // ENQ
		if t.answerback != "" {
			t.reply(t.answerback)
		}
	case 0x07: // BEL
		t.bellProvider.Ring()
	case 0x08: // BS
		t.backspace()
	case 0x09: // HT
		t.horizontalTab()
	case 0x0A, 0x0B, 0x0C: // LF, VT, FF
		t.linefeed()
	case 0x0D: // CR
		t.carriageReturn()
	case 0x0E: // SO → LS1
		t.charsets.LockShift(1)
	case 0x0F: // SI → LS0
		t.charsets.LockShift(0)
	case 0x1A: // SUB aborts and prints a reversed question mark
		t.printCell('␦')
	case 0x84: // IND
		t.index(1)
	case 0x85: // NEL
		t.index(1)
		t.carriageReturn()
	case 0x88: // HTS
		t.active.SetTabStop(t.cursor.Col)
	case 0x8D: // RI
		t.reverseIndex(1)
	case 0x8E: // SS2
		t.charsets.SingleShift(ShiftG2)
	case 0x8F: // SS3
		t.charsets.SingleShift(ShiftG3)
	case 0x96: // SPA
		t.template.SetFlag(CellFlagGuarded)
	case 0x97: // EPA
		t.template.ClearFlag(CellFlagGuarded)
	case 0x9A: // DECID
		t.replyDA1()
	}
	// NUL, DEL, XON, XOFF and the remaining C0 codes are ignored.
}

// --- Reply plumbing ---

// reply buffers response bytes toward the host. The response writer is the
// pty's outbound buffer in a live session.
func (t *Terminal) reply(s string) {
	if t.responseProvider != nil {
		t.responseProvider.Write([]byte(s))
	}
}

// --- Save/restore cursor (DECSC/DECRC) ---

func (t *Terminal) saveCursorRecord() *SavedCursor {
	return &SavedCursor{
		Row:         t.cursor.Row,
		Col:         t.cursor.Col,
		Attrs:       t.template,
		OriginMode:  t.originMode(),
		WrapPending: t.cursor.WrapPending,
		Charsets:    t.charsets,
	}
}

func (t *Terminal) saveCursor() {
	rec := t.saveCursorRecord()
	if t.active == t.alternate {
		t.savedAlt = rec
	} else {
		t.savedPrimary = rec
	}
}

func (t *Terminal) restoreCursor() {
	rec := t.savedPrimary
	if t.active == t.alternate {
		rec = t.savedAlt
	}
	if rec == nil {
		// DECRC without DECSC homes the cursor and resets attributes.
		t.cursor.Row = 0
		t.cursor.Col = 0
		t.cursor.WrapPending = false
		t.template = NewCellTemplate()
		t.charsets = NewCharsetState()
		t.modes.Set(ModeDECOM, true, false)
		return
	}
	t.cursor.Row = clamp(rec.Row, 0, t.rows-1)
	t.cursor.Col = clamp(rec.Col, 0, t.cols-1)
	t.cursor.WrapPending = rec.WrapPending
	t.template = rec.Attrs
	t.charsets = rec.Charsets
	t.modes.Set(ModeDECOM, true, rec.OriginMode)
}

// --- Buffer switching (modes 47 / 1047 / 1049) ---

// switchBuffer swaps the active buffer. clearFirst pre-clears the
// destination when entering the alternate screen.
func (t *Terminal) switchBuffer(toAlt, clearFirst bool) {
	if toAlt == (t.active == t.alternate) {
		return
	}
	if toAlt {
		t.active = t.alternate
		if clearFirst {
			t.alternate.ClearAll(t.template.Bg)
		}
	} else {
		t.active = t.primary
	}
	t.active.MarkAllDirty()
}

// --- Resets ---

// softReset implements DECSTR: cursor attributes, margins, modes, charsets
// return to defaults; the screen and scrollback are untouched.
func (t *Terminal) softReset() {
	t.template = NewCellTemplate()
	t.charsets = NewCharsetState()
	t.cursor.WrapPending = false
	t.cursor.Style = CursorStyleBlinkingBlock
	t.scrollTop = 0
	t.scrollBottom = t.rows
	t.leftMargin = 0
	t.rightMargin = t.cols - 1
	t.modes.Set(ModeDECTCEM, true, true)
	t.modes.Set(ModeDECOM, true, false)
	t.modes.Set(ModeDECAWM, true, true)
	t.modes.Set(ModeDECLRMM, true, false)
	t.modes.Set(ModeDECCKM, true, false)
	t.modes.Set(ModeDECNKM, true, false)
	t.modes.Set(ModeIRM, false, false)
	t.modes.Set(ModeKAM, false, false)
	t.saveCursor() // DECSTR resets the saved state to the (reset) current state
}

// fullReset implements RIS: everything returns to the power-on state,
// including the screen, scrollback, palette, tab stops, and both buffers.
func (t *Terminal) fullReset() {
	t.modes.ResetAll()
	t.template = NewCellTemplate()
	t.charsets = NewCharsetState()
	t.cursor = NewCursor()
	t.savedPrimary = nil
	t.savedAlt = nil
	t.scrollTop = 0
	t.scrollBottom = t.rows
	t.leftMargin = 0
	t.rightMargin = t.cols - 1
	t.active = t.primary
	t.primary.ClearAll(nil)
	t.primary.ClearScrollback()
	t.primary.ResetTabStops()
	t.alternate.ClearAll(nil)
	t.alternate.ResetTabStops()
	t.colors = make(map[int]color.Color)
	t.title = ""
	t.iconTitle = ""
	t.titleStack = nil
	t.lastGraphicSet = false
	t.level = 4
	t.eightBitReply = false
	t.rectExtent = false
	t.repaintPending = false
	t.parser.ResetState()
	t.parser.SetVT52(false)
	t.active.MarkAllDirty()
}

// --- Resize ---

// Resize changes the terminal dimensions. On the primary screen, shrinking
// rows pushes top rows into scrollback to keep content near the cursor.
// On allocation failure the prior geometry is kept and an error returned.
func (t *Terminal) Resize(rows, cols int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resizeLocked(rows, cols)
}

func (t *Terminal) resizeLocked(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return ErrBufferAlloc
	}
	if rows == t.rows && cols == t.cols {
		return nil
	}

	if rows < t.rows && t.active == t.primary && t.cursor.Row >= rows {
		push := t.cursor.Row - rows + 1
		t.primary.PushTopToScrollback(push)
		t.cursor.Row -= push
	}

	if err := t.primary.Resize(rows, cols); err != nil {
		if t.logger != nil {
			t.logger.Warn("resize failed, keeping prior geometry", "rows", rows, "cols", cols)
		}
		return err
	}
	if err := t.alternate.Resize(rows, cols); err != nil {
		if t.logger != nil {
			t.logger.Warn("resize failed, keeping prior geometry", "rows", rows, "cols", cols)
		}
		return err
	}

	t.rows = rows
	t.cols = cols
	t.scrollTop = 0
	t.scrollBottom = rows
	t.leftMargin = 0
	t.rightMargin = cols - 1
	t.cursor.Row = clamp(t.cursor.Row, 0, rows-1)
	t.cursor.Col = clamp(t.cursor.Col, 0, cols-1)
	t.cursor.WrapPending = false
	return nil
}
