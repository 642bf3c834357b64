// Package decterm implements a DEC-VT compatible terminal emulator core: the
// byte-stream parser, the control-sequence dispatcher, and the screen and
// scrollback data model, without any display.
//
// The package is organized around these types:
//
//   - [Terminal]: the emulator; feed it host output via [Terminal.Write]
//   - [Buffer]: a grid of lines with optional scrollback storage
//   - [Cell] / [Line]: one character cell and one row with its metadata
//   - [Parser]: the escape-sequence state machine (owned by Terminal)
//   - [ModeRegistry]: ANSI and DEC private mode state
//   - [PtyIO]: pty plumbing connecting a Terminal to a child process
//
// # Quick Start
//
// Create a terminal and write escape sequences to it:
//
//	term := decterm.New()
//	term.WriteString("\x1b[31mHello \x1b[32mWorld\x1b[0m!")
//	fmt.Println(term.String()) // "Hello World!"
//
// # Running a child process
//
// [StartCommand] launches a command on a pty sized to the terminal and
// returns a [PtyIO] session. Its Run loop parses child output in arrival
// order and drains keystrokes and dispatcher replies back to the child:
//
//	term := decterm.New(decterm.WithSize(24, 80),
//		decterm.WithScrollback(decterm.NewMemoryScrollback(10000)))
//	session, err := decterm.StartCommand(term, exec.Command("bash", "-i"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	go session.Run(context.Background())
//	session.Send([]byte("ls\r"))
//
// # Dual buffers
//
// Terminal maintains a primary buffer with scrollback and an alternate
// buffer without, switched by the 47/1047/1049 private modes. Save-cursor
// state is kept per buffer.
//
// # Reading the screen
//
// A renderer reads cells through [Terminal.Line] or [Terminal.Cell] and
// polls [Terminal.DirtyRect] for the region mutated since its last paint.
// [Terminal.Snapshot] captures structured text and style runs, and
// [Terminal.Screenshot] rasterizes the grid with golang.org/x/image fonts.
//
// # Supported sequences
//
// The dispatcher covers the DEC VT100 through VT420 repertoire: cursor
// motion, erase (plain and selective), insert/delete, scrolling regions with
// left/right margins (DECLRMM/DECSLRM), rectangular operations (DECCRA,
// DECFRA, DECERA, DECSERA, DECCARA, DECRARA, DECRQCRA), save/restore
// cursor, ANSI and DEC private modes with XTSAVE/XTRESTORE, device status
// and attribute reports, character set designation with NRCS, VT52 mode,
// SGR with 256-color and direct-RGB forms, OSC title and color controls,
// and the XTGETTCAP and DECRQSS device control strings.
//
// Hostile input is safe by construction: unknown or malformed sequences are
// discarded and the parser returns to ground.
package decterm
