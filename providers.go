package decterm

import "io"

// ResponseProvider writes terminal responses (cursor position reports, device
// attributes, etc.) back toward the host. Typically the pty writer.
type ResponseProvider = io.Writer

// NoopResponse discards all response data (useful when responses are not needed).
type NoopResponse struct{}

func (NoopResponse) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// --- Bell Provider ---

// BellProvider handles bell/beep events triggered by BEL (0x07) characters.
type BellProvider interface {
	// Ring is called when a bell character is received.
	Ring()
}

// NoopBell ignores all bell events.
type NoopBell struct{}

func (NoopBell) Ring() {}

// --- Title Provider ---

// TitleProvider handles window and icon title changes (OSC 0, 1, 2 and the
// CSI t title stack).
type TitleProvider interface {
	// SetTitle is called when the window title changes.
	SetTitle(title string)
	// SetIconTitle is called when the icon title changes.
	SetIconTitle(title string)
}

// NoopTitle ignores all title operations.
type NoopTitle struct{}

func (NoopTitle) SetTitle(title string)     {}
func (NoopTitle) SetIconTitle(title string) {}

// --- APC / PM / SOS Providers ---

// APCProvider handles Application Program Command payloads.
type APCProvider interface {
	// Receive is called with the payload of an APC sequence.
	Receive(data []byte)
}

// NoopAPC ignores all APC sequences.
type NoopAPC struct{}

func (NoopAPC) Receive(data []byte) {}

// PMProvider handles Privacy Message payloads.
type PMProvider interface {
	// Receive is called with the payload of a PM sequence.
	Receive(data []byte)
}

// NoopPM ignores all PM sequences.
type NoopPM struct{}

func (NoopPM) Receive(data []byte) {}

// SOSProvider handles Start of String payloads.
type SOSProvider interface {
	// Receive is called with the payload of a SOS sequence.
	Receive(data []byte)
}

// NoopSOS ignores all SOS sequences.
type NoopSOS struct{}

func (NoopSOS) Receive(data []byte) {}

// --- Clipboard Provider ---

// ClipboardProvider handles clipboard read/write operations (OSC 52).
type ClipboardProvider interface {
	// Read returns content from the specified clipboard ('c' for clipboard,
	// 'p' for primary selection).
	Read(clipboard byte) string
	// Write stores content to the specified clipboard.
	Write(clipboard byte, data []byte)
}

// NoopClipboard ignores all clipboard operations.
type NoopClipboard struct{}

func (NoopClipboard) Read(clipboard byte) string        { return "" }
func (NoopClipboard) Write(clipboard byte, data []byte) {}

// Ensure implementations satisfy their interfaces.
var (
	_ ResponseProvider  = NoopResponse{}
	_ BellProvider      = NoopBell{}
	_ TitleProvider     = NoopTitle{}
	_ APCProvider       = NoopAPC{}
	_ PMProvider        = NoopPM{}
	_ SOSProvider       = NoopSOS{}
	_ ClipboardProvider = NoopClipboard{}
)
