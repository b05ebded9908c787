package delta

import "fmt"

// UnexpectedEOFError reports that the delta stream ended while a field was
// still being read.
type UnexpectedEOFError struct {
	Reading   string
	Expected  int
	Available int
}

func (e *UnexpectedEOFError) Error() string {
	return fmt.Sprintf("delta: unexpected end of input reading %s (expected=%d, available=%d)", e.Reading, e.Expected, e.Available)
}

// UnknownCommandError reports an opcode byte that doesn't correspond to
// any known command.
type UnknownCommandError struct {
	Command byte
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("delta: unrecognized command byte 0x%02x", e.Command)
}

// WrongMagicError reports that a delta stream did not open with Magic.
type WrongMagicError struct {
	Got uint32
}

func (e *WrongMagicError) Error() string {
	return fmt.Sprintf("delta: incorrect magic 0x%08x", e.Got)
}

// CommandKind identifies which of the three delta commands a Command is.
type CommandKind int

const (
	// End marks the close of the command stream. Command.Data, Offset,
	// and Length are unused.
	End CommandKind = iota
	// Literal carries Data, a run of bytes to copy verbatim into the
	// output.
	Literal
	// Copy carries Offset and Length, describing a run of base-data
	// bytes to copy into the output.
	Copy
)

// Command is one decoded delta command.
type Command struct {
	Kind   CommandKind
	Data   []byte // valid when Kind == Literal; aliases the decoder's input
	Offset uint64 // valid when Kind == Copy
	Length uint64 // valid when Kind == Copy
}

// Decoder reads commands out of a delta byte stream one at a time.
type Decoder struct {
	buf []byte
}

// NewDecoder validates the delta magic and returns a Decoder positioned at
// the first command.
func NewDecoder(delta []byte) (*Decoder, error) {
	if len(delta) < 4 {
		return nil, &UnexpectedEOFError{Reading: "magic", Expected: 4, Available: len(delta)}
	}
	magic := uint32(delta[0])<<24 | uint32(delta[1])<<16 | uint32(delta[2])<<8 | uint32(delta[3])
	if magic != Magic {
		return nil, &WrongMagicError{Got: magic}
	}
	return &Decoder{buf: delta[4:]}, nil
}

// Remaining returns the bytes not yet consumed. After Next has returned an
// End command, any nonzero Remaining indicates trailing garbage.
func (d *Decoder) Remaining() []byte { return d.buf }

func (d *Decoder) readN(n int, what string) ([]byte, error) {
	if len(d.buf) < n {
		return nil, &UnexpectedEOFError{Reading: what, Expected: n, Available: len(d.buf)}
	}
	b := d.buf[:n]
	d.buf = d.buf[n:]
	return b, nil
}

func (d *Decoder) readVarint(width int, what string) (uint64, error) {
	b, err := d.readN(width, what)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, by := range b {
		v = v<<8 | uint64(by)
	}
	return v, nil
}

// Next decodes the next command. Once it returns a Command with Kind ==
// End, the stream is exhausted and Next must not be called again.
func (d *Decoder) Next() (Command, error) {
	cmdByte, err := d.readN(1, "command")
	if err != nil {
		return Command{}, err
	}
	cmd := cmdByte[0]

	switch {
	case cmd == OpEnd:
		return Command{Kind: End}, nil

	case cmd >= OpLiteral1 && cmd <= OpLiteralN8:
		var n uint64
		if cmd <= OpLiteral64 {
			n = uint64(cmd-OpLiteral1) + 1
		} else {
			width := 1 << (cmd - OpLiteralN1)
			n, err = d.readVarint(width, "literal length")
			if err != nil {
				return Command{}, err
			}
		}
		data, err := d.readN(int(n), "literal")
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: Literal, Data: data}, nil

	case cmd >= OpCopyN1N1 && cmd <= OpCopyN8N8:
		mode := cmd - OpCopyN1N1
		offsetWidth := 1 << (mode / 4)
		lengthWidth := 1 << (mode % 4)

		offset, err := d.readVarint(offsetWidth, "copy offset")
		if err != nil {
			return Command{}, err
		}
		length, err := d.readVarint(lengthWidth, "copy length")
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: Copy, Offset: offset, Length: length}, nil

	default:
		return Command{}, &UnknownCommandError{Command: cmd}
	}
}
