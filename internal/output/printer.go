package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes user-facing console output: bold application lines, dim notes,
// and unstyled blocks such as tables. Styles collapse to plain text when out is
// not a terminal.
type Printer struct {
	out       io.Writer
	appStyle  lipgloss.Style
	noteStyle lipgloss.Style
	last      outputKind
}

type outputKind int

const (
	outputNone outputKind = iota
	outputApp
	outputBlock
)

func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = io.Discard
	}
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:       out,
		appStyle:  r.NewStyle().Bold(true),
		noteStyle: r.NewStyle().Faint(true).Italic(true),
		last:      outputNone,
	}
}

// App writes bold application output.
func (p *Printer) App(text string) error {
	if text == "" {
		return nil
	}
	if err := p.ensureGapAfterBlock(); err != nil {
		return err
	}
	if err := p.writeStyled(p.appStyle, text); err != nil {
		return err
	}
	p.last = outputApp
	return nil
}

func (p *Printer) Appf(format string, args ...any) error {
	return p.App(fmt.Sprintf(format, args...))
}

// Note writes a secondary hint line.
func (p *Printer) Note(text string) error {
	if text == "" {
		return nil
	}
	if err := p.ensureGapAfterBlock(); err != nil {
		return err
	}
	if err := p.writeStyled(p.noteStyle, text); err != nil {
		return err
	}
	p.last = outputApp
	return nil
}

func (p *Printer) Notef(format string, args ...any) error {
	return p.Note(fmt.Sprintf(format, args...))
}

// Block writes pre-rendered text unstyled, separated from surrounding lines by a blank line.
func (p *Printer) Block(text string) error {
	if text == "" {
		return nil
	}
	if p.last != outputNone {
		if _, err := io.WriteString(p.out, "\n"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(p.out, ensureTrailingNewline(text)); err != nil {
		return err
	}
	p.last = outputBlock
	return nil
}

func (p *Printer) ensureGapAfterBlock() error {
	if p.last != outputBlock {
		return nil
	}
	_, err := io.WriteString(p.out, "\n")
	return err
}

// writeStyled styles each line on its own so multi-line text is not padded to a
// common width.
func (p *Printer) writeStyled(style lipgloss.Style, text string) error {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	_, err := io.WriteString(p.out, strings.Join(lines, "\n")+"\n")
	return err
}

func ensureTrailingNewline(text string) string {
	if strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}
