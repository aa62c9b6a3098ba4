// Package script implements a small line oriented stimulus language for
// driving a board of GPIO ports: declaring ports, wiring lines together,
// register reads/writes, external drives, snapshots and expectations.
//
//	# blink A.0 and watch it on B.3
//	port A
//	port B pins 8
//	wire A.0 -> B.3
//	write A MODER 0x1
//	write A BSRR 0x1
//	expect B IDR 0x8 mask 0x8
//
// Numbers are decimal unless prefixed with 0x or 0b. A wire carries its
// source's level only while the source pin is an output; switching it to
// another mode, resetting its port or restoring a snapshot that does so
// releases the wired inputs.
package script

import (
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// Lexer defines the tokens of a stimulus script. Newlines end statements.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "EOL", Pattern: `\n`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "Hex", Pattern: `0[xX][0-9a-fA-F_]+`},
	{Name: "Bin", Pattern: `0[bB][01_]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `\.`},
})

// Parser builds Scripts from source text.
type Parser struct {
	parser *participle.Parser[Script]
}

// NewParser returns a Parser for the stimulus language.
func NewParser() (*Parser, error) {
	p, err := participle.Build[Script](
		participle.Lexer(Lexer),
		participle.Elide("Comment", "Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build parser")
	}
	return &Parser{parser: p}, nil
}

// Parse reads a script from r. name is used in error positions.
func (p *Parser) Parse(name string, r io.Reader) (*Script, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read %s", name)
	}
	return p.ParseString(name, string(b))
}

// ParseString parses a script held in src.
func (p *Parser) ParseString(name, src string) (*Script, error) {
	// Every statement is terminated by a newline, including the last.
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	s, err := p.parser.ParseString(name, src)
	if err != nil {
		return nil, errors.Wrap(err, "parse error")
	}
	return s, nil
}

// ParseFile parses the script at path.
func (p *Parser) ParseFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open script")
	}
	defer f.Close()
	return p.Parse(path, f)
}
