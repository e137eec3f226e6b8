package theme

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type RGB [3]uint8

type Palette struct {
	Name   string
	Colors []RGB
}

// LoadGPL reads a GIMP palette file.
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open palette")
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, errors.Wrapf(err, "palette %s", path)
	}
	return p, nil
}

// ParseGPL parses GIMP palette text. Header, comment and blank lines are
// skipped; every other line must start with three components in 0-255.
// Anything after them is the colour's name and is ignored.
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	scanner := bufio.NewScanner(r)

	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "Name:"):
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
			continue
		case line == "", line[0] == '#', strings.HasPrefix(line, "GIMP"), strings.HasPrefix(line, "Columns:"):
			continue
		}

		c, err := parseRGB(strings.Fields(line))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", n)
		}
		p.Colors = append(p.Colors, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(p.Colors) == 0 {
		return nil, errors.New("no colors found")
	}
	return p, nil
}

func parseRGB(fields []string) (RGB, error) {
	var c RGB
	if len(fields) < 3 {
		return c, errors.Errorf("want R G B, got %q", strings.Join(fields, " "))
	}
	for i := range c {
		v, err := strconv.Atoi(fields[i])
		if err != nil || v < 0 || v > 255 {
			return c, errors.Errorf("component %q is not in 0-255", fields[i])
		}
		c[i] = uint8(v)
	}
	return c, nil
}

// Default is the built-in palette, dark slate through teal to amber.
func Default() *Palette {
	return &Palette{
		Name: "harbor",
		Colors: []RGB{
			{0x1b, 0x1f, 0x2a},
			{0x2a, 0x31, 0x42},
			{0x4c, 0x56, 0x6a},
			{0x8f, 0x9b, 0xb3},
			{0xd8, 0xde, 0xe9},
			{0x5f, 0xb3, 0xb3},
			{0x88, 0xc0, 0xd0},
			{0xa3, 0xbe, 0x8c},
			{0xeb, 0xcb, 0x8b},
			{0xd0, 0x87, 0x70},
			{0xbf, 0x61, 0x6a},
		},
	}
}

// LoadOrDefault loads the palette at path, or the built-in one when path is
// empty.
func LoadOrDefault(path string) (*Palette, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadGPL(path)
}

// Lookup returns the colour at norm along the palette, blending the two
// nearest entries. norm is clamped to 0-1.
func (p *Palette) Lookup(norm float64) RGB {
	last := len(p.Colors) - 1
	switch {
	case norm <= 0 || last == 0:
		return p.Colors[0]
	case norm >= 1:
		return p.Colors[last]
	}

	pos := norm * float64(last)
	i := int(pos)
	return blend(p.Colors[i], p.Colors[i+1], pos-float64(i))
}

func blend(a, b RGB, t float64) RGB {
	var out RGB
	for i := range out {
		out[i] = uint8(float64(a[i])*(1-t) + float64(b[i])*t)
	}
	return out
}
