package stream

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dshills/redline/internal/engine/changes"
	"github.com/dshills/redline/internal/engine/style"
)

// Errors returned by the codec.
var (
	ErrMalformed          = errors.New("malformed stream")
	ErrUnsupportedVersion = errors.New("unsupported stream version")
)

// ParseError locates a decoding failure.
type ParseError struct {
	Section string
	Index   int
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("stream: %s[%d]: %v", e.Section, e.Index, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type wireStream struct {
	Version int               `yaml:"version"`
	Changes []wireDeclaration `yaml:"changes,omitempty"`
	Body    []wireToken       `yaml:"body"`
}

type wireDeclaration struct {
	Key    string            `yaml:"key"`
	Kind   string            `yaml:"kind"`
	Title  string            `yaml:"title,omitempty"`
	Author string            `yaml:"author,omitempty"`
	Date   string            `yaml:"date,omitempty"`
	Before map[string]any    `yaml:"before,omitempty"`
	After  map[string]any    `yaml:"after,omitempty"`
	Extra  map[string]string `yaml:"extra,omitempty"`
}

type wireToken struct {
	T       string         `yaml:"t"`
	Text    string         `yaml:"text,omitempty"`
	Format  map[string]any `yaml:"format,omitempty"`
	Key     string         `yaml:"key,omitempty"`
	List    int            `yaml:"list,omitempty"`
	Style   string         `yaml:"style,omitempty"`
	Level   int            `yaml:"level,omitempty"`
	Outline int            `yaml:"outline,omitempty"`
	Rows    int            `yaml:"rows,omitempty"`
	Cols    int            `yaml:"cols,omitempty"`
}

// Decode reads a YAML stream from r.
func Decode(r io.Reader) (*Stream, error) {
	var w wireStream
	if err := yaml.NewDecoder(r).Decode(&w); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, w.Version)
	}

	s := &Stream{
		Version:      w.Version,
		Declarations: make([]Declaration, 0, len(w.Changes)),
		Body:         make([]Token, 0, len(w.Body)),
	}
	keys := make(map[string]bool, len(w.Changes))
	for i, wd := range w.Changes {
		d, err := wd.declaration()
		if err == nil && keys[d.Key] {
			err = fmt.Errorf("%w: duplicate key %q", ErrMalformed, d.Key)
		}
		if err != nil {
			return nil, &ParseError{Section: "changes", Index: i, Err: err}
		}
		keys[d.Key] = true
		s.Declarations = append(s.Declarations, d)
	}
	for i, wt := range w.Body {
		t, err := wt.token()
		if err != nil {
			return nil, &ParseError{Section: "body", Index: i, Err: err}
		}
		s.Body = append(s.Body, t)
	}
	return s, nil
}

// Encode writes s to w as YAML.
func Encode(w io.Writer, s *Stream) error {
	ws := wireStream{
		Version: s.Version,
		Changes: make([]wireDeclaration, 0, len(s.Declarations)),
		Body:    make([]wireToken, 0, len(s.Body)),
	}
	if ws.Version == 0 {
		ws.Version = Version
	}
	for _, d := range s.Declarations {
		ws.Changes = append(ws.Changes, wireDeclaration{
			Key:    d.Key,
			Kind:   d.Kind.String(),
			Title:  d.Title,
			Author: d.Author,
			Date:   d.Date,
			Before: d.Before.Names(),
			After:  d.After.Names(),
			Extra:  d.Extra,
		})
	}
	for _, t := range s.Body {
		ws.Body = append(ws.Body, wireToken{
			T:       t.Kind.String(),
			Text:    t.Text,
			Format:  t.Format.Names(),
			Key:     t.Key,
			List:    t.List,
			Style:   t.Style,
			Level:   t.Level,
			Outline: t.Outline,
			Rows:    t.Rows,
			Cols:    t.Cols,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&ws); err != nil {
		return fmt.Errorf("encode stream: %w", err)
	}
	return enc.Close()
}

func (wd wireDeclaration) declaration() (Declaration, error) {
	if wd.Key == "" {
		return Declaration{}, fmt.Errorf("%w: missing key", ErrMalformed)
	}
	kind, ok := changes.ParseKind(wd.Kind)
	if !ok {
		return Declaration{}, fmt.Errorf("%w: unknown change kind %q", ErrMalformed, wd.Kind)
	}
	before, err := style.FromNames(wd.Before)
	if err != nil {
		return Declaration{}, err
	}
	after, err := style.FromNames(wd.After)
	if err != nil {
		return Declaration{}, err
	}
	return Declaration{
		Key:    wd.Key,
		Kind:   kind,
		Title:  wd.Title,
		Author: wd.Author,
		Date:   wd.Date,
		Before: before,
		After:  after,
		Extra:  wd.Extra,
	}, nil
}

func (wt wireToken) token() (Token, error) {
	kind, ok := ParseTokenKind(wt.T)
	if !ok {
		return Token{}, fmt.Errorf("%w: unknown token kind %q", ErrMalformed, wt.T)
	}
	format, err := style.FromNames(wt.Format)
	if err != nil {
		return Token{}, err
	}
	t := Token{
		Kind:    kind,
		Text:    wt.Text,
		Format:  format,
		Key:     wt.Key,
		List:    wt.List,
		Style:   wt.Style,
		Level:   wt.Level,
		Outline: wt.Outline,
		Rows:    wt.Rows,
		Cols:    wt.Cols,
	}
	switch kind {
	case TokenRegionOpen, TokenRegionClose:
		if t.Key == "" {
			return Token{}, fmt.Errorf("%w: %s without key", ErrMalformed, kind)
		}
	case TokenTableStart:
		if t.Rows < 1 || t.Cols < 1 {
			return Token{}, fmt.Errorf("%w: table %dx%d", ErrMalformed, t.Rows, t.Cols)
		}
	}
	return t, nil
}
