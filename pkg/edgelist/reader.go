package edgelist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

// maxLineLength bounds a single input line. Valid lines are at most 25 bytes,
// so anything near this limit is garbage.
const maxLineLength = 1 << 20

// Edge is one parsed input line: an unordered pair of node ids plus a weight.
type Edge struct {
	A, B   uint32
	Weight uint8
}

// ParseError reports a line that is not a valid "node\tnode\tweight" triple.
type ParseError struct {
	Line int    // 1-based line number
	Text string // offending line, without the newline
	Err  error  // what was wrong with it
}

// maxErrorText is how many bytes of the offending line an error message quotes.
const maxErrorText = 64

func (e *ParseError) Error() string {
	text := e.Text
	if len(text) > maxErrorText {
		n := maxErrorText
		for n > maxErrorText-utf8.UTFMax && !utf8.RuneStart(text[n]) {
			n--
		}
		text = text[:n] + "..."
	}
	return fmt.Sprintf("line %d: %v (%q)", e.Line, e.Err, text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Code reports PARSE_ERROR so the error classifies through pkg/errors.
func (e *ParseError) Code() apperr.Code { return apperr.ErrCodeParse }

var errFieldCount = errors.New("expected 3 tab-separated fields")

// ParseLine parses a single line (without its newline) into an Edge.
// The returned error describes the problem but carries no line number;
// [Reader] wraps it in a [*ParseError].
func ParseLine(line string) (Edge, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 3 {
		return Edge{}, fmt.Errorf("%w, got %d", errFieldCount, len(fields))
	}

	a, err := parseUint(fields[0], 32)
	if err != nil {
		return Edge{}, fmt.Errorf("first node: %w", err)
	}
	b, err := parseUint(fields[1], 32)
	if err != nil {
		return Edge{}, fmt.Errorf("second node: %w", err)
	}
	w, err := parseUint(fields[2], 8)
	if err != nil {
		return Edge{}, fmt.Errorf("weight: %w", err)
	}

	return Edge{A: uint32(a), B: uint32(b), Weight: uint8(w)}, nil
}

func parseUint(field string, bits int) (uint64, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, errors.New("empty field")
	}
	v, err := strconv.ParseUint(field, 10, bits)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			return 0, fmt.Errorf("%q: %w", field, numErr.Err)
		}
		return 0, err
	}
	return v, nil
}

// Options configures a [Reader].
type Options struct {
	// Policy selects strict or skip handling of malformed lines.
	// Zero value means [DefaultPolicy].
	Policy Policy

	// OnSkip, if set, is called for every line dropped under [PolicySkip].
	OnSkip func(*ParseError)
}

// Reader reads edges from a text stream one line at a time.
//
// Use it like bufio.Scanner:
//
//	r := edgelist.NewReader(f, edgelist.Options{})
//	for r.Next() {
//	    e := r.Edge()
//	    // ...
//	}
//	if err := r.Err(); err != nil {
//	    return err
//	}
type Reader struct {
	sc      *bufio.Scanner
	opts    Options
	line    int
	skipped int
	edge    Edge
	err     error
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, opts Options) *Reader {
	if opts.Policy == "" {
		opts.Policy = DefaultPolicy
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &Reader{sc: sc, opts: opts}
}

// Next advances to the next edge. It returns false at end of input or on
// error; check [Reader.Err] afterwards.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	for r.sc.Scan() {
		r.line++
		text := r.sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		e, err := ParseLine(text)
		if err == nil {
			r.edge = e
			return true
		}
		perr := &ParseError{Line: r.line, Text: text, Err: err}
		if r.opts.Policy == PolicySkip {
			r.skipped++
			if r.opts.OnSkip != nil {
				r.opts.OnSkip(perr)
			}
			continue
		}
		r.err = perr
		return false
	}
	if err := r.sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			r.err = &ParseError{Line: r.line + 1, Err: err}
		} else {
			r.err = apperr.Wrap(apperr.ErrCodeIO, err, "read edge list")
		}
	}
	return false
}

// Edge returns the edge produced by the last successful call to Next.
func (r *Reader) Edge() Edge { return r.edge }

// Err returns the first error encountered, or nil at clean end of input.
func (r *Reader) Err() error { return r.err }

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int { return r.line }

// Skipped returns how many malformed lines were dropped under PolicySkip.
func (r *Reader) Skipped() int { return r.skipped }

// ReadAll reads every edge from r.
func ReadAll(r io.Reader, opts Options) ([]Edge, error) {
	er := NewReader(r, opts)
	var edges []Edge
	for er.Next() {
		edges = append(edges, er.Edge())
	}
	if err := er.Err(); err != nil {
		return nil, err
	}
	return edges, nil
}
