// Package csvload decodes and parses raw CSV source files with a fallback
// ladder of (encoding, leniency) attempts. Every cell is kept as text.
package csvload

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"duck-commerce/internal/domain"
)

// Parse leniency levels, strictest first.
const (
	LeniencyStrict = "strict"
	LeniencyWarn   = "lenient-warn"
	LeniencySkip   = "lenient-skip"
)

// ErrEmptyInput is returned when the content has no header record.
var ErrEmptyInput = errors.New("no header record")

// Table is a parsed source file. A nil cell is an empty field.
type Table struct {
	Header []string
	Rows   [][]*string
}

// Result is the outcome of a successful ladder run.
type Result struct {
	Table        *Table
	Attempt      domain.Attempt
	AttemptIndex int
	Tried        []domain.Attempt
	Dropped      int
}

// DefaultLadder returns every supported encoding crossed with every leniency
// level, encoding-major.
func DefaultLadder() []domain.Attempt {
	leniencies := []string{LeniencyStrict, LeniencyWarn, LeniencySkip}
	out := make([]domain.Attempt, 0, len(SupportedEncodings())*len(leniencies))
	for _, enc := range SupportedEncodings() {
		for _, l := range leniencies {
			out = append(out, domain.Attempt{Encoding: enc, Leniency: l})
		}
	}
	return out
}

// Parser runs the fallback ladder over raw file content.
type Parser struct {
	ladder []domain.Attempt
	logger *slog.Logger
}

// NewParser creates a Parser. A nil or empty ladder means DefaultLadder.
func NewParser(ladder []domain.Attempt, logger *slog.Logger) *Parser {
	if len(ladder) == 0 {
		ladder = DefaultLadder()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{ladder: ladder, logger: logger}
}

// Ladder returns a copy of the attempts the parser tries, in order.
func (p *Parser) Ladder() []domain.Attempt {
	return append([]domain.Attempt(nil), p.ladder...)
}

// Parse tries each attempt in order and returns the first success. When every
// attempt fails it returns a *domain.ParseExhaustedError.
func (p *Parser) Parse(file string, data []byte) (*Result, error) {
	tried := make([]domain.Attempt, 0, len(p.ladder))
	var last error
	for i, a := range p.ladder {
		tried = append(tried, a)
		table, dropped, err := p.attempt(file, data, a)
		if err != nil {
			p.logger.Debug("parse attempt failed", "file", file, "attempt", a.String(), "error", err)
			last = err
			continue
		}
		return &Result{Table: table, Attempt: a, AttemptIndex: i, Tried: tried, Dropped: dropped}, nil
	}
	return nil, &domain.ParseExhaustedError{File: file, Attempts: tried, Last: last}
}

// attempt parses data with a single encoding and leniency, without falling
// back. It returns the table and the number of rows dropped as malformed.
func (p *Parser) attempt(file string, data []byte, a domain.Attempt) (*Table, int, error) {
	switch a.Leniency {
	case LeniencyStrict, LeniencyWarn, LeniencySkip:
	default:
		return nil, 0, fmt.Errorf("unsupported leniency %q", a.Leniency)
	}

	text, err := Decode(a.Encoding, data)
	if err != nil {
		return nil, 0, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.LazyQuotes = a.Leniency != LeniencyStrict

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, ErrEmptyInput
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%s: header: %w", a, err)
	}

	table := &Table{Header: normalizeHeader(header)}
	dropped := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if a.Leniency == LeniencyStrict {
				return nil, 0, fmt.Errorf("%s: %w", a, err)
			}
			dropped++
			if a.Leniency == LeniencyWarn {
				p.logger.Warn("dropping malformed record", "file", file, "attempt", a.String(), "error", err)
			}
			continue
		}
		table.Rows = append(table.Rows, toCells(rec))
	}
	return table, dropped, nil
}

func toCells(rec []string) []*string {
	cells := make([]*string, len(rec))
	for i := range rec {
		if rec[i] == "" {
			continue
		}
		v := rec[i]
		cells[i] = &v
	}
	return cells
}

// normalizeHeader trims names, names blank columns column_<n> (1-based) and
// suffixes case-insensitive duplicates with _<n>.
func normalizeHeader(in []string) []string {
	out := make([]string, len(in))
	used := make(map[string]bool, len(in))
	for i, h := range in {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "column_" + strconv.Itoa(i+1)
		}
		name := h
		for n := 1; used[strings.ToLower(name)]; n++ {
			name = h + "_" + strconv.Itoa(n)
		}
		used[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}
