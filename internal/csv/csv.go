// Package csv parses delimited text into a raw table of Text columns. It
// avoids whole-file buffering and tolerates the quoting oddities of
// real-world exports through optional streaming byte rewrites applied before
// the bytes reach encoding/csv.
//
// The parser is deliberately dumb about types: every cell is a string (or
// Missing, when EmptyAsMissing is enabled); semantic typing is the coercion
// stage's job.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"cleanse/internal/table"
)

// Rewrite is a literal byte-sequence replacement applied to the raw stream
// before CSV decoding, e.g. fixing a known broken quote sequence.
type Rewrite struct {
	Old string
	New string
}

// Options configures the parser. All fields are optional; sensible defaults
// are applied when a field is zero.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	// Without a header, columns are named col_0, col_1, ...
	HasHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// ExpectedFields, when > 0, enforces a fixed field count per record when
	// no header is present. Rows with a different width are skipped
	// (soft-fail) and counted.
	ExpectedFields int

	// HeaderMap maps source header names to canonical column names (e.g.
	// localized headers to snake_case identifiers).
	HeaderMap map[string]string

	// EmptyAsMissing turns empty fields into the Missing marker. This is an
	// explicit opt-in: by default an empty string is a value, not a hole.
	EmptyAsMissing bool

	// Rewrites are streaming byte replacements applied before decoding. When
	// any are present the CSV reader runs in lenient mode (LazyQuotes,
	// variable field count) and width is enforced after each read.
	Rewrites []Rewrite
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// streamingRewriter is an io.Reader that performs a rolling find/replace: it
// replaces all occurrences of pat with repl without buffering the entire
// stream. To match sequences that span chunk boundaries, it retains the last
// len(pat)-1 bytes (carry) from each processed block and prepends them to the
// next block before replacement.
type streamingRewriter struct {
	br    *bufio.Reader
	pat   []byte
	repl  []byte
	carry []byte
	buf   bytes.Buffer
	eof   bool
}

func newStreamingRewriter(r io.Reader, pat, repl []byte) *streamingRewriter {
	capacity := 0
	if n := len(pat) - 1; n > 0 {
		capacity = n
	}
	return &streamingRewriter{
		br:    bufio.NewReaderSize(r, 64*1024),
		pat:   pat,
		repl:  repl,
		carry: make([]byte, 0, capacity),
	}
}

// Read fills p from the internal buffer; when empty, it reads the next chunk
// from the underlying reader, performs rolling replacement, and withholds the
// trailing len(pat)-1 bytes as carry for the next call. On EOF it flushes the
// remaining carry.
func (sr *streamingRewriter) Read(p []byte) (int, error) {
	if sr.buf.Len() > 0 {
		return sr.buf.Read(p)
	}
	if sr.eof {
		return 0, io.EOF
	}

	tmp := make([]byte, 64*1024)
	n, rerr := sr.br.Read(tmp)
	if n > 0 {
		block := tmp[:n]

		if len(sr.carry) > 0 {
			joined := make([]byte, 0, len(sr.carry)+len(block))
			joined = append(joined, sr.carry...)
			joined = append(joined, block...)
			block = joined
		}

		if len(sr.pat) > 0 && !bytes.Equal(sr.pat, sr.repl) {
			block = bytes.ReplaceAll(block, sr.pat, sr.repl)
		}

		k := len(sr.pat) - 1
		if k < 0 {
			k = 0
		}
		if k > 0 && len(block) > k {
			sr.buf.Write(block[:len(block)-k])
			sr.carry = append(sr.carry[:0], block[len(block)-k:]...)
		} else {
			sr.carry = append(sr.carry[:0], block...)
		}
	}

	if rerr == io.EOF {
		if len(sr.carry) > 0 {
			sr.buf.Write(sr.carry)
			sr.carry = sr.carry[:0]
		}
		sr.eof = true
	} else if rerr != nil {
		return 0, rerr
	}

	if sr.buf.Len() > 0 {
		return sr.buf.Read(p)
	}
	if sr.eof {
		return 0, io.EOF
	}
	return 0, nil
}

// skipLogLimit caps per-row skip logging so a corrupt file cannot flood logs.
const skipLogLimit = 400

// Parse consumes CSV records from r and returns a raw table of Text columns
// plus the number of rows skipped due to parse errors or field-count
// mismatches. The whole input is never buffered; rewrites are applied
// on-the-fly.
func (p *Parser) Parse(r io.Reader) (*table.Table, int, error) {
	for _, rw := range p.opt.Rewrites {
		r = newStreamingRewriter(r, []byte(rw.Old), []byte(rw.New))
	}

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	if len(p.opt.Rewrites) > 0 {
		// Relax csv.Reader so residual quoting oddities don't abort the
		// stream; width is still enforced after each read.
		cr.LazyQuotes = true
		cr.FieldsPerRecord = -1
	}

	var headers []string
	if p.opt.HasHeader {
		h, err := cr.Read()
		if err != nil {
			return nil, 0, fmt.Errorf("read csv header: %w", err)
		}
		headers = normalizeHeaders(h, p.opt)
	} else if p.opt.ExpectedFields > 0 {
		headers = make([]string, p.opt.ExpectedFields)
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i)
		}
	}

	var cells [][]any // per column
	var skipped int

	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skipped < skipLogLimit {
				log.Printf("csv: skipping row %d: %v", line, err)
			}
			skipped++
			continue
		}

		if len(headers) == 0 {
			// Headerless input without ExpectedFields: first row fixes width.
			headers = make([]string, len(row))
			for i := range headers {
				headers[i] = fmt.Sprintf("col_%d", i)
			}
		}
		if len(row) != len(headers) {
			if skipped < skipLogLimit {
				log.Printf("csv: skipping row %d: incorrect number of fields (expected %d, got %d)",
					line, len(headers), len(row))
			}
			skipped++
			continue
		}
		if cells == nil {
			cells = make([][]any, len(headers))
		}

		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			if p.opt.EmptyAsMissing && val == "" {
				cells[i] = append(cells[i], nil)
			} else {
				cells[i] = append(cells[i], val)
			}
		}
	}

	if cells == nil {
		cells = make([][]any, len(headers))
	}
	cols := make([]table.Column, len(headers))
	for i, name := range headers {
		cols[i] = table.NewColumn(name, table.Text, cells[i])
	}
	tbl, err := table.New(cols...)
	if err != nil {
		return nil, 0, err
	}
	return tbl, skipped, nil
}

// normalizeHeaders produces canonical column names using HeaderMap (when
// provided) and simple normalization (lowercase, spaces to underscores). It
// also strips a UTF-8 BOM from the first cell if present.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if opt.HeaderMap != nil {
			if m, ok := opt.HeaderMap[c]; ok {
				res[i] = m
				continue
			}
		}
		res[i] = strings.ReplaceAll(strings.ToLower(c), " ", "_")
	}
	return res
}
