// Package annotation reads per-read gene/transcript assignments, one
// tab-separated line per read:
//
//	read_line  read_name  gene  transcript  match_type  ...
//
// Columns past the match type are ignored.
package annotation

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/grailbio/base/errors"
)

// Feature selects the category a read is counted under.
type Feature int

const (
	Gene Feature = iota
	Transcript
)

// FullMatch is the match type of reads that cover their transcript end to end.
const FullMatch = "full"

const (
	readLineCol = iota
	readNameCol
	geneCol
	transcriptCol
	matchTypeCol
)

func (f Feature) String() string {
	switch f {
	case Gene:
		return "gene"
	case Transcript:
		return "transcript"
	}
	return fmt.Sprintf("Feature(%d)", int(f))
}

func (f Feature) column() int {
	if f == Transcript {
		return transcriptCol
	}
	return geneCol
}

// Record is one annotated read. Fields absent from the line are empty.
type Record struct {
	ReadLine   string
	ReadName   string
	Gene       string
	Transcript string
	MatchType  string

	numFields int
}

// Full reports whether the read is a full-length match.
func (r Record) Full() bool { return r.MatchType == FullMatch }

// Selector decides which label a record contributes to the pool.
type Selector struct {
	Feature Feature
	// FullOnly turns reads that are not full-length matches into null reads.
	FullOnly bool
}

// Label returns the record's category under s, or "" if the read does not
// qualify.
func (s Selector) Label(r Record) (string, error) {
	need := s.Feature.column() + 1
	if s.FullOnly {
		need = matchTypeCol + 1
	}
	if r.numFields < need {
		return "", errors.E(errors.Invalid, fmt.Sprintf("need %d columns to select %s, found %d", need, s.Feature, r.numFields))
	}
	if s.FullOnly && !r.Full() {
		return "", nil
	}
	if s.Feature == Transcript {
		return r.Transcript, nil
	}
	return r.Gene, nil
}

// Reader reads Records from an annotation stream. Blank lines are skipped.
type Reader struct {
	r    *bufio.Reader
	line int
}

func NewReader(r io.Reader) *Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return &Reader{r: br}
	}
	return &Reader{r: bufio.NewReader(r)}
}

// Line returns the line number of the last record read.
func (r *Reader) Line() int { return r.line }

// Read returns the next record, or io.EOF at the end of the stream.
func (r *Reader) Read() (Record, error) {
	for {
		text, err := r.r.ReadString('\n')
		if err != nil && (err != io.EOF || text == "") {
			return Record{}, err
		}
		r.line++
		text = strings.TrimRightFunc(text, unicode.IsSpace)
		if text == "" {
			if err == io.EOF {
				return Record{}, io.EOF
			}
			continue
		}
		return parse(strings.Split(text, "\t")), nil
	}
}

func parse(fields []string) Record {
	rec := Record{numFields: len(fields)}
	for i, f := range fields {
		switch i {
		case readLineCol:
			rec.ReadLine = f
		case readNameCol:
			rec.ReadName = f
		case geneCol:
			rec.Gene = f
		case transcriptCol:
			rec.Transcript = f
		case matchTypeCol:
			rec.MatchType = f
		}
	}
	return rec
}

// Sink receives one label per read.
type Sink interface {
	Add(label string)
	AddNull()
}

// Load feeds the label of every record in r to sink and returns the number
// of reads added.
func Load(r io.Reader, s Selector, sink Sink) (int, error) {
	reader := NewReader(r)
	n := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		label, err := s.Label(rec)
		if err != nil {
			return n, errors.E(err, fmt.Sprintf("line %d", reader.Line()))
		}
		if label == "" {
			sink.AddNull()
		} else {
			sink.Add(label)
		}
		n++
	}
}
