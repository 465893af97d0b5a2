package crawl

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hazyhaar/phishsense/feature"
)

// ResumeState is what a previous run left behind in the output file.
type ResumeState struct {
	// Seen holds every URL already persisted, after unescaping.
	Seen map[string]struct{}

	// Counts holds persisted rows per label.
	Counts map[int]int
}

// Rows returns the total number of replayed rows.
func (s *ResumeState) Rows() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// Replay rebuilds the dedup set and per-label counters from an existing
// output file. A missing file is a fresh start. A file whose rows do not
// parse against the schema is corrupt; appending to it would poison the
// dataset, so the caller must intervene.
func Replay(path string, schema feature.Schema) (*ResumeState, error) {
	state := &ResumeState{
		Seen:   make(map[string]struct{}),
		Counts: make(map[int]int),
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("crawl: open output for replay: %w", err)
	}
	defer f.Close()

	wantFields := len(schema.Fields) + 2 // url + features + label
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if line == 1 {
			if text != strings.Join(schema.Header(), ",") {
				return nil, fmt.Errorf("%w: header mismatch", ErrCorruptOutput)
			}
			continue
		}
		if text == "" {
			continue
		}
		cells := strings.Split(text, ",")
		if len(cells) != wantFields {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d", ErrCorruptOutput, line, len(cells), wantFields)
		}
		label, err := strconv.Atoi(cells[len(cells)-1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d label: %v", ErrCorruptOutput, line, err)
		}
		state.Seen[unescapeField(cells[0])] = struct{}{}
		state.Counts[label]++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("crawl: replay output: %w", err)
	}
	return state, nil
}
