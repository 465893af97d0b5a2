package crawl

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadURLs reads the url column of a CSV input file. The header row is
// located case-insensitively; blank cells are dropped.
func ReadURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("crawl: open input: %w", err)
	}
	defer f.Close()
	return readURLs(f)
}

func readURLs(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("crawl: read input header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "url") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrNoURLColumn
	}

	var urls []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("crawl: read input row: %w", err)
		}
		if col >= len(rec) {
			continue
		}
		u := strings.TrimSpace(rec[col])
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}
