// Package mapper converts detected card names into collector numbers using a
// semicolon-separated set list.
package mapper

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"cardscan/logging"
)

// SetList maps card names to collector numbers within one set.
type SetList struct {
	Code    string
	numbers map[string]string
}

// LoadSetList reads a set list of "name;number" records. Later duplicates of
// a name override earlier ones.
func LoadSetList(code string, r io.Reader) (*SetList, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = 2

	numbers := make(map[string]string)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading set list: %v", err)
		}
		numbers[record[0]] = record[1]
	}
	if len(numbers) == 0 {
		return nil, fmt.Errorf("set list is empty")
	}
	return &SetList{Code: code, numbers: numbers}, nil
}

// Lookup returns the collector number for a card name.
func (s *SetList) Lookup(name string) (string, bool) {
	number, ok := s.numbers[name]
	return number, ok
}

// MapCards reads detection records and writes "code;number" records for
// every card name found in the set list. A header row names the card column;
// headerless input is read with the name in the first field. Names missing
// from the list are logged and returned, not treated as errors.
func (s *SetList) MapCards(r io.Reader, w io.Writer) ([]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	nameColumn := 0
	first := true
	seen := make(map[string]bool)
	var missing []string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading detection records: %v", err)
		}
		if first {
			first = false
			if col := headerColumn(record, "card"); col >= 0 {
				nameColumn = col
				continue
			}
		}
		if len(record) <= nameColumn || record[nameColumn] == "" {
			continue
		}
		name := record[nameColumn]

		number, ok := s.Lookup(name)
		if !ok {
			if !seen[name] {
				seen[name] = true
				missing = append(missing, name)
				logging.LogWarning("Card %s not present in set list %s", name, s.Code)
			}
			continue
		}
		if err := cw.Write([]string{s.Code, number}); err != nil {
			return nil, fmt.Errorf("writing mapped record: %v", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("flushing mapped records: %v", err)
	}
	sort.Strings(missing)
	return missing, nil
}

// headerColumn returns the index of the named header field, or -1 when the
// record is not a header row containing it.
func headerColumn(record []string, field string) int {
	for i, cell := range record {
		if cell == field {
			return i
		}
	}
	return -1
}
