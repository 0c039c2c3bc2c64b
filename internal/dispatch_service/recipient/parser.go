package recipient

import "strings"

// Record is one parsed recipient: a raw identifier and an optional display
// name. Records are ephemeral; they exist only for the duration of a batch.
type Record struct {
	Identifier  string
	DisplayName string
}

// Parse turns raw free-text or delimited input into recipient records.
//
// Input is split into non-empty lines. If any line contains a comma or a
// quote, the whole input is treated as delimited text; otherwise each line is
// a bare identifier. Output preserves input order; records whose identifier is
// blank after trimming are dropped.
func Parse(raw string) []Record {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	delimited := false
	for _, line := range lines {
		if strings.ContainsAny(line, ",\"") {
			delimited = true
			break
		}
	}
	if !delimited {
		records := make([]Record, 0, len(lines))
		for _, line := range lines {
			records = append(records, Record{Identifier: strings.TrimSpace(line)})
		}
		return records
	}

	return parseDelimited(lines)
}

// parseDelimited handles CSV-like input. The first record is a header row when
// one of its fields loosely matches "phone"/"number"; the header heuristic is
// an English-substring match, preserved from the original tooling.
func parseDelimited(lines []string) []Record {
	headers := parseLine(lines[0])
	phoneIdx := -1
	nameIdx := -1
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		if phoneIdx == -1 && (strings.Contains(h, "phone") || strings.Contains(h, "number")) {
			phoneIdx = i
		}
		if nameIdx == -1 && (strings.Contains(h, "name") || strings.Contains(h, "first")) {
			nameIdx = i
		}
	}

	dataLines := lines
	if phoneIdx == -1 {
		// No recognizable header: every row including the first is data,
		// column 0 is the identifier, column 1 the display name.
		phoneIdx = 0
		nameIdx = 1
	} else {
		dataLines = lines[1:]
	}

	var records []Record
	for _, line := range dataLines {
		fields := parseLine(line)
		rec := Record{Identifier: field(fields, phoneIdx)}
		if nameIdx >= 0 {
			rec.DisplayName = field(fields, nameIdx)
		}
		if rec.Identifier == "" {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// parseLine splits a single delimited line. Quoted fields may contain the
// delimiter, and a doubled quote inside a quoted field is an escaped quote.
// This is a minimal CSV-line grammar, not a full CSV dialect.
func parseLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

func field(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}
