package conflict

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
	"github.com/pcubillos/bibmanager-sub000/internal/storage"
)

// Parser state machine states
type parserState int

const (
	stateNormal parserState = iota
	stateInOurs
	stateInTheirs
)

// Conflict marker prefixes
const (
	oursMarker      = "<<<<<<<"
	separatorMarker = "======="
	theirsMarker    = ">>>>>>>"
)

// Region is one git conflict region of the store file.
type Region struct {
	StartLine int // Line of <<<<<<< marker
	EndLine   int // Line of >>>>>>> marker

	Ours   []*reference.Entry // Entries from the HEAD side
	Theirs []*reference.Entry // Entries from the incoming side
}

// Conflicted is a store file split into its clean entries and conflict
// regions.
type Conflicted struct {
	Clean   []*reference.Entry
	Regions []Region
}

// ParseError reports a bad marker or an undecodable line.
type ParseError struct {
	Line    int    // 1-indexed
	Message string
	Context string // Offending line, truncated
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ParseMarkers reads a store file that may contain git conflict markers.
// Every JSONL line, clean or inside a region, is decoded into an entry.
func ParseMarkers(r io.Reader, warn *bibtex.Warnings) (*Conflicted, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, storage.MaxJSONLLineCapacity), storage.MaxJSONLLineCapacity)
	result := &Conflicted{}

	state := stateNormal
	lineNum := 0
	var region *Region

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		marker := ""
		for _, m := range []string{oursMarker, separatorMarker, theirsMarker} {
			if strings.HasPrefix(line, m) {
				marker = m
			}
		}

		switch {
		case marker == oursMarker && state == stateNormal:
			region = &Region{StartLine: lineNum}
			state = stateInOurs
		case marker == oursMarker:
			return nil, ParseError{Line: lineNum, Message: "nested conflict markers not allowed", Context: line}
		case marker == separatorMarker && state == stateInOurs:
			state = stateInTheirs
		case marker == separatorMarker && state == stateNormal:
			return nil, ParseError{Line: lineNum, Message: "unexpected separator marker outside conflict region", Context: line}
		case marker == separatorMarker:
			return nil, ParseError{Line: lineNum, Message: "duplicate separator marker in conflict region", Context: line}
		case marker == theirsMarker && state == stateInTheirs:
			region.EndLine = lineNum
			result.Regions = append(result.Regions, *region)
			region = nil
			state = stateNormal
		case marker == theirsMarker && state == stateNormal:
			return nil, ParseError{Line: lineNum, Message: "unexpected end marker outside conflict region", Context: line}
		case marker == theirsMarker:
			return nil, ParseError{Line: lineNum, Message: "unexpected end marker before separator", Context: line}
		default:
			e, err := decodeLine(line, lineNum, warn)
			if err != nil {
				return nil, err
			}
			if e == nil {
				continue
			}
			switch state {
			case stateNormal:
				result.Clean = append(result.Clean, e)
			case stateInOurs:
				region.Ours = append(region.Ours, e)
			case stateInTheirs:
				region.Theirs = append(region.Theirs, e)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if state != stateNormal {
		return nil, ParseError{Line: lineNum, Message: "unterminated conflict region at end of file"}
	}

	return result, nil
}

func decodeLine(line string, lineNum int, warn *bibtex.Warnings) (*reference.Entry, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	e, err := storage.DecodeLine([]byte(line), warn)
	if err != nil {
		return nil, ParseError{
			Line:    lineNum,
			Message: "invalid entry: " + err.Error(),
			Context: truncate(line, 50),
		}
	}
	return e, nil
}

// truncate truncates a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// HasConflicts reports whether c contains any conflict region.
func (c *Conflicted) HasConflicts() bool {
	return len(c.Regions) > 0
}

// Sides returns the two collections the conflicted file stands for: the
// clean entries plus every HEAD side, and every incoming side alone.
func (c *Conflicted) Sides() (ours, theirs []*reference.Entry) {
	ours = append(ours, c.Clean...)
	for _, r := range c.Regions {
		ours = append(ours, r.Ours...)
		theirs = append(theirs, r.Theirs...)
	}
	return ours, theirs
}

// Resolve merges the incoming sides of c into the clean and HEAD entries.
// The HEAD collection is first deduplicated on each identifier, since a
// region can repeat a clean entry.
func Resolve(c *Conflicted, opts Options) (Result, error) {
	ours, theirs := c.Sides()
	var err error
	for _, field := range reference.IDFields {
		if ours, _, err = RemoveDuplicates(ours, field, opts.Decider); err != nil {
			return Result{}, err
		}
	}
	return Merge(ours, theirs, opts)
}
