package content

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"
)

// TitleReason tells why a title was or was not found.
type TitleReason int

const (
	TitleFound TitleReason = iota
	TitleNotFound
	TitleUnreadable
	TitleEmpty
)

func (r TitleReason) String() string {
	switch r {
	case TitleFound:
		return "found"
	case TitleNotFound:
		return "not_found"
	case TitleUnreadable:
		return "unreadable"
	case TitleEmpty:
		return "empty"
	}
	return "unknown"
}

// TitleResult is the outcome of ExtractTitle. Title is meaningful only when
// OK reports true.
type TitleResult struct {
	Title  string
	Reason TitleReason
	Err    error
}

func (r TitleResult) OK() bool { return r.Reason == TitleFound }

const headingMarker = "# "

// ExtractTitle reads the first line of the file at path. A leading "# " is
// stripped; any other first line is returned as is.
func ExtractTitle(path string) TitleResult {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return TitleResult{Reason: TitleNotFound, Err: err}
		}
		return TitleResult{Reason: TitleUnreadable, Err: err}
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return TitleResult{Reason: TitleUnreadable, Err: err}
	}
	if line == "" {
		return TitleResult{Reason: TitleEmpty}
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if !utf8.ValidString(line) {
		return TitleResult{Reason: TitleUnreadable, Err: errors.New("first line is not valid UTF-8")}
	}

	return TitleResult{Title: strings.TrimPrefix(line, headingMarker), Reason: TitleFound}
}
