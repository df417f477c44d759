package server

import (
	"bufio"
	"cipher-chat/errors"
	stderrors "errors"
	"io"
	"strings"
)

// lineReader frames newline terminated input. A line longer than max is
// discarded up to its newline and reported as ErrLineTooLong, the next line
// is read normally.
type lineReader struct {
	r   *bufio.Reader
	max int
}

func newLineReader(r io.Reader, limit int) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, limit+1), max: limit}
}

// Next returns the next line without its "\n" or "\r\n" terminator.
// A final line without terminator is returned before io.EOF.
func (l *lineReader) Next() (string, error) {
	data, err := l.r.ReadSlice('\n')
	switch {
	case err == nil:
	case stderrors.Is(err, bufio.ErrBufferFull):
		return "", l.discard()
	case stderrors.Is(err, io.EOF) && len(data) > 0:
	default:
		return "", err
	}

	line := strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
	if len(line) > l.max {
		return "", errors.ErrLineTooLong
	}
	return line, nil
}

// discard drops the rest of an over-long line.
func (l *lineReader) discard() error {
	for {
		_, err := l.r.ReadSlice('\n')
		switch {
		case err == nil:
			return errors.ErrLineTooLong
		case !stderrors.Is(err, bufio.ErrBufferFull):
			return err
		}
	}
}
