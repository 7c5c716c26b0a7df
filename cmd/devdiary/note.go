package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNoNote = errors.New("no note captured")

// readNote collects lines from r until a line holding only "." or EOF,
// prompting on w before each line. The lines are joined and trimmed.
func readNote(r io.Reader, w io.Writer) (string, error) {
	sc := bufio.NewScanner(r)
	var lines []string
	for {
		fmt.Fprint(w, "> ")
		if !sc.Scan() {
			break
		}
		line := sc.Text()
		if strings.TrimSpace(line) == "." {
			break
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read note: %w", err)
	}
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return "", errNoNote
	}
	return text, nil
}
