package backend

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseFileList reads a text file list of "id,path" lines. Ids are decimal or
// 0x-prefixed hex. Blank lines and lines starting with '#' are skipped; a
// repeated id keeps its last path.
func ParseFileList(r io.Reader) (map[uint64]string, error) {
	names := make(map[uint64]string)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		idText, path, ok := strings.Cut(text, ",")
		if !ok {
			return nil, fmt.Errorf("file list line %d: missing ','", line)
		}
		id, err := strconv.ParseUint(strings.TrimSpace(idText), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("file list line %d: %w", line, err)
		}
		names[id] = strings.TrimSpace(path)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read file list: %w", err)
	}
	return names, nil
}
