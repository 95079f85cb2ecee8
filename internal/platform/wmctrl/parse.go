package wmctrl

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/mj1618/wm-win-tool/internal/model"
)

// listColumns is the number of fixed columns printed by "wmctrl -lGpx"
// before the title: id, desktop, pid, x, y, w, h, class, host.
const listColumns = 9

// parseWindowList parses the output of "wmctrl -lGpx". Any malformed line
// fails the whole list.
func parseWindowList(out []byte) ([]model.Window, error) {
	var windows []model.Window
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		w, err := parseWindowLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d malformed: %w: %q", lineNo, err, line)
		}
		windows = append(windows, w)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read window list: %w", err)
	}
	return windows, nil
}

func parseWindowLine(line string) (model.Window, error) {
	fields, title := splitFields(line, listColumns)
	if len(fields) < listColumns {
		return model.Window{}, fmt.Errorf("expected %d columns, got %d", listColumns, len(fields))
	}

	ints := make([]int, 6)
	for i := range ints {
		v, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return model.Window{}, fmt.Errorf("column %d: %w", i+2, err)
		}
		ints[i] = v
	}

	return model.Window{
		ID:       fields[0],
		Desktop:  ints[0],
		PID:      ints[1],
		Geometry: model.Geometry{X: ints[2], Y: ints[3], Width: ints[4], Height: ints[5]},
		Class:    fields[7],
		Host:     fields[8],
		Title:    title,
	}, nil
}

// splitFields cuts up to n whitespace separated fields off the front of
// line and returns them with the remainder, whose inner spacing is kept.
func splitFields(line string, n int) ([]string, string) {
	fields := make([]string, 0, n)
	rest := line
	for len(fields) < n {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			break
		}
		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			fields = append(fields, rest)
			rest = ""
			break
		}
		fields = append(fields, rest[:end])
		rest = rest[end:]
	}
	return fields, strings.TrimLeft(rest, " \t")
}

// parseShaded reports whether "xprop -id ID _NET_WM_STATE" lists the
// shaded state.
func parseShaded(out []byte) bool {
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "_NET_WM_STATE(") {
			continue
		}
		_, atoms, ok := strings.Cut(line, "=")
		if !ok {
			return false
		}
		for _, atom := range strings.Split(atoms, ",") {
			if strings.TrimSpace(atom) == "_NET_WM_STATE_SHADED" {
				return true
			}
		}
	}
	return false
}
