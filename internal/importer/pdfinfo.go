package importer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"pdf-pagetool/internal/logging"
)

// PdfinfoCounter shells out to poppler's pdfinfo to read a document's
// page count without rasterizing anything.
type PdfinfoCounter struct {
	// Binary overrides the pdfinfo executable path, for tests.
	Binary string
}

// CountPages runs pdfinfo and parses the "Pages:" line.
func (p PdfinfoCounter) CountPages(ctx context.Context, path string) (int, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pdfinfo"
	}

	cmd := exec.CommandContext(ctx, bin, path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		logging.Debug("pdfinfo failed for %s: %v (%s)", path, err, msg)
		if msg != "" {
			return 0, fmt.Errorf("pdfinfo: %s", firstLine(msg))
		}
		return 0, fmt.Errorf("pdfinfo: %w", err)
	}

	return parsePageCount(stdout.Bytes())
}

// parsePageCount extracts the page count from pdfinfo's key/value output.
func parsePageCount(out []byte) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, "Pages:"))
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("pdfinfo: bad page count %q", value)
		}
		return n, nil
	}
	return 0, fmt.Errorf("pdfinfo: no Pages line in output")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
