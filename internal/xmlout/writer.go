package xmlout

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04:05"
)

// Header describes where and when the parameters were extracted.
type Header struct {
	Model    string
	Host     string
	Database string
	Time     time.Time
}

// Write renders header and params to w. params must already be sorted;
// NULL values are written as nullMarker.
func Write(w io.Writer, header Header, params []mokka.Parameter, nullMarker string) error {
	bw := bufio.NewWriter(w)

	// The trailing space after "<!--" is part of the format.
	fmt.Fprintf(bw, "<!-- \n")
	fmt.Fprintf(bw, "  global model parameters for model: %s\n", header.Model)
	fmt.Fprintf(bw, "    extracted from Mokka DB at %s - db: %s\n", header.Host, header.Database)
	fmt.Fprintf(bw, "    on %s\n", header.Time.Format(dateLayout))
	fmt.Fprintf(bw, "    at %s\n", header.Time.Format(timeLayout))
	fmt.Fprintf(bw, " -->\n")

	for _, p := range params {
		fmt.Fprintf(bw, "<constant name=\"%s\" value=\"%s\"/>\n",
			escape(p.Name), escape(p.Value.Format(nullMarker)))
	}

	return bw.Flush()
}

// attrEscaper makes text safe inside a double-quoted attribute. Every other
// byte, including apostrophes, whitespace and invalid UTF-8, is kept.
var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escape(s string) string {
	return attrEscaper.Replace(s)
}

// WriteFile writes the export for header.Model into dir (the working
// directory when empty) and returns the path written. An existing file is
// replaced atomically: content goes to a temporary file in the same
// directory that is renamed into place once complete.
func WriteFile(dir string, header Header, params []mokka.Parameter, nullMarker string) (string, error) {
	path := filepath.Join(dir, mokka.OutputFileName(header.Model))
	tmp := filepath.Join(dir, "."+mokka.OutputFileName(header.Model)+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return "", fmt.Errorf("create %s: %w: %w", path, mokka.ErrOutputFailed, err)
	}

	if err := Write(f, header, params, nullMarker); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w: %w", path, mokka.ErrOutputFailed, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("close %s: %w: %w", path, mokka.ErrOutputFailed, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename into %s: %w: %w", path, mokka.ErrOutputFailed, err)
	}
	return path, nil
}
