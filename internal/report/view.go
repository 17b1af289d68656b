package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// view is the concatenated text of every stored file, indexed by character.
type view struct {
	signature  string
	generation uint64
	text       []rune
}

// signature fingerprints the listed files by name, size and modification time.
// A file that cannot be stat'ed contributes its name and the error.
func signature(dir string, names []string) string {
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(0)
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			b.WriteString("err:")
			b.WriteString(err.Error())
		} else {
			b.WriteString(strconv.FormatInt(info.Size(), 10))
			b.WriteByte(':')
			b.WriteString(strconv.FormatInt(info.ModTime().UnixNano(), 10))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// buildView concatenates the files in order. Each file is preceded by a banner line;
// a file that cannot be read is replaced by an inline error note.
func buildView(dir string, names []string) []rune {
	var b strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(&b, "\n\nErro ao ler %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(&b, "\n\n===== %s =====\n\n", name)
		b.Write(data)
	}
	return []rune(b.String())
}
