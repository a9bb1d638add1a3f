package depfind

import (
	"bufio"
	"io"
	"strconv"

	"github.com/agentic-research/jarjar/internal/classfile"
	"github.com/go-git/go-billy/v5"
	"github.com/rs/zerolog"
)

// Strings prints every string constant of every class on cp as
// `class.Name: "quoted value"`, one per line.
func Strings(fs billy.Filesystem, cp string, w io.Writer, log zerolog.Logger) error {
	bw := bufio.NewWriter(w)
	err := walkClasspath(fs, cp, func(c class) error {
		f, err := classfile.Parse(c.data)
		if err != nil {
			log.Debug().Err(err).Str("source", c.source).Msg("Skipping unreadable class")
			return nil
		}
		name := dotted(f.Name())
		f.Walk(classfile.Funcs{String: func(s string) string {
			bw.WriteString(name)
			bw.WriteString(": ")
			bw.WriteString(strconv.Quote(s))
			bw.WriteByte('\n')
			return s
		}})
		return nil
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}
