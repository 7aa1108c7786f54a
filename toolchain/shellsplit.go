package toolchain

import (
	"strings"

	"github.com/maxtruxa/bpt"
)

// shellSplit tokenizes s on unquoted whitespace, per spec §4.G:
// unquoted whitespace separates arguments; `'` and `"` introduce quoted
// regions where whitespace is literal; `\` escapes.
//
// This intentionally does not reproduce POSIX sh bug-for-bug (see §9's
// "Toolchain shell-split" open question): inside EITHER quote style,
// `\\` yields a single `\` and `\<newline>` is a line continuation that
// yields nothing — unlike POSIX, where backslash has no special meaning
// inside single quotes at all. Any other backslash sequence inside a
// quote keeps the backslash literally; a backslash does not escape the
// closing quote character, which still ends the quoted region.
func shellSplit(s string) ([]string, error) {
	var args []string
	var cur strings.Builder
	started := false
	var quote rune // 0, '\'', or '"'

	runes := []rune(s)
	i := 0
	for i < len(runes) {
		r := runes[i]

		if quote != 0 {
			switch {
			case r == quote:
				quote = 0
				i++
			case r == '\\' && i+1 < len(runes) && runes[i+1] == '\\':
				cur.WriteRune('\\')
				i += 2
			case r == '\\' && i+1 < len(runes) && runes[i+1] == '\n':
				i += 2
			default:
				cur.WriteRune(r)
				i++
			}
			continue
		}

		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
			i++
		case r == '\'' || r == '"':
			quote = r
			started = true
			i++
		case r == '\\':
			started = true
			if i+1 < len(runes) {
				cur.WriteRune(runes[i+1])
				i += 2
			} else {
				cur.WriteRune('\\')
				i++
			}
		default:
			started = true
			cur.WriteRune(r)
			i++
		}
	}

	if quote != 0 {
		return nil, bpt.New(bpt.ErrToolchainLoadFailed,
			"unterminated quote in: "+s)
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}
