package stylesheet

import (
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/bep/godartsass/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// scheme prefixes the canonical URL of every fragment handed to Dart Sass.
const scheme = "kiln:///"

type fragment struct {
	name string
	src  ports.Source
}

// fragments resolves import references by auxiliary name. A reference matches
// an auxiliary when both agree after normalize.
type fragments struct {
	byKey map[string]fragment
}

var _ godartsass.ImportResolver = (*fragments)(nil)

func newFragments(auxiliaries map[string]ports.Source) (*fragments, error) {
	f := &fragments{byKey: make(map[string]fragment, len(auxiliaries))}
	for _, name := range slices.Sorted(maps.Keys(auxiliaries)) {
		key := normalize(name)
		if prev, dup := f.byKey[key]; dup {
			return nil, zerr.With(zerr.With(domain.ErrDuplicateAuxiliaryName, "name", name), "conflicts_with", prev.name)
		}
		f.byKey[key] = fragment{name: name, src: auxiliaries[name]}
	}
	return f, nil
}

// CanonicalizeURL implements godartsass.ImportResolver. References to unknown
// fragments yield "" so Dart Sass reports them.
func (f *fragments) CanonicalizeURL(url string) (string, error) {
	url = strings.TrimPrefix(url, scheme)
	if external(url) {
		return "", nil
	}
	key := normalize(url)
	if _, ok := f.byKey[key]; !ok {
		return "", nil
	}
	return scheme + key, nil
}

// Load implements godartsass.ImportResolver.
func (f *fragments) Load(canonicalURL string) (godartsass.Import, error) {
	frag, ok := f.byKey[strings.TrimPrefix(canonicalURL, scheme)]
	if !ok {
		return godartsass.Import{}, zerr.With(domain.ErrImportNotFound, "import", canonicalURL)
	}
	content, err := frag.src.Content()
	if err != nil {
		return godartsass.Import{}, err
	}
	return godartsass.Import{Content: content, SourceSyntax: syntaxOf(frag.src.Path())}, nil
}

// check walks the import graph below the root stylesheet and returns the first
// unknown reference or cycle.
func (f *fragments) check(from, body string) error {
	return f.walk(from, body, []string{from}, make(map[string]bool))
}

func (f *fragments) walk(from, body string, chain []string, done map[string]bool) error {
	for _, ref := range scanImports(body) {
		if external(ref) {
			continue
		}

		frag, ok := f.byKey[normalize(ref)]
		if !ok {
			return zerr.With(zerr.With(domain.ErrImportNotFound, "import", ref), "from", from)
		}
		if slices.Contains(chain, frag.name) {
			cycle := strings.Join(append(slices.Clone(chain), frag.name), " -> ")
			return zerr.With(domain.ErrImportCycle, "chain", cycle)
		}
		if done[frag.name] {
			continue
		}

		content, err := frag.src.Content()
		if err != nil {
			return zerr.With(err, "import", ref)
		}
		if err := f.walk(frag.name, content, append(slices.Clone(chain), frag.name), done); err != nil {
			return err
		}
		done[frag.name] = true
	}
	return nil
}

// scanImports returns the quoted references of every @import, @use and
// @forward rule in src, in order. Comments, strings and url() arguments
// elsewhere are skipped.
func scanImports(src string) []string {
	var refs []string
	for i := 0; i < len(src); {
		rest := src[i:]
		switch {
		case strings.HasPrefix(rest, "/*"):
			i += blockCommentLen(rest)
		case strings.HasPrefix(rest, "//"):
			i += lineLen(rest)
		case rest[0] == '"' || rest[0] == '\'':
			_, n := quoted(rest)
			i += n
		case strings.HasPrefix(rest, "url("):
			if end := strings.IndexByte(rest, ')'); end >= 0 {
				i += end + 1
			} else {
				i = len(src)
			}
		case rest[0] == '@':
			name := ident(rest[1:])
			i += 1 + len(name)
			switch name {
			case "import":
				found, n := prelude(src[i:], true)
				refs = append(refs, found...)
				i += n
			case "use", "forward":
				found, n := prelude(src[i:], false)
				refs = append(refs, found...)
				i += n
			}
		default:
			i++
		}
	}
	return refs
}

// prelude reads an at-rule prelude up to its ';' or '{' and returns the quoted
// strings outside parentheses: all of them when all is set, else the first.
// A line break ends the prelude once a reference was read, unless it follows a comma.
func prelude(s string, all bool) ([]string, int) {
	var found []string
	var last byte
	depth := 0

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"' || c == '\'':
			v, n := quoted(s[i:])
			if depth == 0 && (all || len(found) == 0) {
				found = append(found, v)
			}
			i += n
			last = c
			continue
		case strings.HasPrefix(s[i:], "/*"):
			i += blockCommentLen(s[i:])
			continue
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && c == ';':
			return found, i + 1
		case depth == 0 && c == '{':
			return found, i
		case depth == 0 && c == '\n' && len(found) > 0 && last != ',':
			return found, i + 1
		}
		if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
			last = c
		}
		i++
	}
	return found, len(s)
}

// quoted reads the string literal at the start of s and returns its value and
// the number of bytes consumed. An unterminated literal ends at the line break.
func quoted(s string) (string, int) {
	q := s[0]
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
			}
		case q:
			return sb.String(), i + 1
		case '\n':
			return sb.String(), i
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String(), len(s)
}

func ident(s string) string {
	n := 0
	for n < len(s) && (s[n] == '-' || s[n] >= 'a' && s[n] <= 'z' || s[n] >= 'A' && s[n] <= 'Z') {
		n++
	}
	return s[:n]
}

func blockCommentLen(s string) int {
	if end := strings.Index(s[2:], "*/"); end >= 0 {
		return end + 4
	}
	return len(s)
}

func lineLen(s string) int {
	if end := strings.IndexByte(s, '\n'); end >= 0 {
		return end + 1
	}
	return len(s)
}

// normalize maps an import reference or auxiliary name to its lookup key:
// the base name without a leading underscore or extension.
func normalize(ref string) string {
	base := path.Base(strings.ReplaceAll(ref, "\\", "/"))
	base = strings.TrimPrefix(base, "_")
	return strings.TrimSuffix(base, path.Ext(base))
}

// external reports references Dart Sass resolves without kiln: URLs, built-in
// modules and plain CSS files.
func external(ref string) bool {
	return strings.Contains(ref, "://") ||
		strings.HasPrefix(ref, "//") ||
		strings.HasPrefix(ref, "sass:") ||
		strings.HasSuffix(ref, ".css")
}
