package highlight

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/zjrosen/glint/internal/rules"
)

// parseFlags maps rule flags onto regexp2 options. The scan is always
// global, so g only needs to be accepted. u is accepted as a no-op since
// matching already runs over code points.
func parseFlags(flags string) (regexp2.RegexOptions, error) {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	var seen [128]bool
	for _, f := range flags {
		if f >= 128 || seen[f] {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFlags, flags)
		}
		seen[f] = true
		switch f {
		case 'g', 'u':
		case 'm':
			opts |= regexp2.Multiline
		case 'i':
			opts |= regexp2.IgnoreCase
		case 's':
			opts |= regexp2.Singleline
		default:
			return 0, fmt.Errorf("%w: %q", ErrInvalidFlags, flags)
		}
	}
	return opts, nil
}

// cacheKey quotes the flags so that no flags/regex pair can collide with
// another.
func cacheKey(r rules.PatternRule) string {
	return strconv.Quote(r.Flags) + r.Regex
}

type compileInput struct {
	regex   string
	flags   string
	timeout time.Duration
}

func compile(in compileInput) (*regexp2.Regexp, error) {
	opts, err := parseFlags(in.flags)
	if err != nil {
		return nil, err
	}
	re, err := regexp2.Compile(in.regex, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPattern, strings.TrimPrefix(err.Error(), "error parsing regexp: "))
	}
	if in.timeout > 0 {
		re.MatchTimeout = in.timeout
	}
	return re, nil
}

// target says which part of a match is highlighted. number is used when
// name is empty; 0 is the whole match.
type target struct {
	number int
	name   string
}

func resolveGroup(re *regexp2.Regexp, group string) (target, error) {
	if group == "" {
		return target{}, nil
	}
	r := rules.PatternRule{CaptureGroup: group}
	if n, ok := r.GroupNumber(); ok {
		for _, g := range re.GetGroupNumbers() {
			if g == n {
				return target{number: n}, nil
			}
		}
		return target{}, fmt.Errorf("%w: %s", ErrUnknownGroup, group)
	}
	if re.GroupNumberFromName(group) < 0 {
		return target{}, fmt.Errorf("%w: %s", ErrUnknownGroup, group)
	}
	return target{name: group}, nil
}

func (t target) group(m *regexp2.Match) *regexp2.Group {
	if t.name != "" {
		return m.GroupByName(t.name)
	}
	return m.GroupByNumber(t.number)
}
