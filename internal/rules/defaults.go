package rules

import "fmt"

// Scaffold values for rules that arrive without them.
const (
	DefaultFlags = "gm"
	DefaultClass = "custom-dj-highlight"
	DefaultColor = "#FFFFFF"
)

// Scaffold returns the template used to complete a user rule at position n
// (1-based) of the list it is being added to.
func Scaffold(n int) PatternRule {
	return PatternRule{
		Name:    fmt.Sprintf("Pattern %d", n),
		Enabled: true,
		Flags:   DefaultFlags,
		Class:   DefaultClass,
		Color:   DefaultColor,
	}
}

// Defaults returns the built-in rule set. Each call returns a fresh copy.
func Defaults() List {
	return List{
		{ID: "dj-comment", Name: "DJ Comments (#...)", Enabled: true, Regex: `#.*$`, Flags: "gm", Class: "comm-dj", Color: "#16FF00"},
		{ID: "dj-keywords", Name: "DJ Keywords", Enabled: true, Regex: `\b(and|as|assert|async|await|break|class|continue|def|del|elif|else|except|finally|for|from|global|if|import|in|is|lambda|nonlocal|not|or|pass|raise|return|try|while|with|yield)\b`, Flags: "g", Class: "key-dj", Color: "#F92672"},
		{ID: "dj-class-def", Name: "DJ Class Name", Enabled: true, Regex: `\bclass\s+([a-zA-Z_][a-zA-Z0-9_]*)`, Flags: "g", Class: "type-dj", Color: "#66D9EF", CaptureGroup: "1"},
		{ID: "dj-function-call", Name: "DJ Function Names/Calls", Enabled: true, Regex: `([a-zA-Z_][a-zA-Z0-9_]*)\s*\(`, Flags: "g", Class: "func-dj", Color: "#A6E22E", CaptureGroup: "1"},
		{ID: "dj-numbers", Name: "DJ Numbers", Enabled: true, Regex: `\b(?:0[xX][0-9a-fA-F]+|0[oO][0-7]+|0[bB][01]+|[0-9]+\.[0-9]*(?:[eE][+-]?[0-9]+)?|[0-9]+)\b`, Flags: "g", Class: "num-dj", Color: "#AE81FF"},
		{ID: "dj-operators", Name: "DJ Operators", Enabled: true, Regex: `\+|-|\*|\/|\/\/|\|\||\\|%|@|<<|>>|&|\||\^|~|<|>|<=|>=|==|!=|:=|=`, Flags: "g", Class: "op-dj", Color: "#F92672"},
		{ID: "dj-punctuation", Name: "DJ Punctuation", Enabled: true, Regex: `[.,;:?!|µ]`, Flags: "g", Class: "ponct-dj", Color: "#A8F819"},

		{ID: "dj-delim-open", Name: "DJ Delimiters (Open)", Enabled: true, Regex: `\(|\{|\[|\"|«|<|_`, Flags: "g", Class: "delim-g-open-dj", Color: "#E6AA74"},
		{ID: "dj-delim-close", Name: "DJ Delimiters (Close)", Enabled: true, Regex: `\)|\}|\]|\"|»|>|_`, Flags: "g", Class: "delim-g-close-dj", Color: "#FF0000"},

		{ID: "dj-content-in-parens", Name: "DJ Content in Parentheses", Enabled: true, Regex: `\(([^)]*)\)`, Flags: "g", Class: "cont-dj", Color: "#E6DB74", CaptureGroup: "1"},
		{ID: "dj-content-in-braces", Name: "DJ Content in Braces", Enabled: true, Regex: `\{([^}]*)\}`, Flags: "g", Class: "cont-dj", Color: "#E6DB74", CaptureGroup: "1"},
		{ID: "dj-content-in-brackets", Name: "DJ Content in Brackets", Enabled: true, Regex: `\[([^\]]*)\]`, Flags: "g", Class: "cont-dj", Color: "#E6DB74", CaptureGroup: "1"},
		{ID: "dj-content-in-double-quotes", Name: "DJ Content in Double Quotes", Enabled: true, Regex: `"([^"]*)"`, Flags: "g", Class: "cont-dj", Color: "#E6DB74", CaptureGroup: "1"},
		{ID: "dj-content-in-guillemets", Name: "DJ Content in Guillemets", Enabled: true, Regex: `«([^»]*)»`, Flags: "g", Class: "cont-dj", Color: "#E6DB74", CaptureGroup: "1"},

		// Character-level heuristics, broadest last.
		{ID: "dj-sentence-caps", Name: "DJ Sentence Start Capitals", Enabled: true, Regex: `(?:^|[.!?]\s+)([A-Z])`, Flags: "g", Class: "sent-dj", Color: "#66D9EF", CaptureGroup: "1"},
		{ID: "dj-general-caps", Name: "DJ Capital Letters", Enabled: true, Regex: `([A-Z])`, Flags: "g", Class: "caps-dj", Color: "#A6E22E", CaptureGroup: "1"},
	}
}
