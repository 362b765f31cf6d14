package tfconfig

// matchBrace returns the index of the closing brace matching the opening
// brace at open, or -1 when the block is unterminated. The scanner tracks
// brace depth and skips quoted strings, heredoc-free comments and template
// interpolations so that braces inside string literals (for example
// "${var.env}/state") never unbalance the count.
func matchBrace(src string, open int) int {
	if open < 0 || open >= len(src) || src[open] != '{' {
		return -1
	}

	depth := 0
	inString := false
	inLineComment := false

	for i := open; i < len(src); i++ {
		c := src[i]

		if inLineComment {
			if c == '\n' {
				inLineComment = false
			}
			continue
		}

		if inString {
			switch c {
			case '\\':
				i++ // skip escaped character
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '#':
			inLineComment = true
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				inLineComment = true
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// lineIndent returns the whitespace prefix of the line containing pos.
func lineIndent(src string, pos int) string {
	start := pos
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return src[start:end]
}
