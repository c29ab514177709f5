package utils

import "strings"

func isQuote(c byte) bool {
	return c == '"' || c == '\'' || c == '`'
}

// Unquote strips one matching pair of surrounding quote characters, if any.
func Unquote(text string) string {
	if len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if first == last && isQuote(first) {
			return text[1 : len(text)-1]
		}
	}
	return text
}

// SplitCommand tokenizes a chat command line into words. A quote character
// opens a quoted word only at a word boundary, and closes it only at one; a
// quote that never closes is treated as literal text. An unquoted ';' ends
// the line (anything after it is commentary).
func SplitCommand(line string) []string {
	end := len(line)

	var words []string
	var quote byte
	index := 0
	wordIdx := 0

	push := func() {
		word := strings.TrimSpace(line[wordIdx:index])
		wordIdx = index
		if word != "" {
			words = append(words, word)
		}
	}
	wordStart := func() bool {
		return index == 0 || line[index-1] == ' '
	}
	wordEnd := func() bool {
		return index+1 == end || line[index+1] == ' ' || line[index+1] == ';'
	}

scan:
	for index < end {
		if quote == 0 {
			switch c := line[index]; {
			case c == ';':
				break scan
			case c == ' ':
				push()
			case isQuote(c) && wordStart():
				quote = c
			}
		} else if line[index] == quote && wordEnd() {
			quote = 0
		} else if index+1 == end {
			// Unterminated quote: rewind and rescan it as literal text.
			quote = 0
			wordIdx++
			index = wordIdx
		}

		index++
	}

	push()
	return words
}
