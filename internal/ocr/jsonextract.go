package ocr

// ExtractJSON pulls the first complete JSON object or array out of noisy
// tool output. LLM CLIs wrap their answer in prose, markdown fences or
// progress lines; everything around the first balanced bracket pair is
// discarded. Returns nil when no complete value exists.
func ExtractJSON(out []byte) []byte {
	start := -1
	var open, close byte
	for i := 0; i < len(out); i++ {
		if out[i] == '{' || out[i] == '[' {
			start = i
			open = out[i]
			close = '}'
			if open == '[' {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return nil
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(out); i++ {
		c := out[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return out[start : i+1]
			}
		}
	}
	return nil
}
