package telegram

import "strings"

const messageLimit = 4096

// SplitMessage chunks text to fit Telegram's message size limit, breaking on
// the last newline before the limit so report blocks stay whole.
func SplitMessage(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	var parts []string
	for len(runes) > 0 {
		if len(runes) <= messageLimit {
			if chunk := strings.Trim(string(runes), "\n"); chunk != "" {
				parts = append(parts, chunk)
			}
			break
		}

		cut := messageLimit
		for i := messageLimit; i > 0; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}

		if chunk := strings.Trim(string(runes[:cut]), "\n"); chunk != "" {
			parts = append(parts, chunk)
		}
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}

	if len(parts) == 0 {
		return []string{trimmed}
	}
	return parts
}
