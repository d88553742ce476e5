package tui

import "unicode/utf8"

const maxQueryLen = 200

// editRune применяет нажатие к строке запроса: backspace удаляет руну,
// одиночный печатный символ добавляется. Остальные клавиши строку не меняют.
func editRune(text, key string) string {
	switch key {
	case "backspace":
		if text == "" {
			return text
		}
		runes := []rune(text)
		return string(runes[:len(runes)-1])
	case "space":
		key = " "
	}
	if utf8.RuneCountInString(key) != 1 || utf8.RuneCountInString(text) >= maxQueryLen {
		return text
	}
	return text + key
}

// cycle возвращает значение, следующее за current. После последнего идёт "".
func cycle(values []string, current string) string {
	if current == "" {
		return values[0]
	}
	for i, v := range values {
		if v == current && i+1 < len(values) {
			return values[i+1]
		}
	}
	return ""
}
