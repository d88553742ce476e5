package common

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern строит шаблон ILIKE для поиска подстроки.
// Спецсимволы пользовательского ввода экранируются, поэтому "100%" ищется буквально.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
