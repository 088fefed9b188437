package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{4}$`)

var nameEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// SanitizeName trims a display name and escapes the characters that would let
// it inject markup into other players' pages.
func SanitizeName(name string) string {
	return nameEscaper.Replace(strings.TrimSpace(name))
}

// ValidCode reports whether code is shaped like a game id.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
