package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

type Language string

const (
	Spanish  Language = "es"
	French   Language = "fr"
	Mandarin Language = "zh"
)

// DefaultLanguages — порядок важен: переводы идут ровно в этом порядке
var DefaultLanguages = []Language{Spanish, French, Mandarin}

var languageNames = map[Language]string{
	Spanish:  "Spanish",
	French:   "French",
	Mandarin: "Mandarin",
}

func (l Language) Name() string {
	if n, ok := languageNames[l]; ok {
		return n
	}
	return string(l)
}

func (l Language) Valid() bool {
	_, ok := languageNames[l]
	return ok
}

func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	return l, nil
}

func ParseLanguages(codes []string) ([]Language, error) {
	out := make([]Language, 0, len(codes))
	seen := make(map[Language]bool, len(codes))
	for _, c := range codes {
		l, err := ParseLanguage(c)
		if err != nil {
			return nil, err
		}
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out, nil
}
