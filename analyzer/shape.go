// Этот файл содержит небуквенные стратегии разбора: числа, римские цифры,
// пунктуацию и латиницу. Каждая дает единственный разбор с синтетическим
// тегом и не обращается к лексикону.
package analyzer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/steosofficial/morphema/tagset"
)

// Синтетические граммемы небуквенных разборов. Регистрируются в схеме
// словаря при создании анализатора.
const (
	grammemeNumber  = "NUMB"
	grammemeInteger = "intg"
	grammemeReal    = "real"
	grammemeRoman   = "ROMN"
	grammemePunct   = "PNCT"
	grammemeLatin   = "LATN"
)

// romanRe описывает римское число: тысячи, сотни, десятки и единицы
// в допустимых сочетаниях. Пустую строку выражение тоже принимает,
// поэтому она отсекается до проверки.
var romanRe = regexp.MustCompile(`(?i)^M{0,4}(CM|CD|D?C{0,3})(XC|XL|L?X{0,3})(IX|IV|V?I{0,3})$`)

// shapeUnit - общий каркас небуквенной стратегии: функция-распознаватель
// возвращает готовый тег либо nil.
type shapeUnit struct {
	method Method
	match  func(word string) *tagset.Tag
	score  float64
}

func (u *shapeUnit) Method() Method { return u.method }

func (u *shapeUnit) Fallback() bool { return true }

func (u *shapeUnit) Analyze(word string) []Parse {
	tag := u.match(word)
	if tag == nil {
		return nil
	}
	return []Parse{{
		Word:       word,
		NormalForm: word,
		Tag:        tag,
		Score:      u.score,
		Method:     u.method,
		ParadigmID: NoParadigm,
	}}
}

// shapeTag регистрирует синтетические граммемы в схеме словаря и возвращает
// интернированный тег из них.
func shapeTag(schema *tagset.Schema, pos string, extra ...string) (*tagset.Tag, error) {
	schema.EnsurePOSValue(pos)
	parts := []string{pos}
	for _, g := range extra {
		schema.EnsureGrammeme(g)
		parts = append(parts, g)
	}
	return schema.ParseTag(strings.Join(parts, ","))
}

// newNumberUnit распознает целые и дробные числа. Дробная часть может
// отделяться как точкой, так и запятой.
func newNumberUnit(schema *tagset.Schema, score float64) (*shapeUnit, error) {
	intTag, err := shapeTag(schema, grammemeNumber, grammemeInteger)
	if err != nil {
		return nil, err
	}
	realTag, err := shapeTag(schema, grammemeNumber, grammemeReal)
	if err != nil {
		return nil, err
	}
	match := func(word string) *tagset.Tag {
		if word == "" || !strings.ContainsFunc(word, unicode.IsDigit) {
			return nil
		}
		digitsOnly := true
		for _, r := range word {
			if !unicode.IsDigit(r) {
				digitsOnly = false
				break
			}
		}
		if digitsOnly {
			return intTag
		}
		if _, err := strconv.ParseFloat(strings.ReplaceAll(word, ",", "."), 64); err == nil {
			return realTag
		}
		return nil
	}
	return &shapeUnit{method: MethodNumber, match: match, score: score}, nil
}

// newRomanUnit распознает римские числа.
func newRomanUnit(schema *tagset.Schema, score float64) (*shapeUnit, error) {
	tag, err := shapeTag(schema, grammemeRoman)
	if err != nil {
		return nil, err
	}
	match := func(word string) *tagset.Tag {
		if word == "" || !romanRe.MatchString(word) {
			return nil
		}
		return tag
	}
	return &shapeUnit{method: MethodRoman, match: match, score: score}, nil
}

// newPunctuationUnit распознает токены, целиком состоящие из знаков
// препинания и символов.
func newPunctuationUnit(schema *tagset.Schema, score float64) (*shapeUnit, error) {
	tag, err := shapeTag(schema, grammemePunct)
	if err != nil {
		return nil, err
	}
	match := func(word string) *tagset.Tag {
		if word == "" {
			return nil
		}
		for _, r := range word {
			if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
				return nil
			}
		}
		return tag
	}
	return &shapeUnit{method: MethodPunctuation, match: match, score: score}, nil
}

// newLatinUnit распознает иноязычные вкрапления: токены, все буквы которых
// принадлежат латинице. Токен без единой буквы вкраплением не считается.
func newLatinUnit(schema *tagset.Schema, score float64) (*shapeUnit, error) {
	tag, err := shapeTag(schema, grammemeLatin)
	if err != nil {
		return nil, err
	}
	match := func(word string) *tagset.Tag {
		hasLetter := false
		for _, r := range word {
			if unicode.IsLetter(r) {
				if !unicode.Is(unicode.Latin, r) {
					return nil
				}
				hasLetter = true
			}
		}
		if !hasLetter {
			return nil
		}
		return tag
	}
	return &shapeUnit{method: MethodLatin, match: match, score: score}, nil
}
