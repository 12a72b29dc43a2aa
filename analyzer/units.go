// Этот файл содержит словарную, приставочные и предсказательную стратегии
// разбора. Небуквенные стратегии лежат в shape.go, дефисные - в hyphen.go.
package analyzer

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/steosofficial/morphema/dicts"
)

// Unit - одна стратегия разбора в цепочке анализатора.
type Unit interface {
	// Method возвращает имя стратегии. Оно же попадает в Parse.Method.
	Method() Method
	// Fallback сообщает, запускается ли стратегия только тогда, когда
	// предыдущие стратегии цепочки ничего не нашли.
	Fallback() bool
	// Analyze возвращает разборы слова с внутренними оценками стратегии.
	// Слово уже нормализовано конвейером.
	Analyze(word string) []Parse
}

// --- СЛОВАРНАЯ СТРАТЕГИЯ ---

// dictionaryUnit разбирает слово прямым поиском в лексиконе с учетом
// таблицы замен символов. Единственная стратегия с корпусными оценками.
type dictionaryUnit struct {
	dict *dicts.Dictionary
}

func (u *dictionaryUnit) Method() Method { return MethodDictionary }

func (u *dictionaryUnit) Fallback() bool { return false }

func (u *dictionaryUnit) Analyze(word string) []Parse {
	matches := u.dict.SimilarEntries(word)
	if len(matches) == 0 {
		return nil
	}
	var parses []Parse
	for _, m := range matches {
		for _, e := range m.Payloads {
			parses = append(parses, Parse{
				Word:       m.Word,
				NormalForm: u.dict.NormalForm(e),
				Tag:        u.dict.TagOf(e),
				Method:     MethodDictionary,
				ParadigmID: e.ParadigmID,
				FormIdx:    e.FormIdx,
				Stem:       u.dict.Stem(e),
			})
		}
	}
	u.score(parses)
	return parses
}

// score выставляет оценки разборам по корпусной таблице. Разборы без
// корпусной оценки поровну делят остаточную массу вероятности, так что
// сумма по словарному слову не превышает единицы.
func (u *dictionaryUnit) score(parses []Parse) {
	var mass float64
	unscored := 0
	for i := range parses {
		s := u.dict.ScoreFor(parses[i].Word, parses[i].ParadigmID, parses[i].FormIdx)
		parses[i].Score = s
		if s > 0 {
			mass += s
		} else {
			unscored++
		}
	}
	if unscored == 0 {
		return
	}
	rest := 1 - mass
	if rest < 0 {
		rest = 0
	}
	share := rest / float64(unscored)
	for i := range parses {
		if parses[i].Score == 0 {
			parses[i].Score = share
		}
	}
}

// --- ИЗВЕСТНЫЕ ПРИСТАВКИ ---

// knownPrefixUnit отделяет от слова приставку из закрытого списка словаря
// и ищет остаток в лексиконе. Приставки находит автомат Ахо-Корасик,
// берутся только вхождения, закрепленные на начале слова.
type knownPrefixUnit struct {
	inner   *dictionaryUnit
	matcher *ahocorasick.Automaton
	penalty float64
	minRest int
}

func newKnownPrefixUnit(inner *dictionaryUnit, cfg *Config) (*knownPrefixUnit, error) {
	u := &knownPrefixUnit{
		inner:   inner,
		penalty: cfg.Penalty.KnownPrefix,
		minRest: cfg.Guess.MinRemainder,
	}
	prefixes := inner.dict.KnownPrefixes()
	if len(prefixes) == 0 {
		return u, nil
	}
	matcher, err := ahocorasick.NewBuilder().
		AddStrings(prefixes).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения автомата приставок: %w", err)
	}
	u.matcher = matcher
	return u, nil
}

func (u *knownPrefixUnit) Method() Method { return MethodKnownPrefix }

func (u *knownPrefixUnit) Fallback() bool { return false }

func (u *knownPrefixUnit) Analyze(word string) []Parse {
	if u.matcher == nil {
		return nil
	}

	// Собираем все приставки, с которых слово начинается. Вложенные
	// приставки дают несколько вхождений с разными концами.
	var prefixes []string
	for _, m := range u.matcher.FindAllOverlapping([]byte(word)) {
		if m.Start != 0 || m.End >= len(word) {
			continue
		}
		prefixes = append(prefixes, word[:m.End])
	}
	// Длинные приставки правдоподобнее коротких, пробуем их первыми.
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	var parses []Parse
	for _, prefix := range prefixes {
		rest := word[len(prefix):]
		if utf8.RuneCountInString(rest) < u.minRest {
			continue
		}
		parses = append(parses, reattachPrefix(u.inner.Analyze(rest), prefix, MethodKnownPrefix, u.penalty)...)
	}
	return parses
}

// reattachPrefix превращает разборы остатка слова в разборы целого слова:
// приставка возвращается в словоформу и лемму, оценка умножается на штраф.
// Разборы закрытых классов отбрасываются, служебное слово не несет приставок.
func reattachPrefix(inner []Parse, prefix string, method Method, penalty float64) []Parse {
	var out []Parse
	for _, p := range inner {
		if !p.Tag.IsProductive() {
			continue
		}
		p.Word = prefix + p.Word
		p.NormalForm = prefix + p.NormalForm
		p.Score *= penalty
		p.Method = method
		p.FixedPrefix = prefix + p.FixedPrefix
		out = append(out, p)
	}
	return out
}

// --- НЕИЗВЕСТНЫЕ ПРИСТАВКИ ---

// unknownPrefixUnit отбрасывает от начала слова произвольную приставку
// ограниченной длины и ищет остаток в лексиконе. Чем длиннее отброшенная
// часть, тем ниже доверие к разбору.
type unknownPrefixUnit struct {
	inner   *dictionaryUnit
	penalty float64
	maxLen  int
	minRest int
}

func (u *unknownPrefixUnit) Method() Method { return MethodUnknownPrefix }

func (u *unknownPrefixUnit) Fallback() bool { return true }

func (u *unknownPrefixUnit) Analyze(word string) []Parse {
	runes := []rune(word)
	var parses []Parse
	for l := 1; l <= u.maxLen && l+u.minRest <= len(runes); l++ {
		prefix := string(runes[:l])
		rest := string(runes[l:])
		scaled := u.penalty / float64(l)
		parses = append(parses, reattachPrefix(u.inner.Analyze(rest), prefix, MethodUnknownPrefix, scaled)...)
	}
	return parses
}

// --- ПРЕДСКАЗАТЕЛЬ ПО ХВОСТУ ---

// suffixGuessUnit предсказывает разбор несловарного слова по статистике
// хвостов лексикона: каким парадигмам принадлежали словарные слова с таким
// же окончанием. Короткие слова не предсказываются, на них хвост ничего
// не говорит.
type suffixGuessUnit struct {
	dict    *dicts.Dictionary
	penalty float64
	maxTail int
	minWord int
}

func (u *suffixGuessUnit) Method() Method { return MethodSuffixGuess }

func (u *suffixGuessUnit) Fallback() bool { return true }

func (u *suffixGuessUnit) Analyze(word string) []Parse {
	runes := []rune(word)
	if len(runes) < u.minWord {
		return nil
	}

	// Пробуем хвосты от длинных к коротким. Первый хвост, давший хотя бы
	// один применимый разбор, останавливает поиск: более специфичная
	// статистика всегда предпочтительнее.
	maxTail := u.maxTail
	if maxTail >= len(runes) {
		maxTail = len(runes) - 1
	}
	for l := maxTail; l >= 1; l-- {
		tail := string(runes[len(runes)-l:])
		parses := u.fromGuesses(word, u.dict.GuessByTail(tail))
		if len(parses) > 0 {
			return parses
		}
	}
	return nil
}

// fromGuesses превращает записи предсказателя в разборы слова. Оценка
// каждого предсказания пропорциональна частоте его хвоста среди словарных
// форм. Записи, аффиксы которых со словом не согласуются, пропускаются.
func (u *suffixGuessUnit) fromGuesses(word string, guesses []dicts.GuessInfo) []Parse {
	var total float64
	for _, g := range guesses {
		total += float64(g.Frequency)
	}
	if total == 0 {
		return nil
	}

	var parses []Parse
	for _, g := range guesses {
		paradigm := u.dict.Paradigm(g.ParadigmID)
		stem, ok := paradigm.ExtractStem(word, int(g.FormIdx))
		if !ok {
			continue
		}
		parses = append(parses, Parse{
			Word:       word,
			NormalForm: paradigm.Apply(stem, 0),
			Tag:        paradigm.Rule(int(g.FormIdx)).Tag,
			Score:      u.penalty * float64(g.Frequency) / total,
			Method:     MethodSuffixGuess,
			ParadigmID: g.ParadigmID,
			FormIdx:    g.FormIdx,
			Stem:       stem,
		})
	}
	return parses
}
