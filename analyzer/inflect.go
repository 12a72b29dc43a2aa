// Этот файл содержит генерацию словоформ: склонение к заданному тегу
// и построение полной лексемы разбора.
package analyzer

import (
	"sort"

	"github.com/steosofficial/morphema/tagset"
)

// Inflect строит словоформу леммы с заданным тегом. Среди омонимичных
// парадигм леммы берется первая, в которой есть правило с точно таким
// тегом. Вторая компонента равна false, если ни одна парадигма такой
// формы не имеет; это не ошибка, а обычный исход для неполных парадигм.
func (m *MorphAnalyzer) Inflect(lemma string, target *tagset.Tag) (string, bool) {
	return m.InflectMatching(lemma, target, nil)
}

// InflectMatching - Inflect с разрешением омонимии: если задан reference,
// рассматриваются только парадигмы, тег леммы которых несет все граммемы
// reference.
func (m *MorphAnalyzer) InflectMatching(lemma string, target, reference *tagset.Tag) (string, bool) {
	word := normalizeToken(lemma)
	if word == "" || target == nil {
		return "", false
	}

	for _, match := range m.dict.SimilarEntries(word) {
		for _, e := range match.Payloads {
			// Интересуют только записи, в которых слово само является леммой.
			if e.FormIdx != 0 {
				continue
			}
			paradigm := m.dict.Paradigm(e.ParadigmID)
			if reference != nil && !paradigm.LemmaRule().Tag.ContainsAll(reference.Grammemes()...) {
				continue
			}
			formIdx, ok := paradigm.RuleIndexForTag(target)
			if !ok {
				continue
			}
			return paradigm.Apply(m.dict.Stem(e), formIdx), true
		}
	}
	return "", false
}

// InflectParse склоняет готовый разбор к заданному тегу, сохраняя его
// неизменяемые части: приставку, часть до дефиса, частицу. Разборы без
// парадигмы не склоняются.
func (m *MorphAnalyzer) InflectParse(p Parse, target *tagset.Tag) (Parse, bool) {
	if !p.HasParadigm() || target == nil {
		return Parse{}, false
	}
	paradigm := m.dict.Paradigm(p.ParadigmID)
	formIdx, ok := paradigm.RuleIndexForTag(target)
	if !ok {
		return Parse{}, false
	}

	out := p
	out.Word = p.FixedPrefix + paradigm.Apply(p.Stem, formIdx) + p.FixedSuffix
	out.Tag = paradigm.Rule(formIdx).Tag
	out.FormIdx = uint16(formIdx)
	return out, true
}

// Lexeme возвращает все словоформы парадигмы разбора в порядке ее правил.
// Результат - чистая функция парадигмы, его можно строить сколько угодно
// раз. Лексема разбора без парадигмы состоит из самого разбора.
func (m *MorphAnalyzer) Lexeme(p Parse) []Parse {
	if !p.HasParadigm() {
		return []Parse{p}
	}

	paradigm := m.dict.Paradigm(p.ParadigmID)
	out := make([]Parse, 0, paradigm.Size())
	for i := 0; i < paradigm.Size(); i++ {
		f := p
		f.Word = p.FixedPrefix + paradigm.Apply(p.Stem, i) + p.FixedSuffix
		f.Tag = paradigm.Rule(i).Tag
		f.FormIdx = uint16(i)
		out = append(out, f)
	}
	return out
}

// Forms возвращает словоформы всех лексем, которым слово может
// принадлежать, без повторов и в алфавитном порядке.
func (m *MorphAnalyzer) Forms(word string) []Parse {
	type lexemeKey struct {
		paradigmID  uint32
		stem        string
		fixedPrefix string
		fixedSuffix string
	}
	type formKey struct {
		word string
		tag  *tagset.Tag
	}

	seenLexemes := make(map[lexemeKey]bool)
	seenForms := make(map[formKey]bool)
	var out []Parse

	for _, p := range m.Analyze(word) {
		if !p.HasParadigm() {
			continue
		}
		lk := lexemeKey{p.ParadigmID, p.Stem, p.FixedPrefix, p.FixedSuffix}
		if seenLexemes[lk] {
			continue
		}
		seenLexemes[lk] = true
		for _, f := range m.Lexeme(p) {
			fk := formKey{f.Word, f.Tag}
			if seenForms[fk] {
				continue
			}
			seenForms[fk] = true
			out = append(out, f)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Word != out[j].Word {
			return out[i].Word < out[j].Word
		}
		return out[i].Tag.String() < out[j].Tag.String()
	})
	return out
}
