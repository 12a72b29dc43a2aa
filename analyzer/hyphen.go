// Этот файл содержит дефисные стратегии разбора: слова с частицей через
// дефис и составные слова из двух самостоятельных частей.
package analyzer

import (
	"sort"
	"strings"
)

// hyphenParticleUnit отделяет от слова дефисную частицу из закрытого списка
// словаря, разбирает оставшуюся часть всей цепочкой и возвращает частицу
// на место. Частица не меняет грамматику слова.
type hyphenParticleUnit struct {
	morph     *MorphAnalyzer
	particles []string // Отсортированы по убыванию длины.
	penalty   float64
}

func newHyphenParticleUnit(morph *MorphAnalyzer, cfg *Config) *hyphenParticleUnit {
	particles := append([]string(nil), morph.dict.HyphenParticles()...)
	sort.Slice(particles, func(i, j int) bool { return len(particles[i]) > len(particles[j]) })
	return &hyphenParticleUnit{
		morph:     morph,
		particles: particles,
		penalty:   cfg.Penalty.HyphenParticle,
	}
}

func (u *hyphenParticleUnit) Method() Method { return MethodHyphenParticle }

func (u *hyphenParticleUnit) Fallback() bool { return true }

func (u *hyphenParticleUnit) Analyze(word string) []Parse {
	for _, particle := range u.particles {
		suffix := "-" + particle
		if !strings.HasSuffix(word, suffix) || len(word) <= len(suffix) {
			continue
		}

		base := word[:len(word)-len(suffix)]
		var parses []Parse
		for _, p := range u.morph.Analyze(base) {
			p.Word += suffix
			p.NormalForm += suffix
			p.Score *= u.penalty
			p.Method = MethodHyphenParticle
			p.FixedSuffix += suffix
			parses = append(parses, p)
		}
		if len(parses) > 0 {
			return parses
		}
	}
	return nil
}

// hyphenCompoundUnit разбирает составные слова из двух частей через дефис.
// Грамматику компаунда задает правая часть, левая входит в словоформу
// и лемму как неизменяемая. Обе части должны разбираться сами по себе.
type hyphenCompoundUnit struct {
	morph   *MorphAnalyzer
	penalty float64
}

func (u *hyphenCompoundUnit) Method() Method { return MethodHyphenCompound }

func (u *hyphenCompoundUnit) Fallback() bool { return true }

func (u *hyphenCompoundUnit) Analyze(word string) []Parse {
	if strings.Count(word, "-") != 1 {
		return nil
	}
	left, right, _ := strings.Cut(word, "-")
	if left == "" || right == "" {
		return nil
	}
	if len(u.morph.Analyze(left)) == 0 {
		return nil
	}

	prefix := left + "-"
	var parses []Parse
	for _, p := range u.morph.Analyze(right) {
		p.Word = prefix + p.Word
		p.NormalForm = prefix + p.NormalForm
		p.Score *= u.penalty
		p.Method = MethodHyphenCompound
		p.FixedPrefix = prefix + p.FixedPrefix
		parses = append(parses, p)
	}
	return parses
}
