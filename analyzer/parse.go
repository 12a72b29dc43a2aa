// Этот файл определяет результат морфологического разбора и имена
// стратегий, которыми разбор может быть получен.
package analyzer

import (
	"github.com/steosofficial/morphema/tagset"
)

// Method - имя стратегии, породившей разбор. По нему словарные разборы
// отличаются от эвристических догадок.
type Method string

const (
	MethodDictionary     Method = "dictionary"
	MethodKnownPrefix    Method = "known-prefix"
	MethodHyphenParticle Method = "hyphen-particle"
	MethodHyphenCompound Method = "hyphen-compound"
	MethodUnknownPrefix  Method = "unknown-prefix"
	MethodSuffixGuess    Method = "suffix-guess"
	MethodNumber         Method = "number"
	MethodRoman          Method = "roman"
	MethodPunctuation    Method = "punctuation"
	MethodLatin          Method = "latin"
)

// methodPriority задает порядок стратегий при равных оценках: чем раньше
// стратегия стоит в цепочке, тем выше ее разборы в итоговом списке.
func methodPriority(m Method) int {
	switch m {
	case MethodDictionary:
		return 0
	case MethodKnownPrefix:
		return 1
	case MethodHyphenParticle:
		return 2
	case MethodHyphenCompound:
		return 3
	case MethodUnknownPrefix:
		return 4
	case MethodSuffixGuess:
		return 5
	case MethodNumber:
		return 6
	case MethodRoman:
		return 7
	case MethodPunctuation:
		return 8
	case MethodLatin:
		return 9
	}
	return 10
}

// NoParadigm - значение ParadigmID для разборов без словарной парадигмы:
// чисел, пунктуации и прочих небуквенных токенов.
const NoParadigm = ^uint32(0)

// Parse - один вариант разбора слова.
type Parse struct {
	Word       string      `json:"word"`        // Разобранная словоформа.
	NormalForm string      `json:"normal_form"` // Лемма.
	Tag        *tagset.Tag `json:"tag"`         // Грамматический тег словоформы.
	Score      float64     `json:"score"`       // Оценка правдоподобия разбора.
	Method     Method      `json:"method"`      // Стратегия, нашедшая разбор.

	// Поля восстановления словоформ. Словоформа с номером правила i
	// собирается как FixedPrefix + префикс правила + Stem + суффикс
	// правила + FixedSuffix.
	ParadigmID  uint32 `json:"-"` // Парадигма разбора; NoParadigm у небуквенных.
	FormIdx     uint16 `json:"-"` // Номер правила внутри парадигмы; 0 - лемма.
	Stem        string `json:"-"` // Основа без аффиксов правила.
	FixedPrefix string `json:"-"` // Неизменяемая часть слева: приставка, часть до дефиса.
	FixedSuffix string `json:"-"` // Неизменяемая часть справа: частица с дефисом.
}

// HasParadigm сообщает, опирается ли разбор на словарную парадигму.
// Только такие разборы пригодны для склонения.
func (p Parse) HasParadigm() bool { return p.ParadigmID != NoParadigm }
