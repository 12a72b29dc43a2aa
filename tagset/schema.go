// Package tagset реализует грамматическую алгебру анализатора: схему граммем,
// неизменяемые интернированные теги и операции над ними (разбор, форматирование,
// проверки согласованности и соответствия).
// Схема — это данные, загружаемые вместе со словарем, а не вшитый в код список:
// движок не привязан к конкретному языку.
package tagset

import (
	"fmt"
	"sync"
)

// --- ДАННЫЕ СХЕМЫ ---

// CategoryData - описание одной грамматической категории.
type CategoryData struct {
	Name      string   // Имя категории ("POS", "Number", ...).
	Values    []string // Допустимые значения (граммемы) этой категории.
	Exclusive bool     // Если true, в одном теге допустимо не более одного значения категории.
}

// SchemaData - сериализуемое описание схемы граммем.
// Хранится в "сложном" блоке словарного артефакта и целиком определяет язык.
// Категория с индексом 0 всегда трактуется как часть речи.
type SchemaData struct {
	Language      string         // Код языка словаря ("ru", "en", ...).
	Categories    []CategoryData // Упорядоченный список категорий.
	NonProductive []string       // Граммемы закрытых (непродуктивных) классов: по ним не предсказываем.
}

// --- СХЕМА ---

// Schema - скомпилированная схема граммем: быстрые индексы по значениям
// плюс реестр интернированных тегов. После загрузки словаря схема используется
// только на чтение; регистрация дополнительных граммем (EnsurePOSValue,
// EnsureGrammeme) допустима лишь на этапе сборки анализатора.
type Schema struct {
	data     SchemaData
	catIndex map[string]int      // значение граммемы -> индекс её категории
	extras   map[string]struct{} // граммемы вне категорий, зарегистрированные юнитами
	nonProd  map[string]struct{} // значения из NonProductive

	mu       sync.RWMutex
	interned map[string]*Tag // каноническая строка -> единственный экземпляр тега
}

// NewSchema строит схему из данных артефакта.
// Ошибкой считается пустой список категорий, пустое значение граммемы
// и одно и то же значение в двух категориях: тогда разбор тегов стал бы неоднозначным.
func NewSchema(data SchemaData) (*Schema, error) {
	if len(data.Categories) == 0 {
		return nil, fmt.Errorf("схема граммем не содержит ни одной категории")
	}

	s := &Schema{
		data:     data,
		catIndex: make(map[string]int),
		extras:   make(map[string]struct{}),
		nonProd:  make(map[string]struct{}),
		interned: make(map[string]*Tag),
	}

	for ci, cat := range data.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("категория %d не имеет имени", ci)
		}
		for _, v := range cat.Values {
			if v == "" {
				return nil, fmt.Errorf("категория %q содержит пустую граммему", cat.Name)
			}
			if prev, ok := s.catIndex[v]; ok {
				return nil, fmt.Errorf("граммема %q объявлена и в категории %q, и в категории %q",
					v, data.Categories[prev].Name, cat.Name)
			}
			s.catIndex[v] = ci
		}
	}

	for _, v := range data.NonProductive {
		s.nonProd[v] = struct{}{}
	}

	return s, nil
}

// Language возвращает код языка схемы.
func (s *Schema) Language() string { return s.data.Language }

// Categories возвращает копию описаний категорий (для интроспекции).
func (s *Schema) Categories() []CategoryData {
	out := make([]CategoryData, len(s.data.Categories))
	copy(out, s.data.Categories)
	return out
}

// CategoryOf возвращает имя категории, которой принадлежит граммема.
// Для граммем, зарегистрированных вне категорий, вторая компонента равна false.
func (s *Schema) CategoryOf(value string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ci, ok := s.catIndex[value]; ok {
		return s.data.Categories[ci].Name, true
	}
	return "", false
}

// EnsurePOSValue регистрирует новое значение части речи (категория 0).
// Используется юнитами-анализаторами для синтетических тегов вроде NUMBER или
// PUNCTUATION. Повторная регистрация уже известного значения безопасна.
func (s *Schema) EnsurePOSValue(value string) {
	if value == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.catIndex[value]; ok {
		return
	}
	if _, ok := s.extras[value]; ok {
		delete(s.extras, value)
	}
	s.data.Categories[0].Values = append(s.data.Categories[0].Values, value)
	s.catIndex[value] = 0
}

// EnsureGrammeme регистрирует внекатегорийную граммему (например, intg/real
// у числовых токенов). Такие граммемы не участвуют в проверке взаимных
// исключений.
func (s *Schema) EnsureGrammeme(value string) {
	if value == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.catIndex[value]; ok {
		return
	}
	s.extras[value] = struct{}{}
}

// knownLocked сообщает, известна ли граммема схеме. Вызывать под s.mu.
func (s *Schema) knownLocked(value string) bool {
	if _, ok := s.catIndex[value]; ok {
		return true
	}
	_, ok := s.extras[value]
	return ok
}
