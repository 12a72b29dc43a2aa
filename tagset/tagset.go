package tagset

import (
	"encoding/json"
	"fmt"
	"strings"
)

// InvalidTagError - ошибка разбора строки тега: пустая строка либо граммема,
// неизвестная схеме. Несогласованные, но синтаксически корректные сочетания
// ошибкой не считаются — их выявляет Tag.IsConsistent.
type InvalidTagError struct {
	Input  string // Исходная строка, переданная в ParseTag.
	Reason string // Человекочитаемая причина.
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("некорректный тег %q: %s", e.Input, e.Reason)
}

// Tag - неизменяемый грамматический тег: часть речи плюс набор граммем.
// Экземпляры интернируются схемой: одинаковые теги — это один и тот же
// указатель, поэтому теги можно дешево сравнивать и использовать как ключи.
type Tag struct {
	str       string              // каноническая строка (граммемы через запятую)
	grammemes []string            // граммемы в порядке появления
	set       map[string]struct{} // членство для быстрых проверок
	pos       string              // значение категории 0, если первая граммема ей принадлежит
	schema    *Schema
}

// ParseTag разбирает компактную строку тега. Разделителями служат запятая и
// пробел (исторический формат словарей пишет часть граммем через пробел).
// Возвращаемый тег интернирован: повторный разбор эквивалентной строки
// возвращает тот же указатель.
func (s *Schema) ParseTag(str string) (*Tag, error) {
	fields := strings.FieldsFunc(str, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil, &InvalidTagError{Input: str, Reason: "тег не содержит ни одной граммемы"}
	}

	s.mu.RLock()
	for _, g := range fields {
		if !s.knownLocked(g) {
			s.mu.RUnlock()
			return nil, &InvalidTagError{Input: str, Reason: fmt.Sprintf("граммема %q неизвестна схеме", g)}
		}
	}
	canonical := strings.Join(fields, ",")
	if t, ok := s.interned[canonical]; ok {
		s.mu.RUnlock()
		return t, nil
	}
	pos := ""
	if ci, ok := s.catIndex[fields[0]]; ok && ci == 0 {
		pos = fields[0]
	}
	s.mu.RUnlock()

	t := &Tag{
		str:       canonical,
		grammemes: fields,
		set:       make(map[string]struct{}, len(fields)),
		pos:       pos,
		schema:    s,
	}
	for _, g := range fields {
		t.set[g] = struct{}{}
	}

	// Под полной блокировкой перепроверяем: тег могли интернировать параллельно.
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.interned[canonical]; ok {
		return prev, nil
	}
	s.interned[canonical] = t
	return t, nil
}

// MustParseTag - вариант ParseTag для заведомо корректных строк
// (инициализация юнитов, тесты). Паникует при ошибке.
func (s *Schema) MustParseTag(str string) *Tag {
	t, err := s.ParseTag(str)
	if err != nil {
		panic(err)
	}
	return t
}

// String возвращает каноническую строку тега. ParseTag(t.String()) == t.
func (t *Tag) String() string { return t.str }

// POS возвращает часть речи тега либо пустую строку, если первая граммема
// не принадлежит категории части речи.
func (t *Tag) POS() string { return t.pos }

// Grammemes возвращает копию списка граммем в порядке появления.
func (t *Tag) Grammemes() []string {
	out := make([]string, len(t.grammemes))
	copy(out, t.grammemes)
	return out
}

// Contains сообщает, входит ли граммема в тег.
func (t *Tag) Contains(g string) bool {
	_, ok := t.set[g]
	return ok
}

// ContainsAll сообщает, входят ли в тег все перечисленные граммемы.
func (t *Tag) ContainsAll(gs ...string) bool {
	for _, g := range gs {
		if !t.Contains(g) {
			return false
		}
	}
	return true
}

// Predicate - условие отбора тегов: обязательные и запрещенные граммемы.
// Используется при фильтрации кандидатов генерации.
type Predicate struct {
	Require []string // Все эти граммемы обязаны присутствовать.
	Exclude []string // Ни одной из этих граммем быть не должно.
}

// Matches проверяет тег на соответствие условию.
func (t *Tag) Matches(p Predicate) bool {
	for _, g := range p.Require {
		if !t.Contains(g) {
			return false
		}
	}
	for _, g := range p.Exclude {
		if t.Contains(g) {
			return false
		}
	}
	return true
}

// IsConsistent проверяет инвариант взаимного исключения: в эксклюзивной
// категории тег не может нести больше одного значения.
func (t *Tag) IsConsistent() bool {
	seen := make(map[int]string, len(t.grammemes))
	t.schema.mu.RLock()
	defer t.schema.mu.RUnlock()
	for _, g := range t.grammemes {
		ci, ok := t.schema.catIndex[g]
		if !ok || !t.schema.data.Categories[ci].Exclusive {
			continue
		}
		if _, dup := seen[ci]; dup {
			return false
		}
		seen[ci] = g
	}
	return true
}

// IsProductive сообщает, принадлежит ли тег продуктивному классу слов.
// Теги закрытых классов (предлоги, союзы и т.п.) не используются
// предсказателями несловарных слов.
func (t *Tag) IsProductive() bool {
	for _, g := range t.grammemes {
		if _, ok := t.schema.nonProd[g]; ok {
			return false
		}
	}
	return true
}

// Equal сравнивает теги по канонической строке. Для тегов одной схемы это
// эквивалентно сравнению указателей, но Equal корректен и между схемами.
func (t *Tag) Equal(o *Tag) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t == o || t.str == o.str
}

// MarshalJSON сериализует тег как каноническую строку.
func (t *Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.str)
}
