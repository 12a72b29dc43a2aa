package dawg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAndLookup(t *testing.T) {
	b := NewBuilder[int]()
	b.Insert("кот", 1)
	b.Insert("кошка", 2)
	b.Insert("кошке", 3)

	a := b.Build()
	require.Equal(t, 3, b.Words())

	payloads, ok := a.Lookup("кошка")
	require.True(t, ok)
	assert.Equal(t, []int{2}, payloads)

	assert.True(t, a.Contains("кот"))

	// Префикс слова сам по себе словом не является.
	_, ok = a.Lookup("кош")
	assert.False(t, ok)
	assert.False(t, a.Contains("кош"))

	_, ok = a.Lookup("собака")
	assert.False(t, ok)
}

func TestLookupHomonyms(t *testing.T) {
	b := NewBuilder[int]()
	b.Insert("печь", 10)
	b.Insert("печь", 20)

	a := b.Build()
	assert.Equal(t, 1, b.Words())

	payloads, ok := a.Lookup("печь")
	require.True(t, ok)
	assert.Equal(t, []int{10, 20}, payloads)
}

func TestMinimization(t *testing.T) {
	// Четыре слова с общей структурой и одинаковой нагрузкой:
	// г/к -> о -> д/л. После минимизации остаются четыре узла:
	// корень, общий узел первой буквы, общий узел "о" и общий финал.
	b := NewBuilder[int]()
	for _, w := range []string{"год", "гол", "код", "кол"} {
		b.Insert(w, 7)
	}

	a := b.Build()
	assert.Len(t, a.Nodes(), 4)
	assert.Len(t, a.Edges(), 5)
	assert.Len(t, a.Payloads(), 1)

	for _, w := range []string{"год", "гол", "код", "кол"} {
		payloads, ok := a.Lookup(w)
		require.True(t, ok, w)
		assert.Equal(t, []int{7}, payloads, w)
	}
}

func TestMinimizationKeepsDistinctPayloads(t *testing.T) {
	// Одинаковые хвосты с разной нагрузкой сливаться не должны.
	b := NewBuilder[int]()
	b.Insert("год", 1)
	b.Insert("код", 2)

	a := b.Build()

	p1, ok := a.Lookup("год")
	require.True(t, ok)
	p2, ok := a.Lookup("код")
	require.True(t, ok)
	assert.Equal(t, []int{1}, p1)
	assert.Equal(t, []int{2}, p2)
}

func TestWalkPrefix(t *testing.T) {
	b := NewBuilder[int]()
	b.Insert("кот", 1)
	b.Insert("кошка", 2)
	b.Insert("кошками", 3)
	b.Insert("кошке", 4)

	a := b.Build()

	var words []string
	a.WalkPrefix("кош", func(word string, payloads []int) bool {
		words = append(words, word)
		return true
	})
	// Обход лексикографический: ребра каждого узла отсортированы.
	assert.Equal(t, []string{"кошка", "кошками", "кошке"}, words)

	// Пустой префикс обходит весь словарь.
	words = words[:0]
	a.WalkPrefix("", func(word string, payloads []int) bool {
		words = append(words, word)
		return true
	})
	assert.Equal(t, []string{"кот", "кошка", "кошками", "кошке"}, words)

	// Несуществующий префикс не дает ни одного вызова.
	calls := 0
	a.WalkPrefix("собак", func(string, []int) bool {
		calls++
		return true
	})
	assert.Zero(t, calls)
}

func TestWalkPrefixEarlyStop(t *testing.T) {
	b := NewBuilder[int]()
	b.Insert("кошка", 1)
	b.Insert("кошками", 2)
	b.Insert("кошке", 3)

	a := b.Build()

	var words []string
	a.WalkPrefix("кош", func(word string, payloads []int) bool {
		words = append(words, word)
		return false
	})
	// false из колбэка останавливает обход после первого же слова.
	assert.Equal(t, []string{"кошка"}, words)
}

func TestLookupSimilar(t *testing.T) {
	b := NewBuilder[int]()
	b.Insert("все", 1)
	b.Insert("всё", 2)
	b.Insert("ёж", 3)

	a := b.Build()
	subs := map[rune][]rune{'е': {'ё'}}

	// Точное совпадение всегда первое, варианты с заменами - после него.
	matches := a.LookupSimilar("все", subs)
	require.Len(t, matches, 2)
	assert.Equal(t, "все", matches[0].Word)
	assert.Equal(t, []int{1}, matches[0].Payloads)
	assert.Equal(t, "всё", matches[1].Word)
	assert.Equal(t, []int{2}, matches[1].Payloads)

	// Слово находится только через замену.
	matches = a.LookupSimilar("еж", subs)
	require.Len(t, matches, 1)
	assert.Equal(t, "ёж", matches[0].Word)

	assert.Empty(t, a.LookupSimilar("нет", subs))

	// Без таблицы замен - обычный точный поиск.
	matches = a.LookupSimilar("всё", nil)
	require.Len(t, matches, 1)
	assert.Equal(t, "всё", matches[0].Word)
}

func TestNewValidation(t *testing.T) {
	_, err := New[int](nil, nil, nil)
	assert.Error(t, err)

	a, err := New([]Node{{}}, nil, []int{})
	require.NoError(t, err)
	assert.False(t, a.Contains("слово"))
}
