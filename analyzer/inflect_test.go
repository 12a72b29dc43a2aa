package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInflect(t *testing.T) {
	schema := morph.Schema()

	cases := []struct {
		name     string
		lemma    string
		target   string
		expected string
		ok       bool
	}{
		{
			name:     "Множественное число существительного",
			lemma:    "fox",
			target:   "NOUN,plur",
			expected: "foxes",
			ok:       true,
		},
		{
			name:     "Супплетивная превосходная степень",
			lemma:    "good",
			target:   "ADJF,Supr",
			expected: "best",
			ok:       true,
		},
		{
			name:     "Лемма в саму себя",
			lemma:    "fox",
			target:   "NOUN,sing",
			expected: "fox",
			ok:       true,
		},
		{
			name:     "Регистр леммы не важен",
			lemma:    "Fox",
			target:   "NOUN,plur",
			expected: "foxes",
			ok:       true,
		},
		{
			name:   "В парадигме нет такой формы",
			lemma:  "fox",
			target: "VERB,past",
			ok:     false,
		},
		{
			name:   "Леммы нет в словаре",
			lemma:  "lox",
			target: "NOUN,plur",
			ok:     false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			word, ok := morph.Inflect(tc.lemma, schema.MustParseTag(tc.target))
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, word)
			}
		})
	}
}

func TestInflectMatching(t *testing.T) {
	schema := morph.Schema()

	// Лемма "walk" омонимична: глагольная и именная парадигмы. Опорный тег
	// выбирает между ними.
	word, ok := morph.InflectMatching("walk", schema.MustParseTag("VERB,past"), schema.MustParseTag("VERB"))
	require.True(t, ok)
	assert.Equal(t, "walked", word)

	word, ok = morph.InflectMatching("walk", schema.MustParseTag("NOUN,plur"), schema.MustParseTag("NOUN"))
	require.True(t, ok)
	assert.Equal(t, "walks", word)

	// Опорный тег отсекает парадигму, в которой запрошенная форма есть.
	_, ok = morph.InflectMatching("walk", schema.MustParseTag("VERB,past"), schema.MustParseTag("NOUN"))
	assert.False(t, ok)

	// "saw" - лемма только у существительного; глагольная запись формы
	// saw леммой не является и не рассматривается.
	word, ok = morph.Inflect("saw", schema.MustParseTag("NOUN,plur"))
	require.True(t, ok)
	assert.Equal(t, "saws", word)
}

func TestInflectIdempotence(t *testing.T) {
	// Для каждого словарного разбора склонение леммы к тегу разбора
	// воспроизводит исходную словоформу.
	for _, word := range []string{"fox", "foxes", "better", "walked", "saws"} {
		for _, p := range morph.Analyze(word) {
			if p.Method != MethodDictionary {
				continue
			}
			got, ok := morph.Inflect(p.NormalForm, p.Tag)
			require.True(t, ok, "разбор (%s, %s) должен склоняться обратно", p.NormalForm, p.Tag)
			assert.Equal(t, p.Word, got)
		}
	}
}

func TestInflectParse(t *testing.T) {
	schema := morph.Schema()

	// Разбор по известной приставке склоняется с сохранением приставки.
	parses := morph.Analyze("supermarket")
	require.NotEmpty(t, parses)
	inflected, ok := morph.InflectParse(parses[0], schema.MustParseTag("NOUN,plur"))
	require.True(t, ok)
	assert.Equal(t, "supermarkets", inflected.Word)
	assert.Equal(t, "NOUN,plur", inflected.Tag.String())

	// Дефисный компаунд сохраняет неизменяемую левую часть.
	parses = morph.Analyze("dog-fox")
	p := findParse(parses, "dog-fox", "NOUN,sing")
	require.NotNil(t, p)
	inflected, ok = morph.InflectParse(*p, schema.MustParseTag("NOUN,plur"))
	require.True(t, ok)
	assert.Equal(t, "dog-foxes", inflected.Word)

	// Небуквенный разбор парадигмы не имеет и не склоняется.
	parses = morph.Analyze("2026")
	require.NotEmpty(t, parses)
	_, ok = morph.InflectParse(parses[0], schema.MustParseTag("NOUN,plur"))
	assert.False(t, ok)
}

func TestLexeme(t *testing.T) {
	parses := morph.Analyze("better")
	require.NotEmpty(t, parses)

	lexeme := morph.Lexeme(parses[0])
	words := make([]string, len(lexeme))
	for i, f := range lexeme {
		words[i] = f.Word
	}
	// Формы идут в порядке правил парадигмы, лемма первой.
	assert.Equal(t, []string{"good", "better", "best"}, words)

	// Лексема содержит саму разобранную словоформу.
	assert.Contains(t, words, parses[0].Word)
}

func TestLexemeContainsOwnWord(t *testing.T) {
	// Свойство покрытия: любой разбор - одна из форм собственной лексемы.
	for _, word := range []string{"foxes", "walked", "supermarket", "loxes", "fox-like", "2026"} {
		for _, p := range morph.Analyze(word) {
			var words []string
			for _, f := range morph.Lexeme(p) {
				words = append(words, f.Word)
			}
			assert.Contains(t, words, p.Word, "лексема разбора %q (%s)", p.Word, p.Method)
		}
	}
}

func TestLexemeGuessedWord(t *testing.T) {
	// Предсказанное слово склоняется по угаданной парадигме.
	parses := morph.Analyze("loxes")
	p := findParse(parses, "lox", "NOUN,plur")
	require.NotNil(t, p)

	lexeme := morph.Lexeme(*p)
	require.Len(t, lexeme, 2)
	assert.Equal(t, "lox", lexeme[0].Word)
	assert.Equal(t, "loxes", lexeme[1].Word)
}

func TestForms(t *testing.T) {
	forms := morph.Forms("walk")

	// Обе лексемы омонима, без повторов, в алфавитном порядке словоформ.
	var words []string
	for _, f := range forms {
		words = append(words, f.Word)
	}
	assert.Equal(t, []string{"walk", "walk", "walked", "walks"}, words)
	assert.True(t, sortedByWord(forms))

	assert.Empty(t, morph.Forms("2026"))
}
