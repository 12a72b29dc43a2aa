package tagset

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSchemaData - компактная схема в духе OpenCorpora для юнит-тестов пакета.
func testSchemaData() SchemaData {
	return SchemaData{
		Language: "ru",
		Categories: []CategoryData{
			{Name: "POS", Values: []string{"NOUN", "VERB", "ADJF", "PREP", "CONJ"}, Exclusive: true},
			{Name: "number", Values: []string{"sing", "plur"}, Exclusive: true},
			{Name: "case", Values: []string{"nomn", "gent", "accs"}, Exclusive: true},
			{Name: "tense", Values: []string{"past", "pres", "futr"}, Exclusive: true},
			{Name: "style", Values: []string{"Slng", "Arch", "Infr"}, Exclusive: false},
		},
		NonProductive: []string{"PREP", "CONJ"},
	}
}

func newTestSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema(testSchemaData())
	require.NoError(t, err)
	return s
}

func TestNewSchemaValidation(t *testing.T) {
	cases := []struct {
		name string
		data SchemaData
	}{
		{
			name: "нет ни одной категории",
			data: SchemaData{Language: "ru"},
		},
		{
			name: "категория без имени",
			data: SchemaData{Categories: []CategoryData{{Values: []string{"NOUN"}}}},
		},
		{
			name: "пустая граммема",
			data: SchemaData{Categories: []CategoryData{{Name: "POS", Values: []string{"NOUN", ""}}}},
		},
		{
			name: "граммема в двух категориях",
			data: SchemaData{Categories: []CategoryData{
				{Name: "POS", Values: []string{"NOUN"}},
				{Name: "number", Values: []string{"sing", "NOUN"}},
			}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSchema(tc.data)
			assert.Error(t, err)
		})
	}
}

func TestParseTagRoundTrip(t *testing.T) {
	s := newTestSchema(t)

	cases := []struct {
		name      string
		input     string
		canonical string
	}{
		{name: "запятые", input: "NOUN,sing,nomn", canonical: "NOUN,sing,nomn"},
		{name: "пробелы как разделители", input: "VERB past sing", canonical: "VERB,past,sing"},
		{name: "смешанные разделители", input: "NOUN,plur gent", canonical: "NOUN,plur,gent"},
		{name: "одиночная граммема", input: "PREP", canonical: "PREP"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tag, err := s.ParseTag(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.canonical, tag.String())

			// Повторный разбор канонической строки дает тот же интернированный экземпляр.
			again, err := s.ParseTag(tag.String())
			require.NoError(t, err)
			assert.Same(t, tag, again)
		})
	}
}

func TestParseTagInvalid(t *testing.T) {
	s := newTestSchema(t)

	cases := []struct {
		name  string
		input string
	}{
		{name: "пустая строка", input: ""},
		{name: "одни разделители", input: ", ,"},
		{name: "неизвестная граммема", input: "NOUN,bogus"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.ParseTag(tc.input)
			require.Error(t, err)

			var invalid *InvalidTagError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tc.input, invalid.Input)
			assert.NotEmpty(t, invalid.Reason)
		})
	}
}

func TestTagQueries(t *testing.T) {
	s := newTestSchema(t)
	tag := s.MustParseTag("NOUN,sing,nomn")

	assert.Equal(t, "NOUN", tag.POS())
	assert.True(t, tag.Contains("sing"))
	assert.False(t, tag.Contains("plur"))
	assert.True(t, tag.ContainsAll("NOUN", "nomn"))
	assert.False(t, tag.ContainsAll("NOUN", "gent"))

	// Grammemes отдает копию: порча результата не затрагивает тег.
	gs := tag.Grammemes()
	require.Equal(t, []string{"NOUN", "sing", "nomn"}, gs)
	gs[0] = "VERB"
	assert.Equal(t, "NOUN", tag.POS())
	assert.Equal(t, []string{"NOUN", "sing", "nomn"}, tag.Grammemes())

	// Первая граммема не из категории части речи: POS пуст.
	noPos := s.MustParseTag("sing,NOUN")
	assert.Equal(t, "", noPos.POS())
}

func TestTagMatches(t *testing.T) {
	s := newTestSchema(t)
	tag := s.MustParseTag("NOUN,sing,nomn")

	cases := []struct {
		name string
		pred Predicate
		want bool
	}{
		{name: "пустой предикат", pred: Predicate{}, want: true},
		{name: "все требуемые есть", pred: Predicate{Require: []string{"NOUN", "sing"}}, want: true},
		{name: "требуемой нет", pred: Predicate{Require: []string{"plur"}}, want: false},
		{name: "запрещенной нет", pred: Predicate{Exclude: []string{"VERB", "plur"}}, want: true},
		{name: "запрещенная есть", pred: Predicate{Require: []string{"NOUN"}, Exclude: []string{"nomn"}}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tag.Matches(tc.pred))
		})
	}
}

func TestTagIsConsistent(t *testing.T) {
	s := newTestSchema(t)

	cases := []struct {
		name string
		tag  string
		want bool
	}{
		{name: "согласованный тег", tag: "NOUN,sing,nomn", want: true},
		{name: "два числа", tag: "NOUN,sing,plur", want: false},
		{name: "два падежа", tag: "NOUN,nomn,gent", want: false},
		{name: "повтор в неэксклюзивной категории", tag: "NOUN,Slng,Arch", want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Несогласованный тег разбирается без ошибки: это отдельная проверка.
			tag, err := s.ParseTag(tc.tag)
			require.NoError(t, err)
			assert.Equal(t, tc.want, tag.IsConsistent())
		})
	}
}

func TestTagIsProductive(t *testing.T) {
	s := newTestSchema(t)

	assert.True(t, s.MustParseTag("NOUN,sing").IsProductive())
	assert.True(t, s.MustParseTag("VERB,past").IsProductive())
	assert.False(t, s.MustParseTag("PREP").IsProductive())
	assert.False(t, s.MustParseTag("CONJ").IsProductive())
}

func TestSchemaEnsure(t *testing.T) {
	s := newTestSchema(t)

	// До регистрации синтетическая часть речи неизвестна.
	_, err := s.ParseTag("ROMN")
	require.Error(t, err)

	s.EnsurePOSValue("ROMN")
	tag, err := s.ParseTag("ROMN")
	require.NoError(t, err)
	assert.Equal(t, "ROMN", tag.POS())

	cat, ok := s.CategoryOf("ROMN")
	require.True(t, ok)
	assert.Equal(t, "POS", cat)

	// Повторная регистрация безопасна.
	s.EnsurePOSValue("ROMN")
	s.EnsurePOSValue("NOUN")

	// Внекатегорийная граммема разбирается, но частью речи не считается.
	s.EnsureGrammeme("intg")
	numTag, err := s.ParseTag("intg")
	require.NoError(t, err)
	assert.Equal(t, "", numTag.POS())
	_, ok = s.CategoryOf("intg")
	assert.False(t, ok)

	// intg вне эксклюзивных категорий: согласованность не нарушается.
	s.EnsurePOSValue("NUMB")
	both := s.MustParseTag("NUMB,intg")
	assert.True(t, both.IsConsistent())
}

func TestTagEqual(t *testing.T) {
	s1 := newTestSchema(t)
	s2 := newTestSchema(t)

	a := s1.MustParseTag("NOUN,sing")
	b := s1.MustParseTag("NOUN sing")
	c := s2.MustParseTag("NOUN,sing")
	d := s1.MustParseTag("NOUN,plur")

	assert.True(t, a.Equal(b))
	assert.Same(t, a, b)

	// Теги разных схем равны по канонической строке, но не идентичны.
	assert.True(t, a.Equal(c))
	assert.NotSame(t, a, c)

	assert.False(t, a.Equal(d))

	var nilTag *Tag
	assert.False(t, a.Equal(nilTag))
	assert.True(t, nilTag.Equal(nil))
}

func TestTagMarshalJSON(t *testing.T) {
	s := newTestSchema(t)
	tag := s.MustParseTag("NOUN,sing,nomn")

	raw, err := json.Marshal(tag)
	require.NoError(t, err)
	assert.Equal(t, `"NOUN,sing,nomn"`, string(raw))
}
