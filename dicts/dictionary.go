// Этот файл содержит загрузку скомпилированного словаря и доступ к его
// данным: лексикону, парадигмам, предсказателю и таблице вероятностей.
// Ключевая особенность - использование mmap для Zero-Copy загрузки, что
// минимизирует потребление ОЗУ: плоские массивы DAWG остаются в файле,
// ОС подгружает страницы по мере обращения.
package dicts

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"strings"
	"unsafe"

	"github.com/edsrzf/mmap-go"

	"github.com/steosofficial/morphema/dawg"
	"github.com/steosofficial/morphema/tagset"
)

// headerSize - размер заголовка в байтах. Для Header упакованное
// представление binary.Write совпадает с раскладкой в памяти.
var headerSize = int64(unsafe.Sizeof(Header{}))

// --- ПАРАДИГМЫ ---

// Rule - одно правило парадигмы: изменяемый префикс, суффикс и тег формы.
// Словоформа получается как Prefix + основа + Suffix.
type Rule struct {
	Prefix string
	Suffix string
	Tag    *tagset.Tag
}

// Paradigm - парадигма словаря: полный набор правил словоизменения одной
// модели. Хранится плоским срезом длины 3N:
//
//	[0:N]   - индексы суффиксов в пуле суффиксов
//	[N:2N]  - индексы тегов в пуле тегов
//	[2N:3N] - индексы префиксов в пуле префиксов
//
// Правило с номером 0 порождает лемму.
type Paradigm struct {
	dict *Dictionary
	id   uint32
}

// ID возвращает номер парадигмы в словаре.
func (p Paradigm) ID() uint32 { return p.id }

func (p Paradigm) row() []uint16 { return p.dict.paradigms[p.id] }

// Size возвращает количество правил (форм) парадигмы.
func (p Paradigm) Size() int { return len(p.row()) / 3 }

// Rule возвращает правило с данным номером.
func (p Paradigm) Rule(formIdx int) Rule {
	row := p.row()
	n := len(row) / 3
	return Rule{
		Prefix: p.dict.prefixPool[row[2*n+formIdx]],
		Suffix: p.dict.suffixPool[row[formIdx]],
		Tag:    p.dict.tags[row[n+formIdx]],
	}
}

// LemmaRule возвращает правило леммы (номер 0).
func (p Paradigm) LemmaRule() Rule { return p.Rule(0) }

// Apply строит словоформу по правилу: префикс + основа + суффикс.
func (p Paradigm) Apply(stem string, formIdx int) string {
	r := p.Rule(formIdx)
	return r.Prefix + stem + r.Suffix
}

// RuleIndexForTag ищет первое правило, тег которого в точности равен
// данному. Вторая компонента равна false, если такого правила нет.
func (p Paradigm) RuleIndexForTag(tag *tagset.Tag) (int, bool) {
	n := p.Size()
	for i := 0; i < n; i++ {
		if p.Rule(i).Tag.Equal(tag) {
			return i, true
		}
	}
	return 0, false
}

// ExtractStem снимает со слова аффиксы правила formIdx и возвращает голую
// основу. Вторая компонента равна false, если слово не несет этих аффиксов.
func (p Paradigm) ExtractStem(word string, formIdx int) (string, bool) {
	r := p.Rule(formIdx)
	if len(r.Prefix)+len(r.Suffix) > len(word) {
		return "", false
	}
	if !strings.HasPrefix(word, r.Prefix) || !strings.HasSuffix(word, r.Suffix) {
		return "", false
	}
	return word[len(r.Prefix) : len(word)-len(r.Suffix)], true
}

// --- СЛОВАРЬ ---

// Dictionary - загруженный словарь. После загрузки все данные используются
// только на чтение, поэтому словарь безопасен для конкурентного доступа.
// Один словарь могут разделять несколько анализаторов.
type Dictionary struct {
	schema *tagset.Schema

	words   *dawg.Automaton[EntryInfo] // Лексикон: словоформа -> записи.
	guesses *dawg.Automaton[GuessInfo] // Предсказатель: хвост -> парадигмы.
	probs   *dawg.Automaton[ProbInfo]  // Вероятности: слово -> оценки P(тег|слово).

	stemPool   []string
	suffixPool []string
	prefixPool []string
	tagPool    []string
	tags       []*tagset.Tag // Разобранные теги, параллельно tagPool.
	paradigms  [][]uint16

	knownPrefixes   []string
	hyphenParticles []string
	substitutes     map[rune][]rune

	// Ссылка на mmap-объект, чтобы он не был собран сборщиком мусора
	// и память оставалась доступной.
	mmapFile mmap.MMap
	path     string
}

// Load загружает бинарный словарь: читает его заголовок, декодирует
// "сложную" часть и создает виртуальные срезы для "сырых" данных.
func Load(path string) (*Dictionary, error) {
	// 1. Открываем файл.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла словаря: %w", err)
	}
	defer file.Close()

	// 2. Отображаем весь файл в виртуальное адресное пространство процесса.
	// Файл не копируется в ОЗУ, ОС сама подгружает нужные страницы.
	mmapFile, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("ошибка mmap.Map: %w", err)
	}

	d, err := loadMapped(mmapFile, path)
	if err != nil {
		_ = mmapFile.Unmap()
		return nil, err
	}
	return d, nil
}

func loadMapped(mmapFile mmap.MMap, path string) (*Dictionary, error) {
	// 3. Читаем заголовок (карту файла) прямо из mmap-среза.
	if int64(len(mmapFile)) < headerSize {
		return nil, &FormatError{Path: path, Reason: "файл слишком мал для заголовка"}
	}
	var header Header
	if err := binary.Read(bytes.NewReader(mmapFile[:headerSize]), binary.LittleEndian, &header); err != nil {
		return nil, &FormatError{Path: path, Reason: "ошибка чтения заголовка", Err: err}
	}
	if header.Magic != Magic {
		return nil, &FormatError{Path: path, Reason: "неверная сигнатура файла"}
	}
	// Минорные отличия совместимы, расхождение мажорной версии - нет.
	if header.VersionMajor != FormatVersionMajor {
		return nil, &FormatError{Path: path, Reason: fmt.Sprintf(
			"несовместимая версия формата %d.%d, поддерживается %d.x",
			header.VersionMajor, header.VersionMinor, FormatVersionMajor)}
	}

	// 4. Декодируем "сложный" блок (пулы, парадигмы, схема) с помощью gob.
	if header.ComplexOffset < headerSize || header.ComplexLength < 0 ||
		header.ComplexOffset+header.ComplexLength > int64(len(mmapFile)) {
		return nil, &FormatError{Path: path, Reason: "блок сложных данных выходит за границы файла"}
	}
	compressed := mmapFile[header.ComplexOffset : header.ComplexOffset+header.ComplexLength]

	gzipReader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, &FormatError{Path: path, Reason: "ошибка создания gzip.Reader", Err: err}
	}
	decompressed, err := io.ReadAll(gzipReader)
	if err != nil {
		return nil, &FormatError{Path: path, Reason: "ошибка распаковки данных", Err: err}
	}
	if err := gzipReader.Close(); err != nil {
		return nil, &FormatError{Path: path, Reason: "ошибка закрытия gzip.Reader", Err: err}
	}

	var cx complexData
	if err := gob.NewDecoder(bytes.NewReader(decompressed)).Decode(&cx); err != nil {
		return nil, &FormatError{Path: path, Reason: "ошибка gob-декодирования", Err: err}
	}

	// 5. Создаем виртуальные срезы поверх mmap-области и собираем автоматы.
	words, err := mappedAutomaton[EntryInfo](mmapFile, path,
		header.WordNodesOffset, header.WordNodesCount,
		header.WordEdgesOffset, header.WordEdgesCount,
		header.WordPayloadsOffset, header.WordPayloadsCount)
	if err != nil {
		return nil, err
	}
	guesses, err := mappedAutomaton[GuessInfo](mmapFile, path,
		header.GuessNodesOffset, header.GuessNodesCount,
		header.GuessEdgesOffset, header.GuessEdgesCount,
		header.GuessPayloadsOffset, header.GuessPayloadsCount)
	if err != nil {
		return nil, err
	}
	probs, err := mappedAutomaton[ProbInfo](mmapFile, path,
		header.ProbNodesOffset, header.ProbNodesCount,
		header.ProbEdgesOffset, header.ProbEdgesCount,
		header.ProbPayloadsOffset, header.ProbPayloadsCount)
	if err != nil {
		return nil, err
	}

	// 6. Проверяем согласованность сложного блока и разбираем пул тегов.
	schema, err := tagset.NewSchema(cx.Schema)
	if err != nil {
		return nil, &FormatError{Path: path, Reason: "некорректная схема граммем", Err: err}
	}

	tags := make([]*tagset.Tag, len(cx.TagPool))
	for i, str := range cx.TagPool {
		tags[i], err = schema.ParseTag(str)
		if err != nil {
			return nil, &FormatError{Path: path, Reason: "пул тегов содержит неразбираемый тег", Err: err}
		}
	}

	for pid, row := range cx.Paradigms {
		if len(row) == 0 || len(row)%3 != 0 {
			return nil, &FormatError{Path: path, Reason: fmt.Sprintf("парадигма %d имеет некорректную длину %d", pid, len(row))}
		}
		n := len(row) / 3
		for i := 0; i < n; i++ {
			if int(row[i]) >= len(cx.SuffixPool) || int(row[n+i]) >= len(cx.TagPool) || int(row[2*n+i]) >= len(cx.PrefixPool) {
				return nil, &FormatError{Path: path, Reason: fmt.Sprintf("парадигма %d ссылается за пределы пулов", pid)}
			}
		}
	}

	// 7. Инициализируем и возвращаем готовый к работе словарь.
	return &Dictionary{
		schema:          schema,
		words:           words,
		guesses:         guesses,
		probs:           probs,
		stemPool:        cx.StemPool,
		suffixPool:      cx.SuffixPool,
		prefixPool:      cx.PrefixPool,
		tagPool:         cx.TagPool,
		tags:            tags,
		paradigms:       cx.Paradigms,
		knownPrefixes:   cx.KnownPrefixes,
		hyphenParticles: cx.HyphenParticles,
		substitutes:     cx.Substitutes,
		mmapFile:        mmapFile,
		path:            path,
	}, nil
}

// mappedAutomaton строит автомат поверх трех секций mmap-области,
// проверяя, что секции не выходят за границы файла.
func mappedAutomaton[P any](m mmap.MMap, path string, nodesOff, nodesCount, edgesOff, edgesCount, payloadsOff, payloadsCount int64) (*dawg.Automaton[P], error) {
	nodes, err := mappedSection[dawg.Node](m, path, nodesOff, nodesCount)
	if err != nil {
		return nil, err
	}
	edges, err := mappedSection[dawg.Edge](m, path, edgesOff, edgesCount)
	if err != nil {
		return nil, err
	}
	payloads, err := mappedSection[P](m, path, payloadsOff, payloadsCount)
	if err != nil {
		return nil, err
	}
	a, err := dawg.New(nodes, edges, payloads)
	if err != nil {
		return nil, &FormatError{Path: path, Reason: "пустая секция автомата", Err: err}
	}
	return a, nil
}

// mappedSection возвращает виртуальный срез из count элементов типа T,
// начинающийся с данного смещения файла. Данные не копируются.
// Границы проверяются делением, а не умножением: count*size у испорченного
// заголовка может переполнить int64 и проскочить проверку.
func mappedSection[T any](m mmap.MMap, path string, offset, count int64) ([]T, error) {
	var t T
	size := int64(unsafe.Sizeof(t))
	if count < 0 || offset < headerSize || offset > int64(len(m)) || count > (int64(len(m))-offset)/size {
		return nil, &FormatError{Path: path, Reason: fmt.Sprintf("секция со смещением %d (%d элементов) выходит за границы файла", offset, count)}
	}
	return bytesToSlice[T](m[offset : offset+count*size]), nil
}

// Close освобождает отображенную память. После закрытия словарь
// использовать нельзя.
func (d *Dictionary) Close() error {
	if d.mmapFile == nil {
		return nil
	}
	err := d.mmapFile.Unmap()
	d.mmapFile = nil
	return err
}

// --- ДОСТУП К ЛЕКСИКОНУ ---

// Entries возвращает записи лексикона для точно совпавшей словоформы.
// Возвращаемый срез - окно в mmap-область: модифицировать его нельзя.
func (d *Dictionary) Entries(word string) []EntryInfo {
	payloads, ok := d.words.Lookup(word)
	if !ok {
		return nil
	}
	return payloads
}

// SimilarEntries возвращает записи лексикона с учетом таблицы замен
// символов. Точное совпадение, если оно есть, всегда идет первым.
func (d *Dictionary) SimilarEntries(word string) []dawg.Match[EntryInfo] {
	return d.words.LookupSimilar(word, d.substitutes)
}

// IsKnown сообщает, есть ли словоформа в лексиконе.
func (d *Dictionary) IsKnown(word string) bool {
	return d.words.Contains(word)
}

// WordsWithPrefix обходит словоформы лексикона с данным префиксом.
// Если fn возвращает false, обход прекращается.
func (d *Dictionary) WordsWithPrefix(prefix string, fn func(word string, entries []EntryInfo) bool) {
	d.words.WalkPrefix(prefix, fn)
}

// GuessByTail возвращает записи предсказателя для данного хвоста слова.
func (d *Dictionary) GuessByTail(tail string) []GuessInfo {
	payloads, ok := d.guesses.Lookup(tail)
	if !ok {
		return nil
	}
	return payloads
}

// --- СВОЙСТВА ЗАПИСЕЙ ---

// Stem возвращает основу записи лексикона.
func (d *Dictionary) Stem(e EntryInfo) string {
	return d.stemPool[e.StemID]
}

// TagOf возвращает тег словоформы, на которую указывает запись.
func (d *Dictionary) TagOf(e EntryInfo) *tagset.Tag {
	row := d.paradigms[e.ParadigmID]
	n := len(row) / 3
	return d.tags[row[n+int(e.FormIdx)]]
}

// NormalForm строит лемму записи: правило 0 ее парадигмы поверх основы.
func (d *Dictionary) NormalForm(e EntryInfo) string {
	return d.Paradigm(e.ParadigmID).Apply(d.stemPool[e.StemID], 0)
}

// Paradigm возвращает представление парадигмы по ее номеру.
func (d *Dictionary) Paradigm(id uint32) Paradigm {
	return Paradigm{dict: d, id: id}
}

// ParadigmCount возвращает количество парадигм словаря.
func (d *Dictionary) ParadigmCount() int { return len(d.paradigms) }

// --- ВСПОМОГАТЕЛЬНЫЕ ТАБЛИЦЫ ---

// Schema возвращает схему граммем словаря.
func (d *Dictionary) Schema() *tagset.Schema { return d.schema }

// Language возвращает код языка словаря.
func (d *Dictionary) Language() string { return d.schema.Language() }

// KnownPrefixes возвращает список продуктивных приставок языка.
func (d *Dictionary) KnownPrefixes() []string { return d.knownPrefixes }

// HyphenParticles возвращает список частиц, пишущихся через дефис.
func (d *Dictionary) HyphenParticles() []string { return d.hyphenParticles }

// Substitutes возвращает таблицу взаимозаменяемых символов.
func (d *Dictionary) Substitutes() map[rune][]rune { return d.substitutes }

// Path возвращает путь к файлу, из которого словарь был загружен.
func (d *Dictionary) Path() string { return d.path }

// --- СТАТИСТИКА ---

// Footprint - размеры загруженного словаря для диагностики и логов.
type Footprint struct {
	FileBytes int64 // Размер файла словаря.

	WordNodes   int // Узлов в DAWG лексикона.
	WordEdges   int
	WordEntries int // Записей лексикона.

	GuessNodes   int
	GuessEdges   int
	GuessEntries int

	ProbNodes   int
	ProbEdges   int
	ProbEntries int

	Stems     int
	Paradigms int
	Tags      int
}

// Footprint возвращает статистику словаря.
func (d *Dictionary) Footprint() Footprint {
	return Footprint{
		FileBytes:    int64(len(d.mmapFile)),
		WordNodes:    len(d.words.Nodes()),
		WordEdges:    len(d.words.Edges()),
		WordEntries:  len(d.words.Payloads()),
		GuessNodes:   len(d.guesses.Nodes()),
		GuessEdges:   len(d.guesses.Edges()),
		GuessEntries: len(d.guesses.Payloads()),
		ProbNodes:    len(d.probs.Nodes()),
		ProbEdges:    len(d.probs.Edges()),
		ProbEntries:  len(d.probs.Payloads()),
		Stems:        len(d.stemPool),
		Paradigms:    len(d.paradigms),
		Tags:         len(d.tagPool),
	}
}
