// Этот файл содержит компилятор словаря: из исходного лексикона, корпусных
// вероятностей и схемы граммем он строит бинарный артефакт, пригодный для
// Zero-Copy загрузки через Load. Компиляция выполняется один раз при сборке
// словаря, поэтому код оптимизирован под простоту, а не под скорость.
package dicts

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/steosofficial/morphema/dawg"
	"github.com/steosofficial/morphema/tagset"
)

// --- ИСХОДНЫЕ ДАННЫЕ ---

// Form - одна словоформа лексемы с ее тегом.
type Form struct {
	Word string
	Tag  string
}

// Lexeme - полный упорядоченный набор форм одного слова.
// Первая форма считается леммой.
type Lexeme struct {
	Forms []Form
}

// ProbabilityEntry - корпусная оценка условной вероятности P(тег|слово).
type ProbabilityEntry struct {
	Word  string
	Tag   string
	Score float64
}

// Source - все исходные данные словаря.
type Source struct {
	Schema          tagset.SchemaData  // Схема граммем языка.
	Lexemes         []Lexeme           // Лексикон.
	Probabilities   []ProbabilityEntry // Оценки из размеченного корпуса.
	KnownPrefixes   []string           // Продуктивные приставки языка.
	HyphenParticles []string           // Частицы, пишущиеся через дефис.
	Substitutes     map[rune][]rune    // Взаимозаменяемые символы.

	// ParadigmPrefixes - изменяемые префиксы правил (например "по-", "наи-"
	// у превосходных степеней). Пустой префикс разрешен всегда.
	ParadigmPrefixes []string
}

// CompileOptions - настройки компиляции словаря.
type CompileOptions struct {
	MinEndingFreq int // Порог частоты хвоста для предсказателя; по умолчанию 2.
	MaxTailLen    int // Максимальная длина хвоста в рунах; по умолчанию 5.

	Logger *slog.Logger // nil означает slog.Default().
}

// Save компилирует исходные данные и записывает артефакт словаря в файл.
func Save(path string, src Source, opts CompileOptions) error {
	if opts.MinEndingFreq <= 0 {
		opts.MinEndingFreq = 2
	}
	if opts.MaxTailLen <= 0 {
		opts.MaxTailLen = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// 1. Проверяем схему: все теги источника будут разбираться через нее.
	schema, err := tagset.NewSchema(src.Schema)
	if err != nil {
		return fmt.Errorf("некорректная схема граммем: %w", err)
	}

	c := newCompiler(schema, src.ParadigmPrefixes)

	// 2. Извлекаем парадигмы, наполняем лексикон и статистику хвостов.
	for _, lex := range src.Lexemes {
		if err := c.addLexeme(lex, opts.MaxTailLen); err != nil {
			return err
		}
	}

	// 3. Строим автомат лексикона.
	words := c.words.Build()

	// 4. Разрешаем корпусные оценки в пары (парадигма, форма) по готовому
	// лексикону и строим таблицу вероятностей и предсказатель.
	probs, err := c.buildProbs(src.Probabilities, words, logger)
	if err != nil {
		return err
	}
	guesses := c.buildGuesses(opts.MinEndingFreq)

	// 5. Собираем сложный блок и пишем файл.
	cx := complexData{
		Schema:          src.Schema,
		StemPool:        c.stems.items,
		SuffixPool:      c.suffixes.items,
		PrefixPool:      c.rulePrefixes.items,
		TagPool:         c.tagStrs.items,
		Paradigms:       c.paradigms,
		KnownPrefixes:   src.KnownPrefixes,
		HyphenParticles: src.HyphenParticles,
		Substitutes:     src.Substitutes,
	}
	if err := writeArtifact(path, cx, words, guesses, probs); err != nil {
		return err
	}

	logger.Info("Словарь скомпилирован",
		slog.String("path", path),
		slog.Int("lexemes", len(src.Lexemes)),
		slog.Int("words", c.words.Words()),
		slog.Int("paradigms", len(c.paradigms)),
		slog.Int("stems", len(c.stems.items)),
		slog.Int("tags", len(c.tagStrs.items)),
		slog.Int("tails", len(c.tails)))
	return nil
}

// --- КОМПИЛЯТОР ---

// tailSource - источник хвоста в статистике предсказателя: конкретная
// форма конкретной парадигмы.
type tailSource struct {
	ParadigmID uint32
	FormIdx    uint16
}

type compiler struct {
	schema   *tagset.Schema
	prefixes []string // Разрешенные изменяемые префиксы, по убыванию длины.

	stems        *pool
	suffixes     *pool
	rulePrefixes *pool
	tagStrs      *pool

	paradigms   [][]uint16
	paradigmIDs map[string]uint32

	words *dawg.Builder[EntryInfo]
	tails map[string]map[tailSource]int
}

func newCompiler(schema *tagset.Schema, paradigmPrefixes []string) *compiler {
	prefixes := make([]string, len(paradigmPrefixes))
	copy(prefixes, paradigmPrefixes)
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	c := &compiler{
		schema:       schema,
		prefixes:     prefixes,
		stems:        newPool(),
		suffixes:     newPool(),
		rulePrefixes: newPool(),
		tagStrs:      newPool(),
		paradigmIDs:  make(map[string]uint32),
		words:        dawg.NewBuilder[EntryInfo](),
		tails:        make(map[string]map[tailSource]int),
	}
	// Пустой префикс обязан существовать и получает индекс 0.
	c.rulePrefixes.intern("")
	return c
}

// addLexeme извлекает из лексемы парадигму, интернирует ее и добавляет
// все словоформы в лексикон и статистику хвостов.
func (c *compiler) addLexeme(lex Lexeme, maxTailLen int) error {
	if len(lex.Forms) == 0 {
		return fmt.Errorf("лексема не содержит ни одной формы")
	}
	lemma := lex.Forms[0].Word
	if len(lex.Forms) > math.MaxUint16 {
		return fmt.Errorf("лексема %q содержит слишком много форм", lemma)
	}

	// Разбираем теги и отделяем изменяемые префиксы форм.
	n := len(lex.Forms)
	tags := make([]*tagset.Tag, n)
	stripped := make([]string, n)
	formPrefixes := make([]string, n)
	for i, f := range lex.Forms {
		if f.Word == "" {
			return fmt.Errorf("лексема %q содержит пустую форму", lemma)
		}
		tag, err := c.schema.ParseTag(f.Tag)
		if err != nil {
			return fmt.Errorf("лексема %q: %w", lemma, err)
		}
		tags[i] = tag
		formPrefixes[i], stripped[i] = c.splitRulePrefix(f.Word)
	}

	// Основа - самый длинный общий префикс форм без их изменяемых префиксов.
	// Суффикс каждого правила - остаток формы за основой.
	stem := commonPrefix(stripped)

	row := make([]uint16, 3*n)
	for i := range lex.Forms {
		suffixIdx, err := c.internLimited(c.suffixes, stripped[i][len(stem):], "пул суффиксов")
		if err != nil {
			return err
		}
		tagIdx, err := c.internLimited(c.tagStrs, tags[i].String(), "пул тегов")
		if err != nil {
			return err
		}
		prefixIdx, err := c.internLimited(c.rulePrefixes, formPrefixes[i], "пул префиксов")
		if err != nil {
			return err
		}
		row[i] = suffixIdx
		row[n+i] = tagIdx
		row[2*n+i] = prefixIdx
	}

	pid := c.internParadigm(row)
	stemID := uint32(c.stems.intern(stem))
	for i, f := range lex.Forms {
		c.words.Insert(f.Word, EntryInfo{ParadigmID: pid, StemID: stemID, FormIdx: uint16(i)})
		c.addTails(f.Word, tags[i], tailSource{ParadigmID: pid, FormIdx: uint16(i)}, maxTailLen)
	}
	return nil
}

// splitRulePrefix отделяет от слова самый длинный разрешенный изменяемый
// префикс. После префикса обязана оставаться непустая часть.
func (c *compiler) splitRulePrefix(word string) (prefix, rest string) {
	for _, p := range c.prefixes {
		if p != "" && len(word) > len(p) && strings.HasPrefix(word, p) {
			return p, word[len(p):]
		}
	}
	return "", word
}

// addTails учитывает хвосты словоформы в статистике предсказателя.
// Хвосты непродуктивных классов не учитываются: предсказывать новые
// предлоги и союзы бессмысленно.
func (c *compiler) addTails(word string, tag *tagset.Tag, src tailSource, maxLen int) {
	if !tag.IsProductive() {
		return
	}
	runes := []rune(word)
	for l := 1; l <= maxLen && l < len(runes); l++ {
		tail := string(runes[len(runes)-l:])
		m := c.tails[tail]
		if m == nil {
			m = make(map[tailSource]int)
			c.tails[tail] = m
		}
		m[src]++
	}
}

// buildGuesses собирает DAWG предсказателя из статистики хвостов.
func (c *compiler) buildGuesses(minFreq int) *dawg.Automaton[GuessInfo] {
	b := dawg.NewBuilder[GuessInfo]()
	for tail, sources := range c.tails {
		infos := make([]GuessInfo, 0, len(sources))
		for src, count := range sources {
			if count < minFreq {
				continue
			}
			if count > math.MaxUint16 {
				count = math.MaxUint16
			}
			infos = append(infos, GuessInfo{ParadigmID: src.ParadigmID, FormIdx: src.FormIdx, Frequency: uint16(count)})
		}
		if len(infos) == 0 {
			continue
		}
		// Частые источники идут первыми; равные упорядочиваются номерами,
		// чтобы артефакт был детерминированным.
		sort.Slice(infos, func(i, j int) bool {
			if infos[i].Frequency != infos[j].Frequency {
				return infos[i].Frequency > infos[j].Frequency
			}
			if infos[i].ParadigmID != infos[j].ParadigmID {
				return infos[i].ParadigmID < infos[j].ParadigmID
			}
			return infos[i].FormIdx < infos[j].FormIdx
		})
		b.Insert(tail, infos...)
	}
	return b.Build()
}

// buildProbs собирает DAWG вероятностей из корпусных оценок. Оценки в
// корпусе привязаны к тегам; здесь они разрешаются в конкретные пары
// (парадигма, форма) словарных разборов слова.
func (c *compiler) buildProbs(entries []ProbabilityEntry, words *dawg.Automaton[EntryInfo], logger *slog.Logger) (*dawg.Automaton[ProbInfo], error) {
	perWord := make(map[string][]ProbInfo)
	for _, pe := range entries {
		if pe.Word == "" {
			return nil, fmt.Errorf("оценка вероятности с пустым словом")
		}
		if pe.Score < 0 || pe.Score > 1 {
			return nil, fmt.Errorf("вероятность P(%s|%s) вне диапазона [0, 1]: %v", pe.Tag, pe.Word, pe.Score)
		}
		tag, err := c.schema.ParseTag(pe.Tag)
		if err != nil {
			return nil, fmt.Errorf("оценка вероятности слова %q: %w", pe.Word, err)
		}

		wordEntries, _ := words.Lookup(pe.Word)
		var matched []EntryInfo
		for _, e := range wordEntries {
			if c.entryTag(e) == tag.String() {
				matched = append(matched, e)
			}
		}
		if len(matched) == 0 {
			// Разметка корпуса нередко расходится со словарем; такие
			// оценки просто не попадают в артефакт.
			logger.Warn("Корпусная оценка не сопоставлена ни одному словарному разбору",
				slog.String("word", pe.Word), slog.String("tag", tag.String()))
			continue
		}

		// Омонимичные разборы с одним тегом делят оценку поровну, чтобы
		// суммарная масса слова не превышала единицу.
		share := pe.Score / float64(len(matched))
		for _, e := range matched {
			perWord[pe.Word] = append(perWord[pe.Word], ProbInfo{
				ParadigmID: e.ParadigmID,
				Scale:      uint32(math.Round(share * ProbScale)),
				FormIdx:    e.FormIdx,
			})
		}
	}

	b := dawg.NewBuilder[ProbInfo]()
	for word, infos := range perWord {
		sort.Slice(infos, func(i, j int) bool {
			if infos[i].ParadigmID != infos[j].ParadigmID {
				return infos[i].ParadigmID < infos[j].ParadigmID
			}
			return infos[i].FormIdx < infos[j].FormIdx
		})
		for i := 1; i < len(infos); i++ {
			if infos[i].ParadigmID == infos[i-1].ParadigmID && infos[i].FormIdx == infos[i-1].FormIdx {
				return nil, fmt.Errorf("повторная оценка вероятности для слова %q", word)
			}
		}
		b.Insert(word, infos...)
	}
	return b.Build(), nil
}

// entryTag возвращает каноническую строку тега записи лексикона.
func (c *compiler) entryTag(e EntryInfo) string {
	row := c.paradigms[e.ParadigmID]
	n := len(row) / 3
	return c.tagStrs.items[row[n+int(e.FormIdx)]]
}

// internParadigm интернирует строку парадигмы: одинаковые модели
// словоизменения (например, однотипные существительные) получают один номер.
func (c *compiler) internParadigm(row []uint16) uint32 {
	key := fmt.Sprint(row)
	if id, ok := c.paradigmIDs[key]; ok {
		return id
	}
	id := uint32(len(c.paradigms))
	c.paradigms = append(c.paradigms, row)
	c.paradigmIDs[key] = id
	return id
}

// internLimited интернирует строку в пул с контролем переполнения uint16.
func (c *compiler) internLimited(p *pool, s, what string) (uint16, error) {
	idx := p.intern(s)
	if idx > math.MaxUint16 {
		return 0, fmt.Errorf("%s переполнен: не более %d различных значений", what, math.MaxUint16+1)
	}
	return uint16(idx), nil
}

// commonPrefix возвращает самый длинный общий префикс слов (в рунах).
func commonPrefix(words []string) string {
	prefix := []rune(words[0])
	for _, w := range words[1:] {
		runes := []rune(w)
		if len(runes) < len(prefix) {
			prefix = prefix[:len(runes)]
		}
		for i := range prefix {
			if runes[i] != prefix[i] {
				prefix = prefix[:i]
				break
			}
		}
	}
	return string(prefix)
}

// pool - интернирующий пул строк: одинаковые строки получают один индекс.
type pool struct {
	items []string
	index map[string]int
}

func newPool() *pool {
	return &pool{index: make(map[string]int)}
}

func (p *pool) intern(s string) int {
	if i, ok := p.index[s]; ok {
		return i
	}
	i := len(p.items)
	p.items = append(p.items, s)
	p.index[s] = i
	return i
}

// --- ЗАПИСЬ ФАЙЛА ---

// writeArtifact раскладывает секции друг за другом с выравниванием по
// 8 байт и пишет файл целиком. mmap-область выровнена по странице, поэтому
// выровненное смещение в файле гарантирует выравнивание структур в памяти.
func writeArtifact(path string, cx complexData, words *dawg.Automaton[EntryInfo], guesses *dawg.Automaton[GuessInfo], probs *dawg.Automaton[ProbInfo]) error {
	var complexBuf bytes.Buffer
	gz := gzip.NewWriter(&complexBuf)
	if err := gob.NewEncoder(gz).Encode(cx); err != nil {
		return fmt.Errorf("ошибка gob-кодирования сложного блока: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("ошибка сжатия сложного блока: %w", err)
	}

	var body bytes.Buffer
	place := func(raw []byte) int64 {
		for (int64(body.Len())+headerSize)%8 != 0 {
			body.WriteByte(0)
		}
		off := headerSize + int64(body.Len())
		body.Write(raw)
		return off
	}

	header := Header{Magic: Magic, VersionMajor: FormatVersionMajor, VersionMinor: FormatVersionMinor}

	header.WordNodesOffset = place(sliceToBytes(words.Nodes()))
	header.WordNodesCount = int64(len(words.Nodes()))
	header.WordEdgesOffset = place(sliceToBytes(words.Edges()))
	header.WordEdgesCount = int64(len(words.Edges()))
	header.WordPayloadsOffset = place(sliceToBytes(words.Payloads()))
	header.WordPayloadsCount = int64(len(words.Payloads()))

	header.GuessNodesOffset = place(sliceToBytes(guesses.Nodes()))
	header.GuessNodesCount = int64(len(guesses.Nodes()))
	header.GuessEdgesOffset = place(sliceToBytes(guesses.Edges()))
	header.GuessEdgesCount = int64(len(guesses.Edges()))
	header.GuessPayloadsOffset = place(sliceToBytes(guesses.Payloads()))
	header.GuessPayloadsCount = int64(len(guesses.Payloads()))

	header.ProbNodesOffset = place(sliceToBytes(probs.Nodes()))
	header.ProbNodesCount = int64(len(probs.Nodes()))
	header.ProbEdgesOffset = place(sliceToBytes(probs.Edges()))
	header.ProbEdgesCount = int64(len(probs.Edges()))
	header.ProbPayloadsOffset = place(sliceToBytes(probs.Payloads()))
	header.ProbPayloadsCount = int64(len(probs.Payloads()))

	header.ComplexOffset = place(complexBuf.Bytes())
	header.ComplexLength = int64(complexBuf.Len())

	var out bytes.Buffer
	if err := binary.Write(&out, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("ошибка записи заголовка: %w", err)
	}
	// Смещения секций рассчитаны от размера заголовка в памяти: упакованное
	// представление обязано совпадать с ним.
	if int64(out.Len()) != headerSize {
		return fmt.Errorf("внутренняя ошибка: упакованный заголовок занимает %d байт вместо %d", out.Len(), headerSize)
	}
	if _, err := body.WriteTo(&out); err != nil {
		return fmt.Errorf("ошибка сборки файла: %w", err)
	}

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("ошибка записи файла словаря: %w", err)
	}
	return nil
}
