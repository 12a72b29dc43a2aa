// Этот файл содержит морфологический анализатор: загрузку словаря,
// цепочку стратегий разбора и конвейер, объединяющий их результаты.
// Словарь отображается в память через mmap и после загрузки используется
// только на чтение, поэтому анализатор безопасен для конкурентной работы.
package analyzer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"unicode"

	"github.com/steosofficial/morphema/dicts"
	"github.com/steosofficial/morphema/tagset"
)

// --- ПЕРЕМЕННЫЕ ОКРУЖЕНИЯ И ИМЕНА ФАЙЛОВ ---

// EnvDictPath - имя переменной окружения для переопределения пути к словарю.
// Путь может указывать как на файл словаря, так и на каталог с его частями.
const EnvDictPath = "MORPHEMA_DICT_PATH"

// DictFileName - имя объединенного файла словаря внутри каталога.
const DictFileName = "morphema.dict"

// DictPartPrefix - префикс имен частей словаря. Части склеиваются
// в лексикографическом порядке имен, как их создает split.
const DictPartPrefix = "morphema_"

// errNoDictParts возвращается при попытке склеить части словаря из
// каталога, в котором их нет.
var errNoDictParts = errors.New("не найдено файлов с префиксом частей словаря")

// --- АНАЛИЗАТОР ---

// MorphAnalyzer - морфологический анализатор. После создания не меняется
// и может использоваться из любого числа горутин одновременно. Несколько
// анализаторов могут разделять один словарь.
type MorphAnalyzer struct {
	dict   *dicts.Dictionary
	cfg    *Config
	logger *slog.Logger

	// Стратегии в порядке запуска. Запасные стратегии пропускаются,
	// если предыдущие уже что-то нашли.
	units      []Unit
	dictionary *dictionaryUnit
}

// New создает анализатор над загруженным словарем. nil-конфигурация
// означает значения по умолчанию, nil-логгер - slog.Default().
func New(dict *dicts.Dictionary, cfg *Config, logger *slog.Logger) (*MorphAnalyzer, error) {
	if dict == nil {
		return nil, errors.New("словарь не задан")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &MorphAnalyzer{dict: dict, cfg: cfg, logger: logger}
	m.dictionary = &dictionaryUnit{dict: dict}

	knownPrefix, err := newKnownPrefixUnit(m.dictionary, cfg)
	if err != nil {
		return nil, err
	}

	schema := dict.Schema()
	number, err := newNumberUnit(schema, cfg.Penalty.Shape)
	if err != nil {
		return nil, err
	}
	roman, err := newRomanUnit(schema, cfg.Penalty.Shape)
	if err != nil {
		return nil, err
	}
	punctuation, err := newPunctuationUnit(schema, cfg.Penalty.Shape)
	if err != nil {
		return nil, err
	}
	latin, err := newLatinUnit(schema, cfg.Penalty.Shape)
	if err != nil {
		return nil, err
	}

	// Порядок стратегий фиксирован: словарная и приставочная работают
	// всегда, запасные выстроены от дефисных к небуквенным.
	m.units = []Unit{
		m.dictionary,
		knownPrefix,
		newHyphenParticleUnit(m, cfg),
		&hyphenCompoundUnit{morph: m, penalty: cfg.Penalty.HyphenCompound},
		&unknownPrefixUnit{
			inner:   m.dictionary,
			penalty: cfg.Penalty.UnknownPrefix,
			maxLen:  cfg.Guess.MaxPrefixLen,
			minRest: cfg.Guess.MinRemainder,
		},
		&suffixGuessUnit{
			dict:    dict,
			penalty: cfg.Penalty.SuffixGuess,
			maxTail: cfg.Guess.MaxTailLen,
			minWord: cfg.Guess.MinWordLen,
		},
		number,
		roman,
		punctuation,
		latin,
	}

	m.logger.Debug("Анализатор создан",
		slog.String("language", dict.Language()),
		slog.Int("units", len(m.units)))
	return m, nil
}

// Load создает анализатор со словарем по умолчанию: путь берется из
// переменной окружения MORPHEMA_DICT_PATH, иначе из каталога data рядом
// с пакетом. Конфигурация собирается загрузчиком Loader.
func Load() (*MorphAnalyzer, error) {
	cfg, err := NewLoader(nil).Load()
	if err != nil {
		return nil, err
	}
	return LoadWithConfig(cfg, nil)
}

// LoadPath создает анализатор со словарем из файла или каталога с частями,
// с конфигурацией по умолчанию.
func LoadPath(path string) (*MorphAnalyzer, error) {
	cfg := DefaultConfig()
	cfg.Dict.Path = path
	return LoadWithConfig(cfg, nil)
}

// LoadWithConfig создает анализатор по готовой конфигурации.
func LoadWithConfig(cfg *Config, logger *slog.Logger) (*MorphAnalyzer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	path, err := resolveDictPath(cfg.Dict.Path, logger)
	if err != nil {
		return nil, err
	}

	dict, err := dicts.Load(path)
	if err != nil {
		return nil, err
	}

	m, err := New(dict, cfg, logger)
	if err != nil {
		_ = dict.Close()
		return nil, err
	}

	fp := dict.Footprint()
	logger.Info("Словарь загружен",
		slog.String("path", dict.Path()),
		slog.String("language", dict.Language()),
		slog.Int64("file_bytes", fp.FileBytes),
		slog.Int("word_entries", fp.WordEntries),
		slog.Int("paradigms", fp.Paradigms),
		slog.Int("tags", fp.Tags))
	return m, nil
}

// resolveDictPath находит файл словаря: явный путь из конфигурации, затем
// переменная окружения, затем каталог data рядом с исходниками пакета.
// Каталог с частями предварительно склеивается в один файл.
func resolveDictPath(explicit string, logger *slog.Logger) (string, error) {
	path := explicit
	if path == "" {
		path = os.Getenv(EnvDictPath)
	}
	if path == "" {
		_, currentFilePath, _, ok := runtime.Caller(0)
		if !ok {
			return "", errors.New("не удалось определить путь к пакету analyzer")
		}
		path = filepath.Join(filepath.Dir(currentFilePath), "data")
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf(
			"словарь не найден по пути '%s'; укажите путь в конфигурации или через переменную окружения %s: %w",
			path, EnvDictPath, err)
	}
	if !info.IsDir() {
		return path, nil
	}

	// Каталог: ищем готовый объединенный файл, иначе склеиваем части.
	merged := filepath.Join(path, DictFileName)
	if _, err := os.Stat(merged); err == nil {
		return merged, nil
	}

	logger.Debug("Объединенный файл словаря не найден, ищем части",
		slog.String("dir", path))
	if err := mergeFilesWithPrefix(path, DictPartPrefix, merged, logger); err != nil {
		if errors.Is(err, errNoDictParts) {
			return "", fmt.Errorf(
				"в каталоге '%s' нет ни файла %s, ни частей '%s*'; "+
					"убедитесь, что словарь установлен, либо задайте переменную окружения %s: %w",
				path, DictFileName, DictPartPrefix, EnvDictPath, err)
		}
		return "", fmt.Errorf("ошибка при объединении частей словаря: %w", err)
	}
	return merged, nil
}

// mergeFilesWithPrefix объединяет части словаря с заданным префиксом имени
// в один файл. Части идут в лексикографическом порядке имен.
func mergeFilesWithPrefix(sourceDir, prefix, outputPath string, logger *slog.Logger) error {
	// 1. Находим все файлы с нужным префиксом имени.
	var partFiles []string
	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		if !d.IsDir() && name != filepath.Base(outputPath) && strings.HasPrefix(name, prefix) {
			partFiles = append(partFiles, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка при поиске частей словаря: %w", err)
	}
	if len(partFiles) == 0 {
		return fmt.Errorf("%w: '%s' в каталоге '%s'", errNoDictParts, prefix, sourceDir)
	}

	// 2. Сортируем по имени: split создает суффиксы aa, ab, ac и так далее,
	// лексикографический порядок совпадает с порядком данных.
	sort.Strings(partFiles)
	for _, part := range partFiles {
		logger.Debug("Часть словаря", slog.String("file", filepath.Base(part)))
	}

	// 3. Создаем выходной файл и копируем в него части.
	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("ошибка создания выходного файла %s: %w", outputPath, err)
	}
	defer outFile.Close()

	for _, partPath := range partFiles {
		inFile, err := os.Open(partPath)
		if err != nil {
			return fmt.Errorf("ошибка открытия части словаря %s: %w", partPath, err)
		}
		_, err = io.Copy(outFile, inFile)
		inFile.Close()
		if err != nil {
			return fmt.Errorf("ошибка копирования части %s: %w", partPath, err)
		}
	}

	logger.Info("Части словаря объединены",
		slog.String("path", outputPath),
		slog.Int("parts", len(partFiles)))
	return nil
}

// --- КОНВЕЙЕР РАЗБОРА ---

// Analyze возвращает все варианты разбора слова, отсортированные по
// убыванию правдоподобия. Сумма оценок непустого результата равна единице.
// Для пустого или непечатаемого входа возвращается пустой результат,
// отсутствие разбора ошибкой не считается.
func (m *MorphAnalyzer) Analyze(word string) []Parse {
	word = normalizeToken(word)
	if word == "" {
		return nil
	}

	var parses []Parse
	for _, u := range m.units {
		if u.Fallback() && len(parses) > 0 {
			continue
		}
		parses = append(parses, u.Analyze(word)...)
	}
	return finalizeParses(parses)
}

// IsKnown сообщает, есть ли слово в лексиконе словаря.
func (m *MorphAnalyzer) IsKnown(word string) bool {
	return m.dict.IsKnown(normalizeToken(word))
}

// NormalForms возвращает леммы всех разборов слова без повторов, в порядке
// убывания правдоподобия разборов.
func (m *MorphAnalyzer) NormalForms(word string) []string {
	parses := m.Analyze(word)
	seen := make(map[string]bool, len(parses))
	out := make([]string, 0, len(parses))
	for _, p := range parses {
		if seen[p.NormalForm] {
			continue
		}
		seen[p.NormalForm] = true
		out = append(out, p.NormalForm)
	}
	return out
}

// normalizeToken приводит токен к нижнему регистру и срезает крайние
// пробелы. Токен без единого печатаемого символа считается пустым.
func normalizeToken(word string) string {
	word = strings.ToLower(strings.TrimSpace(word))
	for _, r := range word {
		if unicode.IsGraphic(r) {
			return word
		}
	}
	return ""
}

// finalizeParses объединяет результаты стратегий: склеивает дубликаты,
// сортирует по убыванию оценки и нормирует оценки к единичной сумме.
func finalizeParses(parses []Parse) []Parse {
	if len(parses) == 0 {
		return nil
	}

	// Дубликат - совпадение леммы и тега. Теги интернированы, поэтому
	// сравнение по указателю корректно. Из дубликатов выживает разбор
	// с большей оценкой, при равенстве - более ранняя стратегия.
	type parseKey struct {
		normalForm string
		tag        *tagset.Tag
	}
	index := make(map[parseKey]int, len(parses))
	merged := make([]Parse, 0, len(parses))
	for _, p := range parses {
		key := parseKey{p.NormalForm, p.Tag}
		if i, ok := index[key]; ok {
			if p.Score > merged[i].Score {
				merged[i] = p
			}
			continue
		}
		index[key] = len(merged)
		merged = append(merged, p)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return methodPriority(merged[i].Method) < methodPriority(merged[j].Method)
	})

	var total float64
	for i := range merged {
		total += merged[i].Score
	}
	if total > 0 {
		for i := range merged {
			merged[i].Score /= total
		}
	} else {
		// Все стратегии дали нулевые оценки: делим массу поровну.
		share := 1 / float64(len(merged))
		for i := range merged {
			merged[i].Score = share
		}
	}
	return merged
}

// --- ДОСТУП К СОСТОЯНИЮ ---

// Dictionary возвращает словарь анализатора.
func (m *MorphAnalyzer) Dictionary() *dicts.Dictionary { return m.dict }

// Schema возвращает схему граммем словаря. Через нее разбираются теги
// для запросов склонения.
func (m *MorphAnalyzer) Schema() *tagset.Schema { return m.dict.Schema() }

// Footprint возвращает статистику размеров загруженного словаря.
func (m *MorphAnalyzer) Footprint() dicts.Footprint { return m.dict.Footprint() }

// Close освобождает отображенную память словаря. После закрытия ни
// анализатор, ни разделяющие словарь соседи использовать его не могут.
func (m *MorphAnalyzer) Close() error { return m.dict.Close() }
