// Пакет dicts отвечает за бинарный формат словаря и доступ к его данным.
// Файл словаря устроен как "карта памяти": фиксированный заголовок со
// смещениями, три DAWG в плоском представлении (лексикон, предсказатель,
// вероятности) и сжатый gob-блок со строковыми пулами, парадигмами и схемой
// граммем. Плоские массивы читаются из файла напрямую через mmap, без
// копирования и десериализации.
package dicts

import (
	"fmt"
	"unsafe"

	"github.com/steosofficial/morphema/tagset"
)

// --- ВЕРСИЯ ФОРМАТА ---

// Magic - сигнатура файла словаря.
var Magic = [4]byte{'M', 'R', 'F', '1'}

// Текущая версия формата. Мажорная версия меняется при несовместимых
// изменениях раскладки: файл с другой мажорной версией не загружается.
// Минорные отличия допустимы в обе стороны.
const (
	FormatVersionMajor uint16 = 2
	FormatVersionMinor uint16 = 4
)

// Header - заголовок бинарного файла словаря, "карта" всего файла.
// Благодаря ему данные загружаются методом Zero-Copy: по смещениям строятся
// виртуальные срезы поверх mmap-области. Все числа - LittleEndian.
type Header struct {
	Magic        [4]byte // Сигнатура "MRF1".
	VersionMajor uint16  // Мажорная версия формата.
	VersionMinor uint16  // Минорная версия формата.

	ComplexOffset int64 // Смещение сжатого gob-блока (в байтах).
	ComplexLength int64 // Длина этого блока (в байтах).

	WordNodesOffset    int64 // Массив узлов лексикона.
	WordNodesCount     int64
	WordEdgesOffset    int64 // Массив ребер лексикона.
	WordEdgesCount     int64
	WordPayloadsOffset int64 // Массив полезных нагрузок лексикона.
	WordPayloadsCount  int64

	GuessNodesOffset    int64 // Массив узлов предсказателя.
	GuessNodesCount     int64
	GuessEdgesOffset    int64 // Массив ребер предсказателя.
	GuessEdgesCount     int64
	GuessPayloadsOffset int64 // Массив полезных нагрузок предсказателя.
	GuessPayloadsCount  int64

	ProbNodesOffset    int64 // Массив узлов таблицы вероятностей.
	ProbNodesCount     int64
	ProbEdgesOffset    int64 // Массив ребер таблицы вероятностей.
	ProbEdgesCount     int64
	ProbPayloadsOffset int64 // Массив полезных нагрузок таблицы вероятностей.
	ProbPayloadsCount  int64
}

// --- ПОЛЕЗНЫЕ НАГРУЗКИ DAWG ---

// EntryInfo - запись лексикона: словоформа указывает на свою парадигму,
// основу и номер правила внутри парадигмы.
type EntryInfo struct {
	ParadigmID uint32 // ID парадигмы в общем массиве парадигм.
	StemID     uint32 // Индекс основы в пуле основ.
	FormIdx    uint16 // Номер формы (правила) внутри парадигмы; 0 - лемма.
}

// GuessInfo - запись предсказателя: хвост слова указывает на парадигму,
// по которой несловарное слово можно разобрать и просклонять.
type GuessInfo struct {
	ParadigmID uint32 // ID парадигмы.
	FormIdx    uint16 // Номер формы-образца внутри парадигмы.
	Frequency  uint16 // Сколько словарных форм заканчивалось этим хвостом.
}

// ProbInfo - запись таблицы вероятностей: корпусная оценка P(разбор|слово)
// для конкретной формы конкретной парадигмы. Хранится в целых долях ProbScale.
type ProbInfo struct {
	ParadigmID uint32 // ID парадигмы разбора.
	Scale      uint32 // Вероятность, умноженная на ProbScale.
	FormIdx    uint16 // Номер формы внутри парадигмы.
}

// complexData - контейнер для данных, которые неэффективно хранить в "сыром"
// виде: строковые пулы, парадигмы, схема граммем, таблицы замен. Эта часть
// файла сериализуется gob-ом, сжимается gzip-ом и при загрузке целиком
// декодируется в память.
type complexData struct {
	Schema tagset.SchemaData // Схема граммем словаря.

	StemPool   []string   // Пул всех основ.
	SuffixPool []string   // Пул суффиксов правил.
	PrefixPool []string   // Пул изменяемых префиксов правил.
	TagPool    []string   // Пул строковых представлений тегов.
	Paradigms  [][]uint16 // Парадигмы; раскладку см. в Paradigm.

	KnownPrefixes   []string        // Продуктивные неизменяемые приставки языка.
	HyphenParticles []string        // Частицы, пишущиеся через дефис.
	Substitutes     map[rune][]rune // Взаимозаменяемые символы (е/ё).
}

// --- ОШИБКИ ФОРМАТА ---

// FormatError - файл словаря не удалось прочитать: он поврежден, обрезан
// или записан несовместимой версией компилятора.
type FormatError struct {
	Path   string // Путь к файлу словаря.
	Reason string // Что именно не так.
	Err    error  // Исходная ошибка, если была.
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("некорректный файл словаря %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("некорректный файл словаря %s: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// --- НЕБЕЗОПАСНОЕ ПРЕОБРАЗОВАНИЕ СРЕЗОВ ---

// bytesToSlice создает заголовок среза, указывающий на область байт,
// без копирования самих данных. Область обязана жить дольше результата:
// для mmap это гарантирует ссылка на mmap-объект в Dictionary.
func bytesToSlice[T any](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	var t T
	size := int(unsafe.Sizeof(t))
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/size)
}

// sliceToBytes - обратное преобразование: представляет срез структур как
// срез байт для записи на диск. Формат на диске совпадает с раскладкой
// структур в памяти, включая выравнивающие пропуски.
func sliceToBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var t T
	size := int(unsafe.Sizeof(t))
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*size)
}
