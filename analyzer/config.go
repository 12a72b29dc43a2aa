// Этот файл содержит конфигурацию анализатора: путь к словарю, штрафные
// коэффициенты стратегий и границы эвристик. Конфигурация собирается
// послойно: значения по умолчанию, затем файл проекта, затем файл из
// переменной окружения.
package analyzer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath - переменная окружения с путем к файлу конфигурации.
	EnvConfigPath = "MORPHEMA_CONFIG"
	// ProjectConfigFile - имя файла конфигурации проекта. Ищется в текущем
	// и родительских каталогах.
	ProjectConfigFile = "morphema.yaml"
)

// Config - полная конфигурация анализатора.
type Config struct {
	Dict    DictConfig    `yaml:"dict"`
	Penalty PenaltyConfig `yaml:"penalty"`
	Guess   GuessConfig   `yaml:"guess"`
}

// DictConfig - настройки словаря.
type DictConfig struct {
	// Path - путь к файлу словаря или к каталогу с его частями.
	// Пустое значение означает поиск через MORPHEMA_DICT_PATH и каталог
	// data рядом с пакетом.
	Path string `yaml:"path"`
}

// PenaltyConfig - штрафные коэффициенты стратегий разбора. Оценка каждой
// стратегии умножается на ее коэффициент, поэтому все значения лежат
// в интервале (0, 1].
type PenaltyConfig struct {
	// KnownPrefix - штраф разбора по известной приставке.
	KnownPrefix float64 `yaml:"known_prefix"`
	// UnknownPrefix - базовый штраф разбора по неизвестной приставке.
	// Дополнительно делится на длину отброшенной приставки: чем длиннее
	// догадка, тем меньше доверия.
	UnknownPrefix float64 `yaml:"unknown_prefix"`
	// SuffixGuess - штраф предсказания по хвосту слова.
	SuffixGuess float64 `yaml:"suffix_guess"`
	// HyphenParticle - штраф разбора слова с частицей через дефис.
	HyphenParticle float64 `yaml:"hyphen_particle"`
	// HyphenCompound - штраф разбора составного слова через дефис.
	HyphenCompound float64 `yaml:"hyphen_compound"`
	// Shape - оценка небуквенных разборов: чисел, пунктуации, латиницы.
	Shape float64 `yaml:"shape"`
}

// GuessConfig - границы эвристических стратегий.
type GuessConfig struct {
	// MaxPrefixLen - максимальная длина неизвестной приставки в рунах.
	MaxPrefixLen int `yaml:"max_prefix_len"`
	// MinRemainder - минимальная длина остатка слова в рунах после
	// отделения приставки, известной или неизвестной.
	MinRemainder int `yaml:"min_remainder"`
	// MaxTailLen - максимальная длина хвоста слова для предсказателя в рунах.
	MaxTailLen int `yaml:"max_tail_len"`
	// MinWordLen - минимальная длина слова в рунах, начиная с которой
	// предсказатель по хвосту вообще применяется.
	MinWordLen int `yaml:"min_word_len"`
}

// DefaultConfig возвращает конфигурацию со значениями по умолчанию.
func DefaultConfig() *Config {
	return &Config{
		Dict: DictConfig{
			Path: "",
		},
		Penalty: PenaltyConfig{
			KnownPrefix:    0.75,
			UnknownPrefix:  0.5,
			SuffixGuess:    0.5,
			HyphenParticle: 0.9,
			HyphenCompound: 0.75,
			Shape:          0.9,
		},
		Guess: GuessConfig{
			MaxPrefixLen: 5,
			MinRemainder: 3,
			MaxTailLen:   5,
			MinWordLen:   4,
		},
	}
}

// Validate проверяет корректность конфигурации.
func (c *Config) Validate() error {
	penalties := []struct {
		name  string
		value float64
	}{
		{"penalty.known_prefix", c.Penalty.KnownPrefix},
		{"penalty.unknown_prefix", c.Penalty.UnknownPrefix},
		{"penalty.suffix_guess", c.Penalty.SuffixGuess},
		{"penalty.hyphen_particle", c.Penalty.HyphenParticle},
		{"penalty.hyphen_compound", c.Penalty.HyphenCompound},
		{"penalty.shape", c.Penalty.Shape},
	}
	for _, p := range penalties {
		if p.value <= 0 || p.value > 1 {
			return fmt.Errorf("%s должен лежать в интервале (0, 1], получено %g", p.name, p.value)
		}
	}

	bounds := []struct {
		name  string
		value int
	}{
		{"guess.max_prefix_len", c.Guess.MaxPrefixLen},
		{"guess.min_remainder", c.Guess.MinRemainder},
		{"guess.max_tail_len", c.Guess.MaxTailLen},
		{"guess.min_word_len", c.Guess.MinWordLen},
	}
	for _, b := range bounds {
		if b.value < 1 {
			return fmt.Errorf("%s должен быть не меньше 1, получено %d", b.name, b.value)
		}
	}
	return nil
}

// LoadFromFile загружает конфигурацию из YAML-файла. Отсутствующие в файле
// поля получают значения по умолчанию.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
	}

	return config, nil
}

// SaveToFile записывает конфигурацию в YAML-файл.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ошибка создания каталога конфигурации: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("ошибка сериализации конфигурации: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("ошибка записи файла конфигурации: %w", err)
	}

	return nil
}

// Merge накладывает другую конфигурацию на эту: ненулевые значения other
// имеют приоритет.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Dict.Path != "" {
		c.Dict.Path = other.Dict.Path
	}

	if other.Penalty.KnownPrefix != 0 {
		c.Penalty.KnownPrefix = other.Penalty.KnownPrefix
	}
	if other.Penalty.UnknownPrefix != 0 {
		c.Penalty.UnknownPrefix = other.Penalty.UnknownPrefix
	}
	if other.Penalty.SuffixGuess != 0 {
		c.Penalty.SuffixGuess = other.Penalty.SuffixGuess
	}
	if other.Penalty.HyphenParticle != 0 {
		c.Penalty.HyphenParticle = other.Penalty.HyphenParticle
	}
	if other.Penalty.HyphenCompound != 0 {
		c.Penalty.HyphenCompound = other.Penalty.HyphenCompound
	}
	if other.Penalty.Shape != 0 {
		c.Penalty.Shape = other.Penalty.Shape
	}

	if other.Guess.MaxPrefixLen != 0 {
		c.Guess.MaxPrefixLen = other.Guess.MaxPrefixLen
	}
	if other.Guess.MinRemainder != 0 {
		c.Guess.MinRemainder = other.Guess.MinRemainder
	}
	if other.Guess.MaxTailLen != 0 {
		c.Guess.MaxTailLen = other.Guess.MaxTailLen
	}
	if other.Guess.MinWordLen != 0 {
		c.Guess.MinWordLen = other.Guess.MinWordLen
	}
}

// --- ЗАГРУЗЧИК ---

// Loader послойно собирает конфигурацию анализатора.
type Loader struct {
	logger *slog.Logger
}

// NewLoader создает загрузчик конфигурации. nil означает slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load собирает конфигурацию: значения по умолчанию, затем morphema.yaml из
// текущего или родительских каталогов, затем файл из MORPHEMA_CONFIG.
// Собранная конфигурация проверяется на корректность.
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	if projectPath := l.findProjectConfig(); projectPath != "" {
		projectConfig, err := LoadFromFile(projectPath)
		if err != nil {
			l.logger.Warn("Файл конфигурации проекта не прочитан",
				slog.String("path", projectPath),
				slog.String("error", err.Error()))
		} else {
			l.logger.Debug("Загружена конфигурация проекта", slog.String("path", projectPath))
			config.Merge(projectConfig)
		}
	}

	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		envConfig, err := LoadFromFile(envPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Загружена конфигурация из окружения", slog.String("path", envPath))
		config.Merge(envConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// findProjectConfig ищет morphema.yaml в текущем и родительских каталогах.
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
