package analyzer

import (
	"fmt"
	"testing"
	"time"
)

// benchmarkResult не дает компилятору выбросить вызовы как бесполезные.
var benchmarkResult []Parse

// benchWords раздувает смесь словарных, несловарных и небуквенных токенов
// до нужного размера. Файлы с корпусом тестам пакета не нужны.
func benchWords(limit int) []string {
	base := []string{
		"fox", "foxes", "walked", "saw", "better", "supermarket",
		"loxes", "wugs", "zzdog", "fox-like", "dog-fox", "2026", "XIV", "...",
	}
	words := make([]string, 0, limit)
	for len(words) < limit {
		words = append(words, base[len(words)%len(base)])
	}
	return words
}

// BenchmarkAnalyzeSequential измеряет производительность метода Analyze.
func BenchmarkAnalyzeSequential(b *testing.B) {
	wordCounts := []int{10_000}

	for _, count := range wordCounts {
		b.Run(fmt.Sprintf("%d_words", count), func(b *testing.B) {
			words := benchWords(count)

			b.ReportAllocs()
			b.ResetTimer()

			startTime := time.Now()

			for i := 0; i < b.N; i++ {
				for _, word := range words {
					benchmarkResult = morph.Analyze(word)
				}
			}

			b.StopTimer()

			totalDuration := time.Since(startTime)
			totalWordsProcessed := len(words) * b.N

			if totalWordsProcessed > 0 {
				avgTimePerWord := totalDuration / time.Duration(totalWordsProcessed)
				b.Logf("\n\t--- Кастомная статистика для Analyze (%d слов) ---\n"+
					"\tОбщее время:        %s\n"+
					"\tСреднее на слово:    %s\n"+
					"\tСлов в секунду (RPS): %.0f\n",
					len(words),
					totalDuration.Round(time.Millisecond),
					avgTimePerWord,
					float64(time.Second)/float64(avgTimePerWord),
				)
			}
		})
	}
}

// BenchmarkAnalyzeList измеряет производительность пакетного разбора.
func BenchmarkAnalyzeList(b *testing.B) {
	wordCounts := []int{10_000}

	for _, count := range wordCounts {
		b.Run(fmt.Sprintf("%d_words", count), func(b *testing.B) {
			words := benchWords(count)

			b.ReportAllocs()
			b.ResetTimer()

			startTime := time.Now()

			for i := 0; i < b.N; i++ {
				benchmarkResult = morph.AnalyzeList(words)
			}

			b.StopTimer()

			totalDuration := time.Since(startTime)

			b.Logf("\n\t--- Кастомная статистика для AnalyzeList (%d слов) ---\n"+
				"\tОбщее время:        %s\n",
				len(words),
				totalDuration.Round(time.Millisecond),
			)
		})
	}
}

// BenchmarkFormsList измеряет производительность пакетного поиска словоформ.
func BenchmarkFormsList(b *testing.B) {
	wordCounts := []int{10_000}

	for _, count := range wordCounts {
		b.Run(fmt.Sprintf("%d_words", count), func(b *testing.B) {
			words := benchWords(count)

			b.ReportAllocs()
			b.ResetTimer()

			startTime := time.Now()

			for i := 0; i < b.N; i++ {
				benchmarkResult = morph.FormsList(words)
			}

			b.StopTimer()

			totalDuration := time.Since(startTime)

			b.Logf("\n\t--- Кастомная статистика для FormsList (%d слов) ---\n"+
				"\tОбщее время:        %s\n",
				len(words),
				totalDuration.Round(time.Millisecond),
			)
		})
	}
}
