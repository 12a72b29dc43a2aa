// Этот файл содержит пакетную обработку срезов слов пулом воркеров.
// Сам движок синхронный, параллелизм строится поверх него.
package analyzer

import (
	"runtime"
	"sort"
	"sync"
)

// AnalyzeList разбирает срез слов в конкурентном режиме и возвращает все
// разборы одним срезом, отсортированным по словоформе.
func (m *MorphAnalyzer) AnalyzeList(words []string) []Parse {
	return m.collectParallel(words, m.Analyze)
}

// FormsList возвращает словоформы лексем всех слов среза одним срезом,
// отсортированным по словоформе.
func (m *MorphAnalyzer) FormsList(words []string) []Parse {
	return m.collectParallel(words, m.Forms)
}

// collectParallel прогоняет fn по всем словам пулом воркеров. Слова
// нарезаются на чанки, чтобы не гонять по каналу каждое слово отдельно.
func (m *MorphAnalyzer) collectParallel(words []string, fn func(word string) []Parse) []Parse {
	const chunkSize = 1000
	numWorkers := runtime.NumCPU()

	// Канал для отправки чанков в воркеры и канал для сбора результатов.
	chunksCh := make(chan []string, numWorkers)
	resultCh := make(chan []Parse, numWorkers)

	var wg sync.WaitGroup

	// Запускаем воркеры.
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for chunk := range chunksCh {
				parsedChunk := make([]Parse, 0, len(chunk))
				for _, word := range chunk {
					parsedChunk = append(parsedChunk, fn(word)...)
				}
				resultCh <- parsedChunk
			}
		}()
	}

	// Запускаем диспетчера, который нарезает words на чанки.
	go func() {
		for i := 0; i < len(words); i += chunkSize {
			end := i + chunkSize
			if end > len(words) {
				end = len(words)
			}
			chunksCh <- words[i:end]
		}
		close(chunksCh) // Закрываем канал, чтобы воркеры завершили работу.
	}()

	// Запускаем сборщика, который дождется всех воркеров и закроет канал
	// результатов.
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Собираем все результаты в один срез.
	allParsed := make([]Parse, 0, len(words))
	for result := range resultCh {
		allParsed = append(allParsed, result...)
	}

	// Финальная сортировка для консистентного результата.
	sort.SliceStable(allParsed, func(i, j int) bool {
		return allParsed[i].Word < allParsed[j].Word
	})

	return allParsed
}
