// Этот файл содержит доступ к таблице условных вероятностей, построенной по
// размеченному корпусу. Таблица покрывает лишь часть лексикона: для всех
// остальных пар оценка равна нулю, а остаток массы слова анализатор
// распределяет между неоцененными разборами равномерно.
package dicts

// ProbScale - знаменатель хранения вероятностей: в файле лежат целые
// доли этой величины.
const ProbScale = 1_000_000

// ScoreFor возвращает корпусную оценку вероятности разбора слова парой
// (парадигма, форма). Для пар, которых в корпусе нет, возвращается ноль.
func (d *Dictionary) ScoreFor(word string, paradigmID uint32, formIdx uint16) float64 {
	payloads, ok := d.probs.Lookup(word)
	if !ok {
		return 0
	}
	for _, p := range payloads {
		if p.ParadigmID == paradigmID && p.FormIdx == formIdx {
			return float64(p.Scale) / ProbScale
		}
	}
	return 0
}

// TotalMass возвращает суммарную оцененную массу слова - сумму всех его
// корпусных оценок. Слову без оценок соответствует нулевая масса.
// По остатку массы распределяются неоцененные разборы.
func (d *Dictionary) TotalMass(word string) float64 {
	payloads, ok := d.probs.Lookup(word)
	if !ok {
		return 0
	}
	var sum uint64
	for _, p := range payloads {
		sum += uint64(p.Scale)
	}
	return float64(sum) / ProbScale
}
