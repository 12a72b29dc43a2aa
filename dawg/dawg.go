// Пакет dawg реализует минимальный ациклический конечный автомат (DAWG)
// в "плоском" представлении: вместо указателей - индексы в трех глобальных
// массивах (узлы, ребра, полезные нагрузки). Такое представление позволяет
// читать автомат напрямую из отображенного в память файла без десериализации.
// Тип полезной нагрузки задается параметром типа, поэтому один и тот же
// механизм обслуживает и лексикон, и предсказатель, и таблицу вероятностей.
package dawg

import (
	"errors"
	"sort"
)

// --- СТРУКТУРЫ ДАННЫХ ---

// Node - "плоское" представление узла для хранения на диске.
// Вместо указателей используются индексы в глобальных массивах.
type Node struct {
	PayloadIdx, EdgesIdx uint32 // Индексы начала срезов в массивах полезных нагрузок и ребер.
	PayloadLen, EdgesLen uint16 // Длины этих срезов.
	IsFinal              bool   // Является ли этот узел концом слова.
}

// Edge - "плоское" представление ребра графа.
type Edge struct {
	Char   rune   // Символ на ребре.
	NodeID uint32 // ID дочернего узла, на который указывает ребро.
}

// Match - слово, найденное с учетом подстановок символов, и его полезная
// нагрузка. Word содержит фактически найденный в автомате вариант написания.
type Match[P any] struct {
	Word     string
	Payloads []P
}

// Automaton - автомат над плоскими массивами. Узел 0 всегда корень.
// После конструирования автомат используется только на чтение и безопасен
// для конкурентного доступа.
type Automaton[P any] struct {
	nodes    []Node
	edges    []Edge
	payloads []P
}

// New собирает автомат из готовых массивов. Обычно это срезы поверх
// отображенного в память файла словаря: данные не копируются.
func New[P any](nodes []Node, edges []Edge, payloads []P) (*Automaton[P], error) {
	if len(nodes) == 0 {
		return nil, errors.New("автомат не содержит ни одного узла")
	}
	return &Automaton[P]{nodes: nodes, edges: edges, payloads: payloads}, nil
}

// --- ПОИСК ---

// Lookup возвращает полезные нагрузки слова. Вторая компонента равна false,
// если слова в автомате нет. Возвращаемый срез - окно в общий массив:
// модифицировать его нельзя.
func (a *Automaton[P]) Lookup(word string) ([]P, bool) {
	nodeID, ok := a.walk(word)
	if !ok {
		return nil, false
	}
	node := a.nodes[nodeID]
	if !node.IsFinal {
		return nil, false
	}
	return a.payloads[node.PayloadIdx : node.PayloadIdx+uint32(node.PayloadLen)], true
}

// Contains сообщает, есть ли слово в автомате.
func (a *Automaton[P]) Contains(word string) bool {
	nodeID, ok := a.walk(word)
	return ok && a.nodes[nodeID].IsFinal
}

// walk спускается от корня по символам слова и возвращает ID достигнутого узла.
func (a *Automaton[P]) walk(word string) (uint32, bool) {
	var current uint32
	for _, char := range word {
		next, ok := a.findChild(current, char)
		if !ok {
			return 0, false
		}
		current = next
	}
	return current, true
}

// findChild - поиск дочернего узла по символу. Ребра каждого узла лежат
// в глобальном массиве непрерывным отсортированным блоком, поэтому внутри
// окна работает бинарный поиск.
func (a *Automaton[P]) findChild(nodeID uint32, char rune) (uint32, bool) {
	node := a.nodes[nodeID]
	if node.EdgesLen == 0 {
		return 0, false
	}

	window := a.edges[node.EdgesIdx : node.EdgesIdx+uint32(node.EdgesLen)]
	i := sort.Search(len(window), func(i int) bool { return window[i].Char >= char })
	if i < len(window) && window[i].Char == char {
		return window[i].NodeID, true
	}
	return 0, false
}

// --- ОБХОД ---

// WalkPrefix обходит слова с данным префиксом в порядке сортировки ребер
// и вызывает fn для каждого. Если fn возвращает false, обход немедленно
// прекращается: полный список форм не материализуется.
func (a *Automaton[P]) WalkPrefix(prefix string, fn func(word string, payloads []P) bool) {
	start, ok := a.walk(prefix)
	if !ok {
		return
	}

	// Рекурсивный обход в глубину. Замыкание объявляется заранее,
	// чтобы могло ссылаться само на себя.
	var visit func(nodeID uint32, word []rune) bool
	visit = func(nodeID uint32, word []rune) bool {
		node := a.nodes[nodeID]
		if node.IsFinal {
			payloads := a.payloads[node.PayloadIdx : node.PayloadIdx+uint32(node.PayloadLen)]
			if !fn(string(word), payloads) {
				return false
			}
		}
		for _, edge := range a.edges[node.EdgesIdx : node.EdgesIdx+uint32(node.EdgesLen)] {
			if !visit(edge.NodeID, append(word, edge.Char)) {
				return false
			}
		}
		return true
	}
	visit(start, []rune(prefix))
}

// LookupSimilar ищет слово с учетом таблицы взаимозаменяемых символов
// (классический случай - е/ё). В каждой позиции сначала пробуется исходный
// символ, затем его замены, поэтому точное совпадение всегда идет первым.
func (a *Automaton[P]) LookupSimilar(word string, subs map[rune][]rune) []Match[P] {
	runes := []rune(word)
	var out []Match[P]

	var visit func(nodeID uint32, pos int, formed []rune)
	visit = func(nodeID uint32, pos int, formed []rune) {
		if pos == len(runes) {
			node := a.nodes[nodeID]
			if node.IsFinal {
				out = append(out, Match[P]{
					Word:     string(formed),
					Payloads: a.payloads[node.PayloadIdx : node.PayloadIdx+uint32(node.PayloadLen)],
				})
			}
			return
		}

		char := runes[pos]
		if next, ok := a.findChild(nodeID, char); ok {
			visit(next, pos+1, append(formed, char))
		}
		for _, alt := range subs[char] {
			if next, ok := a.findChild(nodeID, alt); ok {
				visit(next, pos+1, append(formed, alt))
			}
		}
	}
	visit(0, 0, make([]rune, 0, len(runes)))
	return out
}

// --- ДОСТУП К МАССИВАМ ---

// Nodes возвращает массив узлов автомата (для сериализации и статистики).
func (a *Automaton[P]) Nodes() []Node { return a.nodes }

// Edges возвращает массив ребер автомата.
func (a *Automaton[P]) Edges() []Edge { return a.edges }

// Payloads возвращает массив полезных нагрузок автомата.
func (a *Automaton[P]) Payloads() []P { return a.payloads }
