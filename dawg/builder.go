// Этот файл содержит построитель автомата: из произвольного набора слов
// с полезной нагрузкой он собирает минимизированный DAWG и выкладывает его
// в плоские массивы, пригодные для записи на диск и последующего
// Zero-Copy чтения.
package dawg

import (
	"fmt"
	"sort"
	"strings"
)

// buildNode - рекурсивное представление узла Trie в оперативной памяти.
// Использует map для дочерних узлов и срез для полезной нагрузки.
type buildNode[P any] struct {
	children map[rune]*buildNode[P]
	payloads []P
	final    bool
}

// Builder накапливает слова и строит из них минимальный автомат.
// Порядок вставки не важен: минимизация выполняется целиком на этапе Build.
type Builder[P any] struct {
	root  *buildNode[P]
	words int
}

// NewBuilder создает пустой построитель.
func NewBuilder[P any]() *Builder[P] {
	return &Builder[P]{root: newBuildNode[P]()}
}

func newBuildNode[P any]() *buildNode[P] {
	return &buildNode[P]{children: make(map[rune]*buildNode[P])}
}

// Insert добавляет слово. Повторная вставка того же слова дописывает
// полезную нагрузку к уже имеющейся: у одного слова может быть несколько
// омонимичных разборов.
func (b *Builder[P]) Insert(word string, payloads ...P) {
	node := b.root
	for _, char := range word {
		child, ok := node.children[char]
		if !ok {
			child = newBuildNode[P]()
			node.children[char] = child
		}
		node = child
	}
	if !node.final {
		node.final = true
		b.words++
	}
	node.payloads = append(node.payloads, payloads...)
}

// Words возвращает количество различных вставленных слов.
func (b *Builder[P]) Words() int { return b.words }

// Build минимизирует накопленное дерево и выкладывает его в плоские массивы.
// Узел 0 - корень, ребра каждого узла отсортированы по символу, поэтому
// готовый автомат сразу пригоден для бинарного поиска переходов.
func (b *Builder[P]) Build() *Automaton[P] {
	// Шаг 1: минимизация. Поддеревья с одинаковым "отпечатком"
	// (финальность, нагрузка, набор переходов) сливаются в один узел.
	// Обход снизу вверх: к моменту вычисления отпечатка родителя все его
	// дети уже канонизированы и получили свои номера.
	registry := make(map[string]*buildNode[P])
	ids := make(map[*buildNode[P]]uint32)

	var canonical func(n *buildNode[P]) *buildNode[P]
	canonical = func(n *buildNode[P]) *buildNode[P] {
		chars := sortedChars(n)

		var sig strings.Builder
		if n.final {
			sig.WriteByte('F')
		}
		fmt.Fprintf(&sig, "%v", n.payloads)
		for _, char := range chars {
			child := canonical(n.children[char])
			n.children[char] = child
			fmt.Fprintf(&sig, "|%c>%d", char, ids[child])
		}

		key := sig.String()
		if prev, ok := registry[key]; ok {
			return prev
		}
		registry[key] = n
		ids[n] = uint32(len(ids))
		return n
	}
	root := canonical(b.root)

	// Шаг 2: нумерация узлов обходом в ширину от корня. Корень получает
	// номер 0, общие суффиксные узлы оказываются ближе к концу массива.
	order := []*buildNode[P]{root}
	flat := map[*buildNode[P]]uint32{root: 0}
	for i := 0; i < len(order); i++ {
		n := order[i]
		for _, char := range sortedChars(n) {
			child := n.children[char]
			if _, seen := flat[child]; !seen {
				flat[child] = uint32(len(order))
				order = append(order, child)
			}
		}
	}

	// Шаг 3: укладка в плоские массивы. Ребра и нагрузки каждого узла
	// занимают непрерывные окна в общих массивах.
	a := &Automaton[P]{nodes: make([]Node, len(order))}
	for i, n := range order {
		a.nodes[i] = Node{
			PayloadIdx: uint32(len(a.payloads)),
			EdgesIdx:   uint32(len(a.edges)),
			PayloadLen: uint16(len(n.payloads)),
			EdgesLen:   uint16(len(n.children)),
			IsFinal:    n.final,
		}
		a.payloads = append(a.payloads, n.payloads...)
		for _, char := range sortedChars(n) {
			a.edges = append(a.edges, Edge{Char: char, NodeID: flat[n.children[char]]})
		}
	}
	return a
}

// sortedChars возвращает символы исходящих ребер узла по возрастанию.
func sortedChars[P any](n *buildNode[P]) []rune {
	chars := make([]rune, 0, len(n.children))
	for char := range n.children {
		chars = append(chars, char)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })
	return chars
}
