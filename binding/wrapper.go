// Экспорт анализатора в разделяемую библиотеку для вызова из других языков.
// Результаты передаются наружу как JSON-строки; память строк освобождает
// вызывающая сторона через FreeString.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"encoding/json"
	"unsafe"

	"github.com/steosofficial/morphema/analyzer"
)

var morphAnalyzer *analyzer.MorphAnalyzer

//export CreateAnalyzer
func CreateAnalyzer() {
	morphAnalyzer, _ = analyzer.Load()
}

//export AnalyzeWord
func AnalyzeWord(word *C.char) *C.char {
	goWord := C.GoString(word)

	parses := morphAnalyzer.Analyze(goWord)
	forms := morphAnalyzer.Forms(goWord)
	parsesJson, _ := json.Marshal(parses)
	formsJson, _ := json.Marshal(forms)

	var result string
	result += string(parsesJson) + " " + string(formsJson)

	return C.CString(result)
}

//export InflectWord
func InflectWord(lemma, tag *C.char) *C.char {
	target, err := morphAnalyzer.Schema().ParseTag(C.GoString(tag))
	if err != nil {
		return C.CString("")
	}
	word, ok := morphAnalyzer.Inflect(C.GoString(lemma), target)
	if !ok {
		return C.CString("")
	}
	return C.CString(word)
}

//export FreeString
func FreeString(str *C.char) {
	if str != nil {
		C.free(unsafe.Pointer(str))
	}
}

//export ReleaseAnalyzer
func ReleaseAnalyzer() {
	if morphAnalyzer != nil {
		_ = morphAnalyzer.Close()
		morphAnalyzer = nil
	}
}

func main() {}
