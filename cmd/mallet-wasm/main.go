//go:build js && wasm

package main

import (
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-mallet/mallet"
)

const maxBlockFrames = 128

var (
	engine       *mallet.Engine
	outputBuffer []float32
)

func main() {
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmSetParams", js.FuncOf(wasmSetParams))
	js.Global().Set("wasmNoteOn", js.FuncOf(wasmNoteOn))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM mallet module loaded")
	<-c
}

func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	sampleRate := args[0].Int()

	e, err := mallet.NewEngine(sampleRate)
	if err != nil {
		println("Mallet init failed:", err.Error())
		return nil
	}
	engine = e
	outputBuffer = make([]float32, maxBlockFrames)

	println("Mallet initialized at", sampleRate, "Hz")
	return nil
}

func wasmSetParams(this js.Value, args []js.Value) interface{} {
	if len(args) < 5 || engine == nil {
		return nil
	}
	engine.SetParams(mallet.SynthParams{
		VoiceLimit: args[0].Int(),
		Stiffness:  args[1].Float(),
		Decay:      args[2].Float(),
		Material:   args[3].Float(),
		Position:   args[4].Float(),
	})
	return nil
}

func wasmNoteOn(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || engine == nil {
		return nil
	}
	engine.NoteOn(args[0].Int(), args[1].Int())
	return nil
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || engine == nil {
		return 0
	}
	numFrames := min(max(args[0].Int(), 0), maxBlockFrames)
	clear(outputBuffer[numFrames:])
	engine.ProcessInto(outputBuffer[:numFrames])

	return js.ValueOf(uintptr(unsafe.Pointer(&outputBuffer[0])))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
