package actor

import (
	"bytes"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/DataDog/gostackparse"
)

// newPanicError 记录 panic 值和去掉 runtime 帧的调用栈
func newPanicError(v interface{}) *PanicError {
	if pe, ok := v.(*PanicError); ok {
		return pe
	}
	return &PanicError{Value: v, Stack: cleanStack(debug.Stack())}
}

// cleanStack 去掉 debug.Stack、panic 和 recover 的帧
func cleanStack(stack []byte) []byte {
	goroutines, errs := gostackparse.Parse(bytes.NewReader(stack))
	if len(errs) > 0 || len(goroutines) != 1 {
		return stack
	}
	g := goroutines[0]
	frames := g.Stack
	for i, f := range frames {
		if f.Func == "panic" || strings.HasPrefix(f.Func, "runtime.gopanic") {
			frames = frames[i+1:]
			break
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = fmt.Fprintf(buf, "goroutine %d [%s]\n", g.ID, g.State)
	for _, f := range frames {
		_, _ = fmt.Fprintf(buf, "%s\n\t%s:%d\n", f.Func, f.File, f.Line)
	}
	return buf.Bytes()
}
