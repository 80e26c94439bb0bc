package crash

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"tg-antijudi/internal/logger"
)

// RecoverWithStack recovers a panic and logs it with the stack trace.
func RecoverWithStack(moduleName string) {
	if r := recover(); r != nil {
		report(moduleName, r, "PANIC")
	}
}

// RecoverWithStackAndExit is deferred in main: it logs the panic and exits
// non-zero so the supervisor restarts the process.
func RecoverWithStackAndExit(moduleName string) {
	if r := recover(); r != nil {
		report(moduleName, r, "FATAL PANIC")

		// let the log file catch up
		logger.Sync()
		time.Sleep(1 * time.Second)

		os.Exit(1)
	}
}

// SafeGoroutine starts fn in a goroutine guarded by RecoverWithStack.
func SafeGoroutine(name string, fn func()) {
	go func() {
		defer RecoverWithStack(fmt.Sprintf("goroutine-%s", name))
		fn()
	}()
}

// Guard runs fn and converts a panic into an error, for work items that
// must not take the calling loop down with them.
func Guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			report(name, r, "PANIC")
			err = fmt.Errorf("panic in %s: %v", name, r)
		}
	}()
	return fn()
}

func report(moduleName string, r interface{}, label string) {
	stack := debug.Stack()

	logger.Errorf("%s in %s: %v", label, moduleName, r)
	logger.Errorf("Stack trace:\n%s", string(stack))

	// stderr as well, so container logs show it
	fmt.Fprintf(os.Stderr, "[%s] %s - %s: %v\n", label, time.Now().Format("2006-01-02 15:04:05"), moduleName, r)
	fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", string(stack))

	logRuntimeInfo()
}

// logRuntimeInfo logs runtime statistics to help with debugging
func logRuntimeInfo() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	info := fmt.Sprintf(`
Runtime Information:
- Go version: %s
- Number of CPUs: %d
- Number of goroutines: %d
- Memory stats:
  - Heap allocated: %d KB
  - Heap in use: %d KB
  - Stack in use: %d KB
  - Num GC: %d
`,
		runtime.Version(),
		runtime.NumCPU(),
		runtime.NumGoroutine(),
		bToKb(m.HeapAlloc),
		bToKb(m.HeapInuse),
		bToKb(m.StackInuse),
		m.NumGC,
	)

	logger.Error(info)
}

func bToKb(b uint64) uint64 {
	return b / 1024
}
