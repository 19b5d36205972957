// Command kconsole is an interactive console for poking at the scheduler by
// hand: create threads at chosen priorities, hold and release a shared lock
// from the console thread itself, and watch priority donation happen live in
// the "threads" listing as a spawned thread blocks on a lock the console
// holds. The raw-terminal line reading is grounded on the pack's own direct
// dependency on golang.org/x/term for exactly this purpose.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/han0133/pintos-jungle-log/internal/monitor"
	"github.com/han0133/pintos-jungle-log/kernel"
)

var demoLock kernel.Lock

func main() {
	monitorAddr := flag.String("monitor", "", "if set, also serve a live websocket snapshot feed at this address (e.g. :8090)")
	flag.Parse()

	kernel.SystemInit()
	demoLock.Init()

	if *monitorAddr != "" {
		_, task := monitor.Start(*monitorAddr)
		kernel.RegisterStartupTask(task)
	}

	if err := kernel.SystemStart(); err != nil {
		fmt.Fprintln(os.Stderr, "kconsole: system_start:", err)
		os.Exit(1)
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		runScripted(os.Stdin)
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kconsole:", err)
		os.Exit(1)
	}
	defer term.Restore(fd, oldState)

	runInteractive()
}

// runInteractive reads raw bytes one at a time because raw mode disables the
// terminal's own line editing and local echo; backspace, Enter, Ctrl-C, and
// Ctrl-D all have to be handled by hand instead of left to the tty driver.
func runInteractive() {
	fmt.Print("pintos-console> \r\n> ")
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return
		}
		switch c := buf[0]; c {
		case 0x03: // Ctrl-C: dump live state instead of killing the process
			fmt.Print("\r\n")
			dumpThreads()
			fmt.Print("> ")
			line = line[:0]
		case 0x04: // Ctrl-D: clean exit, terminal restored by the deferred Restore
			fmt.Print("\r\n")
			return
		case '\r', '\n':
			fmt.Print("\r\n")
			runCommand(string(line))
			line = line[:0]
			fmt.Print("> ")
		case 0x7f, 0x08: // backspace (DEL or BS depending on terminal)
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Print("\b \b")
			}
		default:
			line = append(line, c)
			os.Stdout.Write([]byte{c})
		}
	}
}

// runScripted supports piping a command file in (e.g. for a demo recording)
// when stdin isn't a real tty, where raw mode doesn't apply.
func runScripted(r *os.File) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		runCommand(sc.Text())
	}
}

func runCommand(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "help":
		fmt.Println("commands: help, threads, stats, lock, unlock, spawn <name> <priority>, quit")
	case "threads":
		dumpThreads()
	case "stats":
		kernel.PrintStats(os.Stdout)
	case "lock":
		demoLock.Acquire()
		fmt.Println("console thread now holds demoLock")
	case "unlock":
		demoLock.Release()
		fmt.Println("console thread released demoLock")
	case "spawn":
		if len(fields) != 3 {
			fmt.Println("usage: spawn <name> <priority>")
			return
		}
		prio, err := strconv.Atoi(fields[2])
		if err != nil {
			fmt.Println("bad priority:", err)
			return
		}
		name := fields[1]
		if _, err := kernel.Create(name, prio, func(any) {
			fmt.Printf("%s: acquiring demoLock\r\n", name)
			demoLock.Acquire()
			fmt.Printf("%s: acquired demoLock\r\n", name)
			demoLock.Release()
			fmt.Printf("%s: released demoLock\r\n", name)
		}, nil); err != nil {
			fmt.Println("create failed:", err)
		}
	case "quit":
		os.Exit(0)
	default:
		fmt.Println("unknown command:", fields[0])
	}
}

func dumpThreads() {
	kernel.ForEachThread(func(t *kernel.Thread) {
		fmt.Printf("  tid=%d %-12s status=%-7s priority=%d base=%d\r\n",
			t.Tid(), t.Name(), t.Status(), t.Priority(), t.BasePriority())
	})
}
