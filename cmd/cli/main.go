package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"citrine/internal/common"
	"citrine/internal/mem"
	"citrine/internal/pager"
)

var commands = []string{
	"begin", "commit", "rollback",
	"savepoint ", "release ", "rollbackto ",
	"read ", "write ", "alloc", "free ",
	"pages", "stat", "seed ", "log ",
	"help", "exit",
}

func main() {
	path := "citrine.db"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	budgetBytes := int64(8 << 20)

	p, err := pager.Open(path, pager.WithBudget(mem.NewBudget(budgetBytes)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()

	fmt.Println("ctr - citrine pager")
	fmt.Printf("db: %s (%d pages of %d bytes, budget %dMB)\n", path, p.PageCount(), p.PageSize(), budgetBytes>>20)
	printHelp()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	histPath := historyPath()
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		input, err := line.Prompt("> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "begin":
			report(p.Begin())
		case "commit":
			report(p.Commit())
		case "rollback":
			report(p.Rollback())
		case "savepoint":
			if len(parts) != 2 {
				fmt.Println("usage: savepoint <name>")
				continue
			}
			report(p.Savepoint(parts[1]))
		case "release":
			if len(parts) != 2 {
				fmt.Println("usage: release <name>")
				continue
			}
			report(p.Release(parts[1]))
		case "rollbackto":
			if len(parts) != 2 {
				fmt.Println("usage: rollbackto <name>")
				continue
			}
			report(p.RollbackTo(parts[1]))
		case "read":
			if len(parts) != 2 {
				fmt.Println("usage: read <page>")
				continue
			}
			cmdRead(p, parts[1])
		case "write":
			if len(parts) < 3 {
				fmt.Println("usage: write <page> <text>")
				continue
			}
			cmdWrite(p, parts[1], strings.Join(parts[2:], " "))
		case "alloc":
			pgno, err := p.Allocate()
			if err != nil {
				fmt.Printf("alloc error: %v\n", err)
				continue
			}
			fmt.Printf("page %d\n", pgno)
		case "free":
			if len(parts) != 2 {
				fmt.Println("usage: free <page>")
				continue
			}
			pgno, err := parsePageNo(parts[1])
			if err != nil {
				fmt.Println(err)
				continue
			}
			report(p.Free(pgno))
		case "pages":
			printPages(p)
		case "stat":
			printStats(p)
		case "seed":
			if len(parts) != 2 {
				fmt.Println("usage: seed <n>")
				continue
			}
			n, err := strconv.Atoi(parts[1])
			if err != nil || n < 1 {
				fmt.Println("seed: n must be a positive integer")
				continue
			}
			runSeed(p, n)
		case "log":
			if len(parts) != 2 || (parts[1] != "on" && parts[1] != "off") {
				fmt.Println("usage: log on|off")
				continue
			}
			common.LoggingEnabled = parts[1] == "on"
			fmt.Printf("logging %s\n", parts[1])
		case "help":
			printHelp()
		case "exit", "quit":
			return
		default:
			fmt.Println("unknown command (try help)")
		}
	}
}

func printHelp() {
	fmt.Println("commands: begin | commit | rollback | savepoint <name> | release <name> | rollbackto <name>")
	fmt.Println("          read <page> | write <page> <text> | alloc | free <page>")
	fmt.Println("          pages | stat | seed <n> | log on|off | help | exit")
}

func report(err error) {
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("ok")
}

func parsePageNo(s string) (common.PageNo, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad page number %q", s)
	}
	return common.PageNo(n), nil
}

func cmdRead(p *pager.Pager, arg string) {
	pgno, err := parsePageNo(arg)
	if err != nil {
		fmt.Println(err)
		return
	}
	img, err := p.Read(pgno)
	if err != nil {
		fmt.Printf("read error: %v\n", err)
		return
	}
	text := strings.TrimRight(string(img), "\x00")
	if text == "" {
		fmt.Println("(empty page)")
		return
	}
	fmt.Printf("%q (%d of %d bytes)\n", text, len(text), len(img))
}

func cmdWrite(p *pager.Pager, arg, text string) {
	pgno, err := parsePageNo(arg)
	if err != nil {
		fmt.Println(err)
		return
	}
	if uint32(len(text)) > p.PageSize() {
		fmt.Printf("write error: text is %d bytes, page is %d\n", len(text), p.PageSize())
		return
	}
	img := make([]byte, p.PageSize())
	copy(img, text)
	report(p.Write(pgno, img))
}

func completeCommand(line string) []string {
	if strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for _, c := range commands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}
	return out
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".citrine_history"
	}
	return filepath.Join(home, ".citrine_history")
}
