// Command tirc-line is a line-mode reference front end for the tirc engine:
// it wires client.Manager, router.Router and input.Dispatcher together
// behind a liner-driven prompt, implementing the §6.2 UI contract without a
// full cell-buffer renderer (§6.4 CLI surface).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/peterh/liner"

	"github.com/sigpipe-irc/tirc/client"
	"github.com/sigpipe-irc/tirc/config"
	"github.com/sigpipe-irc/tirc/input"
	"github.com/sigpipe-irc/tirc/internal/logctx"
	"github.com/sigpipe-irc/tirc/router"
	"github.com/sigpipe-irc/tirc/tab"
)

type options struct {
	Config string `short:"c" long:"config" description:"path to the configuration file (default: platform config dir)"`
	Debug  string `long:"debug" description:"write debug/trace logging to this file"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run implements the §6.4 CLI surface: positional arguments are server
// filter substrings, and the return value is the process exit code (0 clean,
// 1 config parse error, 2 I/O fatal).
func run(argv []string) int {
	var opts options
	parser := flags.NewParser(&opts, flags.Default&^flags.PrintErrors)
	parser.Name = "tirc-line"
	filters, err := parser.ParseArgs(argv)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagsErr.Message)
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	doc, err := config.Load(opts.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var debug *logctx.Logger
	if opts.Debug != "" {
		f, err := os.OpenFile(opts.Debug, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "tirc-line: opening debug log:", err)
			return 2
		}
		defer f.Close()
		debug = logctx.New(f)
	}

	tabs := tab.NewList()
	mgr := client.NewManager(256)
	mgr.SetDebug(debug)

	ui := newLineUI(tabs)
	r := router.New(ui, tabs, mgr, mgr)
	r.SetDebug(debug)

	dispatcher := input.NewDispatcher(tabs, ui, mgr,
		func(addr string) client.ServerConfig { return defaultServerConfig(doc, addr) },
		func() error {
			reloaded, err := config.Load(opts.Config)
			if err != nil {
				return err
			}
			*doc = *reloaded
			return nil
		},
	)

	for _, cfg := range doc.Filter(filters) {
		tabs.NewServerTab(cfg.ServKey)
		ui.NewServerTab(cfg.ServKey)
		if _, err := mgr.AddServer(cfg); err != nil {
			fmt.Fprintln(os.Stderr, "tirc-line:", cfg.ServKey, err)
		}
	}
	mgr.StartTicker()

	lines := make(chan string)
	go readInput(lines)

	for {
		select {
		case ev, ok := <-mgr.Events():
			if !ok {
				return 0
			}
			r.Handle(ev)
		case line, ok := <-lines:
			if !ok {
				mgr.Shutdown()
				return 0
			}
			dispatcher.HandleLine(line)
		}
	}
}

// defaultServerConfig builds a ServerConfig for a bare address typed to
// /connect, inheriting the document's global defaults (§6.3).
func defaultServerConfig(doc *config.Document, addr string) client.ServerConfig {
	tmp := &config.Document{
		Servers: []config.ServerEntry{{
			Addr:     addr,
			Nicks:    doc.Defaults.Nicks,
			TLS:      doc.Defaults.TLS,
			Port:     doc.Defaults.Port,
			Realname: doc.Defaults.Realname,
		}},
		Defaults: doc.Defaults,
	}
	return tmp.ServerConfigs()[0]
}

// readInput runs liner's interactive prompt loop on its own goroutine,
// pushing each submitted line to out; it is the one blocking I/O surface the
// reactor loop in run() waits on alongside mgr.Events().
func readInput(out chan<- string) {
	defer close(out)

	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)

	for {
		line, err := state.Prompt("tirc> ")
		if err == liner.ErrPromptAborted {
			continue
		}
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		state.AppendHistory(line)
		out <- line
	}
}
