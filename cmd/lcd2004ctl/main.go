/*
Copyright 2024 Tim St. Pierre
lcd2004ctl talks to lcd2004d: an interactive console and a clock demo
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/mattn/go-colorable"
	log "github.com/sirupsen/logrus"
)

const (
	welcome1 = "MSE-6co2021-IMD"
	welcome2 = "LCD2004 Driver"
)

func main() {
	addr := flag.String("addr", "localhost:2004", "lcd2004d TCP address")
	path := flag.String("file", "", "write to this file or named pipe instead of TCP")
	clock := flag.Bool("clock", false, "show the date and time, updated every second")
	flag.Parse()

	log.SetOutput(colorable.NewColorableStderr())

	w, err := open(*addr, *path)
	if err != nil {
		log.Fatal(err)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *clock {
		err = runClock(ctx, w, time.Now)
	} else {
		err = runConsole(ctx, w)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func open(addr, path string) (io.WriteCloser, error) {
	if path != "" {
		return os.OpenFile(path, os.O_WRONLY, 0)
	}
	return net.Dial("tcp", addr)
}

// send writes s as one NUL terminated request.
func send(w io.Writer, s string) error {
	_, err := io.WriteString(w, s+"\x00")
	return err
}

func runClock(ctx context.Context, w io.Writer, now func() time.Time) error {
	for _, s := range []string{"___0", "___1", welcome1, "___2", welcome2} {
		if err := send(w, s); err != nil {
			return err
		}
	}
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		if err := showTime(w, now()); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func showTime(w io.Writer, t time.Time) error {
	for _, s := range []string{
		"___3", t.Format("Date: 02/01/2006"),
		"___4", t.Format("Time: 15:04:05"),
	} {
		if err := send(w, s); err != nil {
			return err
		}
	}
	return nil
}

// translate turns a console line into the request to send. Words that are
// not commands are sent as text.
func translate(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}
	switch {
	case fields[0] == "clear" && len(fields) == 1:
		return "___0", true
	case fields[0] == "row" && len(fields) == 2:
		return "___" + fields[1], true
	case fields[0] == "say":
		return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "say")), true
	default:
		return line, true
	}
}

func runConsole(ctx context.Context, w io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lcd> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	fmt.Fprintln(rl.Stdout(), "clear | row 1-4 | say <text> | <text> | exit")

	for ctx.Err() == nil {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return nil
		}
		if strings.TrimSpace(line) == "exit" {
			return nil
		}
		req, ok := translate(line)
		if !ok {
			continue
		}
		if err := send(w, req); err != nil {
			return err
		}
	}
	return nil
}
