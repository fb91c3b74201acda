package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/theckman/yacspin"

	"github.com/nasa-jpl/asap3"
)

// Version is injected via ldflags at build time.
var Version = "dev"

func root() {
	str := `asap3ctl connects to an ASAP3 measurement and calibration server over TCP
and starts a subscription to the configured parameters. It does not print
the online values.

Usage:
	asap3ctl <command>

Commands:
	help
	mkconf
	conf
	run
	version`
	fmt.Println(str)
}

func help() {
	str := `asap3ctl is configured via its asap3.yml file. The command mkconf writes
the default configuration; edit Host, Port, ScanRate, and Parameters to
match your server before running run.`
	fmt.Println(str)
}

func mkconf() {
	if err := asap3.WriteDefault(asap3.ConfigFileName); err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	cfg, err := asap3.LoadConfig(asap3.ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%+v\n", cfg)
}

func pversion() {
	fmt.Printf("asap3ctl version %s\n", Version)
}

func run() {
	cfg, err := asap3.LoadConfig(asap3.ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}

	spinnerCfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          " connecting to " + cfg.Host,
		SuffixAutoColon: true,
		Message:         "handshake in progress",
		StopCharacter:   "✓",
		StopColors:      []string{"fgGreen"},
	}
	spinner, err := yacspin.New(spinnerCfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := spinner.Start(); err != nil {
		log.Fatal(err)
	}

	client := asap3.NewClient(cfg.Host, cfg.Port)
	client.Listener = asap3.NewConsoleListener(cfg.LogLevel)
	client.ParameterList(cfg.ToParameters())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.Start(ctx); err != nil {
		spinner.StopFailMessage(err.Error())
		_ = spinner.StopFail()
		log.Fatal(err)
	}
	spinner.StopMessage(fmt.Sprintf("connected to %s (remote version %#x)", client.RemoteName(), client.RemoteVersion()))
	if err := spinner.Stop(); err != nil {
		log.Fatal(err)
	}

	if len(cfg.Parameters) > 0 {
		if err := client.StartSubscription(context.Background(), cfg.ScanRate); err != nil {
			log.Fatal(err)
		}
	}

	log.Println("subscription active, press Ctrl+C to exit")
	select {}
}

func main() {
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	cmd := strings.ToLower(args[1])
	switch cmd {
	case "help":
		help()
	case "mkconf":
		mkconf()
	case "conf":
		printconf()
	case "run":
		run()
	case "version":
		pversion()
	default:
		log.Fatal("unknown command")
	}
}
