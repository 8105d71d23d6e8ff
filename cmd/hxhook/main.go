package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pthm/hxhook"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "config":
		if err := runConfig(args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "profile":
		if err := runProfile(args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("hxhook version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`hxhook - component hook runtime tools

Usage:
  hxhook <command> [arguments]

Commands:
  config [file]         Print the effective config (file, then HXHOOK_* env)
  profile <file>        Decode a profile envelope fetched from /_profile
  version               Print version
  help                  Show this help

Options for profile:
  --config <file>       Config providing profile.key and profile.sensitive

Examples:
  hxhook config hxhook.toml
  curl -s localhost:8080/_c/_profile > p.txt && hxhook profile --config hxhook.toml p.txt`)
}

func runConfig(args []string) error {
	var path string
	if len(args) > 0 {
		path = args[0]
	}
	cfg, err := hxhook.LoadConfig(path)
	if err != nil {
		return err
	}
	fmt.Printf("production = %v\n", cfg.Production)
	fmt.Printf("debug      = %v\n", cfg.Debug)
	fmt.Printf("log_level  = %s\n", cfg.LogLevel)
	fmt.Printf("profile    = enabled=%v sensitive=%v key_set=%v\n",
		cfg.Profile.Enabled, cfg.Profile.Sensitive, cfg.Profile.Key != "")
	return nil
}

func runProfile(args []string) error {
	var cfgPath, file string
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			cfgPath = args[i+1]
			i++
			continue
		}
		file = args[i]
	}
	if file == "" {
		return fmt.Errorf("profile file required")
	}

	cfg, err := hxhook.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	if cfg.Profile.Key == "" {
		return fmt.Errorf("profile key not configured (set profile.key or %s)", hxhook.EnvProfileKey)
	}
	enc, err := hxhook.NewEncoder([]byte(cfg.Profile.Key))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	p, err := hxhook.DecodeProfile(enc, string(bytes.TrimSpace(data)), cfg.Profile.Sensitive)
	if err != nil {
		return err
	}

	for _, m := range p.Measures {
		fmt.Printf("%*s%-18s %-24s %10s\n", m.Depth*2, "", m.Label, m.Component, m.Duration.Round(time.Microsecond))
	}

	totals := map[string]time.Duration{}
	for _, m := range p.Measures {
		totals[m.Label] = p.Total(m.Label)
	}
	labels := make([]string, 0, len(totals))
	for l := range totals {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	fmt.Println()
	for _, l := range labels {
		fmt.Printf("total %-18s %10s\n", l, totals[l].Round(time.Microsecond))
	}
	return nil
}
