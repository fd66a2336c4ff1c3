// Copyright 2026 The go-vyauma Authors
// This file is part of go-vyauma.
//
// go-vyauma is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-vyauma is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-vyauma. If not, see <http://www.gnu.org/licenses/>.

// vyvm is the command-line front end for the Vyauma runtime engine.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/vyauma/go-vyauma/core/bytecode"
	"github.com/vyauma/go-vyauma/core/loader"
	"github.com/vyauma/go-vyauma/core/vm"
	"github.com/vyauma/go-vyauma/log"
	"github.com/vyauma/go-vyauma/vol"
)

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	capFlag = cli.IntSliceFlag{
		Name:  "cap",
		Usage: "capability id to grant directly (repeatable)",
	}
	grantBytecodeCapsFlag = cli.BoolFlag{
		Name:  "grant-bytecode-caps",
		Usage: "grant the capability ids referenced by the bytecode, subject to policy",
	}
	lenientOptInFlag = cli.BoolFlag{
		Name:  "lenient-opt-in",
		Usage: "fall back to a lenient parse when strict validation fails",
	}
	formatFlag = cli.StringFlag{
		Name:  "format",
		Usage: "output format: plain or json",
		Value: "plain",
	}
	policyAllowFlag = cli.IntSliceFlag{
		Name:  "policy-allow",
		Usage: "capability id the policy allow-list permits (repeatable)",
	}
	auditFlag = cli.StringFlag{
		Name:  "audit",
		Usage: "path of the policy audit database",
	}
	verbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Usage: "log level: debug, info, warn, error",
		Value: "info",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "vyvm"
	app.Usage = "the Vyauma runtime engine"
	app.Flags = []cli.Flag{verbosityFlag}
	app.Before = func(ctx *cli.Context) error {
		setupLogging(ctx.GlobalString(verbosityFlag.Name))
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "Execute a bytecode file",
			ArgsUsage: "<file>",
			Action:    runCmd,
			Flags: []cli.Flag{
				configFileFlag,
				capFlag,
				grantBytecodeCapsFlag,
				lenientOptInFlag,
				formatFlag,
				policyAllowFlag,
				auditFlag,
			},
		},
		{
			Name:      "caps",
			Usage:     "List the capability ids a bytecode file references",
			ArgsUsage: "<file>",
			Action:    capsCmd,
		},
		{
			Name:      "disasm",
			Usage:     "Disassemble the instruction stream of a bytecode file",
			ArgsUsage: "<file>",
			Action:    disasmCmd,
		},
		{
			Name:      "generate",
			Usage:     "Write a sample bytecode file",
			ArgsUsage: "<file>",
			Action:    generateCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

// fatal prints err in red and exits nonzero.
func fatal(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	log.SetDefault(log.NewWithHandler(log.NewTerminalHandler(os.Stderr, lvl, true)))
}

// runResult is the terminal state reported by the run command.
type runResult struct {
	Halted      bool     `json:"halted"`
	IP          int      `json:"ip"`
	StackSize   int      `json:"stackSize"`
	StackTop    string   `json:"stackTop,omitempty"`
	Events      []string `json:"events"`
	LenientUsed bool     `json:"lenientUsed"`
}

func runCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("usage: vyvm run <file>")
	}

	cfg, err := resolveConfig(ctx)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}

	bundle, lenientUsed, err := loader.LoadWithOptIn(raw, ctx.Bool(lenientOptInFlag.Name))
	if err != nil {
		return err
	}

	instructions := bundle.Instructions
	if len(instructions) > 0 {
		if bundle.EntryPoint >= len(instructions) {
			return fmt.Errorf("invalid entry point %d: out of bounds (instructions length %d)",
				bundle.EntryPoint, len(instructions))
		}
		instructions = instructions[bundle.EntryPoint:]
	}

	machine := vm.New(cfg.VM, bundle.Constants, instructions, 0)

	for _, c := range ctx.IntSlice(capFlag.Name) {
		machine.GrantCapability(uint8(c))
	}

	if ctx.Bool(grantBytecodeCapsFlag.Name) {
		if err := grantThroughPolicy(ctx, cfg, machine, bundle.Caps); err != nil {
			return err
		}
	}

	result := runResult{LenientUsed: lenientUsed}

	// Drive the VM to completion, servicing external-call suspensions with
	// the built-in echo handler.
	for {
		if err := machine.Execute(); err != nil {
			return err
		}
		changes := machine.DrainStateChanges()
		var pending *vm.ExternalCallRequest
		for _, change := range changes {
			result.Events = append(result.Events, change.String())
			if req, ok := change.(vm.ExternalCallRequest); ok && pending == nil {
				pending = &req
			}
		}
		if pending == nil {
			break
		}
		results, err := echoHandler(pending.CapID, pending.Args)
		if err != nil {
			return err
		}
		if err := machine.ApplyExternalResults(results); err != nil {
			return err
		}
		machine.Resume()
	}

	result.Halted = machine.Halted()
	result.IP = machine.IP()
	result.StackSize = machine.StackSize()
	if top, err := machine.PeekTop(); err == nil {
		result.StackTop = top.String()
	}

	if ctx.String(formatFlag.Name) == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("halted: %v  ip: %d  stack: %d\n", result.Halted, result.IP, result.StackSize)
	if result.StackTop != "" {
		fmt.Printf("top: %s\n", result.StackTop)
	}
	for _, ev := range result.Events {
		fmt.Printf("event: %s\n", ev)
	}
	return nil
}

// grantThroughPolicy grants loader-collected caps that the policy allows and
// reports the ones it denies.
func grantThroughPolicy(ctx *cli.Context, cfg *vyvmConfig, machine *vm.VM, caps []uint8) error {
	allow := append([]uint8{}, cfg.Policy.Allow...)
	for _, c := range ctx.IntSlice(policyAllowFlag.Name) {
		allow = append(allow, uint8(c))
	}

	auditPath := cfg.Policy.AuditPath
	if ctx.IsSet(auditFlag.Name) {
		auditPath = ctx.String(auditFlag.Name)
	}
	audit, err := vol.OpenAuditStore(auditPath)
	if err != nil {
		return err
	}
	defer audit.Close()

	policy := vol.NewPolicy(allow, audit)
	for _, c := range caps {
		if policy.Allows(c) {
			machine.GrantCapability(c)
			continue
		}
		color.New(color.FgYellow).Fprintf(os.Stderr,
			"policy: denied granting cap %d (use --policy-allow %d to override)\n", c, c)
	}
	return nil
}

// echoHandler is the built-in host handler of the run command: it returns
// the arguments unchanged.
func echoHandler(capID uint8, args []vm.Value) ([]vm.Value, error) {
	log.Info("external call", "cap", capID, "argc", len(args))
	return args, nil
}

func capsCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("usage: vyvm caps <file>")
	}
	raw, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	caps, err := loader.CollectCaps(raw)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Capability", "Hex"})
	for _, c := range caps {
		table.Append([]string{fmt.Sprintf("%d", c), fmt.Sprintf("0x%02X", c)})
	}
	table.Render()
	return nil
}

func disasmCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("usage: vyvm disasm <file>")
	}
	raw, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	// Lenient-parse so that structurally sound but unverifiable programs can
	// still be inspected.
	bundle, _, err := loader.LoadWithOptIn(raw, true)
	if err != nil {
		return err
	}
	decoded, err := bytecode.Decode(bundle.Instructions)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Offset", "Opcode", "Operands"})
	for _, in := range decoded {
		table.Append([]string{
			fmt.Sprintf("%04d", in.Offset),
			in.Op.String(),
			operandColumn(in),
		})
	}
	table.Render()
	return nil
}

func operandColumn(in bytecode.Instruction) string {
	switch {
	case in.Op.HasTarget():
		return fmt.Sprintf("%d", in.Target)
	case in.Op == bytecode.OpExternalCall:
		return fmt.Sprintf("cap=0x%02X argc=%d", in.CapID, in.Argc)
	case in.ImmLen == 1:
		return fmt.Sprintf("%d", in.Imm)
	default:
		return ""
	}
}

func generateCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("usage: vyvm generate <file>")
	}

	// The sample program pushes a constant, requests capability 42 with one
	// argument, and halts.
	constants := []vm.Value{vm.Number(3.14)}
	instructions := []byte{
		byte(bytecode.OpPush), 0,
		byte(bytecode.OpExternalCall), 42, 1,
		byte(bytecode.OpHalt),
	}

	path := ctx.Args().First()
	if err := os.WriteFile(path, loader.Encode(constants, instructions, 0), 0644); err != nil {
		return err
	}
	log.Info("wrote sample bytecode", "path", path)
	return nil
}
