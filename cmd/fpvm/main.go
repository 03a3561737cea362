// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/ezrec/fpvm/config"
	"github.com/ezrec/fpvm/cpu"
	"github.com/ezrec/fpvm/emulator"
	"github.com/ezrec/fpvm/script"
)

// loadConfig reads the named configuration, or fpvm.toml if present.
func loadConfig(path string) (cfg config.Config) {
	var err error

	if len(path) == 0 {
		if _, err = os.Stat(config.FILENAME); err != nil {
			return config.Default()
		}
		path = config.FILENAME
	}

	cfg, err = config.Load(path)
	if err != nil {
		log.Fatalf("%v", err)
	}

	return
}

func main() {
	var build string
	var run string
	var binary string
	var linkmap string
	var configPath string
	var save bool
	var trim bool
	var input string
	var output string
	var verbose bool

	flag.StringVar(&build, "b", "", ".star build script to assemble")
	flag.StringVar(&run, "r", "", ".bin program image to run")
	flag.StringVar(&binary, "o", "", ".bin program image to write")
	flag.StringVar(&linkmap, "m", "", ".cbor link map to write, or to read with -r")
	flag.StringVar(&configPath, "c", "", "fpvm.toml configuration file")
	flag.BoolVar(&save, "s", false, "Save the program image, do not execute")
	flag.BoolVar(&trim, "t", false, "Trim trailing NOPs from the program image")
	flag.StringVar(&input, "i", "-", "Console input")
	flag.StringVar(&output, "O", "-", "Console output")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if (len(build) == 0) == (len(run) == 0) {
		log.Fatalf("%v: exactly one of -b or -r is required", os.Args[0])
	}

	cfg := loadConfig(configPath)
	if verbose {
		cfg.Machine.Verbose = true
		cfg.Assembler.Verbose = true
	}

	var prog *cpu.Program

	// Assemble a new program.
	if len(build) != 0 {
		inf, err := os.Open(build)
		if err != nil {
			log.Fatalf("%v: %v", build, err)
		}
		defer inf.Close()

		prog, err = script.Build(build, inf, cfg.Assembler)
		if err != nil {
			log.Fatalf("%v: %v", build, err)
		}
	}

	// Load an existing program image.
	if len(run) != 0 {
		bin, err := os.ReadFile(run)
		if err != nil {
			log.Fatalf("%v: %v", run, err)
		}

		prog, err = cpu.ParseBinary(bin)
		if err != nil {
			log.Fatalf("%v: %v", run, err)
		}

		if len(linkmap) != 0 {
			data, err := os.ReadFile(linkmap)
			if err != nil {
				log.Fatalf("%v: %v", linkmap, err)
			}
			err = prog.UnmarshalSymbols(data)
			if err != nil {
				log.Fatalf("%v: %v", linkmap, err)
			}
		}
	}

	if trim {
		prog.Trim()
	}

	if len(binary) != 0 {
		err := os.WriteFile(binary, prog.Binary(), 0o644)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
	}

	if len(build) != 0 && len(linkmap) != 0 {
		data, err := prog.MarshalSymbols()
		if err == nil {
			err = os.WriteFile(linkmap, data, 0o644)
		}
		if err != nil {
			log.Fatalf("%v: %v", linkmap, err)
		}
	}

	if save {
		return
	}

	emu := emulator.NewEmulator(cfg.Machine)
	emu.Program = prog

	if input == "-" {
		emu.Console.Input = os.Stdin
	} else {
		inf, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Console.Input = inf
	}

	var ouf *os.File
	if output == "-" {
		ouf = os.Stdout
	} else {
		var err error
		ouf, err = os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
	}
	buffered := bufio.NewWriter(ouf)
	emu.Console.Output = buffered

	err := emu.Reset()
	if err == nil {
		err = emu.Run()
	}
	err = errors.Join(err, buffered.Flush())
	if err != nil {
		log.Fatal(err)
	}
}
