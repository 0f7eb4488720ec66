// Command fpe is a small command-line front end for format-preserving
// encryption: the layer spec.md keeps out of the core's scope but
// anticipates existing above it.
//
// Usage:
//
//	fpe encrypt -key <hex> -tweak <hex> <plaintext>
//	fpe decrypt -key <hex> -tweak <hex> [-alphabet <chars>] <ciphertext>
//
// encrypt always infers the alphabet from the plaintext; -alphabet is
// accepted by both subcommands but only decrypt uses it.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/datavault-oss/fpe"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "encrypt":
		run(os.Args[2:], true)
	case "decrypt":
		run(os.Args[2:], false)
	case "-h", "-help", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "fpe: unknown subcommand %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fpe (encrypt|decrypt) -key <hex> -tweak <hex> [-alphabet <chars>] <text>")
}

func run(args []string, encrypting bool) {
	name := "encrypt"
	if !encrypting {
		name = "decrypt"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	keyHex := fs.String("key", "", "hex-encoded key (16, 24, or 32 bytes)")
	tweakHex := fs.String("tweak", "", "hex-encoded tweak (optional)")
	alphabet := fs.String("alphabet", "", "override the inferred alphabet (decrypt only; encrypt ignores it)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	text := fs.Arg(0)

	key, err := hex.DecodeString(*keyHex)
	if err != nil {
		fatal("invalid -key: %v", err)
	}
	tweak, err := hex.DecodeString(*tweakHex)
	if err != nil {
		fatal("invalid -tweak: %v", err)
	}

	primitive, err := fpe.NewFF1(key, tweak)
	if err != nil {
		fatal("failed to initialize FF1: %v", err)
	}

	if encrypting {
		result, err := primitive.Tokenize(text)
		if err != nil {
			fatal("encrypt failed: %v", err)
		}
		fmt.Println(result)
		return
	}

	result, err := primitive.Detokenize(text, "", *alphabet)
	if err != nil {
		fatal("decrypt failed: %v", err)
	}
	fmt.Println(result)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "fpe: "+format+"\n", args...)
	os.Exit(1)
}
