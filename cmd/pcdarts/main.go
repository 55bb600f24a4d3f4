// Package main provides the PC-DARTS search network CLI.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/born-ml/nas/internal/nas"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const version = "v0.1.0-dev"

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "PC-DARTS search network %s\n\n", version)
	fmt.Fprintln(out, "Usage: pcdarts [flags] <command>")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  init       Build a fresh search network and write its checkpoint")
	fmt.Fprintln(out, "  genotype   Print the genotype of the saved checkpoint")
	fmt.Fprintln(out, "  test       Evaluate the saved checkpoint (top-1 / top-5)")
	fmt.Fprintln(out, "  version    Show version")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Flags:")
	flag.PrintDefaults()
}

func main() {
	klog.InitFlags(nil)
	var opts options
	flag.StringVar(&opts.cfgPath, "cfg_path", "configs/pcdarts_cifar.yaml", "config file path")
	flag.StringVar(&opts.out, "out", "", "genotype: also write the genotype as YAML to this file")
	flag.IntVar(&opts.synthetic, "synthetic", 0, "test: evaluate on this many synthetic examples instead of CIFAR-10")
	flag.Usage = usage
	flag.Parse()
	defer klog.Flush()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	err := run(flag.Arg(0), opts, os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, nas.ErrMissingCheckpoint):
		// Nothing to evaluate yet; not a failure.
		fmt.Printf("[*] Cannot find ckpt: %v\n", err)
	default:
		klog.Errorf("%s: %v", flag.Arg(0), err)
		klog.Flush()
		os.Exit(1)
	}
}
