package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/born-ml/nas/internal/backend/cpu"
	"github.com/born-ml/nas/internal/config"
	"github.com/born-ml/nas/internal/dataset"
	"github.com/born-ml/nas/internal/metrics"
	"github.com/born-ml/nas/internal/nas"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

type options struct {
	cfgPath   string
	out       string
	synthetic int
}

type searchNetwork = nas.SearchNetwork[*cpu.CPUBackend]

func run(cmd string, opts options, w io.Writer) error {
	if cmd == "version" {
		_, err := fmt.Fprintf(w, "pcdarts %s\n", version)
		return err
	}

	cfg, err := loadConfig(opts.cfgPath)
	if err != nil {
		return err
	}

	switch cmd {
	case "init":
		return runInit(cfg, w)
	case "genotype":
		return runGenotype(cfg, opts.out, w)
	case "test":
		return runTest(cfg, opts.synthetic, w)
	default:
		return errors.Errorf("unknown command %q", cmd)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		klog.Info("no config file given, using defaults")
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

func buildNetwork(cfg config.Config, w io.Writer) (*searchNetwork, error) {
	net, err := nas.NewSearchNetwork(cfg.Network(), rand.New(rand.NewSource(cfg.Seed)), cpu.New())
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "param size = %fMB\n", metrics.ParamsMB(net.NumParameters()))
	return net, nil
}

func runInit(cfg config.Config, w io.Writer) error {
	net, err := buildNetwork(cfg, w)
	if err != nil {
		return err
	}
	path, err := nas.SaveCheckpoint(net, cfg.CheckpointsDir, cfg.SubName)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "[*] save ckpt to %s\n", path)
	return nil
}

func restore(cfg config.Config, w io.Writer) (*searchNetwork, error) {
	net, err := buildNetwork(cfg, w)
	if err != nil {
		return nil, err
	}
	if _, err := nas.LoadCheckpoint(net, cfg.CheckpointsDir, cfg.SubName); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "[*] load ckpt from %s\n", nas.CheckpointPath(cfg.CheckpointsDir, cfg.SubName))
	return net, nil
}

func runGenotype(cfg config.Config, out string, w io.Writer) error {
	net, err := restore(cfg, w)
	if err != nil {
		return err
	}
	g, err := net.Genotype()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, g.String())

	if out == "" {
		return nil
	}
	data, err := yaml.Marshal(g)
	if err != nil {
		return errors.Wrap(err, "encode genotype")
	}
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return errors.Wrap(err, "write genotype")
	}
	klog.Infof("genotype written to %s", out)
	return nil
}

func testSource(cfg config.Config, synthetic int) (dataset.Source, error) {
	if synthetic > 0 {
		return dataset.NewSynthetic(synthetic, cfg.InputSize, cfg.NumClasses, cfg.Seed), nil
	}
	if cfg.InputSize != dataset.CIFARImageSize {
		return nil, errors.Errorf("CIFAR-10 images are %d×%d, config input_size is %d",
			dataset.CIFARImageSize, dataset.CIFARImageSize, cfg.InputSize)
	}
	return dataset.LoadCIFAR10(cfg.DatasetDir, dataset.SplitTest)
}

func runTest(cfg config.Config, synthetic int, w io.Writer) error {
	net, err := restore(cfg, w)
	if err != nil {
		return err
	}
	net.SetTraining(false)

	src, err := testSource(cfg, synthetic)
	if err != nil {
		return err
	}
	loader, err := dataset.NewLoader(src, cfg.TestBatchSize, false, net.Backend())
	if err != nil {
		return err
	}

	var top1, top5 metrics.AverageMeter
	start := time.Now()
	fmt.Fprintln(w, "Start")

	for step := 0; ; step++ {
		images, labels, ok := loader.Next()
		if !ok {
			break
		}
		logits, err := net.Predict(images)
		if err != nil {
			return errors.Wrapf(err, "step %d", step)
		}
		acc, err := metrics.Accuracy(logits, labels, 1, 5)
		if err != nil {
			return errors.Wrapf(err, "step %d", step)
		}
		top1.Update(acc[0], len(labels))
		top5.Update(acc[1], len(labels))
		fmt.Fprintf(w, " %03d: top1 %f, top5 %f\n", step, top1.Avg(), top5.Avg())
	}

	fmt.Fprintln(w, "End")
	fmt.Fprintf(w, "Time: %.4fsec\n", time.Since(start).Seconds())
	fmt.Fprintf(w, "Test Acc: top1 %.2f%%, top5 %.2f%%\n", top1.Avg(), top5.Avg())
	return nil
}
