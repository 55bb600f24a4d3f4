package nas

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/born-ml/nas/internal/serialization"
	"github.com/born-ml/nas/internal/tensor"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// checkpointName is the file written for the best model of a run.
const checkpointName = "best"

// Checkpoint metadata keys.
const (
	MetaRunID    = "run_id"
	MetaName     = "name"
	MetaGenotype = "genotype"
	MetaSteps    = "steps"
	MetaLayers   = "layers"
)

// CheckpointPath returns <dir>/<run>/best.
func CheckpointPath(dir, run string) string {
	return filepath.Join(dir, run, checkpointName)
}

// SaveCheckpoint writes the network state to CheckpointPath(dir, run) and
// returns the path. Every save is tagged with a fresh run id.
func SaveCheckpoint[B tensor.Backend](net *SearchNetwork[B], dir, run string) (string, error) {
	path := CheckpointPath(dir, run)
	cfg := net.Config()

	meta := map[string]string{
		MetaRunID:  uuid.NewString(),
		MetaName:   cfg.Name,
		MetaSteps:  strconv.Itoa(cfg.Steps),
		MetaLayers: strconv.Itoa(cfg.Layers),
	}
	if g, err := net.Genotype(); err == nil {
		meta[MetaGenotype] = g.String()
	} else {
		klog.Warningf("checkpoint %s saved without genotype: %v", path, err)
	}

	if err := serialization.Save(path, net.StateDict(), serialization.Header{
		ModelType: "SearchNetwork",
		Metadata:  meta,
	}); err != nil {
		return "", errors.Wrapf(err, "save checkpoint %s", path)
	}
	klog.Infof("saved checkpoint %s (run_id %s)", path, meta[MetaRunID])
	return path, nil
}

// LoadCheckpoint restores the network from CheckpointPath(dir, run) and
// returns the stored metadata. A missing file yields an error wrapping
// ErrMissingCheckpoint.
func LoadCheckpoint[B tensor.Backend](net *SearchNetwork[B], dir, run string) (map[string]string, error) {
	path := CheckpointPath(dir, run)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrMissingCheckpoint, "%s", path)
		}
		return nil, errors.Wrapf(err, "stat checkpoint %s", path)
	}

	stateDict, header, err := serialization.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load checkpoint %s", path)
	}
	if err := net.LoadStateDict(stateDict); err != nil {
		return nil, errors.Wrapf(err, "restore checkpoint %s", path)
	}
	klog.Infof("[*] load ckpt from %s", path)
	return header.Metadata, nil
}
