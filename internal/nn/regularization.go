package nn

import "github.com/born-ml/nas/internal/tensor"

// L2Penalty returns Σ wd·Σw² over params, the kernel regularization term
// added to the training loss.
func L2Penalty[B tensor.Backend](params []*Parameter[B]) float32 {
	var total float64
	for _, p := range params {
		if p.weightDecay == 0 {
			continue
		}
		var sq float64
		for _, v := range p.tensor.Data() {
			sq += float64(v) * float64(v)
		}
		total += float64(p.weightDecay) * sq
	}
	return float32(total)
}
