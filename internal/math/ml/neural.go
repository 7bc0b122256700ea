package ml

import (
	"fmt"
	"math"
	"math/rand"

	fmath "github.com/drakos74/free-ml/internal/math"
	xmachina "github.com/drakos74/go-ex-machina/xmachina/ml"
	"github.com/drakos74/go-ex-machina/xmachina/net"
	"github.com/drakos74/go-ex-machina/xmachina/net/ff"
	"github.com/drakos74/go-ex-machina/xmath"
)

const (
	hiddenUnits = 16
	epochs      = 30
	// regression targets are scaled into the range of tanh, away from its flat ends
	targetScale = 0.8
)

// Network is a feed forward network with a tanh hidden layer.
// It classifies through a softmax output or regresses through a single tanh unit.
type Network struct {
	seed     int64
	classify bool
	k        int
	min, max float64
	net      *ff.Network
}

// NewNetworkClassifier creates a new network for classification.
func NewNetworkClassifier(seed int64) Estimator {
	return &Network{seed: seed, classify: true}
}

// NewNetworkRegressor creates a new network for regression.
func NewNetworkRegressor(seed int64) Estimator {
	return &Network{seed: seed}
}

// newNetwork builds a tanh network, with a softmax output for classification.
func newNetwork(in, out int, classify bool) *ff.Network {
	rate := xmachina.Learn(1, 0.1)

	initW := xmath.Rand(0, 1, math.Sqrt)
	initB := xmath.Rand(0, 1, math.Sqrt)
	network := ff.New(in, out).
		Add(hiddenUnits, net.NewBuilder().
			WithModule(xmachina.Base().
				WithRate(rate).
				WithActivation(xmachina.TanH)).
			WithWeights(initW, initB).
			Factory(net.NewActivationCell)).
		Add(out, net.NewBuilder().
			WithModule(xmachina.Base().
				WithRate(rate).
				WithActivation(xmachina.TanH)).
			WithWeights(initW, initB).
			Factory(net.NewActivationCell))
	if classify {
		network = network.Add(out, net.NewBuilder().CellFactory(net.NewSoftCell))
	}
	network.Loss(xmachina.Pow)
	return network
}

func (m *Network) Fit(x [][]float64, y []float64) error {
	if err := check(x, y); err != nil {
		return err
	}
	in := len(x[0])
	out := 1
	targets := make([][]float64, len(y))
	if m.classify {
		yy, k := classes(y)
		m.k = k
		out = k
		for i, c := range yy {
			t := make([]float64, k)
			t[c] = 1
			targets[i] = t
		}
	} else {
		m.min, m.max = y[0], y[0]
		for _, v := range y {
			m.min = math.Min(m.min, v)
			m.max = math.Max(m.max, v)
		}
		for i, v := range y {
			targets[i] = []float64{m.scale(v)}
		}
	}
	return seeded(m.seed, func() error {
		network := newNetwork(in, out, m.classify)
		order := rand.New(rand.NewSource(m.seed))
		for e := 0; e < epochs; e++ {
			var loss float64
			for _, i := range order.Perm(len(x)) {
				l, _ := network.Train(xmath.Vec(in).With(x[i]...), xmath.Vec(out).With(targets[i]...))
				loss += l.Norm()
			}
			if math.IsNaN(loss) {
				return fmt.Errorf("loss at epoch %d: %w", e, ErrDiverged)
			}
		}
		m.net = network
		return nil
	})
}

func (m *Network) scale(v float64) float64 {
	if m.max == m.min {
		return 0
	}
	return targetScale * (2*(v-m.min)/(m.max-m.min) - 1)
}

func (m *Network) unscale(v float64) float64 {
	if m.max == m.min {
		return m.min
	}
	return m.min + (v/targetScale+1)*(m.max-m.min)/2
}

func (m *Network) Predict(x [][]float64) ([]float64, error) {
	if m.net == nil {
		return nil, ErrNotFitted
	}
	y := make([]float64, len(x))
	for i, row := range x {
		out := m.net.Predict(xmath.Vec(len(row)).With(row...))
		if m.classify {
			if c := fmath.ArgMax(out); c >= 0 {
				y[i] = float64(c)
			}
			continue
		}
		y[i] = m.unscale(out[0])
	}
	return y, finite(y)
}
