// Package main provides the Glint demo CLI.
//
// The demo synthesizes a test image, degrades it with a random
// inpainting mask and Gaussian noise, restores it with a plug-and-play
// solver driven by a gradient-step denoiser prior, and writes a PSNR
// convergence plot.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/glint-ml/glint/autodiff"
	"github.com/glint-ml/glint/backend/cpu"
	"github.com/glint-ml/glint/internal/serialization"
	"github.com/glint-ml/glint/models"
	"github.com/glint-ml/glint/physics"
	"github.com/glint-ml/glint/solver"
	"github.com/glint-ml/glint/tensor"
	"golang.org/x/exp/rand"
)

const version = "v0.3.1"

type adBackend = *autodiff.Backend[*cpu.Backend]

func main() {
	size := flag.Int("size", 32, "Side length of the synthetic test image")
	maskRate := flag.Float64("rate", 0.7, "Probability of keeping each pixel")
	sigma := flag.Float64("sigma", 0.05, "Gaussian noise standard deviation")
	iterations := flag.Int("iters", 30, "PnP iterations")
	stepSize := flag.Float64("step", 1.0, "Proximal step size gamma")
	lambda := flag.Float64("lambda", 0.5, "Regularization weight")
	seed := flag.Uint64("seed", 42, "Random seed for mask and noise")
	plotPath := flag.String("plot", "psnr.png", "Output path for the PSNR convergence plot")
	physicsPath := flag.String("physics", "", "Optional path to save the physics state dict")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("glint %s\n", version)
		return
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	backend := autodiff.New(cpu.New())
	src := rand.NewSource(*seed)

	logger.Info().
		Int("size", *size).
		Float64("mask_rate", *maskRate).
		Float64("sigma", *sigma).
		Msg("building inverse problem")

	truth := syntheticImage(*size, backend)

	op := physics.NewInpainting(physics.InpaintingConfig[adBackend]{
		TensorSize: tensor.Shape{1, *size, *size},
		MaskRate:   *maskRate,
		Pixelwise:  true,
		Noise:      physics.NewGaussianNoise[adBackend](*sigma, src),
		Src:        src,
	}, backend)

	y := op.Forward(truth)
	logger.Info().
		Float32("psnr_measurements", solver.PSNR(y, truth, 1)).
		Msg("measurements generated")

	prior := models.NewGradStepDenoiser[adBackend](
		models.NewDnCNN[adBackend](1, 16, 5, backend), backend)

	pnp := solver.NewPnP(prior, solver.PnPConfig{
		Iterations:   *iterations,
		StepSize:     float32(*stepSize),
		Lambda:       float32(*lambda),
		Sigma:        float32(*sigma),
		KeepIterates: true,
	}, backend)

	result, err := pnp.Solve(y, op)
	if err != nil {
		logger.Fatal().Err(err).Msg("reconstruction failed")
	}

	psnrs := make([]float32, len(result.Iterates))
	for i, x := range result.Iterates {
		psnrs[i] = solver.PSNR(x, truth, 1)
	}

	logger.Info().
		Int("iterations", result.Iterations).
		Float32("residual", result.Residuals[len(result.Residuals)-1]).
		Float32("objective", result.Objectives[len(result.Objectives)-1]).
		Float32("psnr", psnrs[len(psnrs)-1]).
		Msg("reconstruction finished")

	if err := savePSNRPlot(*plotPath, psnrs); err != nil {
		logger.Fatal().Err(err).Str("path", *plotPath).Msg("failed to write plot")
	}
	logger.Info().Str("path", *plotPath).Msg("wrote convergence plot")

	if *physicsPath != "" {
		if err := savePhysics(*physicsPath, op, backend); err != nil {
			logger.Fatal().Err(err).Str("path", *physicsPath).Msg("failed to save physics")
		}
		logger.Info().Str("path", *physicsPath).Msg("saved and verified physics state")
	}
}

// syntheticImage builds a smooth test pattern with values in [0, 1].
func syntheticImage(size int, backend adBackend) *tensor.Tensor[float32, adBackend] {
	img := tensor.Zeros[float32](tensor.Shape{1, 1, size, size}, backend)
	data := img.Data()
	for h := 0; h < size; h++ {
		for w := 0; w < size; w++ {
			u := float64(h) / float64(size)
			v := float64(w) / float64(size)
			val := 0.5 + 0.25*math.Sin(4*math.Pi*u) + 0.25*math.Cos(6*math.Pi*v)
			data[h*size+w] = float32(val)
		}
	}
	return img
}

// savePSNRPlot writes the PSNR-per-iteration curve as a PNG.
func savePSNRPlot(path string, psnrs []float32) error {
	p := plot.New()
	p.Title.Text = "PnP inpainting convergence"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "PSNR (dB)"

	pts := make(plotter.XYs, len(psnrs))
	for i, v := range psnrs {
		pts[i].X = float64(i + 1)
		pts[i].Y = float64(v)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(plotter.NewGrid(), line)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// savePhysics persists the operator's state dict and reads it back to
// confirm the roundtrip.
func savePhysics(path string, op *physics.Inpainting[adBackend], backend adBackend) error {
	if err := serialization.SaveStateDict(path, op.StateDict(), "Inpainting", nil); err != nil {
		return err
	}

	stateDict, _, err := serialization.LoadStateDict(path, backend)
	if err != nil {
		return err
	}
	return op.LoadStateDict(stateDict)
}
