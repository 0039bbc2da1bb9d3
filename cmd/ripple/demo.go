package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ripple-ml/ripple/backend/cpu"
	"github.com/ripple-ml/ripple/dataset"
	"github.com/ripple-ml/ripple/nn"
	"github.com/ripple-ml/ripple/optim"
	"github.com/ripple-ml/ripple/train"
)

// newDemoCmd trains a small network on the XOR problem, the engine's
// smoke test: the problem is not linearly separable, so a falling loss
// proves gradients flow through the hidden layer.
func newDemoCmd() *cobra.Command {
	var epochs int
	var savePath string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Train a small XOR network",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend := cpu.New()
			x, y := dataset.XOR(backend)

			model := nn.NewSequential[*cpu.Backend]("xor",
				nn.NewLinear(2, 8, true, backend),
				nn.NewTanh[*cpu.Backend](),
				nn.NewLinear(8, 1, true, backend),
				nn.NewSigmoid[*cpu.Backend]())

			trainer := train.NewTrainer[*cpu.Backend](model,
				nn.NewMSELoss[*cpu.Backend](),
				optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.05}),
				train.TrainerConfig[*cpu.Backend]{Progress: true})

			dl, err := train.NewDataLoader(x, y, train.DataLoaderConfig{BatchSize: 4})
			if err != nil {
				return err
			}
			if err := trainer.Train(cmd.Context(), dl, nil, epochs); err != nil {
				return err
			}

			history := trainer.History("loss")
			fmt.Printf("final loss after %d epochs: %.4f\n", len(history), history[len(history)-1])

			out := model.Forward(x).Data()
			for i, want := range y.Data() {
				fmt.Printf("  %v %v -> %.3f (want %v)\n", x.At(i, 0), x.At(i, 1), out[i], want)
			}

			if savePath != "" {
				if err := nn.Save[*cpu.Backend](model, savePath, nn.SaveOptions{}); err != nil {
					return err
				}
				fmt.Printf("model saved to %s\n", savePath)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&epochs, "epochs", 500, "Number of training epochs")
	cmd.Flags().StringVarP(&savePath, "output", "o", "", "Save the trained model to this path")
	return cmd
}
