// Package nn provides the neural network building blocks of the Ripple
// engine: modules, parameters, losses, metrics and persistence.
//
// # Modules
//
// Every layer implements Module. Forward computes the output and, in
// training mode, captures a backward continuation; Backward invokes
// that continuation once with the output gradient and returns the input
// gradient. There is no global tape: containers such as Sequential
// replay their children's continuations in reverse order.
//
//	backend := cpu.New()
//	model := nn.NewSequential[*cpu.Backend]("mlp",
//	    nn.NewLinear(2, 8, true, backend),
//	    nn.NewTanh[*cpu.Backend](),
//	    nn.NewLinear(8, 1, true, backend))
//
//	model.SetTraining(true)
//	yPred := model.Forward(x)
//
//	loss := nn.NewMSELoss[*cpu.Backend]()
//	lossVal := loss.Forward(yPred, y)
//	model.Backward(loss.Backward())
//
// Gradients accumulate into each parameter's gradient slot. The first
// write after Reset overwrites the slot; later writes add, so several
// forward/backward passes between optimizer steps sum their gradients.
//
// # Training and inference
//
// Modules start in inference mode. SetTraining toggles the whole
// subtree; inference forward passes capture nothing and discard any
// stale continuation. Backward outside training mode panics.
//
// # Persistence
//
// StateDict and LoadStateDict flatten a module tree into named raw
// tensors; Save and Load move that dictionary through the versioned
// binary model format with checksum verification.
package nn
