package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ripple-ml/ripple/internal/serialization"
)

// newInspectCmd prints the header of a saved model without loading the
// tensor data.
func newInspectCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "inspect <model.rpl>",
		Short: "Show the contents of a saved model file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := serialization.NewReader(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			header := r.Header()
			fmt.Printf("model type:     %s\n", header.ModelType)
			fmt.Printf("format version: %d\n", header.FormatVersion)
			fmt.Printf("created:        %s\n", header.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			fmt.Printf("checksum:       %s\n", header.Checksum)

			if len(header.Metadata) > 0 {
				fmt.Println("metadata:")
				keys := make([]string, 0, len(header.Metadata))
				for k := range header.Metadata {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf("  %s: %s\n", k, header.Metadata[k])
				}
			}

			fmt.Printf("tensors (%d):\n", len(header.Tensors))
			var total int64
			for _, t := range header.Tensors {
				fmt.Printf("  %-24s %-8s %v (%d bytes)\n", t.Name, t.DType, t.Shape, t.Size)
				total += t.Size
			}
			fmt.Printf("data section:   %d bytes\n", total)

			if verify {
				if _, err := r.ReadStateDict(); err != nil {
					return fmt.Errorf("verification failed: %w", err)
				}
				fmt.Println("checksum OK")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Read the data section and verify the checksum")
	return cmd
}
