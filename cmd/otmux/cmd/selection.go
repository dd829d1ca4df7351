package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/experiment"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/mux"
)

// selection holds the flags that pick which multiplexer to build. build and
// run share it.
type selection struct {
	preset    string
	size      int
	data      string
	sel       int
	uncompute bool
	noPrepare bool
}

func (s *selection) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.preset, "preset", "p", "",
		"demonstration preset (see 'otmux presets')")
	cmd.Flags().IntVarP(&s.size, "size", "n", 4,
		"number of data inputs (power of two)")
	cmd.Flags().StringVarP(&s.data, "data", "d", "",
		"data input values, D0 first (e.g. 1,0,1,0 or 1010); default all 0")
	cmd.Flags().IntVarP(&s.sel, "select", "s", 0,
		"select value routed to the output")
	cmd.Flags().BoolVar(&s.uncompute, "uncompute", false,
		"restore the data lines after copying the output")
	cmd.Flags().BoolVar(&s.noPrepare, "no-prepare", false,
		"omit the X gates that load data and select values")
}

func (s *selection) reset() {
	*s = selection{size: 4}
}

func (s *selection) options() []mux.Option {
	var opts []mux.Option
	if s.uncompute {
		opts = append(opts, mux.WithUncompute())
	}
	if s.noPrepare {
		opts = append(opts, mux.WithoutPreparation())
	}
	return opts
}

// request resolves the flags into an experiment request.
func (s *selection) request(shots int) (experiment.Request, error) {
	if s.preset != "" {
		p, err := mux.LookupPreset(s.preset)
		if err != nil {
			return experiment.Request{}, err
		}
		return experiment.FromPreset(p, shots, s.options()...), nil
	}

	data := make([]bool, min(max(s.size, 0), mux.MaxDataCount))
	if s.data != "" {
		var err error
		data, err = mux.ParseBits(s.data)
		if err != nil {
			return experiment.Request{}, fmt.Errorf("invalid --data: %w", err)
		}
		if len(data) != s.size {
			return experiment.Request{}, fmt.Errorf("--data has %d values, --size is %d", len(data), s.size)
		}
	}
	return experiment.Request{
		DataCount: s.size,
		Data:      data,
		Select:    s.sel,
		Shots:     shots,
		Options:   s.options(),
	}, nil
}
