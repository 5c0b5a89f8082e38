// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command physyn is the debug shell around the transform registry:
// it loads a YAML harness design, runs one transform against it and
// reports the mutation count.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rajarshiroy/OpenPhySyn/config"
	"github.com/rajarshiroy/OpenPhySyn/phy"
	"github.com/rajarshiroy/OpenPhySyn/transform"
	"github.com/rajarshiroy/OpenPhySyn/transform/pinswap"
	"github.com/rajarshiroy/OpenPhySyn/transform/repair"
)

func registry() *transform.Registry {
	r := transform.NewRegistry()
	r.Register(repair.TimingBuffer{})
	r.Register(repair.BufferResize{})
	r.Register(pinswap.PinSwap{})
	return r
}

func main() {
	log := logrus.New()
	var logLevel string
	var optionsPath string
	var journalPath string

	root := &cobra.Command{
		Use:           "physyn",
		Short:         "physical-synthesis transform shell",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logrus level")

	reg := registry()

	listCmd := &cobra.Command{
		Use:   "transforms",
		Short: "list registered transforms",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range reg.Names() {
				t, _ := reg.Lookup(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n\t%s\n", name, t.Help())
			}
		},
	}

	runCmd := &cobra.Command{
		Use:   "run <design.yaml> <transform> [-- args...]",
		Short: "run one transform against a harness design",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			design, err := config.LoadDesign(args[0])
			if err != nil {
				return err
			}
			name := args[1]
			targs := args[2:]
			if len(targs) == 0 && optionsPath != "" {
				opts, err := config.LoadOptions(optionsPath)
				if err != nil {
					return err
				}
				targs = opts.Args()
			}

			h := phy.NewHandler(design, log)
			ctx := transform.NewContext(h)
			count, err := reg.Run(ctx, name, targs)
			if count < 0 {
				if err != nil {
					return err
				}
				return fmt.Errorf("%s failed", name)
			}
			if err != nil {
				log.Warnf("%s finished with: %v", name, err)
			}
			if journalPath != "" {
				f, err := os.Create(journalPath)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := ctx.Journal.Dump(f); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d mutations (journal digest %016x)\n", count, ctx.Journal.Digest())
			return nil
		},
	}
	runCmd.Flags().StringVar(&optionsPath, "options", "", "YAML defaults for timing_buffer arguments")
	runCmd.Flags().StringVar(&journalPath, "journal", "", "write the zstd mutation journal here")

	root.AddCommand(listCmd, runCmd)
	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
