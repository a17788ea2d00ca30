package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var fetchgeoCounties bool

var fetchgeoCmd = &cobra.Command{
	Use:   "fetchgeo",
	Short: "Download and cache the Census cartographic boundary files",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		src := newBoundarySource()
		p := message.NewPrinter(language.English)

		states, err := src.States(ctx)
		if err != nil {
			return err
		}
		p.Printf("State boundaries: %d shapes cached under %s\n", len(states), cfg.Census.CacheDir)

		if fetchgeoCounties {
			counties, err := src.Counties(ctx)
			if err != nil {
				return err
			}
			p.Printf("County boundaries: %d shapes\n", len(counties))
		}

		zap.L().Info("boundary cache warm", zap.String("dir", cfg.Census.CacheDir))
		return nil
	},
}

func init() {
	fetchgeoCmd.Flags().BoolVar(&fetchgeoCounties, "counties", false, "also fetch the county boundary file")
	rootCmd.AddCommand(fetchgeoCmd)
}
