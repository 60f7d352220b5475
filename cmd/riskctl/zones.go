package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/geo"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/kinematics"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/render"
)

func newZonesCmd() *cobra.Command {
	var lat, lng float64
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "Print the safety zones around a position as GeoJSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !geo.IsValidCoordinate(lat, lng) {
				return fmt.Errorf("invalid position %g,%g", lat, lng)
			}
			zones := collision.BuildZones(kinematics.State{LatDeg: lat, LngDeg: lng})
			return writeJSON(cmd.OutOrStdout(), render.ZonesFeatureCollection(zones))
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude in degrees")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}
