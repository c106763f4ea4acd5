// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 lidarscope authors

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neatokit/lidarscope/pkg/xv11"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Display decoded LIDAR frames in human-readable format",
	Long: `Continuously decode and display XV-11 frames as they arrive.

Each frame is shown with its timestamp, frame index, spin speed and the
four angular readings, including per-reading error flags. Checksum
failures and resync events appear inline as error lines.

Supports both serial and WebSocket connections.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Lidarscope - Live Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	driver := xv11.NewDriver(xv11.Config{})
	msgs := make(chan xv11.Message, 64)
	go driver.RunWithPort(conn, msgs, nil)

	for msg := range msgs {
		fmt.Print(xv11.FormatMessage(msg))
	}
	return nil
}
