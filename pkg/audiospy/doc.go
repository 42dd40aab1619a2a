// ABOUTME: High-level audiospy library API
// ABOUTME: Provides simple Player and Server APIs for most use cases
// Package audiospy provides high-level APIs for audiospy streaming.
//
// This is the main entry point for most library users, providing:
//   - Server: Capture audio and stream it to one client at a time
//   - Player: Connect to a server and play its stream
//   - Discover: Find servers advertised on the local network
//
// For lower-level control, see the audio, capture, output, protocol and
// transport packages.
//
// Example Player:
//
//	player, err := audiospy.NewPlayer(audiospy.PlayerConfig{
//	    ServerAddr: "192.168.1.20:5000",
//	})
//	err = player.Play()
//
// Example Server:
//
//	server, err := audiospy.NewServer(audiospy.ServerConfig{
//	    Port:   5000,
//	    Source: mySource,
//	})
//	err = server.Start()
package audiospy
