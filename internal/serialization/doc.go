// Package serialization saves and loads trained network weights.
//
// A weight file is a small binary container:
//
//	Format Structure:
//	  [0x00-0x03: Magic "EVNN"]
//	  [0x04-0x07: Version (uint32 LE)]
//	  [0x08-0x0B: Flags (uint32 LE)]
//	  [0x0C-0x0F: Reserved]
//	  [0x10-0x17: Header Size (uint64 LE)]
//	  [0x18-0x1F: Data Size (uint64 LE)]
//	  [0x20-0x3F: SHA-256 of the data section]
//	  [Header: JSON metadata]
//	  [Weight data: float64 LE, row-major, 64-byte aligned]
//
// The header records the topology and network settings, so a file can be
// turned back into a network bound to any data set of the same width.
//
// Example usage:
//
//	if err := serialization.SaveFile("best.evnn", net, map[string]string{"method": "de"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	f, err := serialization.LoadFile("best.evnn")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	net, err = f.Network(samples)
package serialization
