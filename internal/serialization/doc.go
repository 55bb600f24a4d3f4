// Package serialization stores state dictionaries in the .born container.
//
//	Format Structure (version 2):
//	  [0x00 4 bytes: Magic "BORN"]
//	  [0x04 4 bytes: Version (uint32 LE)]
//	  [0x08 4 bytes: Flags (uint32 LE)]
//	  [0x0C 4 bytes: Reserved]
//	  [0x10 8 bytes: Header Size (uint64 LE)]
//	  [0x18 8 bytes: Data Size (uint64 LE)]
//	  [0x20 32 bytes: SHA-256 of the data section]
//	  [Header: JSON metadata]
//	  [Tensor data: little-endian float32, 64-byte aligned]
//
// Example usage:
//
//	// Save
//	if err := serialization.Save("best", net.StateDict(), serialization.Header{ModelType: "SearchNetwork"}); err != nil {
//	    return err
//	}
//
//	// Load
//	stateDict, header, err := serialization.Load("best")
//	if err != nil {
//	    return err
//	}
//	err = net.LoadStateDict(stateDict)
package serialization
