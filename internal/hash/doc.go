// Package hash provides the CRC32-Castagnoli checksums that guard every
// persisted artifact (vector store files, spill segments, merged indexes).
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For streaming writes, wrap the destination and append the sum at the end:
//
//	cw := hash.NewWriter(w)
//	cw.Write(body)
//	binary.Write(w, binary.LittleEndian, cw.Sum32())
package hash
