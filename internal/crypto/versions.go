package crypto

import "fmt"

// CurrentFileVersion is stamped into every export file header. Import rejects
// anything newer.
const CurrentFileVersion uint32 = 1

// pbkdf2Iterations maps an export-file format version to the PBKDF2 iteration
// count its blobs were produced with. Encryption always uses the current
// version's count; decryption must accept any historical count so blobs from
// older builds keep working. Append-only: never change an existing entry.
var pbkdf2Iterations = map[uint32]uint32{
	1: 100_000,
}

// CurrentIterations returns the iteration count used for all new encryptions.
func CurrentIterations() uint32 {
	return pbkdf2Iterations[CurrentFileVersion]
}

// IterationsForVersion returns the iteration count for blobs written by the
// given file version.
func IterationsForVersion(version uint32) (uint32, error) {
	n, ok := pbkdf2Iterations[version]
	if !ok {
		return 0, fmt.Errorf("unknown file version %d", version)
	}
	return n, nil
}
